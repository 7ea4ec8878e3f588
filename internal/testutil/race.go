package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// AssignSalesBeforeNextUpdate commits a sales assignment on table row id right before the
// next update of that table executes, the way a manager's concurrent assignment would land
// between a service's read and its write.
func AssignSalesBeforeNextUpdate(t *testing.T, db *gorm.DB, table, id, salesID string) {
	t.Helper()

	fired := false
	err := db.Callback().Update().Before("gorm:update").Register("testutil:assign_sales_"+table, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != table {
			return
		}
		fired = true
		res := tx.Session(&gorm.Session{NewDB: true}).Exec(
			"UPDATE "+table+" SET assigned_sales_id = ?, updated_at = ? WHERE id = ? AND (assigned_sales_id IS NULL OR assigned_sales_id = '')",
			salesID, time.Now().UTC(), id,
		)
		require.NoError(t, res.Error)
		require.EqualValues(t, 1, res.RowsAffected)
	})
	require.NoError(t, err)
}
