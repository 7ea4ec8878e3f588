package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
)

type account struct {
	ID    uint   `gorm:"primaryKey"`
	Email string `gorm:"uniqueIndex"`
	Code  string `gorm:"uniqueIndex"`
}

func TestIsUniqueViolation_SQLiteMatchesColumn(t *testing.T) {
	db, err := Connect(fmt.Sprintf("file:unique_%s?mode=memory&cache=shared", uuid.NewString()[:8]), Options{Silent: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&account{}))

	require.NoError(t, db.Create(&account{Email: "a@x.com", Code: "C1"}).Error)
	err = db.Create(&account{Email: "b@x.com", Code: "C1"}).Error
	require.Error(t, err)

	assert.True(t, IsUniqueViolation(err, UniqueKey{}))
	assert.True(t, IsUniqueViolation(err, UniqueKey{Index: "idx_accounts_code", Column: "accounts.code"}))
	assert.False(t, IsUniqueViolation(err, UniqueKey{Index: "idx_accounts_email", Column: "accounts.email"}))
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "idx_users_email"})

	assert.True(t, IsUniqueViolation(err, UniqueKey{}))
	assert.True(t, IsUniqueViolation(err, UniqueKey{Index: "idx_users_email", Column: "users.email"}))
	assert.False(t, IsUniqueViolation(err, UniqueKey{Index: "idx_users_referral_code", Column: "users.referral_code"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: pgInsufficientPrivilege}, UniqueKey{}))
}

func TestIsUniqueViolation_Other(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil, UniqueKey{}))
	assert.False(t, IsUniqueViolation(errors.New("disk full"), UniqueKey{}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey, UniqueKey{}))
	assert.False(t, IsUniqueViolation(gorm.ErrDuplicatedKey, UniqueKey{Index: "idx_users_email"}))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil, "leads", "get", nil))
	assert.ErrorIs(t, Classify(gorm.ErrRecordNotFound, "leads", "get", "L1"), domain.ErrNotFound)

	err := Classify(&pgconn.PgError{Code: pgInsufficientPrivilege}, "payouts", "create", map[string]any{"amount": 10})
	var denied *domain.PermissionDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "payouts", denied.Collection)
	assert.Equal(t, "create", denied.Operation)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)

	plain := errors.New("boom")
	assert.Same(t, plain, Classify(plain, "leads", "get", nil))
}
