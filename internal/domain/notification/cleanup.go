package notification

import (
	"context"
	"log/slog"
	"time"

	"scholarcrm/internal/database"
)

// PurgeSent removes delivered emails older than keep. Queued rows are never touched.
func (o *Outbox) PurgeSent(ctx context.Context, keep time.Duration) (int64, error) {
	start := time.Now()
	cutoff := start.UTC().Add(-keep)

	res := o.db.WithContext(ctx).
		Where("status = ? AND sent_at < ?", StatusSent, cutoff).
		Delete(&Email{})
	if res.Error != nil {
		return 0, database.Classify(res.Error, "email_outbox", "delete", nil)
	}

	slog.Default().Info("outbox purge completed",
		"component", "notification",
		"deleted", res.RowsAffected,
		"took", time.Since(start))
	return res.RowsAffected, nil
}
