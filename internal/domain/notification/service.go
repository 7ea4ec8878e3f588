package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/metrics"
)

// Sender delivers an email. Implementations live outside the core.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Outbox is the email sink used by lifecycle operations.
type Outbox struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewOutbox(db *gorm.DB, m *metrics.Metrics) *Outbox {
	return &Outbox{db: db, metrics: m}
}

// Enqueue writes e using tx so the send-intent commits or rolls back with the caller's batch.
func (o *Outbox) Enqueue(tx *gorm.DB, e *Email) error {
	if strings.TrimSpace(e.To) == "" || strings.TrimSpace(e.Subject) == "" {
		return fmt.Errorf("enqueue email: recipient and subject are required: %w", domain.ErrValidation)
	}
	e.Status = StatusQueued
	if err := tx.Create(e).Error; err != nil {
		return database.Classify(err, "email_outbox", "create", e)
	}
	o.metrics.ObserveEmailEnqueued()
	return nil
}

// ListQueued returns undelivered emails, oldest first.
func (o *Outbox) ListQueued(ctx context.Context, limit int) ([]Email, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []Email
	err := o.db.WithContext(ctx).
		Where("status = ?", StatusQueued).
		Order("created_at asc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListForProject returns every email queued for a project.
func (o *Outbox) ListForProject(ctx context.Context, projectID string) ([]Email, error) {
	var out []Email
	err := o.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at asc").Find(&out).Error
	return out, err
}

// MarkSent flags a queued email as delivered. Already-sent rows are left untouched.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res := o.db.WithContext(ctx).Model(&Email{}).
		Where("id = ? AND status = ?", id, StatusQueued).
		Updates(map[string]any{"status": StatusSent, "sent_at": now})
	if res.Error != nil {
		return database.Classify(res.Error, "email_outbox", "update", id)
	}
	return nil
}

// Flush hands queued emails to sender and marks each delivered one as sent.
// A failed send stops the flush so ordering is preserved on retry.
func (o *Outbox) Flush(ctx context.Context, sender Sender, limit int) (int, error) {
	queued, err := o.ListQueued(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, e := range queued {
		if err := sender.Send(ctx, e); err != nil {
			return sent, fmt.Errorf("send email %s: %w", e.ID, err)
		}
		if err := o.MarkSent(ctx, e.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// LogSender writes emails to the structured log instead of delivering them.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	l.Info("email dispatched", "id", e.ID, "type", e.Type, "to", e.To, "subject", e.Subject)
	return nil
}
