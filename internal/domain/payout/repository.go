package payout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/database"
)

const collection = "payouts"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, p *Payout) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return database.Classify(err, collection, "create", p)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Payout, error) {
	var p Payout
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, database.Classify(err, collection, "get", id)
	}
	return &p, nil
}

// Sum totals the partner's payouts in status.
func (r *Repository) Sum(ctx context.Context, userID string, status Status) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&Payout{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND status = ?", userID, status).
		Scan(&total).Error
	if err != nil {
		return 0, database.Classify(err, collection, "query", userID)
	}
	return total, nil
}

// ListByUser returns the partner's payouts, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Payout, error) {
	var out []Payout
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("request_date desc").Find(&out).Error; err != nil {
		return nil, database.Classify(err, collection, "query", userID)
	}
	return out, nil
}

// ListByStatus returns payouts in status, oldest first.
func (r *Repository) ListByStatus(ctx context.Context, status Status) ([]Payout, error) {
	var out []Payout
	if err := r.db.WithContext(ctx).Where("status = ?", status).Order("request_date asc").Find(&out).Error; err != nil {
		return nil, database.Classify(err, collection, "query", status)
	}
	return out, nil
}

// MarkPaid flips a pending payout to paid. It reports false if the payout was not pending.
func (r *Repository) MarkPaid(ctx context.Context, id, adminID string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Payout{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]any{"status": StatusPaid, "paid_at": at, "paid_by": adminID})
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", id)
	}
	return res.RowsAffected == 1, nil
}
