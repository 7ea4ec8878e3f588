package project

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
)

const collection = "projects"

// Repository handles project data access.
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

func (r *Repository) Create(ctx context.Context, p *Project) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return database.Classify(err, collection, "create", p)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, database.Classify(err, collection, "get", id)
	}
	return &p, nil
}

// GetByIDForUpdate locks the row for the remainder of the surrounding transaction.
func (r *Repository) GetByIDForUpdate(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, database.Classify(err, collection, "get", id)
	}
	return &p, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Project, int64, error) {
	q := r.db.WithContext(ctx).Model(&Project{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != "" {
		q = q.Where("user_id = ?", f.ClientID)
	}
	if f.AssignedSalesID != "" {
		q = q.Where("assigned_sales_id = ?", f.AssignedSalesID)
	}
	if f.AssignedWriterID != "" {
		q = q.Where("assigned_writer_id = ?", f.AssignedWriterID)
	}
	if f.ReferredByPartnerID != "" {
		q = q.Where("referred_by_partner_id = ?", f.ReferredByPartnerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, database.Classify(err, collection, "query", f)
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var out []Project
	err := q.Order("created_at desc").Limit(limit).Offset(f.Offset).Find(&out).Error
	if err != nil {
		return nil, 0, database.Classify(err, collection, "query", f)
	}
	return out, total, nil
}

// ListFinalizedAttributable returns finalized projects that either name partnerID directly or
// belong to one of clientIDs. Precedence between the two paths is decided by the caller.
func (r *Repository) ListFinalizedAttributable(ctx context.Context, partnerID string, clientIDs []string) ([]Project, error) {
	q := r.db.WithContext(ctx).Where("status IN ?", FinalizedStatuses)
	if len(clientIDs) > 0 {
		q = q.Where("referred_by_partner_id = ? OR user_id IN ?", partnerID, clientIDs)
	} else {
		q = q.Where("referred_by_partner_id = ?", partnerID)
	}

	var out []Project
	if err := q.Order("finalized_at asc, id asc").Find(&out).Error; err != nil {
		return nil, database.Classify(err, collection, "query", partnerID)
	}
	return out, nil
}

// ListFinalizedBy returns finalized projects whose deal was struck by salesID.
func (r *Repository) ListFinalizedBy(ctx context.Context, salesID string) ([]Project, error) {
	var out []Project
	err := r.db.WithContext(ctx).
		Where("status IN ? AND finalized_by = ?", FinalizedStatuses, salesID).
		Order("finalized_at asc, id asc").
		Find(&out).Error
	if err != nil {
		return nil, database.Classify(err, collection, "query", salesID)
	}
	return out, nil
}

// UpdateIfStatus applies cols only while the project is still in status from.
// It reports whether the row was changed.
func (r *Repository) UpdateIfStatus(ctx context.Context, id string, from lifecycle.Status, cols map[string]any) (bool, error) {
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Project{}).Where("id = ? AND status = ?", id, from).Updates(cols)
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", cols)
	}
	return res.RowsAffected == 1, nil
}

// UpdateIfStatusAndSales is UpdateIfStatus that also requires the sales assignment to
// still be sales, or unassigned when sales is nil.
func (r *Repository) UpdateIfStatusAndSales(ctx context.Context, id string, from lifecycle.Status, sales *string, cols map[string]any) (bool, error) {
	cols["updated_at"] = time.Now().UTC()
	q := r.db.WithContext(ctx).Model(&Project{}).Where("id = ? AND status = ?", id, from)
	if sales == nil {
		q = q.Where("(assigned_sales_id IS NULL OR assigned_sales_id = '')")
	} else {
		q = q.Where("assigned_sales_id = ?", *sales)
	}
	res := q.Updates(cols)
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", cols)
	}
	return res.RowsAffected == 1, nil
}

// UpdateFields applies cols unconditionally.
func (r *Repository) UpdateFields(ctx context.Context, id string, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&Project{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return database.Classify(res.Error, collection, "update", cols)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkApprovalEmailSent flips the flag only if it was still false.
func (r *Repository) MarkApprovalEmailSent(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ? AND approval_email_sent = ?", id, false).
		Updates(map[string]any{"approval_email_sent": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", id)
	}
	return res.RowsAffected == 1, nil
}

// RelinkClient moves a project from one client identity to another, only if it still has from.
func (r *Repository) RelinkClient(ctx context.Context, id string, from, to domain.ClientRef) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Project{}).
		Where("id = ? AND user_id = ?", id, from).
		Updates(map[string]any{"user_id": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", map[string]any{"id": id, "user_id": to.String()})
	}
	return res.RowsAffected == 1, nil
}

// RelinkAllClient moves every project held by from to to.
func (r *Repository) RelinkAllClient(ctx context.Context, from, to domain.ClientRef) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Project{}).
		Where("user_id = ?", from).
		Updates(map[string]any{"user_id": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return 0, database.Classify(res.Error, collection, "update", map[string]any{"user_id": to.String()})
	}
	return res.RowsAffected, nil
}
