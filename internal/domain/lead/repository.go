package lead

import (
	"context"
	"time"

	"gorm.io/gorm"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain/lifecycle"
)

const collection = "leads"

// Repository handles lead data access
type Repository struct {
	db *gorm.DB
}

// NewRepository creates lead repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create inserts a new lead
func (r *Repository) Create(ctx context.Context, l *ContactLead) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return database.Classify(err, collection, "create", l)
	}
	return nil
}

// GetByID retrieves lead by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*ContactLead, error) {
	var l ContactLead
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, database.Classify(err, collection, "get", id)
	}
	return &l, nil
}

// GetOpenWebsiteLead returns the newest unconverted website lead for email, if any.
func (r *Repository) GetOpenWebsiteLead(ctx context.Context, email string) (*ContactLead, error) {
	var l ContactLead
	err := r.db.WithContext(ctx).
		Where("email = ? AND source = ? AND status <> ?", email, SourceWebsite, lifecycle.StatusConverted).
		Order("created_at desc").
		First(&l).Error
	if err != nil {
		return nil, database.Classify(err, collection, "get", email)
	}
	return &l, nil
}

// List returns leads matching f
func (r *Repository) List(ctx context.Context, f Filter) ([]ContactLead, int64, error) {
	q := r.db.WithContext(ctx).Model(&ContactLead{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedSalesID != "" {
		q = q.Where("assigned_sales_id = ?", f.AssignedSalesID)
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

	var leads []ContactLead
	if err := q.Order("created_at desc").Limit(limit).Offset(f.Offset).Find(&leads).Error; err != nil {
		return nil, 0, database.Classify(err, collection, "query", f)
	}
	return leads, total, nil
}

// MarkContacted records a contact attempt and moves a new lead to contacted.
func (r *Repository) MarkContacted(ctx context.Context, id string, from lifecycle.Status) (bool, error) {
	now := time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&ContactLead{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":            lifecycle.StatusContacted,
			"last_contacted_at": now,
			"updated_at":        now,
		})
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", id)
	}
	return res.RowsAffected == 1, nil
}

// MarkConverted flips an open lead to converted while its sales assignment is still sales
// (unassigned when nil). It reports false when either changed underneath.
func (r *Repository) MarkConverted(ctx context.Context, id, projectID string, sales *string, at time.Time) (bool, error) {
	q := r.db.WithContext(ctx).Model(&ContactLead{}).
		Where("id = ? AND status IN ?", id, []lifecycle.Status{lifecycle.StatusNew, lifecycle.StatusContacted})
	if sales == nil {
		q = q.Where("(assigned_sales_id IS NULL OR assigned_sales_id = '')")
	} else {
		q = q.Where("assigned_sales_id = ?", *sales)
	}
	res := q.Updates(map[string]any{
		"status":               lifecycle.StatusConverted,
		"converted_at":         at,
		"converted_project_id": projectID,
		"updated_at":           at,
	})
	if res.Error != nil {
		return false, database.Classify(res.Error, collection, "update", map[string]any{"id": id, "project": projectID})
	}
	return res.RowsAffected == 1, nil
}

// CountByStatus returns lead counts by status
func (r *Repository) CountByStatus(ctx context.Context) (map[lifecycle.Status]int64, error) {
	var rows []struct {
		Status lifecycle.Status
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&ContactLead{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, database.Classify(err, collection, "query", "count by status")
	}

	counts := make(map[lifecycle.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
