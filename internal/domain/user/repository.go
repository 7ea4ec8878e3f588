package user

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholarcrm/internal/database"
	"scholarcrm/internal/domain"
)

// Repository handles user data access.
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

func (r *Repository) Create(ctx context.Context, u *UserProfile) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		return database.Classify(err, "users", "create", u.Email)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, uid string) (*UserProfile, error) {
	var u UserProfile
	if err := r.db.WithContext(ctx).Where("id = ?", uid).First(&u).Error; err != nil {
		return nil, database.Classify(err, "users", "get", uid)
	}
	return &u, nil
}

// GetByIDForUpdate locks the row for the remainder of the surrounding transaction.
func (r *Repository) GetByIDForUpdate(ctx context.Context, uid string) (*UserProfile, error) {
	var u UserProfile
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", uid).First(&u).Error
	if err != nil {
		return nil, database.Classify(err, "users", "get", uid)
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*UserProfile, error) {
	var u UserProfile
	if err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error; err != nil {
		return nil, database.Classify(err, "users", "get", email)
	}
	return &u, nil
}

func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*UserProfile, error) {
	var u UserProfile
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&u).Error; err != nil {
		return nil, database.Classify(err, "users", "get", code)
	}
	return &u, nil
}

// ListByIDs returns the profiles that exist among ids, keyed by uid.
func (r *Repository) ListByIDs(ctx context.Context, ids []string) (map[string]*UserProfile, error) {
	out := make(map[string]*UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []*UserProfile
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, database.Classify(err, "users", "query", ids)
	}
	for _, u := range users {
		out[u.UID] = u
	}
	return out, nil
}

// ListReferredBy returns clients who signed up with the given referral code.
func (r *Repository) ListReferredBy(ctx context.Context, code string) ([]*UserProfile, error) {
	var users []*UserProfile
	err := r.db.WithContext(ctx).Where("referred_by = ?", code).Find(&users).Error
	if err != nil {
		return nil, database.Classify(err, "users", "query", code)
	}
	return users, nil
}

func (r *Repository) ListByRole(ctx context.Context, role domain.Role) ([]*UserProfile, error) {
	var users []*UserProfile
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("created_at asc").Find(&users).Error
	if err != nil {
		return nil, database.Classify(err, "users", "query", role)
	}
	return users, nil
}

func (r *Repository) UpdateCommissionRate(ctx context.Context, uid string, rate int64) error {
	res := r.db.WithContext(ctx).Model(&UserProfile{}).Where("id = ?", uid).Update("commission_rate", rate)
	if res.Error != nil {
		return database.Classify(res.Error, "users", "update", map[string]any{"id": uid, "commission_rate": rate})
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
