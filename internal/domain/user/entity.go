package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
)

// UserProfile is an account of any role: clients, staff and referral partners.
type UserProfile struct {
	UID          string      `json:"uid" gorm:"column:id;type:varchar(64);primaryKey"`
	Role         domain.Role `json:"role" gorm:"type:varchar(32);not null;index"`
	Name         string      `json:"name" gorm:"not null"`
	Email        string      `json:"email" gorm:"type:varchar(320);not null;uniqueIndex"`
	Mobile       *string     `json:"mobile,omitempty" gorm:"type:varchar(32)"`
	PasswordHash string      `json:"-" gorm:"not null"`

	// ReferralCode is handed out by referral partners; clients who sign up with it
	// carry it in ReferredBy.
	ReferralCode *string `json:"referral_code,omitempty" gorm:"type:varchar(32);uniqueIndex"`
	ReferredBy   *string `json:"referred_by,omitempty" gorm:"type:varchar(32);index"`

	// CommissionRate is the default per-deal commission (INR) for a referral partner.
	CommissionRate int64 `json:"commission_rate" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "users"
}

func (u *UserProfile) BeforeCreate(_ *gorm.DB) error {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (u *UserProfile) Actor() domain.Actor {
	return domain.Actor{UID: u.UID, Role: u.Role}
}

func (u *UserProfile) IsPartner() bool {
	return u.Role == domain.RoleReferralPartner
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewReferralCode returns a short, human-typeable code.
func NewReferralCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SC" + strings.ToUpper(raw[:8])
}
