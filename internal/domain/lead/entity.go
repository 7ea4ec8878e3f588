package lead

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scholarcrm/internal/domain/lifecycle"
)

// Source tells where a lead came from.
type Source string

const (
	SourceWebsite  Source = "website"
	SourceReferral Source = "referral-partner"
)

// ContactLead is a prospect captured by the contact form or submitted by a referral partner.
// Leads are never deleted; conversion marks them converted and links the resulting project.
type ContactLead struct {
	ID          string `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Email       string `json:"email" gorm:"type:varchar(320);not null;index"`
	Phone       string `json:"phone" gorm:"type:varchar(32)"`
	ServiceType string `json:"service_type,omitempty"`
	Message     string `json:"message,omitempty" gorm:"type:text"`
	Source      Source `json:"source" gorm:"type:varchar(32);not null;default:website"`

	Status              lifecycle.Status `json:"status" gorm:"type:varchar(16);not null;index"`
	ReferredByPartnerID *string          `json:"referred_by_partner_id,omitempty" gorm:"type:varchar(64);index"`
	AssignedSalesID     *string          `json:"assigned_sales_id,omitempty" gorm:"type:varchar(64);index"`

	LastContactedAt    *time.Time `json:"last_contacted_at,omitempty"`
	ConvertedAt        *time.Time `json:"converted_at,omitempty"`
	ConvertedProjectID *string    `json:"converted_project_id,omitempty" gorm:"type:varchar(36)"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ContactLead) TableName() string {
	return "leads"
}

func (l *ContactLead) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = lifecycle.Initial(lifecycle.EntityLead)
	}
	return nil
}

// IsConverted returns true if lead was converted
func (l *ContactLead) IsConverted() bool {
	return l.Status == lifecycle.StatusConverted
}
