package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Type identifies why an email was queued.
type Type string

const (
	TypeProjectApproved Type = "project_approved"
	TypePayoutPaid      Type = "payout_paid"
)

type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
)

// Email is a queued outbound message. Rows are written inside the same transaction as the
// state change that caused them; delivery happens out of band.
type Email struct {
	ID        string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	Type      Type       `json:"type" gorm:"type:varchar(32);not null;index"`
	To        string     `json:"to" gorm:"column:to_address;type:varchar(320);not null"`
	Subject   string     `json:"subject" gorm:"not null"`
	Body      string     `json:"body" gorm:"type:text;not null"`
	ProjectID *string    `json:"project_id,omitempty" gorm:"type:varchar(36);index"`
	Status    Status     `json:"status" gorm:"type:varchar(16);not null;default:queued;index"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

func (Email) TableName() string {
	return "email_outbox"
}

func (e *Email) BeforeCreate(_ *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = StatusQueued
	}
	return nil
}
