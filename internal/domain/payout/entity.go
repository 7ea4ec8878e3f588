package payout

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Payout is a partner's withdrawal request. Paid payouts are final.
type Payout struct {
	ID          string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string     `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Amount      int64      `json:"amount" gorm:"not null;check:amount > 0"`
	Status      Status     `json:"status" gorm:"type:varchar(16);not null;index;check:status IN ('pending','paid')"`
	RequestDate time.Time  `json:"request_date" gorm:"not null"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PaidBy      *string    `json:"paid_by,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (Payout) TableName() string {
	return "payouts"
}

func (p *Payout) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	if p.RequestDate.IsZero() {
		p.RequestDate = time.Now().UTC()
	}
	return nil
}

// Balance is a partner's derived payout position. Nothing here is stored.
type Balance struct {
	PartnerID string `json:"partner_id"`
	Earned    int64  `json:"earned"`
	Paid      int64  `json:"paid"`
	Pending   int64  `json:"pending"`
	// Available is earned minus paid, floored at zero.
	Available int64 `json:"available"`
	// Requestable is what a new request may still claim after pending requests.
	Requestable int64 `json:"requestable"`
	// Clamped is set when paid exceeds earned, e.g. after a commission was lowered.
	Clamped bool `json:"clamped,omitempty"`
}

func computeBalance(partnerID string, earned, paid, pending int64) Balance {
	b := Balance{PartnerID: partnerID, Earned: earned, Paid: paid, Pending: pending}
	b.Available = earned - paid
	if b.Available < 0 {
		b.Available = 0
		b.Clamped = true
	}
	b.Requestable = b.Available - pending
	if b.Requestable < 0 {
		b.Requestable = 0
	}
	return b
}
