package project

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"scholarcrm/internal/domain"
	"scholarcrm/internal/domain/lifecycle"
)

// FinalizedStatuses are the statuses in which deal terms are fixed and commission is owed.
var FinalizedStatuses = []lifecycle.Status{
	lifecycle.StatusApproved,
	lifecycle.StatusInProgress,
	lifecycle.StatusCompleted,
}

// Project is a piece of client work, either submitted by the client or materialised from a
// converted lead.
type Project struct {
	ID          string           `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      domain.ClientRef `json:"user_id" gorm:"column:user_id;type:varchar(340);not null;index"`
	Title       string           `json:"title" gorm:"not null"`
	ServiceType string           `json:"service_type"`

	// Intake
	Topic             string     `json:"topic,omitempty"`
	CourseLevel       string     `json:"course_level,omitempty"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	PageCount         int        `json:"page_count,omitempty"`
	WordCount         int        `json:"word_count,omitempty"`
	Language          string     `json:"language,omitempty"`
	ReferencingStyle  string     `json:"referencing_style,omitempty"`
	SynopsisFileURL   string     `json:"synopsis_file_url,omitempty"`
	WantsPublication  bool       `json:"wants_publication"`
	PublicationTarget string     `json:"publication_target,omitempty"`

	Status           lifecycle.Status `json:"status" gorm:"type:varchar(16);not null;index"`
	AssignedSalesID  *string          `json:"assigned_sales_id,omitempty" gorm:"type:varchar(64);index"`
	AssignedWriterID *string          `json:"assigned_writer_id,omitempty" gorm:"type:varchar(64);index"`

	// Finalization, set together at pending -> approved.
	DealAmount           *int64     `json:"deal_amount,omitempty"`
	AdvanceReceived      *int64     `json:"advance_received,omitempty"`
	FinalDeadline        *time.Time `json:"final_deadline,omitempty"`
	DiscussionNotes      string     `json:"discussion_notes,omitempty" gorm:"type:text"`
	PaymentScreenshotURL string     `json:"payment_screenshot_url,omitempty"`
	FinalizedAt          *time.Time `json:"finalized_at,omitempty"`
	FinalizedBy          *string    `json:"finalized_by,omitempty" gorm:"type:varchar(64);index"`

	// Attribution
	ReferredByPartnerID   *string `json:"referred_by_partner_id,omitempty" gorm:"type:varchar(64);index"`
	CommissionAmount      *int64  `json:"commission_amount,omitempty"`
	SalesCommissionAmount *int64  `json:"sales_commission_amount,omitempty"`
	SourceLeadID          *string `json:"source_lead_id,omitempty" gorm:"type:varchar(36);uniqueIndex"`

	RejectionReason   string    `json:"rejection_reason,omitempty" gorm:"type:text"`
	ApprovalEmailSent bool      `json:"approval_email_sent" gorm:"not null;default:false"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (Project) TableName() string {
	return "projects"
}

func (p *Project) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = lifecycle.Initial(lifecycle.EntityProject)
	}
	return nil
}

// IsFinalized reports whether the project is past approval.
func (p *Project) IsFinalized() bool {
	for _, s := range FinalizedStatuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// HasFinalization reports whether deal amount, finalization time and finalizer are all set.
func (p *Project) HasFinalization() bool {
	return p.DealAmount != nil && p.FinalizedAt != nil && p.FinalizedBy != nil && *p.FinalizedBy != ""
}

// Finalization holds the deal terms agreed with the client.
type Finalization struct {
	DealAmount            int64     `json:"deal_amount"`
	AdvanceReceived       *int64    `json:"advance_received"`
	FinalDeadline         time.Time `json:"final_deadline"`
	DiscussionNotes       string    `json:"discussion_notes"`
	PaymentScreenshotURL  string    `json:"payment_screenshot_url"`
	SalesCommissionAmount *int64    `json:"sales_commission_amount"`
}

// Complete reports whether the terms are sufficient to approve a deal.
func (f Finalization) Complete() bool {
	if f.DealAmount <= 0 || f.AdvanceReceived == nil || f.FinalDeadline.IsZero() {
		return false
	}
	if f.SalesCommissionAmount != nil && *f.SalesCommissionAmount < 0 {
		return false
	}
	return *f.AdvanceReceived >= 0 && *f.AdvanceReceived <= f.DealAmount
}

// Apply stamps the terms onto p as finalized by actorID at now.
func (f Finalization) Apply(p *Project, actorID string, now time.Time) {
	deal := f.DealAmount
	advance := *f.AdvanceReceived
	deadline := f.FinalDeadline
	by := actorID

	p.DealAmount = &deal
	p.AdvanceReceived = &advance
	p.FinalDeadline = &deadline
	p.DiscussionNotes = f.DiscussionNotes
	p.PaymentScreenshotURL = f.PaymentScreenshotURL
	p.FinalizedAt = &now
	p.FinalizedBy = &by
	if f.SalesCommissionAmount != nil {
		v := *f.SalesCommissionAmount
		p.SalesCommissionAmount = &v
	}
}

func (f Finalization) columns(actorID string, now time.Time) map[string]any {
	cols := map[string]any{
		"deal_amount":            f.DealAmount,
		"advance_received":       *f.AdvanceReceived,
		"final_deadline":         f.FinalDeadline,
		"discussion_notes":       f.DiscussionNotes,
		"payment_screenshot_url": f.PaymentScreenshotURL,
		"finalized_at":           now,
		"finalized_by":           actorID,
	}
	if f.SalesCommissionAmount != nil {
		cols["sales_commission_amount"] = *f.SalesCommissionAmount
	}
	return cols
}
