package lead

import (
	"strings"
	"time"

	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/domain/project"
)

// SubmitLeadRequest is the public contact form and the partner referral form.
type SubmitLeadRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	ServiceType string `json:"service_type"`
	Message     string `json:"message"`
}

// DealTerms are agreed with the prospect at conversion time. Completeness is judged by
// Complete so a short body reports IncompleteDealTerms rather than a validation error.
type DealTerms struct {
	Title                 string    `json:"title"`
	ServiceType           string    `json:"service_type"`
	DealAmount            int64     `json:"deal_amount"`
	AdvanceReceived       *int64    `json:"advance_received"`
	FinalDeadline         time.Time `json:"final_deadline"`
	DiscussionNotes       string    `json:"discussion_notes"`
	PaymentScreenshotURL  string    `json:"payment_screenshot_url"`
	SalesCommissionAmount *int64    `json:"sales_commission_amount"`
}

// Complete reports whether the terms carry a title, a positive deal amount, an advance
// within the deal and a final deadline. Discussion notes are optional.
func (d DealTerms) Complete() bool {
	return strings.TrimSpace(d.Title) != "" && d.finalization().Complete()
}

func (d DealTerms) finalization() project.Finalization {
	return project.Finalization{
		DealAmount:            d.DealAmount,
		AdvanceReceived:       d.AdvanceReceived,
		FinalDeadline:         d.FinalDeadline,
		DiscussionNotes:       d.DiscussionNotes,
		PaymentScreenshotURL:  d.PaymentScreenshotURL,
		SalesCommissionAmount: d.SalesCommissionAmount,
	}
}

// Filter narrows lead listings. Zero values are ignored.
type Filter struct {
	Status              lifecycle.Status
	AssignedSalesID     string
	ReferredByPartnerID string
	Limit               int
	Offset              int
}

// LeadListResponse represents paginated list
type LeadListResponse struct {
	Leads []ContactLead `json:"leads"`
	Total int64         `json:"total"`
}

// ConvertResponse returns both sides of a conversion.
type ConvertResponse struct {
	Lead    *ContactLead     `json:"lead"`
	Project *project.Project `json:"project"`
}
