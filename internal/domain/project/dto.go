package project

import (
	"time"

	"scholarcrm/internal/domain/lifecycle"
)

// SubmitRequest is the client intake form.
type SubmitRequest struct {
	Title             string     `json:"title" validate:"required"`
	ServiceType       string     `json:"service_type" validate:"required"`
	Topic             string     `json:"topic"`
	CourseLevel       string     `json:"course_level"`
	Deadline          *time.Time `json:"deadline"`
	PageCount         int        `json:"page_count" validate:"gte=0"`
	WordCount         int        `json:"word_count" validate:"gte=0"`
	Language          string     `json:"language"`
	ReferencingStyle  string     `json:"referencing_style"`
	SynopsisFileURL   string     `json:"synopsis_file_url" validate:"omitempty,url"`
	WantsPublication  bool       `json:"wants_publication"`
	PublicationTarget string     `json:"publication_target"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type LinkClientRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

// CommissionEdit changes attribution amounts only; nil leaves a field as is.
type CommissionEdit struct {
	CommissionAmount      *int64 `json:"commission_amount" validate:"omitempty,gte=0"`
	SalesCommissionAmount *int64 `json:"sales_commission_amount" validate:"omitempty,gte=0"`
}

// Filter narrows project listings. Zero values are ignored.
type Filter struct {
	Status              lifecycle.Status
	ClientID            string
	AssignedSalesID     string
	AssignedWriterID    string
	ReferredByPartnerID string
	Limit               int
	Offset              int
}

type ListResponse struct {
	Projects []Project `json:"projects"`
	Total    int64     `json:"total"`
}
