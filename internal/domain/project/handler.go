package project

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

// Handler handles project HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates project handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Submit handles POST /api/v1/projects
func (h *Handler) Submit(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req SubmitRequest
	if !response.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, p)
}

// Get handles GET /api/v1/projects/:id
func (h *Handler) Get(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	p, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// List handles GET /api/v1/projects
func (h *Handler) List(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	f := Filter{
		Status:              lifecycle.Status(c.Query("status")),
		ClientID:            c.Query("client_id"),
		AssignedSalesID:     c.Query("assigned_sales_id"),
		AssignedWriterID:    c.Query("assigned_writer_id"),
		ReferredByPartnerID: c.Query("referred_by_partner_id"),
	}
	f.Limit, f.Offset = response.Page(c)

	projects, total, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, ListResponse{Projects: projects, Total: total})
}

// Approve handles POST /api/v1/projects/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var terms Finalization
	if err := c.ShouldBindJSON(&terms); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	p, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"), terms)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// Reject handles POST /api/v1/projects/:id/reject
func (h *Handler) Reject(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	p, err := h.service.Reject(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// LinkClient handles POST /api/v1/projects/:id/link-client
func (h *Handler) LinkClient(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req LinkClientRequest
	if !response.BindJSON(c, &req) {
		return
	}

	p, err := h.service.LinkClientAccount(c.Request.Context(), actor, c.Param("id"), req.UserID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// UpdateCommission handles PATCH /api/v1/projects/:id/commission
func (h *Handler) UpdateCommission(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req CommissionEdit
	if !response.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateCommission(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, p)
}

// SendApprovalEmail handles POST /api/v1/projects/:id/approval-email
func (h *Handler) SendApprovalEmail(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	p, queued, err := h.service.SendApprovalEmail(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"project": p, "queued": queued})
}
