package lead

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

// Handler handles lead HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates lead handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SubmitLead handles POST /api/v1/leads (public contact form)
func (h *Handler) SubmitLead(c *gin.Context) {
	var req SubmitLeadRequest
	if !response.BindJSON(c, &req) {
		return
	}

	lead, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, lead)
}

// SubmitReferral handles POST /api/v1/leads/referral
func (h *Handler) SubmitReferral(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req SubmitLeadRequest
	if !response.BindJSON(c, &req) {
		return
	}

	lead, err := h.service.SubmitReferral(c.Request.Context(), actor, &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, lead)
}

// GetLead handles GET /api/v1/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, lead)
}

// ListLeads handles GET /api/v1/leads
func (h *Handler) ListLeads(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	f := Filter{
		Status:              lifecycle.Status(c.Query("status")),
		AssignedSalesID:     c.Query("assigned_sales_id"),
		ReferredByPartnerID: c.Query("referred_by_partner_id"),
	}
	f.Limit, f.Offset = response.Page(c)

	leads, total, err := h.service.List(c.Request.Context(), actor, f)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, LeadListResponse{Leads: leads, Total: total})
}

// GetStats handles GET /api/v1/leads/stats
func (h *Handler) GetStats(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// MarkContacted handles POST /api/v1/leads/:id/contacted
func (h *Handler) MarkContacted(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	lead, err := h.service.MarkContacted(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, lead)
}

// ConvertLead handles POST /api/v1/leads/:id/convert
func (h *Handler) ConvertLead(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var terms DealTerms
	if err := c.ShouldBindJSON(&terms); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return
	}

	lead, project, err := h.service.Convert(c.Request.Context(), actor, c.Param("id"), terms)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, ConvertResponse{Lead: lead, Project: project})
}
