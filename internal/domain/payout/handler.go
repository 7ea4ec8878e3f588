package payout

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetBalance handles GET /api/v1/payouts/balance[?partner_id=]
func (h *Handler) GetBalance(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	partnerID := c.DefaultQuery("partner_id", actor.UID)
	b, err := h.service.AvailableBalance(c.Request.Context(), actor, partnerID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"balance": b, "min_payout": h.service.MinPayout()})
}

// RequestPayout handles POST /api/v1/payouts
func (h *Handler) RequestPayout(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var req RequestPayoutRequest
	if !response.BindJSON(c, &req) {
		return
	}

	p, err := h.service.RequestPayout(c.Request.Context(), actor, req.Amount)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, p)
}

// ListPayouts handles GET /api/v1/payouts. Admins get the pending queue with ?status=pending.
func (h *Handler) ListPayouts(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	var (
		payouts []Payout
		err     error
	)
	if Status(c.Query("status")) == StatusPending && c.Query("partner_id") == "" {
		payouts, err = h.service.ListPending(c.Request.Context(), actor)
	} else {
		payouts, err = h.service.List(c.Request.Context(), actor, c.Query("partner_id"))
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, PayoutListResponse{Payouts: payouts})
}

// MarkPaid handles POST /api/v1/payouts/:id/paid
func (h *Handler) MarkPaid(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	p, changed, err := h.service.MarkPaid(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"payout": p, "changed": changed})
}
