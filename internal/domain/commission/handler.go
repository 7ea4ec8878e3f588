package commission

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

// Handler serves commission statements.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// PartnerStatement handles GET /api/v1/partners/:id/statement
func (h *Handler) PartnerStatement(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	st, err := h.service.PartnerStatement(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, st)
}

// SalesStatement handles GET /api/v1/sales/:id/statement
func (h *Handler) SalesStatement(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		return
	}

	st, err := h.service.SalesStatement(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, st)
}
