package assignment

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain/lifecycle"
	"scholarcrm/internal/middleware"
	"scholarcrm/internal/pkg/response"
)

type AssignRequest struct {
	StaffID string `json:"staff_id" validate:"required"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Assign returns a handler for POST /api/v1/{leads,projects,tasks}/:id/assign.
func (h *Handler) Assign(entity lifecycle.Entity) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.MustActor(c)
		if !ok {
			return
		}

		var req AssignRequest
		if !response.BindJSON(c, &req) {
			return
		}

		res, err := h.service.Assign(c.Request.Context(), actor, entity, c.Param("id"), req.StaffID)
		if err != nil {
			response.FromError(c, err)
			return
		}

		response.Success(c, http.StatusOK, res)
	}
}
