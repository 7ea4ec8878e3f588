package assignment

import (
	"github.com/gin-gonic/gin"

	"scholarcrm/internal/domain/lifecycle"
)

// RegisterRoutes registers assignment routes for every assignable entity
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/leads/:id/assign", handler.Assign(lifecycle.EntityLead))
	r.POST("/projects/:id/assign", handler.Assign(lifecycle.EntityProject))
	r.POST("/tasks/:id/assign", handler.Assign(lifecycle.EntityTask))
}
