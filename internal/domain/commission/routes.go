package commission

import "github.com/gin-gonic/gin"

// RegisterRoutes registers statement routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/partners/:id/statement", handler.PartnerStatement)
	r.GET("/sales/:id/statement", handler.SalesStatement)
}
