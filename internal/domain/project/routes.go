package project

import "github.com/gin-gonic/gin"

// RegisterRoutes registers project routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	projects := r.Group("/projects")
	{
		projects.POST("", handler.Submit)
		projects.GET("", handler.List)
		projects.GET("/:id", handler.Get)
		projects.POST("/:id/approve", handler.Approve)
		projects.POST("/:id/reject", handler.Reject)
		projects.POST("/:id/link-client", handler.LinkClient)
		projects.PATCH("/:id/commission", handler.UpdateCommission)
		projects.POST("/:id/approval-email", handler.SendApprovalEmail)
	}
}
