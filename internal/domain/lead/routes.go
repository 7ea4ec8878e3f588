package lead

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers public lead routes
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/leads", handler.SubmitLead)
}

// RegisterRoutes registers authenticated lead routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	leads := r.Group("/leads")
	{
		leads.POST("/referral", handler.SubmitReferral)
		leads.GET("", handler.ListLeads)
		leads.GET("/stats", handler.GetStats)
		leads.GET("/:id", handler.GetLead)
		leads.POST("/:id/contacted", handler.MarkContacted)
		leads.POST("/:id/convert", handler.ConvertLead)
	}
}
