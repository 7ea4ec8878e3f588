package notification

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the admin outbox endpoints. Callers guard the group.
func RegisterRoutes(admin *gin.RouterGroup, handler *Handler) {
	outbox := admin.Group("/outbox")
	{
		outbox.GET("", handler.ListQueued)
		outbox.GET("/projects/:id", handler.ListForProject)
		outbox.POST("/flush", handler.Flush)
	}
}
