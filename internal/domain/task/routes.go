package task

import "github.com/gin-gonic/gin"

// RegisterRoutes registers task routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.POST("/projects/:id/tasks", handler.CreateTask)
	r.GET("/projects/:id/tasks", handler.ListProjectTasks)

	tasks := r.Group("/tasks")
	{
		tasks.GET("/mine", handler.ListMine)
		tasks.GET("/:id", handler.GetTask)
		tasks.POST("/:id/start", handler.StartTask)
		tasks.POST("/:id/complete", handler.CompleteTask)
	}
}
