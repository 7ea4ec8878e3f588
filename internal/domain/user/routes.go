package user

import "github.com/gin-gonic/gin"

// RegisterPublicRoutes registers sign-up and login
func RegisterPublicRoutes(r *gin.RouterGroup, handler *Handler) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
	}
}

// RegisterRoutes registers authenticated account routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	r.GET("/me", handler.Me)
	r.POST("/users", handler.CreateStaff)
	r.PATCH("/users/:id/commission-rate", handler.UpdateCommissionRate)
}
