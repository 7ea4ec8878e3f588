package payout

import "github.com/gin-gonic/gin"

// RegisterRoutes registers payout routes
func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	payouts := r.Group("/payouts")
	{
		payouts.GET("/balance", handler.GetBalance)
		payouts.POST("", handler.RequestPayout)
		payouts.GET("", handler.ListPayouts)
		payouts.POST("/:id/paid", handler.MarkPaid)
	}
}
