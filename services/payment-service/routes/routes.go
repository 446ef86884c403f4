package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/payment-service/controllers"
)

// RegisterPaymentRoutes wires the payment endpoints onto the router.
func RegisterPaymentRoutes(r *gin.Engine, pc *controllers.PaymentController) {
	payments := r.Group("/api/payments")
	{
		payments.POST("", pc.CreatePayment)
		payments.POST("/online", pc.CreateOnlinePayment)
		payments.POST("/refund", pc.RefundPayment)
		payments.GET("/transaction/:transactionId", pc.GetPaymentByTransaction)
		payments.GET("/callback/vnpay", pc.HandleVNPayCallback)
		payments.GET("/callback/momo", pc.HandleMomoCallback)
		payments.POST("/callback/momo", pc.HandleMomoCallback)
	}
}
