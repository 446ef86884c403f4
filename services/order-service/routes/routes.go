package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/order-service/controllers"
)

// RegisterOrderRoutes wires the order endpoints onto the router.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orders := r.Group("/api/orders")
	{
		orders.POST("", oc.CreateOrder)
		orders.GET("", oc.GetOrdersByOwner)
		orders.GET("/admin", oc.GetOrdersForAdmin)
		orders.GET("/:id", oc.GetOrderByID)
		orders.PUT("/:id/status", oc.UpdateOrderStatus)
		orders.PUT("/:id/payment-status", oc.UpdatePaymentStatus)
	}
}
