package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/product-service/controllers"
)

// RegisterInventoryRoutes wires the stock and ledger endpoints onto the
// router.
func RegisterInventoryRoutes(r *gin.Engine, ic *controllers.InventoryController) {
	inventory := r.Group("/api/inventory")
	{
		inventory.POST("/restore/refund/:orderId", ic.RestoreForRefund)
		inventory.POST("/restore/cancel/:orderId", ic.RestoreForCancel)
		inventory.GET("/history/:productId", ic.GetHistory)
		inventory.GET("/stats", ic.GetStats)
		inventory.PUT("/:productId", ic.AdjustStock)
	}

	products := r.Group("/api/products")
	{
		products.POST("", ic.CreateProduct)
		products.GET("/:productId", ic.GetProduct)
	}
}
