package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/services/cart-service/controllers"
)

// RegisterCartRoutes wires the cart endpoints onto the router.
func RegisterCartRoutes(r *gin.Engine, cc *controllers.CartController) {
	carts := r.Group("/api/carts")
	{
		carts.GET("", cc.GetCart)
		carts.POST("/add", cc.AddItem)
		carts.PUT("/status", cc.UpdateStatus)
	}
}
