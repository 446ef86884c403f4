package routes

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/vietshop/backend/api-gateway/utils"
)

func serviceURL(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return fallback
}

// RegisterAllRoutes wires the edge routes onto the router, each group
// proxied to its owning service.
func RegisterAllRoutes(r *gin.Engine) {
	forwardTo := func(targetBase string) gin.HandlerFunc {
		return func(c *gin.Context) {
			utils.ForwardRequest(c, utils.ForwardOptions{
				TargetBase: targetBase,
			})
		}
	}

	productBase := serviceURL("PRODUCT_SERVICE_URL", "http://product-service:8082")
	cartBase := serviceURL("CART_SERVICE_URL", "http://cart-service:8083")
	orderBase := serviceURL("ORDER_SERVICE_URL", "http://order-service:8084")
	paymentBase := serviceURL("PAYMENT_SERVICE_URL", "http://payment-service:8087")

	products := forwardTo(productBase + "/api/products")
	r.GET("/api/products/*any", products)
	r.POST("/api/products", products)
	r.POST("/api/products/*any", products)

	inventory := forwardTo(productBase + "/api/inventory")
	r.GET("/api/inventory/*any", inventory)
	r.POST("/api/inventory/*any", inventory)
	r.PUT("/api/inventory/*any", inventory)

	carts := forwardTo(cartBase + "/api/carts")
	r.GET("/api/carts", carts)
	r.POST("/api/carts/*any", carts)
	r.PUT("/api/carts/*any", carts)

	orders := forwardTo(orderBase + "/api/orders")
	r.GET("/api/orders", orders)
	r.GET("/api/orders/*any", orders)
	r.POST("/api/orders", orders)
	r.POST("/api/orders/*any", orders)
	r.PUT("/api/orders/*any", orders)

	// Gateway callbacks from VNPay and Momo arrive on these routes, so
	// they stay reachable without identity headers.
	payments := forwardTo(paymentBase + "/api/payments")
	r.GET("/api/payments/*any", payments)
	r.POST("/api/payments", payments)
	r.POST("/api/payments/*any", payments)
}
