package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/middleware"
	"github.com/vietshop/backend/services/order-service/config"
	"github.com/vietshop/backend/services/order-service/controllers"
	"github.com/vietshop/backend/services/order-service/database"
	"github.com/vietshop/backend/services/order-service/models"
	"github.com/vietshop/backend/services/order-service/repository"
	"github.com/vietshop/backend/services/order-service/routes"
	"github.com/vietshop/backend/services/order-service/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[OrderService] Failed to load config: ", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	db, err := database.Connect(cfg.DSN(), &models.Order{}, &models.OrderItem{}, &models.StatusHistory{})
	if err != nil {
		log.Fatal("[OrderService] Failed to connect to DB: ", err)
	}

	orderRepo := repository.NewGormOrderRepository(db)
	cartClient := services.NewHTTPCartClient(cfg.CartServiceURL)
	orderService := services.NewOrderService(orderRepo, cartClient)
	oc := controllers.NewOrderController(orderService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.MetricsMiddleware("order-service"))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.RegisterOrderRoutes(r, oc)

	log.Println("[OrderService] Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[OrderService] Server failed: ", err)
	}
}
