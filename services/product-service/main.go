package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/middleware"
	"github.com/vietshop/backend/services/product-service/config"
	"github.com/vietshop/backend/services/product-service/controllers"
	"github.com/vietshop/backend/services/product-service/database"
	"github.com/vietshop/backend/services/product-service/repository"
	"github.com/vietshop/backend/services/product-service/routes"
	"github.com/vietshop/backend/services/product-service/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[ProductService] Failed to load config: ", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	client, db, err := database.Connect(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatal("[ProductService] Failed to connect to MongoDB: ", err)
	}
	defer database.Close(client)

	stockRepo := repository.NewMongoStockRepository(db)
	ledgerRepo := repository.NewMongoInventoryLogRepository(db)
	orderClient := services.NewHTTPOrderClient(cfg.OrderServiceURL)
	inventoryService := services.NewInventoryService(stockRepo, ledgerRepo, orderClient)
	ic := controllers.NewInventoryController(inventoryService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.MetricsMiddleware("product-service"))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.RegisterInventoryRoutes(r, ic)

	log.Println("[ProductService] Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[ProductService] Server failed: ", err)
	}
}
