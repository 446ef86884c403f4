package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vietshop/backend/services/cart-service/config"
	"github.com/vietshop/backend/services/cart-service/controllers"
	"github.com/vietshop/backend/services/cart-service/database"
	"github.com/vietshop/backend/services/cart-service/repository"
	"github.com/vietshop/backend/services/cart-service/routes"
	"github.com/vietshop/backend/services/cart-service/services"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CartService] Failed to load config: ", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatal("[CartService] Failed to connect to Redis: ", err)
	}
	defer redisClient.Close()

	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	cartService := services.NewCartService(cartRepo)
	cc := controllers.NewCartController(cartService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.MetricsMiddleware("cart-service"))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.RegisterCartRoutes(r, cc)

	log.Println("[CartService] Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[CartService] Server failed: ", err)
	}
}
