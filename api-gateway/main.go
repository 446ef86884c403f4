package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vietshop/backend/api-gateway/routes"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/middleware"
)

func main() {
	_ = godotenv.Load()

	logger.Initialize(os.Getenv("ENV"))
	defer logger.Log.Sync()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.RateLimitMiddleware())
	r.Use(middleware.MetricsMiddleware("api-gateway"))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.RegisterAllRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("[Gateway] Running on port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("[Gateway] Server failed: ", err)
	}
}
