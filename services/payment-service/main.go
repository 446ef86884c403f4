package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/vietshop/backend/services/common/logger"
	"github.com/vietshop/backend/services/common/middleware"
	"github.com/vietshop/backend/services/payment-service/config"
	"github.com/vietshop/backend/services/payment-service/controllers"
	"github.com/vietshop/backend/services/payment-service/database"
	"github.com/vietshop/backend/services/payment-service/gateway"
	"github.com/vietshop/backend/services/payment-service/kafka"
	"github.com/vietshop/backend/services/payment-service/models"
	"github.com/vietshop/backend/services/payment-service/repository"
	"github.com/vietshop/backend/services/payment-service/routes"
	"github.com/vietshop/backend/services/payment-service/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[PaymentService] Failed to load config: ", err)
	}

	logger.Initialize(cfg.Env)
	defer logger.Log.Sync()

	db, err := database.Connect(cfg.DSN(), &models.Payment{})
	if err != nil {
		log.Fatal("[PaymentService] Failed to connect to DB: ", err)
	}

	producer := kafka.NewPaymentEventProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	paymentRepo := repository.NewGormPaymentRepository(db)
	orderClient := services.NewHTTPOrderClient(cfg.OrderServiceURL)
	gateways := []gateway.Gateway{
		gateway.NewVNPayGateway(cfg.VNPay),
		gateway.NewMomoGateway(cfg.Momo),
	}
	paymentService := services.NewPaymentService(paymentRepo, orderClient, gateways, producer)
	pc := controllers.NewPaymentController(paymentService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger())
	r.Use(middleware.MetricsMiddleware("payment-service"))
	r.GET("/metrics", middleware.MetricsHandler())
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	routes.RegisterPaymentRoutes(r, pc)

	log.Println("[PaymentService] Running on port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("[PaymentService] Server failed: ", err)
	}
}
