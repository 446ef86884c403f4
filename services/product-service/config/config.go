package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port            string
	Env             string
	MongoURI        string
	MongoDB         string
	OrderServiceURL string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8082"),
		Env:             getEnv("APP_ENV", "development"),
		MongoURI:        os.Getenv("MONGO_URI"),
		MongoDB:         getEnv("MONGO_DB", "vietshop_products"),
		OrderServiceURL: getEnv("ORDER_SERVICE_URL", "http://localhost:8084"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
