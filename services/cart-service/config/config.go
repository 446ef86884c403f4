package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port     string
	Env      string
	RedisURL string
	CartTTL  time.Duration
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8083"),
		Env:      getEnv("APP_ENV", "development"),
		RedisURL: os.Getenv("REDIS_URL"),
		CartTTL:  7 * 24 * time.Hour,
	}

	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}

	if raw := os.Getenv("CART_TTL_HOURS"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours < 1 {
			return nil, fmt.Errorf("invalid CART_TTL_HOURS: %s", raw)
		}
		cfg.CartTTL = time.Duration(hours) * time.Hour
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
