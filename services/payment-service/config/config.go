package config

import (
	"fmt"
	"os"
)

type VNPayConfig struct {
	MerchantCode string
	HashSecret   string
	Version      string
	PayURL       string
	RefundURL    string
	ReturnURL    string
}

type MomoConfig struct {
	PartnerCode string
	AccessKey   string
	SecretKey   string
	APIEndpoint string
	RefundURL   string
	RedirectURL string
	IPNURL      string
}

type Config struct {
	Port             string
	Env              string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	OrderServiceURL  string
	KafkaBrokers     string
	KafkaTopic       string
	VNPay            VNPayConfig
	Momo             MomoConfig
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8087"),
		Env:              getEnv("APP_ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Ho_Chi_Minh"),
		OrderServiceURL:  getEnv("ORDER_SERVICE_URL", "http://localhost:8084"),
		KafkaBrokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
		KafkaTopic:       getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),
		VNPay: VNPayConfig{
			MerchantCode: os.Getenv("VNPAY_MERCHANT_CODE"),
			HashSecret:   os.Getenv("VNPAY_HASH_SECRET"),
			Version:      getEnv("VNPAY_VERSION", "2.1.0"),
			PayURL:       getEnv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			RefundURL:    getEnv("VNPAY_REFUND_URL", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction"),
			ReturnURL:    os.Getenv("VNPAY_RETURN_URL"),
		},
		Momo: MomoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			APIEndpoint: getEnv("MOMO_API_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			RefundURL:   getEnv("MOMO_REFUND_URL", "https://test-payment.momo.vn/v2/gateway/api/refund"),
			RedirectURL: os.Getenv("MOMO_REDIRECT_URL"),
			IPNURL:      os.Getenv("MOMO_IPN_URL"),
		},
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" || cfg.PostgresHost == "" {
		return nil, fmt.Errorf("missing required environment variables")
	}
	if cfg.VNPay.HashSecret == "" || cfg.Momo.SecretKey == "" {
		return nil, fmt.Errorf("missing payment gateway secrets")
	}

	return cfg, nil
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
