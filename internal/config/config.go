package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIAddr        string
	AppAddr        string
	PGDSN          string
	MongoURI       string
	RedisAddr      string
	RabbitURL      string
	BackendBaseURL string
	PublicBaseURL  string
	RequestTimeout time.Duration
	SessionTTL     time.Duration
	StripeKey      string
	OTLPEndpoint   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	requestTimeout, _ := time.ParseDuration(os.Getenv("REQUEST_TIMEOUT"))
	if requestTimeout == 0 {
		requestTimeout = 10 * time.Second
	}
	sessionTTL, _ := time.ParseDuration(os.Getenv("PAYMENT_SESSION_TTL"))
	if sessionTTL == 0 {
		sessionTTL = 30 * time.Minute
	}

	return &Config{
		APIAddr:        getenv("API_ADDR", ":8080"),
		AppAddr:        getenv("APP_ADDR", ":8081"),
		PGDSN:          os.Getenv("PG_DSN"),
		MongoURI:       os.Getenv("MONGO_URI"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RabbitURL:      os.Getenv("RABBIT_URL"),
		BackendBaseURL: getenv("BACKEND_BASE_URL", "http://localhost:8080"),
		PublicBaseURL:  getenv("PUBLIC_BASE_URL", "http://localhost:8081"),
		RequestTimeout: requestTimeout,
		SessionTTL:     sessionTTL,
		StripeKey:      os.Getenv("STRIPE_SECRET_KEY"),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
