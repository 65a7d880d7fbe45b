package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Catalog  CatalogConfig
	Payment  PaymentConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Session  SessionConfig
	Observ   ObservabilityConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type CatalogConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type PaymentConfig struct {
	BackendURL      string
	Timeout         time.Duration
	StripeSecretKey string
	// CelebrationDelay is how long the success view stays on screen before
	// the cart is cleared. Mirrors the storefront's confetti window.
	CelebrationDelay time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers       []string
	TopicCheckout string
}

type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	CookieName    string
}

type ObservabilityConfig struct {
	JaegerEndpoint string
}

func Load() *Config {
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	catalogTimeout, _ := strconv.Atoi(getEnv("CATALOG_TIMEOUT_SECONDS", "10"))
	catalogCacheTTL, _ := strconv.Atoi(getEnv("CATALOG_CACHE_TTL_SECONDS", "30"))
	paymentTimeout, _ := strconv.Atoi(getEnv("PAYMENT_TIMEOUT_SECONDS", "30"))
	celebrationMs, _ := strconv.Atoi(getEnv("CELEBRATION_DELAY_MS", "3500"))
	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_SECONDS", "3600"))
	sweepInterval, _ := strconv.Atoi(getEnv("SESSION_SWEEP_INTERVAL_SECONDS", "60"))

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Catalog: CatalogConfig{
			BaseURL:  getEnv("CATALOG_BASE_URL", "http://localhost:8081/v1/product-service"),
			Timeout:  time.Duration(catalogTimeout) * time.Second,
			CacheTTL: time.Duration(catalogCacheTTL) * time.Second,
		},
		Payment: PaymentConfig{
			BackendURL:       getEnv("PAYMENT_BASE_URL", "http://localhost:8082/payment-service/api/v1/stripe"),
			Timeout:          time.Duration(paymentTimeout) * time.Second,
			StripeSecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
			CelebrationDelay: time.Duration(celebrationMs) * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers:       splitNonEmpty(getEnv("KAFKA_BROKERS", "")),
			TopicCheckout: getEnv("KAFKA_TOPIC_CHECKOUT_EVENTS", "checkout-events"),
		},
		Session: SessionConfig{
			TTL:           time.Duration(sessionTTL) * time.Second,
			SweepInterval: time.Duration(sweepInterval) * time.Second,
			CookieName:    getEnv("SESSION_COOKIE_NAME", "storefront_session"),
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
		},
	}

	log.Printf("Config loaded: env=%s, port=%s", cfg.Server.Env, cfg.Server.Port)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitNonEmpty(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
