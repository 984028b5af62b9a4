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
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTAccessSecret []byte
	AuthHTTPURL     string

	RedisAddr      string
	RedisPassword  string
	CartStore      string
	CartDir        string
	CartTTL        time.Duration
	IdempotencyTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	SendGridAPIKey string
	NotifyFrom     string
}

func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "food-market"),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTAccessSecret: []byte(os.Getenv("JWT_SECRET")),
		AuthHTTPURL:     os.Getenv("AUTH_URL"),

		RedisAddr:      EnvDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		CartStore:      EnvDefault("CART_STORE", "redis"),
		CartDir:        EnvDefault("CART_DIR", "data/carts"),
		CartTTL:        EnvDurationDefault("CART_TTL", 7*24*time.Hour),
		IdempotencyTTL: EnvDurationDefault("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   EnvDefault("KAFKA_ORDER_TOPIC", "order_events"),
		KafkaGroupID: EnvDefault("KAFKA_GROUP_ID", "notifier"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		NotifyFrom:     EnvDefault("NOTIFY_FROM", "orders@food-market.local"),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
