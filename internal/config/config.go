package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	LogLevel    string
	LogFormat   string // "json" or "console"

	FactTimeout      time.Duration // per fact fetch
	PersistRetries   int
	NotificationTTL  time.Duration // how long the client shows an unlock banner
	BusinessCacheTTL time.Duration
	EventRateLimit   int // badge event requests per user per minute
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),

		FactTimeout:      getEnvDuration("FACT_TIMEOUT", 3*time.Second),
		PersistRetries:   getEnvInt("PERSIST_RETRIES", 3),
		NotificationTTL:  getEnvDuration("NOTIFICATION_TTL", 6*time.Second),
		BusinessCacheTTL: getEnvDuration("BUSINESS_CACHE_TTL", 10*time.Minute),
		EventRateLimit:   getEnvInt("EVENT_RATE_LIMIT", 30),
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings ("3s", "250ms").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
