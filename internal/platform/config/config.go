// Package config builds runtime configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures everything the matching service needs to start.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	KafkaBrokers  string
	AuditTopic    string
	JWTSigningKey string

	// MaxSearchDistanceKm caps the per-request distance bound a caller may ask
	// for. Zero means no cap beyond the search default.
	MaxSearchDistanceKm float64
	SearchCacheTTL      time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("LIFELINE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development fallback, override in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	auditTopic := os.Getenv("AUDIT_TOPIC")
	if auditTopic == "" {
		auditTopic = "lifeline.audit"
	}

	return Server{
		Addr:                addr,
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		KafkaBrokers:        os.Getenv("KAFKA_BROKERS"),
		AuditTopic:          auditTopic,
		JWTSigningKey:       jwtSigningKey,
		MaxSearchDistanceKm: envFloat("MAX_SEARCH_DISTANCE_KM", 0),
		SearchCacheTTL:      envDuration("SEARCH_CACHE_TTL", 30*time.Second),
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return v
}
