// Package config centralises configuration parsing for the pose coach service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures runtime configuration values for the pose coach service.
type Config struct {
	HTTPAddress       string
	SessionAPIURL     string
	RecorderTimeout   time.Duration
	JWTSecret         string
	JWTIssuer         string
	KafkaBrokers      []string // Empty disables hold event publishing.
	HoldEventsTopic   string
	SchemaRegistryURL string // Empty publishes plain JSON values.
	AllowedOrigins    []string
	StreamReadTimeout time.Duration // Maximum silence on a practice stream before it is closed.
	HoldTick          time.Duration
	MaxSessions       int // Concurrent practice streams; zero or less means unlimited.
	ShutdownTimeout   time.Duration
}

// Load reads environment variables into Config, applying sensible defaults for local dev.
func Load() Config {
	cfg := Config{
		HTTPAddress:       getEnv("HTTP_ADDRESS", ":8085"),
		SessionAPIURL:     getEnv("SESSION_API_URL", "http://localhost:5000/api"),
		RecorderTimeout:   getDurationEnv("RECORDER_TIMEOUT", 5*time.Second),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTIssuer:         getEnv("JWT_ISSUER", ""),
		HoldEventsTopic:   getEnv("HOLD_EVENTS_TOPIC", "pose_hold_events"),
		SchemaRegistryURL: getEnv("SCHEMA_REGISTRY_URL", ""),
		StreamReadTimeout: getDurationEnv("STREAM_READ_TIMEOUT", 30*time.Second),
		HoldTick:          getDurationEnv("HOLD_TICK", time.Second),
		MaxSessions:       getIntEnv("MAX_PRACTICE_SESSIONS", 64),
		ShutdownTimeout:   getDurationEnv("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	cfg.KafkaBrokers = splitAndTrim(getEnv("KAFKA_BROKERS", ""))
	cfg.AllowedOrigins = splitAndTrim(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"))
	return cfg
}

// PublishingEnabled reports whether hold events should be written to Kafka.
func (c Config) PublishingEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
