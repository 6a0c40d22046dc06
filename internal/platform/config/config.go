// Package config builds process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
}

// Postgres captures database configuration. An empty DSN selects the
// in-memory stores.
type Postgres struct {
	DSN string
}

// Redis captures redis connection configuration. An empty URL disables the
// activity feed cache.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka captures broker configuration for the trail outbox publisher. An
// empty broker list disables publishing.
type Kafka struct {
	Brokers []string
	Topic   string
}

// Trail tunes the activity trail feed and outbox worker.
type Trail struct {
	FeedCapacity   int
	FeedTTL        time.Duration
	OutboxInterval time.Duration
	OutboxBatch    int
}

// Notify tunes the notification hand-off.
type Notify struct {
	BufferSize int
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Trail    Trail
	Notify   Notify
}

// FromEnv builds a Config from environment variables with development
// defaults.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:          envOr("ATTEST_ADDR", ":8080"),
			JWTSigningKey: envOr("ATTEST_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
		Postgres: Postgres{
			DSN: os.Getenv("ATTEST_POSTGRES_DSN"),
		},
		Redis: Redis{
			URL:          os.Getenv("ATTEST_REDIS_URL"),
			PoolSize:     envIntOr("ATTEST_REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("ATTEST_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDurationOr("ATTEST_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDurationOr("ATTEST_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDurationOr("ATTEST_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers: splitNonEmpty(os.Getenv("ATTEST_KAFKA_BROKERS")),
			Topic:   envOr("ATTEST_KAFKA_TOPIC", "attest.audit-trail"),
		},
		Trail: Trail{
			FeedCapacity:   envIntOr("ATTEST_TRAIL_FEED_CAPACITY", 50),
			FeedTTL:        envDurationOr("ATTEST_TRAIL_FEED_TTL", 24*time.Hour),
			OutboxInterval: envDurationOr("ATTEST_TRAIL_OUTBOX_INTERVAL", 2*time.Second),
			OutboxBatch:    envIntOr("ATTEST_TRAIL_OUTBOX_BATCH", 100),
		},
		Notify: Notify{
			BufferSize: envIntOr("ATTEST_NOTIFY_BUFFER", 256),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
