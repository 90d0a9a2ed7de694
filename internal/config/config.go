// Package config reads service settings from the environment.
// Binaries call godotenv.Load before Load so a local .env file is honoured.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the order service binaries need.
type Config struct {
	DatabaseURL         string
	Port                string
	AllowedOrigins      string
	LogLevel            string
	DefaultCurrency     string
	OrderNumberAttempts int
	RequestTimeout      time.Duration
	KafkaBrokers        []string
	OrderEventsTopic    string
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	SeedOnStart         bool
	MigrateOnStart      bool
}

// Load builds a Config from environment variables. DATABASE_URL is required;
// everything else has a default. Malformed numeric or boolean values are errors.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Port:             getenv("SERVER_PORT", "8080"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		DefaultCurrency:  strings.ToUpper(getenv("DEFAULT_CURRENCY", "RUB")),
		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: getenv("ORDER_EVENTS_TOPIC", "order-events"),
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if len(cfg.DefaultCurrency) != 3 {
		return Config{}, fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter code, got %q", cfg.DefaultCurrency)
	}

	var err error
	if cfg.OrderNumberAttempts, err = getInt("ORDER_NUMBER_ATTEMPTS", 3); err != nil {
		return Config{}, err
	}
	if cfg.OrderNumberAttempts < 1 {
		return Config{}, fmt.Errorf("ORDER_NUMBER_ATTEMPTS must be >= 1, got %d", cfg.OrderNumberAttempts)
	}
	timeoutMS, err := getInt("REQUEST_TIMEOUT_MS", 10000)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout = time.Duration(timeoutMS) * time.Millisecond

	pollMS, err := getInt("OUTBOX_POLL_INTERVAL_MS", 1000)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = time.Duration(pollMS) * time.Millisecond
	if cfg.OutboxBatchSize, err = getInt("OUTBOX_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.SeedOnStart, err = getBool("SEED_ON_START", true); err != nil {
		return Config{}, err
	}
	if cfg.MigrateOnStart, err = getBool("MIGRATE_ON_START", true); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether outbox events should be relayed to Kafka.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return b, nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
