package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

type Config struct {
	// HTTP Server
	Port               string
	RateLimitPerMinute int
	OverviewCacheTTL   time.Duration

	// Database
	DataBackend  string
	SQLiteDBPath string

	// AMQP. An empty URL disables the async pipeline: the API analyzes
	// imports inline and skips export syncs.
	AMQPURL         string
	AMQPExchange    string
	AMQPImportQueue string
	AMQPSyncQueue   string

	// Distribution worker
	DistributionCron string

	// Logging
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
		OverviewCacheTTL:   getEnvDuration("OVERVIEW_CACHE_TTL", 5*time.Minute),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fondi.db"),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "fondi.events"),
		AMQPImportQueue: getEnv("AMQP_IMPORT_QUEUE", "fondi.import.jobs"),
		AMQPSyncQueue:   getEnv("AMQP_SYNC_QUEUE", "fondi.export.sync"),

		DistributionCron: getEnv("DISTRIBUTION_CRON", "0 7 * * *"),

		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	if c.OverviewCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid overview cache TTL %v: must be at least 1 second", c.OverviewCacheTTL))
	} else if c.OverviewCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid overview cache TTL %v: must be at most 24 hours", c.OverviewCacheTTL))
	}

	// Validate data backend
	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	// Validate AMQP settings if the pipeline is enabled
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPImportQueue == "" {
			errors = append(errors, "AMQP import queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPSyncQueue == "" {
			errors = append(errors, "AMQP sync queue name cannot be empty when AMQP URL is provided")
		}
	}

	if _, err := cron.ParseStandard(c.DistributionCron); err != nil {
		errors = append(errors, fmt.Sprintf("invalid distribution cron spec '%s': %v", c.DistributionCron, err))
	}

	switch c.LogFormat {
	case "json", "text", "pretty":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of [json text pretty]", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
