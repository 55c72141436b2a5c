package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP notification sink (optional; empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Offline queue
	RetryAttempts    int
	RetryDelay       time.Duration
	RetryExponential bool
	DrainConcurrency int
	QueueMaxFailures int

	// Connectivity probe
	ProbeAddress  string
	ProbeInterval time.Duration

	// Recurring payments
	RecurringInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bolsillo.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "bolsillo"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "notifications"),

		RetryAttempts:    getEnvInt("RETRY_ATTEMPTS", 3),
		RetryDelay:       getEnvDuration("RETRY_DELAY", 500*time.Millisecond),
		RetryExponential: getEnvBool("RETRY_EXPONENTIAL", true),
		DrainConcurrency: getEnvInt("DRAIN_CONCURRENCY", 4),
		QueueMaxFailures: getEnvInt("QUEUE_MAX_FAILURES", 3),

		ProbeAddress:  getEnv("PROBE_ADDRESS", ""),
		ProbeInterval: getEnvDuration("PROBE_INTERVAL", 15*time.Second),

		RecurringInterval: getEnvDuration("RECURRING_INTERVAL", time.Hour),
	}
}

// Validate checks the configuration, accumulating every problem instead of
// stopping at the first one.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite", "postgres"}
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

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" && c.PostgresURL == "" {
		errors = append(errors, "Postgres URL cannot be empty when using postgres backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RetryAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid retry attempts %d: must be at least 1", c.RetryAttempts))
	} else if c.RetryAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid retry attempts %d: must be at most 10", c.RetryAttempts))
	}

	if c.DrainConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid drain concurrency %d: must be at least 1", c.DrainConcurrency))
	}

	if c.QueueMaxFailures < 1 {
		errors = append(errors, fmt.Sprintf("invalid queue failure limit %d: must be at least 1", c.QueueMaxFailures))
	}

	if c.ProbeInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid probe interval %v: must be at least 1 second", c.ProbeInterval))
	}

	if c.RecurringInterval < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid recurring interval %v: must be at least 1 minute", c.RecurringInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// SlogLevel maps the configured level name onto slog's scale, defaulting
// to info for unknown names.
func (c *Config) SlogLevel() string {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		return strings.ToLower(c.LogLevel)
	}
	return "info"
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
