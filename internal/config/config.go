package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Feeds    FeedsConfig
	Cycle    CycleConfig
	Delivery DeliveryConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

// FeedsConfig describes the warning sources to poll. Each entry in
// Enabled is a feed slug under the shared base URL; Categories maps a
// slug to the category its warnings carry.
type FeedsConfig struct {
	BaseURL     string
	Enabled     []string
	Categories  map[string]string
	Timeout     time.Duration
	Concurrency int
}

type CycleConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

type DeliveryConfig struct {
	WebhookURL string
	HMACSecret string
	Timeout    time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// defaultFeedCategories maps each known feed slug to the warning
// category its payloads represent. Feeds without a finer classification
// fall back to "none".
var defaultFeedCategories = map[string]string{
	"dwd":     "weather",
	"lhp":     "flood",
	"mowas":   "civil_protection",
	"police":  "civil_protection",
	"katwarn": "none",
	"biwapp":  "none",
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 4),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 64),
		},
		Feeds: FeedsConfig{
			BaseURL:     getEnv("NINA_BASE_URL", "https://warnung.bund.de/api31"),
			Enabled:     getEnvList("FEEDS_ENABLED", []string{"dwd", "lhp", "mowas", "police", "katwarn", "biwapp"}),
			Categories:  defaultFeedCategories,
			Timeout:     getEnvDuration("FEED_TIMEOUT", 15*time.Second),
			Concurrency: getEnvInt("FEED_CONCURRENCY", 3),
		},
		Cycle: CycleConfig{
			Interval: getEnvDuration("CYCLE_INTERVAL", 2*time.Minute),
			Timeout:  getEnvDuration("CYCLE_TIMEOUT", 90*time.Second),
		},
		Delivery: DeliveryConfig{
			WebhookURL: getEnv("DELIVERY_WEBHOOK_URL", ""),
			HMACSecret: getEnv("DELIVERY_HMAC_SECRET", ""),
			Timeout:    getEnvDuration("DELIVERY_TIMEOUT", 10*time.Second),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/warning-engine.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if len(c.Feeds.Enabled) == 0 {
		return fmt.Errorf("at least one feed must be enabled")
	}
	for _, slug := range c.Feeds.Enabled {
		if _, ok := c.Feeds.Categories[slug]; !ok {
			return fmt.Errorf("unknown feed slug: %s", slug)
		}
	}
	if c.Feeds.Concurrency < 1 {
		return fmt.Errorf("feed concurrency must be at least 1")
	}

	if c.Cycle.Interval < 30*time.Second {
		return fmt.Errorf("cycle interval must be at least 30 seconds")
	}
	if c.Cycle.Timeout <= 0 || c.Cycle.Timeout >= c.Cycle.Interval {
		return fmt.Errorf("cycle timeout must be positive and shorter than the interval")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
