package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Persistence
	DatabasePath string

	// Landmark detector sidecar. Empty means no remote detector is
	// configured and the service refuses to start.
	LandmarkServiceURL string
	LandmarkTimeout    time.Duration

	// Optional blob archive of uploaded images. Disabled when the account
	// name is empty.
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureArchiveContainer string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ArchiveEnabled reports whether uploaded images should be copied to blob
// storage.
func (c *Config) ArchiveEnabled() bool {
	return c.AzureStorageAccount != ""
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB

		DatabasePath: getEnvOrDefault("DATABASE_PATH", "data/analyzer.db"),

		LandmarkServiceURL: os.Getenv("LANDMARK_SERVICE_URL"),
		LandmarkTimeout:    parseDurationOrDefault("LANDMARK_TIMEOUT", 15*time.Second),

		AzureStorageAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       os.Getenv("AZURE_STORAGE_KEY"),
		AzureArchiveContainer: getEnvOrDefault("AZURE_ARCHIVE_CONTAINER", "face-uploads"),
	}

	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.AnalysisTimeout <= 0 || cfg.LandmarkTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s, landmark=%s)",
			cfg.RequestTimeout, cfg.AnalysisTimeout, cfg.LandmarkTimeout)
	}
	if cfg.LandmarkServiceURL == "" {
		return nil, fmt.Errorf("LANDMARK_SERVICE_URL must be set")
	}
	if cfg.ArchiveEnabled() && cfg.AzureStorageKey == "" {
		return nil, fmt.Errorf("AZURE_STORAGE_KEY must be set when AZURE_STORAGE_ACCOUNT is configured")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
