package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all configuration for the Dashboard service.
type Config struct {
	// Detection backend
	BackendURL     string
	FetchTimeout   time.Duration
	ControlTimeout time.Duration

	// Refresh cycle
	RefreshInterval   time.Duration
	UptimePlaceholder string

	// Listen ports
	HTTPPort       string
	HealthPort     string
	GRPCHealthPort string

	// Event bus (optional)
	NatsURL string

	// Feature flags
	EnableEventPublishing bool
	EnableCORS            bool

	LogLevel string
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Try multiple .env locations
	envPaths := []string{
		".env",
		"../.env",
		"/app/.env", // Docker
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded config from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Printf("No .env file found, using environment variables")
	}

	config := &Config{
		BackendURL:        getEnvOrDefault("BACKEND_URL", "http://localhost:8000"),
		UptimePlaceholder: getEnvOrDefault("UPTIME_PLACEHOLDER", "99.9%"),

		HTTPPort:       getEnvOrDefault("HTTP_PORT", "3000"),
		HealthPort:     getEnvOrDefault("HEALTH_PORT", "8085"),
		GRPCHealthPort: os.Getenv("GRPC_HEALTH_PORT"),

		NatsURL: os.Getenv("NATS_URL"),

		EnableEventPublishing: parseBoolOrDefault("ENABLE_EVENT_PUBLISHING", true),
		EnableCORS:            parseBoolOrDefault("ENABLE_CORS", true),

		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	if _, set := os.LookupEnv("GRPC_HEALTH_PORT"); !set {
		config.GRPCHealthPort = "50055"
	}

	var err error
	if config.RefreshInterval, err = parseDurationOrDefault("REFRESH_INTERVAL", 2*time.Second); err != nil {
		return nil, err
	}
	if config.FetchTimeout, err = parseDurationOrDefault("FETCH_TIMEOUT", 1500*time.Millisecond); err != nil {
		return nil, err
	}
	if config.ControlTimeout, err = parseDurationOrDefault("CONTROL_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}

	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}

	if c.RefreshInterval < 100*time.Millisecond {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 100ms")
	}

	// A fetch that outlives the interval lets cycles pile up.
	if c.FetchTimeout <= 0 || c.FetchTimeout >= c.RefreshInterval {
		return fmt.Errorf("FETCH_TIMEOUT must be positive and shorter than REFRESH_INTERVAL (%s)", c.RefreshInterval)
	}

	if c.ControlTimeout <= 0 {
		return fmt.Errorf("CONTROL_TIMEOUT must be positive")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
