// Package config loads compiler configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration.
type Config struct {
	// Network configuration
	Environment string `validate:"required,oneof=development staging production"`
	NetworkRoot string `validate:"required"` // directory that forms the home network's root
	WriteBack   bool   // whether resolved links/bids are written back to source

	// Cache backend selection: "memory", "badger", or "dynamo"
	CacheBackend  string `validate:"required,oneof=memory badger dynamo"`
	BadgerDir     string
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// HTTP server (snapshot/query API)
	ServerAddress string `validate:"required"`
	EnableCORS    bool

	// Watch mode
	WatchDebounceMS int `validate:"min=0"`

	// Logging
	LogLevel string `validate:"required,oneof=debug info warn error"`
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		NetworkRoot: getEnv("NETWORK_ROOT", "."),
		WriteBack:   getEnvBool("WRITE_BACK", true),

		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),
		BadgerDir:     getEnv("BADGER_DIR", ".docgraph/cache"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "docgraph")),
		EventBusName:  getEnv("EVENT_BUS_NAME", "docgraph-events"),

		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		WatchDebounceMS: getEnvInt("WATCH_DEBOUNCE_MS", 250),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility.
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	switch c.CacheBackend {
	case "memory", "badger":
	case "dynamo":
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required when CACHE_BACKEND=dynamo")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when CACHE_BACKEND=dynamo")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.Environment == "production" && c.CacheBackend == "memory" {
		return fmt.Errorf("CACHE_BACKEND=memory does not persist across restarts; not valid in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
