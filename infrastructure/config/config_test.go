package config_test

import (
	"os"
	"testing"

	"beliefgraph/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("ENVIRONMENT", "development")
	os.Setenv("NETWORK_ROOT", "/tmp/docs")
	os.Setenv("CACHE_BACKEND", "badger")
	defer func() {
		os.Unsetenv("ENVIRONMENT")
		os.Unsetenv("NETWORK_ROOT")
		os.Unsetenv("CACHE_BACKEND")
	}()

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "/tmp/docs", cfg.NetworkRoot)
	assert.Equal(t, "badger", cfg.CacheBackend)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *config.Config) {},
		},
		{
			name: "unknown cache backend",
			mutate: func(c *config.Config) {
				c.CacheBackend = "redis"
			},
			wantErr: "cachebackend must be one of",
		},
		{
			name: "dynamo without table name",
			mutate: func(c *config.Config) {
				c.CacheBackend = "dynamo"
				c.DynamoDBTable = ""
			},
			wantErr: "TABLE_NAME",
		},
		{
			name: "production forbids memory backend",
			mutate: func(c *config.Config) {
				c.Environment = "production"
				c.CacheBackend = "memory"
			},
			wantErr: "not valid in production",
		},
		{
			name: "missing network root",
			mutate: func(c *config.Config) {
				c.NetworkRoot = ""
			},
			wantErr: "networkroot is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func baseConfig() *config.Config {
	return &config.Config{
		Environment:     "development",
		NetworkRoot:     "/tmp/docs",
		WriteBack:       true,
		CacheBackend:    "memory",
		DynamoDBTable:   "docgraph",
		EventBusName:    "docgraph-events",
		ServerAddress:   ":8080",
		WatchDebounceMS: 250,
		LogLevel:        "info",
	}
}
