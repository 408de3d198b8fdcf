package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:        "8080",
		Env:         "development",
		DBPassword:  "password",
		SessionTTL:  time.Hour,
		BcryptCost:  12,
		UploadMaxMB: 10,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Development defaults", mutate: func(*Config) {}},
		{name: "Missing port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT is required"},
		{name: "Zero session TTL", mutate: func(c *Config) { c.SessionTTL = 0 }, wantErr: "SESSION_TTL"},
		{name: "Bcrypt cost too high", mutate: func(c *Config) { c.BcryptCost = 40 }, wantErr: "BCRYPT_COST"},
		{
			name:    "Production default DB password",
			mutate:  func(c *Config) { c.Env = "production" },
			wantErr: "DB_PASSWORD",
		},
		{
			name: "Production weak bcrypt",
			mutate: func(c *Config) {
				c.Env = "production"
				c.DBPassword = "s3cure-and-long"
				c.BcryptCost = 4
			},
			wantErr: "at least 10",
		},
		{
			name: "Production ok",
			mutate: func(c *Config) {
				c.Env = "prod"
				c.DBPassword = "s3cure-and-long"
				c.DBSSLMode = "require"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "9999")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("FEATURE_FLAGS", "logout_revoke=on")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "logout_revoke=on", cfg.FeatureFlags)
	assert.Equal(t, 10, cfg.UploadMaxMB)
	assert.False(t, cfg.IsProduction())
}
