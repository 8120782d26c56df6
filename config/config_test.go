package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8081",
			AppEnv:         "development",
			AllowedOrigins: []string{"https://dentorhub.com"},
		},
		Database: DatabaseConfig{URL: "postgres://localhost/dentorhub"},
		Stripe:   StripeConfig{WebhookSecret: "whsec_test"},
		Email: EmailConfig{
			ResendAPIKey: "re_test",
			FromAddress:  "bookings@dentorhub.com",
		},
		Auth: AuthConfig{InternalAPIToken: "internal-token"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "missing database URL",
			mutate:      func(c *Config) { c.Database.URL = "" },
			expectError: true,
			errorMsg:    "DATABASE_URL is required",
		},
		{
			name:        "missing webhook secret",
			mutate:      func(c *Config) { c.Stripe.WebhookSecret = "" },
			expectError: true,
			errorMsg:    "STRIPE_WEBHOOK_SECRET is required",
		},
		{
			name:        "missing resend API key",
			mutate:      func(c *Config) { c.Email.ResendAPIKey = "" },
			expectError: true,
			errorMsg:    "RESEND_API_KEY is required",
		},
		{
			name:        "missing from address",
			mutate:      func(c *Config) { c.Email.FromAddress = "" },
			expectError: true,
			errorMsg:    "EMAIL_FROM_ADDRESS is required",
		},
		{
			name:        "missing internal API token",
			mutate:      func(c *Config) { c.Auth.InternalAPIToken = "" },
			expectError: true,
			errorMsg:    "INTERNAL_API_AUTH_TOKEN is required",
		},
		{
			name: "production requires a base URL",
			mutate: func(c *Config) {
				c.Server.AppEnv = "production"
				c.Server.BaseURL = ""
				c.Server.PlatformURL = ""
			},
			expectError: true,
			errorMsg:    "BASE_URL or PLATFORM_URL is required in production",
		},
		{
			name: "production with platform URL",
			mutate: func(c *Config) {
				c.Server.AppEnv = "production"
				c.Server.PlatformURL = "dentorhub.fly.dev"
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_AppBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		server   ServerConfig
		expected string
	}{
		{
			name:     "explicit base URL wins",
			server:   ServerConfig{BaseURL: "https://dentorhub.com/", PlatformURL: "dentorhub.fly.dev"},
			expected: "https://dentorhub.com",
		},
		{
			name:     "platform URL gets https prefix",
			server:   ServerConfig{PlatformURL: "dentorhub.fly.dev"},
			expected: "https://dentorhub.fly.dev",
		},
		{
			name:     "platform URL with scheme kept as is",
			server:   ServerConfig{PlatformURL: "http://staging.dentorhub.internal"},
			expected: "http://staging.dentorhub.internal",
		},
		{
			name:     "localhost fallback",
			server:   ServerConfig{},
			expected: "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: tt.server}
			assert.Equal(t, tt.expected, cfg.AppBaseURL())
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name: "development environment",
			config: &Config{
				Server: ServerConfig{AppEnv: "development"},
			},
			expected: true,
		},
		{
			name: "debug gin mode",
			config: &Config{
				Server: ServerConfig{GinMode: "debug"},
			},
			expected: true,
		},
		{
			name: "production environment",
			config: &Config{
				Server: ServerConfig{GinMode: "release", AppEnv: "production"},
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	os.Clearenv()

	// Set only required fields
	os.Setenv("DATABASE_URL", "postgres://localhost/dentorhub")
	os.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_test")
	os.Setenv("RESEND_API_KEY", "re_test")
	os.Setenv("EMAIL_FROM_ADDRESS", "bookings@dentorhub.com")
	os.Setenv("INTERNAL_API_AUTH_TOKEN", "internal-token")
	os.Setenv("APP_ENV", "development")

	cfg, err := Load()

	assert.NoError(t, err)
	assert.NotNil(t, cfg)

	// Check defaults
	assert.Equal(t, "8081", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30, cfg.Webhook.StuckThresholdMinutes)
	assert.Equal(t, 3600, cfg.Cache.ServiceTitleTTLSeconds)
	assert.Equal(t, "dentorhub-api", cfg.Observability.ServiceName)
}

func TestLoad_ValidationFailure(t *testing.T) {
	// Save current directory and change to a temp directory without .env file
	originalDir, _ := os.Getwd()
	defer os.Chdir(originalDir)

	tempDir := t.TempDir()
	os.Chdir(tempDir)

	// Missing all required fields
	os.Clearenv()

	cfg, err := Load()

	assert.Error(t, err)
	assert.Nil(t, cfg)
}
