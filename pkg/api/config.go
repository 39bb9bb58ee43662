package api

import (
	"os"
	"time"

	"github.com/marmos91/aliasd/internal/logger"
)

// EnvJWTSecret is the environment variable holding the JWT signing secret.
const EnvJWTSecret = "ALIASD_JWT_SECRET"

// MinJWTSecretLength is the shortest accepted JWT signing secret.
const MinJWTSecretLength = 32

// Config configures the HTTP server.
type Config struct {
	// Port is the HTTP port.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port" json:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`

	// JWT configures token authentication.
	JWT JWTConfig `mapstructure:"jwt" yaml:"jwt" json:"jwt"`
}

// JWTConfig configures JWT token generation and validation.
type JWTConfig struct {
	// Secret is the HMAC signing key. Must be at least 32 characters.
	// ALIASD_JWT_SECRET takes precedence over the config file.
	Secret string `mapstructure:"secret" yaml:"secret" json:"secret,omitempty"`

	// AccessTokenDuration is the lifetime of access tokens and of the auth cookie.
	// Default: 168h (7 days)
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" yaml:"access_token_duration" json:"access_token_duration"`

	// RefreshTokenDuration is the lifetime of refresh tokens.
	// Default: 720h (30 days)
	RefreshTokenDuration time.Duration `mapstructure:"refresh_token_duration" yaml:"refresh_token_duration" json:"refresh_token_duration"`

	// CookieName is the name of the session cookie set on login.
	// Default: "auth"
	CookieName string `mapstructure:"cookie_name" yaml:"cookie_name" json:"cookie_name"`

	// SecureCookie marks the session cookie Secure (HTTPS only).
	SecureCookie bool `mapstructure:"secure_cookie" yaml:"secure_cookie" json:"secure_cookie"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.JWT.AccessTokenDuration == 0 {
		c.JWT.AccessTokenDuration = 7 * 24 * time.Hour
	}
	if c.JWT.RefreshTokenDuration == 0 {
		c.JWT.RefreshTokenDuration = 30 * 24 * time.Hour
	}
	if c.JWT.CookieName == "" {
		c.JWT.CookieName = "auth"
	}
}

// GetJWTSecret returns the JWT secret, preferring the environment variable.
// Logs a warning if the environment variable overrides a config file value.
func (c *Config) GetJWTSecret() string {
	envSecret := os.Getenv(EnvJWTSecret)
	if envSecret != "" {
		if c.JWT.Secret != "" && c.JWT.Secret != envSecret {
			logger.Warn("JWT secret from environment variable overrides config file value",
				"env_var", EnvJWTSecret)
		}
		return envSecret
	}
	return c.JWT.Secret
}

// HasJWTSecret returns whether a JWT secret is configured.
func (c *Config) HasJWTSecret() bool {
	return c.GetJWTSecret() != ""
}
