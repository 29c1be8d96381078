package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
)

type Config struct {
	Port            int           `toml:"port"`
	Env             string        `toml:"env"`
	DatabaseDriver  string        `toml:"database_driver"`
	DatabaseURL     string        `toml:"database_url"`
	JWTSecret       string        `toml:"jwt_secret"`
	TokenTTL        time.Duration `toml:"-"`
	LogLevel        string        `toml:"log_level"`
	LogFile         string        `toml:"log_file"`
	SlugMaxAttempts int           `toml:"slug_max_attempts"`
	AuthRateLimit   int           `toml:"auth_rate_limit"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy      bool          `toml:"trust_proxy"`

	// TOML has no duration type; the file carries the string form.
	TokenTTLRaw string `toml:"token_ttl"`
}

func Default() *Config {
	return &Config{
		Port:            8080,
		Env:             "production",
		DatabaseDriver:  "postgres",
		DatabaseURL:     "postgres://flixcatalog:flixcatalog@db:5432/flixcatalog?sslmode=disable",
		JWTSecret:       "change-me-in-production",
		TokenTTL:        30 * 24 * time.Hour,
		LogLevel:        "info",
		SlugMaxAttempts: 8,
		AuthRateLimit:   10,
	}
}

// Load builds the configuration from defaults, an optional TOML file, a .env
// file in the working directory and finally the process environment.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if c.TokenTTLRaw != "" {
			ttl, err := cast.ToDurationE(c.TokenTTLRaw)
			if err != nil {
				return nil, fmt.Errorf("parse token_ttl: %w", err)
			}
			c.TokenTTL = ttl
		}
	}

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	c.Port = envInt("PORT", c.Port)
	c.Env = env("APP_ENV", c.Env)
	c.DatabaseDriver = env("DATABASE_DRIVER", c.DatabaseDriver)
	c.DatabaseURL = env("DATABASE_URL", c.DatabaseURL)
	c.JWTSecret = env("JWT_SECRET", c.JWTSecret)
	c.TokenTTL = envDuration("TOKEN_TTL", c.TokenTTL)
	c.LogLevel = env("LOG_LEVEL", c.LogLevel)
	c.LogFile = env("LOG_FILE", c.LogFile)
	c.SlugMaxAttempts = envInt("SLUG_MAX_ATTEMPTS", c.SlugMaxAttempts)
	c.AuthRateLimit = envInt("AUTH_RATE_LIMIT", c.AuthRateLimit)
	c.TrustProxy = envBool("TRUST_PROXY", c.TrustProxy)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET must not be empty")
	}
	if c.SlugMaxAttempts < 1 {
		return fmt.Errorf("config: SLUG_MAX_ATTEMPTS must be at least 1")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: TOKEN_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := cast.ToDurationE(v); err == nil {
			return d
		}
	}
	return fallback
}
