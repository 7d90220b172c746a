package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the storefront service.
type Config struct {
	AppPort    string
	APIURL     string
	APITimeout time.Duration
	APIDebug   bool
	PageSize   int

	StorageDriver  string
	DatabaseDSN    string
	RedisURL       string
	RedisNamespace string

	JWTSecret     string
	TokenTTL      time.Duration
	AdminEmail    string
	AdminPassword string

	RabbitMQURL string

	LogLevel  string
	LogFormat string

	LoginRatePerSecond float64
	LoginBurst         int
}

// SetDefaults registers every known key and its default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("API_TIMEOUT", "10s")
	v.SetDefault("API_DEBUG", false)
	v.SetDefault("PAGE_SIZE", 16)
	v.SetDefault("STORAGE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "file:storefront.db?cache=shared")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("REDIS_NAMESPACE", "storefront")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("ADMIN_EMAIL", "admin@storefront.local")
	v.SetDefault("ADMIN_PASSWORD", "admin")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOGIN_RATE_PER_SECOND", 1.0)
	v.SetDefault("LOGIN_BURST", 5)
}

// Load reads an optional .env file, then the environment, into a Config.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		AppPort:            v.GetString("APP_PORT"),
		APIURL:             strings.TrimRight(v.GetString("API_URL"), "/"),
		APITimeout:         parseDuration(v.GetString("API_TIMEOUT"), 10*time.Second),
		APIDebug:           v.GetBool("API_DEBUG"),
		PageSize:           v.GetInt("PAGE_SIZE"),
		StorageDriver:      strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseDSN:        v.GetString("DATABASE_DSN"),
		RedisURL:           v.GetString("REDIS_URL"),
		RedisNamespace:     v.GetString("REDIS_NAMESPACE"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenTTL:           parseDuration(v.GetString("TOKEN_TTL"), 24*time.Hour),
		AdminEmail:         v.GetString("ADMIN_EMAIL"),
		AdminPassword:      v.GetString("ADMIN_PASSWORD"),
		RabbitMQURL:        v.GetString("RABBITMQ_URL"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		LogFormat:          v.GetString("LOG_FORMAT"),
		LoginRatePerSecond: v.GetFloat64("LOGIN_RATE_PER_SECOND"),
		LoginBurst:         v.GetInt("LOGIN_BURST"),
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	switch c.StorageDriver {
	case "memory", "sqlite", "postgres", "redis":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	return nil
}

// parseDuration accepts Go duration strings ("10s") and bare integers, which
// are read as milliseconds to match the frontend's REACT_APP_API_TIMEOUT.
func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		if ms <= 0 {
			return fallback
		}
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
