package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	AppPort        string        `mapstructure:"APP_PORT"`
	DatabaseDriver string        `mapstructure:"DATABASE_DRIVER"`
	DatabaseDSN    string        `mapstructure:"DATABASE_DSN"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	RabbitMQURL    string        `mapstructure:"RABBITMQ_URL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RatingCacheTTL time.Duration `mapstructure:"RATING_CACHE_TTL"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	LogPretty      bool          `mapstructure:"LOG_PRETTY"`
}

var keys = []string{
	"APP_PORT", "DATABASE_DRIVER", "DATABASE_DSN", "JWT_SECRET", "SESSION_TTL",
	"RABBITMQ_URL", "REDIS_ADDR", "REDIS_PASSWORD", "RATING_CACHE_TTL",
	"LOG_LEVEL", "LOG_PRETTY",
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(viper.New())
}

// FromViper applies defaults and environment bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "farmers_market.db")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("RATING_CACHE_TTL", 5*time.Minute)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER %q: want sqlite or postgres", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}
