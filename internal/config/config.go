// Package config loads the service configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration. Defaults target local development.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"3000"`
	GRPCPort    string `env:"GRPC_PORT" envDefault:"50051"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver    string `env:"DB_DRIVER" envDefault:"memory"`
	SQLiteFile  string `env:"SQLITE_FILE" envDefault:"dev.sqlite"`
	DatabaseURL string `env:"DATABASE_URL"`
	RosterFile  string `env:"ROSTER_FILE"`

	NATSURL     string `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	NATSSubject string `env:"NATS_SUBJECT" envDefault:"roster.events"`
	NATSStream  string `env:"NATS_STREAM" envDefault:"ROSTER_EVENTS"`

	ClickHouseAddr     string        `env:"CLICKHOUSE_ADDR" envDefault:"localhost:9000"`
	ClickHouseDB       string        `env:"CLICKHOUSE_DB" envDefault:"default"`
	ClickHouseUser     string        `env:"CLICKHOUSE_USER" envDefault:"default"`
	ClickHousePassword string        `env:"CLICKHOUSE_PASSWORD"`
	PowerSyncInterval  time.Duration `env:"POWER_SYNC_INTERVAL" envDefault:"5m"`

	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	FormationCacheTTL time.Duration `env:"FORMATION_CACHE_TTL" envDefault:"24h"`

	AuthentikBaseURL      string   `env:"AUTHENTIK_BASE_URL"`
	AuthentikClientID     string   `env:"AUTHENTIK_CLIENT_ID"`
	AuthentikClientSecret string   `env:"AUTHENTIK_CLIENT_SECRET"`
	AuthentikRedirectURL  string   `env:"AUTHENTIK_REDIRECT_URL" envDefault:"http://localhost:3000/auth/callback"`
	AuthentikScopes       []string `env:"AUTHENTIK_SCOPES" envDefault:"openid,profile,email" envSeparator:","`
	AuthentikApplication  string   `env:"AUTHENTIK_APPLICATION" envDefault:"teamforge"`
}

// Load parses the environment into a Config and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether development stand-ins (embedded NATS, mock auth,
// mock power source) should be used
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Validate checks cross-field requirements
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL environment variable is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", c.DBDriver)
	}

	if !c.IsDevelopment() {
		var missing []string
		if c.AuthentikBaseURL == "" {
			missing = append(missing, "AUTHENTIK_BASE_URL")
		}
		if c.AuthentikClientID == "" {
			missing = append(missing, "AUTHENTIK_CLIENT_ID")
		}
		if c.AuthentikClientSecret == "" {
			missing = append(missing, "AUTHENTIK_CLIENT_SECRET")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%s required for production", strings.Join(missing, ", "))
		}
	}

	if c.PowerSyncInterval <= 0 {
		return fmt.Errorf("POWER_SYNC_INTERVAL must be positive, got %s", c.PowerSyncInterval)
	}
	return nil
}
