package config

import (
	"fmt"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"integrations"`
	Password string `env:"PASSWORD" envDefault:"integrations"`
	Name     string `env:"NAME"     envDefault:"integrations"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically
	// applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// DSN returns the keyword/value connection string for pgx.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// CacheConfig contains the optional Redis-backed token cache configuration.
// When Addr is empty the in-memory cache is used.
type CacheConfig struct {
	Addr     string        `env:"REDIS_ADDR"     envDefault:""`
	Password string        `env:"REDIS_PASSWORD" envDefault:""`
	DB       int           `env:"REDIS_DB"       envDefault:"0"`
	MaxTTL   time.Duration `env:"TOKEN_MAX_TTL"  envDefault:"1h"`
}
