// Package config loads application configuration from environment variables
// using the github.com/caarlos0/env library. See the individual domain config
// files for the available variables:
//   - database.go: PostgreSQL and cache configuration
//   - http.go: HTTP server configuration
//   - worker.go: worker and reaper configuration
//   - providers.go: Zoom, Google Drive, WhatsApp, and email configuration
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
type AppConfig struct {
	// IsDev controls development mode behavior (pretty logging, relaxed guards).
	IsDev bool `env:"DEV" envDefault:"false"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Cache    CacheConfig `envPrefix:"CACHE_"`
	HTTP     HTTPConfig
	Worker   WorkerConfig
	Reaper   ReaperConfig

	Zoom     ZoomConfig     `envPrefix:"ZOOM_"`
	Drive    DriveConfig    `envPrefix:"GOOGLE_DRIVE_"`
	WhatsApp WhatsAppConfig `envPrefix:"WHATSAPP_"`
	Email    EmailConfig
}

// Load parses the environment into an AppConfig and applies guardrails.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to configuration values loaded from env.
func (c *AppConfig) Sanitize() {
	c.Worker.Sanitize()
	c.Reaper.Sanitize()
}
