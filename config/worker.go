package config

import "time"

// WorkerConfig contains job worker configuration.
type WorkerConfig struct {
	// DefaultLimit is the batch size used when a trigger does not specify one.
	DefaultLimit int `env:"WORKER_DEFAULT_LIMIT" envDefault:"20"`
	// MaxLimit caps the batch size a trigger may request.
	MaxLimit int `env:"WORKER_MAX_LIMIT" envDefault:"100"`
}

// Sanitize applies guardrails to worker configuration values.
func (w *WorkerConfig) Sanitize() {
	if w.DefaultLimit < 1 {
		w.DefaultLimit = 20
	}
	if w.MaxLimit < 1 {
		w.MaxLimit = 100
	}
	if w.DefaultLimit > w.MaxLimit {
		w.DefaultLimit = w.MaxLimit
	}
}

// ReaperConfig contains stale-lock reaper configuration.
type ReaperConfig struct {
	// Enabled controls whether the reaper loop runs alongside the HTTP server.
	Enabled bool `env:"REAPER_ENABLED" envDefault:"true"`
	// Interval between sweeps.
	Interval time.Duration `env:"REAPER_INTERVAL" envDefault:"5m"`
	// StaleAfter is how long a job may stay running before its lock is
	// considered orphaned.
	StaleAfter time.Duration `env:"REAPER_STALE_AFTER" envDefault:"15m"`
	// BatchSize is the maximum number of rows requeued per sweep.
	BatchSize int `env:"REAPER_BATCH_SIZE" envDefault:"100"`
}

// Sanitize applies guardrails to reaper configuration values.
func (r *ReaperConfig) Sanitize() {
	if r.Interval < time.Minute {
		r.Interval = time.Minute
	}
	if r.StaleAfter < r.Interval {
		r.StaleAfter = r.Interval
	}
	if r.BatchSize < 1 {
		r.BatchSize = 100
	}
}
