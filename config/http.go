package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// JobRunnerToken protects the internal worker trigger endpoint. The
	// endpoint returns 503 when this is unset.
	JobRunnerToken string `env:"INTERNAL_JOB_RUNNER_TOKEN" envDefault:""`
}
