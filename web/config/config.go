package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the HTTP server configuration loaded from environment variables
type Config struct {
	HTTPPort        string        `env:"WEB_HTTP_PORT" envDefault:"8080"`
	HTTPHost        string        `env:"WEB_HTTP_HOST" envDefault:"localhost"`
	ReadTimeout     time.Duration `env:"WEB_READ_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"WEB_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads all configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
