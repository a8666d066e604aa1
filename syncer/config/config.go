package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration loaded from environment variables
type Config struct {
	Network              string `env:"STAKESYNC_NETWORK" envDefault:"mainnet"`
	NetworksFile         string `env:"STAKESYNC_NETWORKS_FILE" envDefault:"networks.yaml"`
	EndpointsDatabaseURL string `env:"STAKESYNC_ENDPOINTS_DATABASE_URL"`

	MaxAttempts       int           `env:"STAKESYNC_MAX_ATTEMPTS" envDefault:"10"`
	RetryDelay        time.Duration `env:"STAKESYNC_RETRY_DELAY" envDefault:"100ms"`
	HttpClientTimeout time.Duration `env:"STAKESYNC_HTTP_CLIENT_TIMEOUT" envDefault:"30s"`

	LandingInterval time.Duration `env:"STAKESYNC_LANDING_INTERVAL" envDefault:"30s"`
	UserInterval    time.Duration `env:"STAKESYNC_USER_INTERVAL" envDefault:"10s"`
	VaultInterval   time.Duration `env:"STAKESYNC_VAULT_INTERVAL" envDefault:"20s"`

	VaultConcurrency int `env:"STAKESYNC_VAULT_CONCURRENCY" envDefault:"4"`
	NodeConcurrency  int `env:"STAKESYNC_NODE_CONCURRENCY" envDefault:"4"`
	EventBuffer      int `env:"STAKESYNC_EVENT_BUFFER" envDefault:"64"`

	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"false"`
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
