package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for zilrpc client acceptance tests
type Config struct {
	Endpoint        string        `env:"ZILRPC_TEST_ENDPOINT" envDefault:"https://api.zilliqa.com"`
	StakingContract string        `env:"ZILRPC_TEST_STAKING_CONTRACT" envDefault:"0xa7c67d49c82c7dc1b73d231640b2f4d0661d37c1"`
	HTTPTimeout     time.Duration `env:"ZILRPC_TEST_HTTP_TIMEOUT" envDefault:"30s"`
}

// parseConfig wraps env.Parse to return (Config, error) for use with env.Must
func parseConfig() (Config, error) {
	var cfg Config
	err := env.Parse(&cfg)
	return cfg, err
}

// New loads test configuration from environment variables
func New() Config {
	return env.Must(parseConfig())
}
