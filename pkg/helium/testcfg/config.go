package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for helium client acceptance tests
type Config struct {
	Wallet      string        `env:"HELIUM_TEST_WALLET" envDefault:"13buBykFQf5VaQtv7mWj2PBY9Lq4i1DeXhg7C4Vbu3ppzqqNkTH"`
	Year        int           `env:"HELIUM_TEST_YEAR" envDefault:"2021"`
	Block       int64         `env:"HELIUM_TEST_BLOCK" envDefault:"1000000"`
	HTTPTimeout time.Duration `env:"HELIUM_TEST_HTTP_TIMEOUT" envDefault:"30s"`
	BaseURL     string        `env:"HELIUM_TEST_BASE_URL" envDefault:"https://api.helium.io/v1"`
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
