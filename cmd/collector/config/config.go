package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	rewardscfg "github.com/screwyprof/hnttax/rewards/config"
)

// Config holds the settings of a one-shot collection
type Config struct {
	Wallet           string        `env:"COLLECTOR_WALLET,required"`
	Year             int           `env:"COLLECTOR_YEAR,required"`
	Output           string        `env:"COLLECTOR_OUTPUT"` // file path, stdout when empty
	Timeout          time.Duration `env:"COLLECTOR_TIMEOUT" envDefault:"30m"`
	Helium           rewardscfg.Helium
	Redis            rewardscfg.Redis
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	LogHumanFriendly bool   `env:"LOG_HUMAN_FRIENDLY" envDefault:"true"`
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
