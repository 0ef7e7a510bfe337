package testcfg

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds test-specific configuration for processor acceptance tests
// NOTE: All values are test-optimized (smaller, faster) compared to production
type Config struct {
	ChunkSize    uint64        `env:"PROCESSOR_TEST_CHUNK_SIZE" envDefault:"2"`         // vs 50 in production
	PollInterval time.Duration `env:"PROCESSOR_TEST_POLL_INTERVAL" envDefault:"100ms"` // vs 30s in production

	// Test execution timeouts
	ShutdownTimeout time.Duration `env:"PROCESSOR_TEST_SHUTDOWN_TIMEOUT" envDefault:"5s"`

	// Test database setup (for migrator/migratortest)
	MigrationsDir string `env:"PROCESSOR_TEST_MIGRATIONS_DIR" envDefault:"../migrator/migrations"`
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
