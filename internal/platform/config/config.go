package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the deployment-provided configuration for the admin API.
type Config struct {
	Port           string `env:"PORT" envDefault:"8080"`
	StorageBackend string `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string `env:"DATABASE_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	MinPasswordStrength  int           `env:"MIN_PASSWORD_STRENGTH" envDefault:"80"`
	MasterSearchLimit    int           `env:"MASTER_SEARCH_LIMIT" envDefault:"5"`
	MasterSearchDebounce time.Duration `env:"MASTER_SEARCH_DEBOUNCE" envDefault:"300ms"`
	MaxSecondaries       int           `env:"MAX_SECONDARIES" envDefault:"10"`

	EmailServiceConfigured bool `env:"EMAIL_SERVICE_CONFIGURED" envDefault:"false"`

	// IdempotencyTTL bounds how long submit replays are kept. Zero keeps them forever.
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics"`
	// DefaultOperator is used when a request carries no X-Operator header.
	DefaultOperator string `env:"DEFAULT_OPERATOR" envDefault:"admin"`
}

// LoadDotEnv loads the given files into the process environment, skipping
// files that do not exist. Variables already set are not overridden.
func LoadDotEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load parses Config from the environment and checks it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.StorageBackend))
	}
	if c.MinPasswordStrength < 0 || c.MinPasswordStrength > 100 {
		errs = append(errs, fmt.Errorf("MIN_PASSWORD_STRENGTH must be between 0 and 100, got %d", c.MinPasswordStrength))
	}
	if c.MasterSearchLimit <= 0 {
		errs = append(errs, fmt.Errorf("MASTER_SEARCH_LIMIT must be positive, got %d", c.MasterSearchLimit))
	}
	if c.MasterSearchDebounce <= 0 {
		errs = append(errs, fmt.Errorf("MASTER_SEARCH_DEBOUNCE must be positive, got %s", c.MasterSearchDebounce))
	}
	if c.IdempotencyTTL < 0 {
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_TTL must not be negative, got %s", c.IdempotencyTTL))
	}
	if c.MaxSecondaries <= 0 {
		errs = append(errs, fmt.Errorf("MAX_SECONDARIES must be positive, got %d", c.MaxSecondaries))
	}
	return errors.Join(errs...)
}
