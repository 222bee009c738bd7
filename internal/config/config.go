package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"ADDR" envDefault:":8080"`

	SeedSource  string `env:"SEED_SOURCE" envDefault:"file"` // file | postgres
	SeedFile    string `env:"SEED_FILE" envDefault:"draft.yaml"`
	DatabaseURL string `env:"DATABASE_URL"`
	Rounds      int    `env:"ROUNDS" envDefault:"5"`
	OrderStyle  string `env:"ORDER_STYLE" envDefault:"linear"`

	Lookahead   int  `env:"LOOKAHEAD" envDefault:"10"`
	StartPaused bool `env:"START_PAUSED"`

	SessionSecret string `env:"SESSION_SECRET"`

	RedisURL     string `env:"REDIS_URL"`
	RedisChannel string `env:"REDIS_CHANNEL" envDefault:"draftroom:events"`

	HydrationAttempts int           `env:"HYDRATION_ATTEMPTS" envDefault:"60"`
	HydrationInterval time.Duration `env:"HYDRATION_INTERVAL" envDefault:"1s"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	Dev      bool   `env:"DEV"`
}

// Load reads an optional .env file and then the process environment.
func Load(dotenvFiles ...string) (Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET required")
	}
	switch c.SeedSource {
	case "file":
		if c.SeedFile == "" {
			return errors.New("SEED_FILE required for file seed source")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL required for postgres seed source")
		}
	default:
		return fmt.Errorf("unknown SEED_SOURCE %q (expected file or postgres)", c.SeedSource)
	}
	if c.HydrationAttempts < 0 {
		return fmt.Errorf("HYDRATION_ATTEMPTS must not be negative, got %d", c.HydrationAttempts)
	}
	return nil
}
