package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings for the server. Every field can be
// overridden through the environment; the defaults match local development.
type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DBPath         string        `env:"DB_PATH" envDefault:"./dropin.db"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" envDefault:"pkg/db/migrations/sqlite"`
	JWTSecret      string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	UploadsDir     string        `env:"UPLOADS_DIR" envDefault:"./uploads"`
	FrontendOrigin string        `env:"FRONTEND_ORIGIN" envDefault:"http://localhost:5173"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config from environment: %w", err)
	}
	return cfg, nil
}
