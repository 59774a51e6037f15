// Package config loads service configuration from the process environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration for the campus scheduler.
type Config struct {
	HTTPAddr   string        `env:"CAMPUS_HTTP_ADDR" envDefault:":8080"`
	SQLitePath string        `env:"CAMPUS_SQLITE_PATH" envDefault:"campus.db"`
	SessionTTL time.Duration `env:"CAMPUS_SESSION_TTL" envDefault:"24h"`

	// MaxOccurrences caps recurrence expansion; zero keeps the engine default.
	MaxOccurrences int `env:"CAMPUS_MAX_OCCURRENCES" envDefault:"0"`

	// Bootstrap credentials seed the first admin account when the user
	// table is empty. Both must be set together or not at all.
	BootstrapAdminEmail    string `env:"CAMPUS_BOOTSTRAP_ADMIN_EMAIL"`
	BootstrapAdminPassword string `env:"CAMPUS_BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load parses and validates configuration from the current environment.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("CAMPUS_SESSION_TTL must be positive")
	}
	if cfg.MaxOccurrences < 0 {
		return Config{}, fmt.Errorf("CAMPUS_MAX_OCCURRENCES must not be negative")
	}
	if (cfg.BootstrapAdminEmail == "") != (cfg.BootstrapAdminPassword == "") {
		return Config{}, fmt.Errorf("CAMPUS_BOOTSTRAP_ADMIN_EMAIL and CAMPUS_BOOTSTRAP_ADMIN_PASSWORD must be set together")
	}

	return cfg, nil
}
