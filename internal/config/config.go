// Package config loads process settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr           string        `env:"POCKET_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr           string        `env:"POCKET_GRPC_ADDR" envDefault:":9090"`
	DBPath             string        `env:"POCKET_DB_PATH" envDefault:"data/profiles.db"`
	ConfigDir          string        `env:"POCKET_CONFIG_DIR" envDefault:"configs"`
	Banner             string        `env:"POCKET_BANNER" envDefault:"default"`
	InteractionTimeout time.Duration `env:"POCKET_INTERACTION_TIMEOUT" envDefault:"120s"`
	ReloadInterval     time.Duration `env:"POCKET_RELOAD_INTERVAL" envDefault:"2s"`
	StartingCoins      int           `env:"POCKET_STARTING_COINS" envDefault:"1600"`
	SpriteURL          string        `env:"POCKET_SPRITE_URL"`
	ArtURL             string        `env:"POCKET_ART_URL"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var c Config
	if err := ParseEnv(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []string
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, "POCKET_HTTP_ADDR is empty")
	}
	if c.InteractionTimeout <= 0 {
		errs = append(errs, "POCKET_INTERACTION_TIMEOUT must be positive")
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, "POCKET_RELOAD_INTERVAL must not be negative")
	}
	if c.StartingCoins < 0 {
		errs = append(errs, "POCKET_STARTING_COINS must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
