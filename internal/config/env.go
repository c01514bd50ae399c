// Package config loads genecards defaults from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the defaults shared by the CLI and the HTTP server. Command
// line flags override these values.
type Config struct {
	StoreKind string `env:"GENECARDS_STORE" envDefault:"memory"`
	DBPath    string `env:"GENECARDS_DB_PATH" envDefault:"genecards.db"`
	Seed      int64  `env:"GENECARDS_SEED"`
	RulesPath string `env:"GENECARDS_RULES"`
	Workers   int    `env:"GENECARDS_WORKERS" envDefault:"4"`
	HTTPAddr  string `env:"GENECARDS_HTTP_ADDR" envDefault:"127.0.0.1:8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
