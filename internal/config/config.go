// Package config loads server settings from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the serve-time settings. Every field can be set through a
// NAJDENO_* environment variable; command line flags override the result.
type Config struct {
	Addr       string `envconfig:"ADDR" default:":8080"`
	DBPath     string `envconfig:"DB_PATH" default:"najdeno.sqlite3"`
	LogPath    string `envconfig:"LOG_PATH"`
	AdminName  string `envconfig:"ADMIN_NAME" default:"Site Admin"`
	AdminEmail string `envconfig:"ADMIN_EMAIL" default:"admin@najdeno.local"`
}

// Load reads the configuration from NAJDENO_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("najdeno", &cfg); err != nil {
		return nil, fmt.Errorf("reading environment config: %w", err)
	}
	return &cfg, nil
}
