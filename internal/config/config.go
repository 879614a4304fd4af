// Package config loads service configuration from an optional YAML file
// overridden by UAS_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the service's environment variables, e.g.
// UAS_POSTGRES_DSN and UAS_DASHBOARD_KEY.
const EnvPrefix = "UAS_"

// DefaultConfigPaths are searched in order when no explicit path is
// given; the first existing file wins.
var DefaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	ListenAddr   string `koanf:"listen_addr"`
	PostgresDSN  string `koanf:"postgres_dsn"`
	DashboardKey string `koanf:"dashboard_key"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`

	// TimelineDays is the default dashboard timeline window.
	TimelineDays int `koanf:"timeline_days"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:   ":8080",
		LogLevel:     "info",
		LogFormat:    "json",
		TimelineDays: 90,
	}
}

// Load reads defaults, then the config file at path (or the first
// default path when path is empty; a missing file is not an error),
// then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		for _, candidate := range DefaultConfigPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresDSN == "" {
		return errors.New("postgres_dsn is required")
	}
	if c.DashboardKey == "" {
		return errors.New("dashboard_key is required")
	}
	if c.TimelineDays < 1 {
		c.TimelineDays = 90
	}
	return nil
}
