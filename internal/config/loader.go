package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GROWTH_CONFIG is set
//  3. env (prefix GROWTH_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GROWTH_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: GROWTH_ADDR, GROWTH_WINDOW_SIZE, ...
	// Map env keys like GROWTH_WINDOW_SIZE -> window_size (flat keys);
	// underscores are preserved to match the koanf tags on the struct.
	envProvider := env.Provider("GROWTH_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "growth_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StoreSQLite && c.SQLitePath == "":
		return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
	case c.WindowSize <= 0:
		return fmt.Errorf("%w: window_size must be positive", ErrInvalidConfig)
	case c.EmergingMin <= 0 || c.VCReadyMin <= c.EmergingMin:
		return fmt.Errorf("%w: score bands must satisfy 0 < emerging_min < vc_ready_min", ErrInvalidConfig)
	}
	return nil
}
