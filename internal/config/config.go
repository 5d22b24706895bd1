// Package config provides the TOML configuration file and its
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config holds the resolved settings after defaults, file and
// environment have been merged.
type Config struct {
	DBPath     string
	Port       int
	Resamples  int
	Confidence float64
}

// fileConfig maps the TOML file; pointer fields distinguish "absent"
// from zero values.
type fileConfig struct {
	DBPath     *string  `toml:"db_path"`
	Port       *int     `toml:"port"`
	Resamples  *int     `toml:"resamples"`
	Confidence *float64 `toml:"confidence"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath:     "./uplift.db",
		Port:       8080,
		Resamples:  2000,
		Confidence: 0.95,
	}
}

// Load resolves the configuration: defaults, then the TOML file at the
// default path, then UPLIFT_DB_PATH and UPLIFT_PORT. A missing file is
// not an error.
func Load() (Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom is Load with an explicit file path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	fc, err := readFile(path)
	if err != nil {
		return Config{}, err
	}
	if fc.DBPath != nil {
		cfg.DBPath = *fc.DBPath
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Resamples != nil {
		cfg.Resamples = *fc.Resamples
	}
	if fc.Confidence != nil {
		cfg.Confidence = *fc.Confidence
	}

	if v := os.Getenv("UPLIFT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("UPLIFT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("bad UPLIFT_PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return fc, nil
}

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "uplift", "config.toml")
}
