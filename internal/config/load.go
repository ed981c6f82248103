package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/brushwork/pkg/encoding"
)

// FileName is the config file name searched for in standard locations.
const FileName = "brushwork.yaml"

// Validation errors.
var (
	ErrInvalidCellSize = errors.New("bucket_cell_size must be positive")
	ErrInvalidUnits    = errors.New("units_per_meter must be positive")
	ErrInvalidFilter   = errors.New("texture filter must be \"linear\" or \"nearest\"")
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	cfg := Default()

	// Explicit path takes priority over the search locations
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the build cannot work with.
func (c *Config) Validate() error {
	if c.Build.BucketCellSize <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidCellSize, c.Build.BucketCellSize)
	}
	if c.Build.UnitsPerMeter <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidUnits, c.Build.UnitsPerMeter)
	}
	if _, err := encoding.Lookup(c.Build.Charset); err != nil {
		return fmt.Errorf("build.charset: %w", err)
	}
	if c.Textures.Filter != "" && !validFilter(c.Textures.Filter) {
		return fmt.Errorf("%w: %q", ErrInvalidFilter, c.Textures.Filter)
	}
	for name, f := range c.Textures.FilterOverrides {
		if !validFilter(f) {
			return fmt.Errorf("%w: %q for %s", ErrInvalidFilter, f, name)
		}
	}
	return nil
}

func validFilter(f string) bool {
	return f == "linear" || f == "nearest"
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		filepath.Join(".", FileName),
		filepath.Join(ConfigDir(), FileName),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Brushwork")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Brushwork")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "brushwork")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "brushwork")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
