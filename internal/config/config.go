// Package config handles map build configuration loading and management.
package config

// Config holds all build tool settings.
type Config struct {
	Build    BuildConfig   `yaml:"build"`
	Textures TextureConfig `yaml:"textures"`
	Export   ExportConfig  `yaml:"export"`
	Logging  LoggingConfig `yaml:"logging"`
}

// BuildConfig holds geometry build and consolidation settings.
type BuildConfig struct {
	UnitsPerMeter  float32 `yaml:"units_per_meter"`  // Map units per world unit
	BucketCellSize float32 `yaml:"bucket_cell_size"` // Spatial bucket edge for batching
	Headless       bool    `yaml:"headless"`         // Skip textures, build collision only
	Charset        string  `yaml:"charset"`          // Map file encoding, empty for UTF-8
}

// TextureConfig holds texture and material lookup settings.
type TextureConfig struct {
	Root            string            `yaml:"root"`       // Directory or .pak archive containing textures/
	Extensions      []string          `yaml:"extensions"` // Probe order for base color files
	Filter          string            `yaml:"filter"`     // "linear" or "nearest"
	FilterOverrides map[string]string `yaml:"filter_overrides"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	GLTFPath string `yaml:"gltf_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Build: BuildConfig{
			UnitsPerMeter:  32,
			BucketCellSize: 50,
			Headless:       false,
		},
		Textures: TextureConfig{
			Root:       ".",
			Extensions: []string{"png", "tga", "bmp", "webp"},
			Filter:     "linear",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// FilterFor returns the sampler filter for a texture, honoring per-texture overrides.
func (c TextureConfig) FilterFor(texture string) string {
	if f, ok := c.FilterOverrides[texture]; ok {
		return f
	}
	if c.Filter == "" {
		return "linear"
	}
	return c.Filter
}
