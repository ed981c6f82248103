package config

import "flag"

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagHeadless = flag.Bool("headless", false, "Skip texture loading (collision only)")
	flagCell     = flag.Float64("cell", 0, "Spatial bucket cell size for batching")
	flagUnits    = flag.Float64("units", 0, "Map units per world unit")
	flagTextures = flag.String("textures", "", "Texture root directory")
	flagOut      = flag.String("out", "", "glTF output path")
	flagCharset  = flag.String("charset", "", "Map file charset (utf-8, windows-1252, iso-8859-1, euc-kr)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagHeadless {
		cfg.Build.Headless = true
	}
	if *flagCell > 0 {
		cfg.Build.BucketCellSize = float32(*flagCell)
	}
	if *flagUnits > 0 {
		cfg.Build.UnitsPerMeter = float32(*flagUnits)
	}
	if *flagTextures != "" {
		cfg.Textures.Root = *flagTextures
	}
	if *flagOut != "" {
		cfg.Export.GLTFPath = *flagOut
	}
	if *flagCharset != "" {
		cfg.Build.Charset = *flagCharset
	}
}
