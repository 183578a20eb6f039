package config

import (
	"flag"
	"fmt"
	"math"
)

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging and the stats title")
	flagSeed         = flag.Uint64("seed", 0, "World seed (0 keeps the configured seed)")
	flagPreset       = flag.String("preset", "", "Vegetation preset name")
	flagSource       = flag.String("source", "", "Instance source: generator or scatter")
	flagHeightmap    = flag.String("heightmap", "", "Heightmap asset (image, .r8 or .r16)")
	flagNoLake       = flag.Bool("no-lake", false, "Disable the lake and its basin")
	flagViewDistance = flag.Float64("view-distance", 0, "Override grass and rock view distance")
	flagWindowed     = flag.Bool("windowed", false, "Run in windowed mode")
	flagFullscreen   = flag.Bool("fullscreen", false, "Run in fullscreen mode")
	flagWidth        = flag.Int("width", 0, "Window width")
	flagHeight       = flag.Int("height", 0, "Window height")
)

// ParseFlags parses the viewer's command-line flags. Call it before Load.
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the -config flag value.
func ConfigPath() string {
	return *flagConfig
}

// ParseSeed narrows a command-line seed to the generator's 32 bits.
// Larger values are rejected rather than wrapped, since a wrap to 0 would
// silently ask for a random seed.
func ParseSeed(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("seed %d out of range (max %d)", v, uint64(math.MaxUint32))
	}
	return uint32(v), nil
}

// applyFlags copies set flags over cfg. Zero values mean "not given".
func applyFlags(cfg *Config) error {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Graphics.ShowStats = true
	}

	if *flagSeed != 0 {
		seed, err := ParseSeed(*flagSeed)
		if err != nil {
			return err
		}
		cfg.World.Seed = seed
	}
	if *flagPreset != "" {
		cfg.Vegetation.Preset = *flagPreset
	}
	if *flagSource != "" {
		cfg.World.Source = *flagSource
	}
	if *flagHeightmap != "" {
		cfg.World.Heightmap = *flagHeightmap
	}
	if *flagNoLake {
		cfg.World.Lake.Enabled = false
	}
	if d := float32(*flagViewDistance); d > 0 {
		cfg.Grass.ViewDistance = d
		cfg.Rocks.ViewDistance = d
	}

	if *flagWindowed {
		cfg.Graphics.Fullscreen = false
	}
	if *flagFullscreen {
		cfg.Graphics.Fullscreen = true
	}
	if *flagWidth > 0 {
		cfg.Graphics.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Graphics.Height = *flagHeight
	}
	return nil
}
