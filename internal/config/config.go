// Package config handles viewer and tool configuration loading and
// management.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/verdant/internal/engine/grass"
	"github.com/Faultbox/verdant/internal/engine/rocks"
	"github.com/Faultbox/verdant/internal/engine/terrain"
	"github.com/Faultbox/verdant/internal/vegetation"
)

// Vegetation sources for WorldConfig.Source.
const (
	// SourceGenerator runs the vegetation generator once and hands its
	// output to the grass and rock fields.
	SourceGenerator = "generator"
	// SourceScatter lets each field scatter its own instances.
	SourceScatter = "scatter"
)

// Config holds all settings.
type Config struct {
	Graphics   GraphicsConfig   `yaml:"graphics"`
	World      WorldConfig      `yaml:"world"`
	Vegetation VegetationConfig `yaml:"vegetation"`
	Grass      grass.Config     `yaml:"grass"`
	Rocks      rocks.Config     `yaml:"rocks"`
	Assets     AssetsConfig     `yaml:"assets"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	Fullscreen bool       `yaml:"fullscreen"`
	VSync      bool       `yaml:"vsync"`
	FPSLimit   int        `yaml:"fps_limit"`
	MSAA       int        `yaml:"msaa"`
	ClearColor [4]float32 `yaml:"clear_color,flow"`
	ShowStats  bool       `yaml:"show_stats"`
	// ScreenshotDir receives F12 screenshots.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// WorldConfig describes the terrain and how vegetation is produced.
type WorldConfig struct {
	SizeX float32 `yaml:"size_x"`
	SizeZ float32 `yaml:"size_z"`
	// Seed drives vegetation placement; zero picks a random seed.
	Seed   uint32 `yaml:"seed"`
	Source string `yaml:"source"`

	// Heightmap is an image path under the asset roots. Empty selects the
	// procedural terrain.
	Heightmap    string              `yaml:"heightmap"`
	HeightScale  float32             `yaml:"height_scale"`
	HeightOffset float32             `yaml:"height_offset"`
	Terrain      terrain.NoiseParams `yaml:"terrain"`
	Texture      string              `yaml:"texture"`

	Lake LakeConfig `yaml:"lake"`
	// SpawnClearing keeps rocks out of this radius around the origin.
	SpawnClearing float32 `yaml:"spawn_clearing"`
}

// LakeConfig is a circular basin filled with water and kept free of grass.
type LakeConfig struct {
	Enabled bool    `yaml:"enabled"`
	X       float32 `yaml:"x"`
	Z       float32 `yaml:"z"`
	Radius  float32 `yaml:"radius"`
	Depth   float32 `yaml:"depth"`
	Margin  float32 `yaml:"margin"` // extra grass-free band around the shore
	Texture string  `yaml:"texture"`
}

// VegetationConfig selects a generator preset and optional field
// overrides applied on top of it.
type VegetationConfig struct {
	Preset    string    `yaml:"preset"`
	Overrides yaml.Node `yaml:"overrides,omitempty"`
}

// AssetsConfig lists asset root directories, lowest priority first.
type AssetsConfig struct {
	Roots []string `yaml:"roots"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	rocksCfg := rocks.DefaultConfig()
	rocksCfg.Color = [4]float32{0.75, 0.72, 0.68, 1}
	rocksCfg.LODDistanceHigh = 25
	rocksCfg.LODDistanceMedium = 60

	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
			MSAA:       4,
			ClearColor: [4]float32{0.55, 0.7, 0.9, 1},

			ScreenshotDir: "screenshots",
		},
		World: WorldConfig{
			SizeX:        300,
			SizeZ:        300,
			Seed:         42,
			Source:       SourceGenerator,
			HeightScale:  40,
			HeightOffset: 0,
			Terrain: terrain.NoiseParams{
				Seed:        7,
				Resolution:  257,
				Frequency:   0.01,
				Octaves:     5,
				Persistence: 0.5,
			},
			Texture: "builtin:ground:0",
			Lake: LakeConfig{
				Enabled: true,
				X:       30,
				Z:       40,
				Radius:  25,
				Depth:   3,
				Margin:  2,
				Texture: "builtin:water",
			},
			SpawnClearing: 5,
		},
		Vegetation: VegetationConfig{
			Preset: "default",
		},
		Grass: grass.DefaultConfig(),
		Rocks: rocksCfg,
		Assets: AssetsConfig{
			Roots: []string{"assets"},
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Resolve returns the named preset with the overrides decoded over it.
func (v VegetationConfig) Resolve() (vegetation.Config, error) {
	cfg, ok := vegetation.Preset(v.Preset)
	if !ok {
		return cfg, fmt.Errorf("unknown vegetation preset %q (have %v)", v.Preset, vegetation.PresetNames())
	}
	if v.Overrides.Kind != 0 {
		if err := v.Overrides.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decoding vegetation overrides: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the sections that the viewer cannot recover from.
func (c *Config) Validate() error {
	var errs []error
	if c.World.SizeX <= 0 || c.World.SizeZ <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %gx%g", c.World.SizeX, c.World.SizeZ))
	}
	if c.World.Source != SourceGenerator && c.World.Source != SourceScatter {
		errs = append(errs, fmt.Errorf("world source must be %q or %q, got %q",
			SourceGenerator, SourceScatter, c.World.Source))
	}
	if _, err := c.Vegetation.Resolve(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Grass.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Rocks.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
