package grass

import (
	"errors"
	"fmt"
)

// TypeConfig is one selectable mesh and texture pair within a group.
type TypeConfig struct {
	Name    string  `yaml:"name"`
	Model   string  `yaml:"model"`
	Texture string  `yaml:"texture"`
	Weight  float32 `yaml:"weight"`
}

// GroupConfig is a named set of grass types with a selection weight.
type GroupConfig struct {
	Name   string       `yaml:"name"`
	Weight float32      `yaml:"weight"`
	Types  []TypeConfig `yaml:"types"`
}

// Config holds grass field settings.
type Config struct {
	// Density is instances per square meter for the self-generating path.
	Density float32 `yaml:"density"`
	// MinDistance scales the per-instance jitter of the self-generating path.
	MinDistance  float32 `yaml:"min_distance"`
	ViewDistance float32 `yaml:"view_distance"`
	ChunkSize    float32 `yaml:"chunk_size"`

	WindDirection [2]float32 `yaml:"wind_direction,flow"`
	WindStrength  float32    `yaml:"wind_strength"`
	WindSpeed     float32    `yaml:"wind_speed"`

	ColorTop    [4]float32 `yaml:"color_top,flow"`
	ColorBottom [4]float32 `yaml:"color_bottom,flow"`

	Groups []GroupConfig `yaml:"groups"`
}

// DefaultConfig returns settings with three groups of three builtin types,
// matching the nine grass variants the vegetation generator draws from.
func DefaultConfig() Config {
	names := [3]string{"short", "tall", "flowering"}
	groups := make([]GroupConfig, len(names))
	for g, name := range names {
		groups[g] = GroupConfig{Name: name, Weight: 1}
		for t := 0; t < 3; t++ {
			variant := g*3 + t
			groups[g].Types = append(groups[g].Types, TypeConfig{
				Name:    fmt.Sprintf("%s_%d", name, t),
				Model:   fmt.Sprintf("builtin:grass:%d", variant),
				Texture: fmt.Sprintf("builtin:grass:%d", variant),
				Weight:  1,
			})
		}
	}
	groups[0].Weight = 2

	return Config{
		Density:       3.0,
		MinDistance:   0.5,
		ViewDistance:  50,
		ChunkSize:     16,
		WindDirection: [2]float32{1, 0.5},
		WindStrength:  1.5,
		WindSpeed:     1,
		ColorTop:      [4]float32{0.6, 0.9, 0.5, 1},
		ColorBottom:   [4]float32{0.3, 0.5, 0.2, 1},
		Groups:        groups,
	}
}

// Validate reports settings that would make the field unusable.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("grass: chunk_size must be positive, got %g", c.ChunkSize))
	}
	if c.ViewDistance < 0 {
		errs = append(errs, fmt.Errorf("grass: view_distance must not be negative, got %g", c.ViewDistance))
	}
	if c.Density < 0 {
		errs = append(errs, fmt.Errorf("grass: density must not be negative, got %g", c.Density))
	}
	for _, g := range c.Groups {
		if g.Weight < 0 {
			errs = append(errs, fmt.Errorf("grass: group %q has negative weight", g.Name))
		}
		for _, t := range g.Types {
			if t.Weight < 0 {
				errs = append(errs, fmt.Errorf("grass: type %q has negative weight", t.Name))
			}
		}
	}
	return errors.Join(errs...)
}
