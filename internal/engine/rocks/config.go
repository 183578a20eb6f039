package rocks

import (
	"errors"
	"fmt"
)

// TypeConfig is one rock mesh and texture pair.
type TypeConfig struct {
	Name    string `yaml:"name"`
	Model   string `yaml:"model"`
	Texture string `yaml:"texture"`
}

// Config holds rock field settings.
type Config struct {
	// Density is rocks per 100 square meters for the self-generating path.
	Density      float32 `yaml:"density"`
	MinDistance  float32 `yaml:"min_distance"`
	ViewDistance float32 `yaml:"view_distance"`
	ChunkSize    float32 `yaml:"chunk_size"`

	LODDistanceHigh   float32 `yaml:"lod_distance_high"`
	LODDistanceMedium float32 `yaml:"lod_distance_medium"`

	Color [4]float32 `yaml:"color,flow"`

	Types []TypeConfig `yaml:"types"`
}

// DefaultConfig returns settings with the three builtin rock variants.
func DefaultConfig() Config {
	types := make([]TypeConfig, 3)
	for i := range types {
		types[i] = TypeConfig{
			Name:    fmt.Sprintf("rock_%d", i),
			Model:   fmt.Sprintf("builtin:rock:%d", i),
			Texture: fmt.Sprintf("builtin:rock:%d", i),
		}
	}
	return Config{
		Density:           0.5,
		MinDistance:       3,
		ViewDistance:      100,
		ChunkSize:         32,
		LODDistanceHigh:   20,
		LODDistanceMedium: 50,
		Color:             [4]float32{0.7, 0.7, 0.7, 1},
		Types:             types,
	}
}

// Validate reports settings that would make the field unusable.
func (c Config) Validate() error {
	var errs []error
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("rocks: chunk_size must be positive, got %g", c.ChunkSize))
	}
	if c.ViewDistance < 0 {
		errs = append(errs, fmt.Errorf("rocks: view_distance must not be negative, got %g", c.ViewDistance))
	}
	if c.Density < 0 {
		errs = append(errs, fmt.Errorf("rocks: density must not be negative, got %g", c.Density))
	}
	if c.LODDistanceHigh < 0 || c.LODDistanceMedium < c.LODDistanceHigh {
		errs = append(errs, fmt.Errorf("rocks: lod distances must satisfy 0 <= high <= medium, got %g and %g",
			c.LODDistanceHigh, c.LODDistanceMedium))
	}
	return errors.Join(errs...)
}
