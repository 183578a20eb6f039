// Package vegetation scatters grass and rock items over a terrain.
//
// Generation lays a jittered grid of spawn points over the world rectangle,
// filters them by terrain height and slope, picks rock or grass per point
// with an fbm-biased probability and places either one item or a cluster.
// A spatial hash grid per category rejects overlapping placements.
package vegetation

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// Category tags an item as grass or rock.
type Category int

const (
	Grass Category = iota
	Rock
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Grass:
		return "grass"
	case Rock:
		return "rock"
	default:
		return "unknown"
	}
}

// Palette sizes used when drawing a visual type index for a placed item.
const (
	GrassPaletteSize = 9
	RockPaletteSize  = 3
)

// Item is a placed scatter point. Items are immutable once generated.
type Item struct {
	Position  mgl32.Vec3 `yaml:"position,flow"`
	RotationY float32    `yaml:"rotation_y"`
	Scale     float32    `yaml:"scale"`
	TypeIndex int        `yaml:"type_index"`
	Category  Category   `yaml:"category"`
	Radius    float32    `yaml:"radius"`
}

// HeightSampler answers terrain height queries in world space.
// Implementations must be deterministic and clamp out-of-range coordinates.
type HeightSampler interface {
	SampleHeightWorld(x, z float32) float32
}

// HeightFunc adapts a plain function to HeightSampler.
type HeightFunc func(x, z float32) float32

// SampleHeightWorld calls f.
func (f HeightFunc) SampleHeightWorld(x, z float32) float32 {
	return f(x, z)
}

// MarshalYAML writes the category by name.
func (c Category) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML accepts "grass" or "rock".
func (c *Category) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "grass":
		*c = Grass
	case "rock":
		*c = Rock
	default:
		return fmt.Errorf("unknown vegetation category %q", value.Value)
	}
	return nil
}
