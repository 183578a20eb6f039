package vegetation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ClusterConfig controls patch placement for one category.
type ClusterConfig struct {
	Probability float32 `yaml:"probability"`
	MinItems    int     `yaml:"min_items"`
	MaxItems    int     `yaml:"max_items"`
	Radius      float32 `yaml:"radius"`
	Falloff     float32 `yaml:"falloff"`
}

// Config holds every generation parameter.
type Config struct {
	// Spawn grid spacing is max(MinPointSpacing, 1/sqrt(Density)).
	Density         float32 `yaml:"density"`
	MinPointSpacing float32 `yaml:"min_point_spacing"`

	// RockProbability is the baseline rock chance; fbm noise shifts it by up
	// to +-NoiseInfluence.
	RockProbability float32 `yaml:"rock_probability"`
	NoiseInfluence  float32 `yaml:"noise_influence"`
	NoiseScale      float32 `yaml:"noise_scale"`

	GrassMinScale float32       `yaml:"grass_min_scale"`
	GrassMaxScale float32       `yaml:"grass_max_scale"`
	GrassRadius   float32       `yaml:"grass_radius"`
	GrassCluster  ClusterConfig `yaml:"grass_cluster"`

	RockMinScale float32       `yaml:"rock_min_scale"`
	RockMaxScale float32       `yaml:"rock_max_scale"`
	RockRadius   float32       `yaml:"rock_radius"`
	RockCluster  ClusterConfig `yaml:"rock_cluster"`

	// Slope bounds are in degrees.
	MinSlope  float32 `yaml:"min_slope"`
	MaxSlope  float32 `yaml:"max_slope"`
	MinHeight float32 `yaml:"min_height"`
	MaxHeight float32 `yaml:"max_height"`
}

// DefaultConfig returns the baseline generation parameters.
func DefaultConfig() Config {
	return Config{
		Density:         0.5,
		MinPointSpacing: 2.0,

		RockProbability: 0.15,
		NoiseInfluence:  0.4,
		NoiseScale:      0.02,

		GrassMinScale: 0.8,
		GrassMaxScale: 1.2,
		GrassRadius:   0.3,
		GrassCluster: ClusterConfig{
			Probability: 0.6,
			MinItems:    5,
			MaxItems:    15,
			Radius:      3.0,
			Falloff:     1.5,
		},

		RockMinScale: 0.5,
		RockMaxScale: 2.0,
		RockRadius:   1.0,
		RockCluster: ClusterConfig{
			Probability: 0.4,
			MinItems:    2,
			MaxItems:    5,
			Radius:      4.0,
			Falloff:     2.0,
		},

		MinSlope:  0,
		MaxSlope:  45,
		MinHeight: -1000,
		MaxHeight: 1000,
	}
}

// Spacing returns the spawn grid spacing.
func (c Config) Spacing() float32 {
	spacing := c.MinPointSpacing
	if c.Density > 0 {
		if s := 1 / sqrtf(c.Density); s > spacing {
			spacing = s
		}
	}
	return spacing
}

// Cluster returns the cluster settings for a category.
func (c Config) Cluster(cat Category) ClusterConfig {
	if cat == Rock {
		return c.RockCluster
	}
	return c.GrassCluster
}

// Validate reports parameter combinations the generator cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Spacing() <= 0 {
		errs = append(errs, errors.New("spacing must be positive: set min_point_spacing or density"))
	}
	if c.GrassMinScale > c.GrassMaxScale {
		errs = append(errs, fmt.Errorf("grass scale range inverted: %g > %g", c.GrassMinScale, c.GrassMaxScale))
	}
	if c.RockMinScale > c.RockMaxScale {
		errs = append(errs, fmt.Errorf("rock scale range inverted: %g > %g", c.RockMinScale, c.RockMaxScale))
	}
	if c.GrassRadius < 0 || c.RockRadius < 0 {
		errs = append(errs, errors.New("radii must not be negative"))
	}
	for _, cat := range []Category{Grass, Rock} {
		cl := c.Cluster(cat)
		if cl.MinItems < 1 || cl.MinItems > cl.MaxItems {
			errs = append(errs, fmt.Errorf("%s cluster item range invalid: [%d, %d]", cat, cl.MinItems, cl.MaxItems))
		}
	}
	return errors.Join(errs...)
}

// presets mirror common biomes.
var presets = map[string]func() Config{
	"meadow": func() Config {
		c := DefaultConfig()
		c.Density = 2.0
		c.MinPointSpacing = 1.0
		c.RockProbability = 0.05
		c.NoiseInfluence = 0.1
		c.GrassCluster.Probability = 0.7
		c.GrassCluster.MinItems = 8
		c.GrassCluster.MaxItems = 20
		c.GrassCluster.Radius = 4.0
		c.RockCluster.Probability = 0.2
		c.RockCluster.MinItems = 1
		c.RockCluster.MaxItems = 3
		return c
	},
	"rocky": func() Config {
		c := DefaultConfig()
		c.Density = 0.5
		c.MinPointSpacing = 2.5
		c.RockProbability = 0.6
		c.NoiseInfluence = 0.3
		c.GrassCluster.Probability = 0.3
		c.GrassCluster.MinItems = 3
		c.GrassCluster.MaxItems = 8
		c.RockCluster.Probability = 0.5
		c.RockCluster.MinItems = 3
		c.RockCluster.MaxItems = 8
		c.RockCluster.Radius = 6.0
		c.RockMinScale = 0.8
		c.RockMaxScale = 3.0
		return c
	},
	"forest": func() Config {
		c := DefaultConfig()
		c.Density = 1.0
		c.MinPointSpacing = 1.5
		c.RockProbability = 0.15
		c.NoiseInfluence = 0.5
		c.NoiseScale = 0.03
		c.GrassCluster.Probability = 0.5
		c.GrassCluster.MinItems = 5
		c.GrassCluster.MaxItems = 12
		c.RockCluster.Probability = 0.4
		c.RockCluster.MinItems = 2
		c.RockCluster.MaxItems = 5
		return c
	},
	"desert": func() Config {
		c := DefaultConfig()
		c.Density = 0.2
		c.MinPointSpacing = 4.0
		c.RockProbability = 0.7
		c.NoiseInfluence = 0.2
		c.GrassCluster.Probability = 0.2
		c.GrassCluster.MinItems = 2
		c.GrassCluster.MaxItems = 5
		c.GrassCluster.Radius = 2.0
		c.RockCluster.Probability = 0.3
		c.RockCluster.MinItems = 1
		c.RockCluster.MaxItems = 4
		c.GrassMinScale = 0.5
		c.GrassMaxScale = 0.8
		return c
	},
	"dense": func() Config {
		c := DefaultConfig()
		c.Density = 3.0
		c.MinPointSpacing = 0.8
		c.RockProbability = 0.1
		c.NoiseInfluence = 0.3
		c.GrassCluster.Probability = 0.8
		c.GrassCluster.MinItems = 10
		c.GrassCluster.MaxItems = 25
		c.GrassCluster.Radius = 5.0
		c.RockCluster.Probability = 0.3
		c.RockCluster.MinItems = 2
		c.RockCluster.MaxItems = 4
		return c
	},
}

// Preset returns a named preset. Names are case-insensitive; "default" is
// always available.
func Preset(name string) (Config, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "default" {
		return DefaultConfig(), true
	}
	fn, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	return fn(), true
}

// PresetNames lists the available preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets)+1)
	names = append(names, "default")
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names[1:])
	return names
}
