package world

import (
	"math"

	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/grass"
	"github.com/Faultbox/verdant/internal/engine/lod"
	"github.com/Faultbox/verdant/internal/engine/rocks"
	"github.com/Faultbox/verdant/internal/vegetation"
)

// windPhaseSeed fixes the wind phases of converted grass, so one generator
// result always animates the same way.
const windPhaseSeed = 12345

// GrassInstances converts generator grass into field instances. Items inside
// any exclusion zone are dropped. The generator type index t maps to group
// t % groups and type (t / groups) % typesPerGroup; a palette with no groups
// or no types puts everything in group 0, type 0.
func GrassInstances(items []vegetation.Item, exclude vegetation.Exclusions, groups, typesPerGroup int) []grass.Instance {
	rng := vegetation.NewRand(windPhaseSeed)
	out := make([]grass.Instance, 0, len(items))
	for _, it := range items {
		if exclude.Contains(it.Position.X(), it.Position.Z()) {
			continue
		}
		g, t := 0, 0
		if groups > 0 && typesPerGroup > 0 {
			g = it.TypeIndex % groups
			t = (it.TypeIndex / groups) % typesPerGroup
		}
		out = append(out, grass.Instance{
			Position:   it.Position,
			RotationY:  it.RotationY,
			Scale:      it.Scale,
			WindPhase:  rng.Float32() * 2 * math.Pi,
			GroupIndex: g,
			TypeIndex:  t,
		})
	}
	return out
}

// RockInstances converts generator rocks into field instances. Items inside
// any exclusion zone are dropped. Every rock starts at the lowest detail
// level until the first LOD update.
func RockInstances(items []vegetation.Item, exclude vegetation.Exclusions) []rocks.Instance {
	out := make([]rocks.Instance, 0, len(items))
	for _, it := range items {
		if exclude.Contains(it.Position.X(), it.Position.Z()) {
			continue
		}
		out = append(out, rocks.Instance{
			Position:  it.Position,
			RotationY: it.RotationY,
			Scale:     it.Scale,
			TypeIndex: it.TypeIndex,
			LODLevel:  lod.Low,
		})
	}
	return out
}

// PaletteShape returns the group count and the average number of types per
// group of a grass palette.
func PaletteShape(cfg grass.Config) (groups, typesPerGroup int) {
	groups = len(cfg.Groups)
	if groups == 0 {
		return 0, 0
	}
	total := 0
	for _, g := range cfg.Groups {
		total += len(g.Types)
	}
	return groups, total / groups
}

// Exclusions returns the zones kept free of grass and of rocks.
func Exclusions(wc config.WorldConfig) (grassZones, rockZones vegetation.Exclusions) {
	if wc.Lake.Enabled && wc.Lake.Radius > 0 {
		grassZones = append(grassZones, vegetation.ExclusionZone{
			X:      wc.Lake.X,
			Z:      wc.Lake.Z,
			Radius: wc.Lake.Radius + wc.Lake.Margin,
		})
	}
	if wc.SpawnClearing > 0 {
		rockZones = append(rockZones, vegetation.ExclusionZone{Radius: wc.SpawnClearing})
	}
	return grassZones, rockZones
}
