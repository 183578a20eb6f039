package world

import "github.com/go-gl/mathgl/mgl32"

const (
	// rockCollisionScale converts a rock's scale into its collision radius.
	rockCollisionScale = 1.5
	// shoreWalkIn is how far past the water line a walker may step.
	shoreWalkIn = 0.5
)

// Blocked reports whether a walker of the given radius standing at pos
// overlaps a rock or stands in deep lake water. Only X and Z are tested.
func (w *World) Blocked(pos mgl32.Vec3, radius float32) bool {
	return w.inLake(pos, radius) || w.hitsRock(pos, radius)
}

func (w *World) inLake(pos mgl32.Vec3, radius float32) bool {
	lake := w.cfg.World.Lake
	if !lake.Enabled {
		return false
	}
	edge := lake.Radius - radius - shoreWalkIn
	if edge <= 0 {
		return false
	}
	dx := pos.X() - lake.X
	dz := pos.Z() - lake.Z
	return dx*dx+dz*dz < edge*edge
}

func (w *World) hitsRock(pos mgl32.Vec3, radius float32) bool {
	for _, r := range w.Rocks.Instances() {
		reach := radius + r.Scale*rockCollisionScale
		dx := pos.X() - r.Position.X()
		dz := pos.Z() - r.Position.Z()
		if dx*dx+dz*dz < reach*reach {
			return true
		}
	}
	return false
}

// GroundHeight returns the terrain height under (x, z).
func (w *World) GroundHeight(x, z float32) float32 {
	return w.Terrain.SampleHeightWorld(x, z)
}
