package game

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ground is what a Walker needs from the world.
type Ground interface {
	GroundHeight(x, z float32) float32
	Blocked(pos mgl32.Vec3, radius float32) bool
}

// Walker moves an eye point over the terrain, sliding along obstacles.
type Walker struct {
	Position mgl32.Vec3 // feet

	EyeHeight        float32
	Speed            float32 // units per second
	SprintMultiplier float32
	Radius           float32
}

// NewWalker creates a walker standing on the ground at (x, z).
func NewWalker(g Ground, x, z float32) *Walker {
	return &Walker{
		Position:         mgl32.Vec3{x, g.GroundHeight(x, z), z},
		EyeHeight:        1.7,
		Speed:            8,
		SprintMultiplier: 1.5,
		Radius:           0.5,
	}
}

// Eye returns the camera position.
func (w *Walker) Eye() mgl32.Vec3 {
	return w.Position.Add(mgl32.Vec3{0, w.EyeHeight, 0})
}

// Step moves the walker on the XZ plane relative to yaw. Inputs are in
// [-1, 1]. Each axis is tried on its own so blocked motion slides along
// the obstacle.
func (w *Walker) Step(g Ground, forward, right, yaw, dt float32, sprint bool) {
	if forward == 0 && right == 0 {
		return
	}
	speed := w.Speed * dt
	if sprint {
		speed *= w.SprintMultiplier
	}

	sin, cos := math.Sincos(float64(yaw))
	// Yaw 0 looks down -Z; right is +X.
	dx := (float32(sin)*forward + float32(cos)*right) * speed
	dz := (-float32(cos)*forward + float32(sin)*right) * speed

	if next := w.Position.Add(mgl32.Vec3{dx, 0, 0}); !g.Blocked(next, w.Radius) {
		w.Position = next
	}
	if next := w.Position.Add(mgl32.Vec3{0, 0, dz}); !g.Blocked(next, w.Radius) {
		w.Position = next
	}
	w.Position[1] = g.GroundHeight(w.Position.X(), w.Position.Z())
}
