// Package camera provides cameras producing view and projection matrices.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection holds perspective parameters shared by the cameras.
type Projection struct {
	FOV  float32 // vertical field of view, degrees
	Near float32
	Far  float32
}

// DefaultProjection returns a 60 degree projection reaching far enough to
// see the whole rock view distance.
func DefaultProjection() Projection {
	return Projection{FOV: 60, Near: 0.1, Far: 1000}
}

// Matrix returns the perspective matrix for the given aspect ratio.
func (p Projection) Matrix(aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(mgl32.DegToRad(p.FOV), aspect, p.Near, p.Far)
}

// FlyCamera moves freely with yaw and pitch look controls.
type FlyCamera struct {
	Position mgl32.Vec3
	Yaw      float32 // radians, 0 looks down -Z
	Pitch    float32 // radians

	Projection Projection

	Speed           float32 // units per second
	FastMultiplier  float32
	LookSensitivity float32 // radians per pixel

	MinPitch float32
	MaxPitch float32
}

// NewFlyCamera creates a fly camera at position with default settings.
func NewFlyCamera(position mgl32.Vec3) *FlyCamera {
	return &FlyCamera{
		Position:        position,
		Projection:      DefaultProjection(),
		Speed:           15,
		FastMultiplier:  4,
		LookSensitivity: 0.003,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
	}
}

// Forward returns the unit view direction.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp := float32(math.Cos(float64(c.Pitch)))
	return mgl32.Vec3{
		cp * float32(math.Sin(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
		-cp * float32(math.Cos(float64(c.Yaw))),
	}
}

// Right returns the unit right direction on the XZ plane.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		0,
		float32(math.Sin(float64(c.Yaw))),
	}
}

// ViewMatrix returns the view matrix.
func (c *FlyCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position, c.Position.Add(c.Forward()), mgl32.Vec3{0, 1, 0})
}

// ViewProjection returns projection * view for the given aspect ratio.
func (c *FlyCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection.Matrix(aspect).Mul4(c.ViewMatrix())
}

// Look rotates the camera by a mouse delta in pixels.
func (c *FlyCamera) Look(dx, dy float32) {
	c.Yaw += dx * c.LookSensitivity
	c.Pitch -= dy * c.LookSensitivity
	c.Pitch = mgl32.Clamp(c.Pitch, c.MinPitch, c.MaxPitch)
}

// Move translates the camera along its forward, right and world up axes.
// Inputs are in [-1, 1]; dt is in seconds.
func (c *FlyCamera) Move(forward, right, up, dt float32, fast bool) {
	speed := c.Speed * dt
	if fast {
		speed *= c.FastMultiplier
	}
	delta := c.Forward().Mul(forward).
		Add(c.Right().Mul(right)).
		Add(mgl32.Vec3{0, up, 0})
	c.Position = c.Position.Add(delta.Mul(speed))
}

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	Center mgl32.Vec3

	Distance  float32
	RotationX float32 // pitch, radians
	RotationY float32 // yaw, radians

	Projection Projection

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with default settings.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        120,
		RotationX:       0.6,
		Projection:      DefaultProjection(),
		MinDistance:     5,
		MaxDistance:     800,
		MinPitch:        0.05,
		MaxPitch:        1.5,
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() mgl32.Vec3 {
	cx := float32(math.Cos(float64(c.RotationX)))
	return c.Center.Add(mgl32.Vec3{
		c.Distance * cx * float32(math.Sin(float64(c.RotationY))),
		c.Distance * float32(math.Sin(float64(c.RotationX))),
		c.Distance * cx * float32(math.Cos(float64(c.RotationY))),
	})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Center, mgl32.Vec3{0, 1, 0})
}

// ViewProjection returns projection * view for the given aspect ratio.
func (c *OrbitCamera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection.Matrix(aspect).Mul4(c.ViewMatrix())
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity
	c.RotationX = mgl32.Clamp(c.RotationX, c.MinPitch, c.MaxPitch)
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	c.Distance = mgl32.Clamp(c.Distance, c.MinDistance, c.MaxDistance)
}

// FitToWorld centers the camera over a world of the given size.
func (c *OrbitCamera) FitToWorld(sizeX, sizeZ, height float32) {
	c.Center = mgl32.Vec3{0, height, 0}
	c.Distance = mgl32.Clamp(max(sizeX, sizeZ)*0.6, c.MinDistance, c.MaxDistance)
	c.RotationX = 0.6
	c.RotationY = 0
}
