package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/camera"
	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/instancing"
)

const sweepAspect = 16.0 / 9.0

// SweepStats summarizes a camera sweep.
type SweepStats struct {
	Frames  int                   `yaml:"frames"`
	Total   instancing.FrameStats `yaml:"total"`
	Average instancing.FrameStats `yaml:"average"`
	Peak    instancing.FrameStats `yaml:"peak"` // frame with the most visible instances
}

// Sweep circles the camera around the world center at the given radius and
// height above ground, looking inwards, and renders one frame per step.
// Devices with a Reset method are reset before every frame.
func (w *World) Sweep(dev gpu.Device, frames int, radius, height float32) SweepStats {
	var s SweepStats
	if frames <= 0 {
		return s
	}
	proj := camera.DefaultProjection().Matrix(sweepAspect)
	center := mgl32.Vec3{0, w.GroundHeight(0, 0), 0}
	resetter, canReset := dev.(interface{ Reset() })

	for i := 0; i < frames; i++ {
		angle := 2 * math.Pi * float64(i) / float64(frames)
		x := radius * float32(math.Cos(angle))
		z := radius * float32(math.Sin(angle))
		eye := mgl32.Vec3{x, w.GroundHeight(x, z) + height, z}
		viewProj := proj.Mul4(mgl32.LookAtV(eye, center, mgl32.Vec3{0, 1, 0}))

		if canReset {
			resetter.Reset()
		}
		w.Update(1.0/60, eye)
		frame := w.Draw(dev.CommandList(), viewProj, eye).Total()

		s.Total.Add(frame)
		if i == 0 || frame.VisibleInstances > s.Peak.VisibleInstances {
			s.Peak = frame
		}
	}

	s.Frames = frames
	s.Average = instancing.FrameStats{
		Chunks:           s.Total.Chunks / frames,
		VisibleChunks:    s.Total.VisibleChunks / frames,
		VisibleInstances: s.Total.VisibleInstances / frames,
		DrawCalls:        s.Total.DrawCalls / frames,
		BytesUploaded:    s.Total.BytesUploaded / frames,
	}
	return s
}
