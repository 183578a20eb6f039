// Package water provides lake surface geometry.
package water

import (
	"math"

	"github.com/Faultbox/verdant/internal/engine/mesh"
)

// DefaultSegments is the rim resolution of a lake surface.
const DefaultSegments = 48

// SurfaceOffset is how far the water sits below the basin rim.
const SurfaceOffset = 0.25

// Lake is a circular body of water with a flat surface.
type Lake struct {
	X, Z   float32
	Radius float32
	Level  float32 // surface height
}

// Contains reports whether (x, z) lies over the water.
func (l Lake) Contains(x, z float32) bool {
	dx := x - l.X
	dz := z - l.Z
	return dx*dx+dz*dz < l.Radius*l.Radius
}

// Mesh builds the surface as a disc: one center vertex and a ring of
// segments rim vertices, normals up, UVs mapping the disc into [0, 1].
func (l Lake) Mesh(segments int) *mesh.Data {
	segments = max(segments, 3)
	d := &mesh.Data{
		Vertices: make([]mesh.Vertex, 0, segments+1),
		Indices:  make([]uint32, 0, segments*3),
	}
	up := [3]float32{0, 1, 0}

	d.Vertices = append(d.Vertices, mesh.Vertex{
		Position: [3]float32{l.X, l.Level, l.Z},
		Normal:   up,
		TexCoord: [2]float32{0.5, 0.5},
	})
	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		c, s := float32(math.Cos(a)), float32(math.Sin(a))
		d.Vertices = append(d.Vertices, mesh.Vertex{
			Position: [3]float32{l.X + c*l.Radius, l.Level, l.Z + s*l.Radius},
			Normal:   up,
			TexCoord: [2]float32{0.5 + 0.5*c, 0.5 + 0.5*s},
		})
	}
	// Counter-clockwise seen from above.
	for i := 0; i < segments; i++ {
		next := (i+1)%segments + 1
		d.Indices = append(d.Indices, 0, uint32(next), uint32(i+1))
	}
	d.ComputeBounds()
	return d
}
