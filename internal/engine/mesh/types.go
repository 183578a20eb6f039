// Package mesh provides static mesh data, OBJ parsing and procedural
// vegetation meshes.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyMesh is returned when a mesh has no vertices or no triangles.
var ErrEmptyMesh = errors.New("mesh has no geometry")

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// VertexSize is the byte size of one packed Vertex.
const VertexSize = 32

// Data holds triangle-list geometry ready for GPU upload.
type Data struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// TriangleCount returns the number of triangles.
func (d *Data) TriangleCount() int {
	return len(d.Indices) / 3
}

// Validate checks that the mesh has geometry and every index is in range.
func (d *Data) Validate() error {
	if d == nil || len(d.Vertices) == 0 || len(d.Indices) < 3 {
		return ErrEmptyMesh
	}
	if len(d.Indices)%3 != 0 {
		return fmt.Errorf("index count %d is not a multiple of 3", len(d.Indices))
	}
	for i, idx := range d.Indices {
		if int(idx) >= len(d.Vertices) {
			return fmt.Errorf("index %d at %d out of range (%d vertices)", idx, i, len(d.Vertices))
		}
	}
	return nil
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	return &Data{
		Vertices: append([]Vertex(nil), d.Vertices...),
		Indices:  append([]uint32(nil), d.Indices...),
		Bounds:   d.Bounds,
	}
}

// ComputeBounds recalculates Bounds from the vertex positions.
func (d *Data) ComputeBounds() {
	if len(d.Vertices) == 0 {
		d.Bounds = Bounds{}
		return
	}
	b := Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
	for _, v := range d.Vertices {
		for i := 0; i < 3; i++ {
			b.Min[i] = min(b.Min[i], v.Position[i])
			b.Max[i] = max(b.Max[i], v.Position[i])
		}
	}
	d.Bounds = b
}

// ComputeNormals replaces vertex normals with area-weighted face normals.
func (d *Data) ComputeNormals() {
	acc := make([][3]float32, len(d.Vertices))
	for i := 0; i+2 < len(d.Indices); i += 3 {
		a, b, c := d.Indices[i], d.Indices[i+1], d.Indices[i+2]
		p0, p1, p2 := d.Vertices[a].Position, d.Vertices[b].Position, d.Vertices[c].Position
		n := cross(sub(p1, p0), sub(p2, p0))
		for _, idx := range [3]uint32{a, b, c} {
			acc[idx][0] += n[0]
			acc[idx][1] += n[1]
			acc[idx][2] += n[2]
		}
	}
	for i := range d.Vertices {
		d.Vertices[i].Normal = normalize(acc[i])
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 1e-8 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
