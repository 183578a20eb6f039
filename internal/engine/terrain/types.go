// Package terrain provides heightmap sampling and terrain mesh building for
// a world centered at the origin.
package terrain

// Vertex represents a terrain mesh vertex.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds terrain mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the terrain.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Format selects the sample encoding of a raw heightmap file.
type Format int

const (
	// RAW8 stores one unsigned byte per sample.
	RAW8 Format = iota
	// RAW16LE stores one little-endian uint16 per sample.
	RAW16LE
)

// Params describes how normalized samples map to world space.
type Params struct {
	SizeX       float32 // World extent along X
	SizeZ       float32 // World extent along Z
	HeightScale float32 // World height of a full-scale sample
	HeightOff   float32 // World height of a zero sample
}
