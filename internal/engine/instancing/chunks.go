// Package instancing holds the pieces shared by the grass and rock
// subsystems: the chunk grid and its per-frame culler, per-slot visibility
// buckets, GPU record packing and the instance buffer set.
package instancing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Chunk is a square cell of the world. Membership is fixed at build time;
// only Visible changes per frame.
type Chunk struct {
	Center  mgl32.Vec3
	Members []int
	Visible bool
}

// ChunkGrid partitions a world rectangle centered at the origin into
// ceil(size/chunkSize) chunks per axis.
type ChunkGrid struct {
	SizeX     float32
	SizeZ     float32
	ChunkSize float32
	CountX    int
	CountZ    int
	Chunks    []Chunk
}

// NewChunkGrid creates an empty grid. A non-positive chunk size or world
// size yields a single chunk.
func NewChunkGrid(sizeX, sizeZ, chunkSize float32) *ChunkGrid {
	g := &ChunkGrid{SizeX: sizeX, SizeZ: sizeZ, ChunkSize: chunkSize}
	if chunkSize > 0 {
		g.CountX = int(math.Ceil(float64(sizeX / chunkSize)))
		g.CountZ = int(math.Ceil(float64(sizeZ / chunkSize)))
	}
	g.CountX = max(g.CountX, 1)
	g.CountZ = max(g.CountZ, 1)

	halfX := sizeX * 0.5
	halfZ := sizeZ * 0.5
	g.Chunks = make([]Chunk, g.CountX*g.CountZ)
	for cz := 0; cz < g.CountZ; cz++ {
		for cx := 0; cx < g.CountX; cx++ {
			g.Chunks[cz*g.CountX+cx].Center = mgl32.Vec3{
				float32(cx)*chunkSize - halfX + chunkSize*0.5,
				0,
				float32(cz)*chunkSize - halfZ + chunkSize*0.5,
			}
		}
	}
	return g
}

// Index returns the chunk containing world (x, z), clamped to the grid so
// every position maps to some chunk.
func (g *ChunkGrid) Index(x, z float32) int {
	cx, cz := 0, 0
	if g.ChunkSize > 0 {
		cx = int(math.Floor(float64((x + g.SizeX*0.5) / g.ChunkSize)))
		cz = int(math.Floor(float64((z + g.SizeZ*0.5) / g.ChunkSize)))
	}
	cx = min(max(cx, 0), g.CountX-1)
	cz = min(max(cz, 0), g.CountZ-1)
	return cz*g.CountX + cx
}

// Assign adds instance i at (x, z) to its chunk.
func (g *ChunkGrid) Assign(i int, x, z float32) {
	c := &g.Chunks[g.Index(x, z)]
	c.Members = append(c.Members, i)
}

// Len returns the number of chunks.
func (g *ChunkGrid) Len() int {
	return len(g.Chunks)
}

// Cull marks chunks whose center lies within viewDistance + chunkSize/2 of
// the camera in XZ and returns the visible count. Y is ignored.
func (g *ChunkGrid) Cull(camera mgl32.Vec3, viewDistance float32) int {
	maxDist := viewDistance + g.ChunkSize*0.5
	maxDistSq := maxDist * maxDist

	visible := 0
	for i := range g.Chunks {
		c := &g.Chunks[i]
		dx := c.Center.X() - camera.X()
		dz := c.Center.Z() - camera.Z()
		c.Visible = dx*dx+dz*dz <= maxDistSq
		if c.Visible {
			visible++
		}
	}
	return visible
}

// EachVisible calls fn for every member of every visible chunk.
func (g *ChunkGrid) EachVisible(fn func(member int)) {
	for i := range g.Chunks {
		if !g.Chunks[i].Visible {
			continue
		}
		for _, m := range g.Chunks[i].Members {
			fn(m)
		}
	}
}
