package terrain

import "math"

// BuildMesh creates a grid mesh with one vertex per heightmap sample.
// Normals come from central differences, UVs span [0, 1] over the terrain.
func BuildMesh(h *Heightmap) *Mesh {
	dx := h.SizeX / float32(h.Width-1)
	dz := h.SizeZ / float32(h.Depth-1)
	halfX := h.SizeX * 0.5
	halfZ := h.SizeZ * 0.5

	m := &Mesh{
		Vertices: make([]Vertex, 0, h.Width*h.Depth),
		Indices:  make([]uint32, 0, (h.Width-1)*(h.Depth-1)*6),
		Bounds: Bounds{
			Min: [3]float32{-halfX, h.MinHeight, -halfZ},
			Max: [3]float32{halfX, h.MaxHeight, halfZ},
		},
	}

	for z := 0; z < h.Depth; z++ {
		for x := 0; x < h.Width; x++ {
			m.Vertices = append(m.Vertices, Vertex{
				Position: [3]float32{float32(x)*dx - halfX, h.HeightAt(x, z), float32(z)*dz - halfZ},
				Normal:   normalAt(h, x, z, dx, dz),
				TexCoord: [2]float32{float32(x) / float32(h.Width-1), float32(z) / float32(h.Depth-1)},
			})
		}
	}

	w := uint32(h.Width)
	for z := uint32(0); z < uint32(h.Depth-1); z++ {
		for x := uint32(0); x < w-1; x++ {
			i0 := z*w + x
			i1 := i0 + 1
			i2 := i0 + w
			i3 := i2 + 1
			m.Indices = append(m.Indices, i0, i2, i1, i1, i2, i3)
		}
	}

	return m
}

func normalAt(h *Heightmap, x, z int, dx, dz float32) [3]float32 {
	hl := h.HeightAt(x-1, z)
	hr := h.HeightAt(x+1, z)
	hd := h.HeightAt(x, z-1)
	hu := h.HeightAt(x, z+1)

	// cross((0, hu-hd, 2dz), (2dx, hr-hl, 0))
	n := [3]float32{
		-(hr - hl) * 2 * dz,
		4 * dx * dz,
		-(hu - hd) * 2 * dx,
	}
	return normalize(n)
}

func normalize(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < 1e-8 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
