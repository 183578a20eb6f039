package mesh

import (
	"math"

	"github.com/Faultbox/verdant/internal/vegetation"
)

// GrassClump builds a tuft of crossed, tapered blades. Variants differ in
// blade count, height and lean so that palette entries look distinct.
func GrassClump(variant int) *Data {
	variant = max(variant, 0)
	blades := 3 + variant%4
	height := 0.6 + 0.15*float32(variant%3)
	width := float32(0.12)
	lean := 0.05 + 0.03*float32(variant%5)

	d := &Data{}
	for b := 0; b < blades; b++ {
		angle := float64(b) * math.Pi / float64(blades)
		dx := float32(math.Cos(angle)) * width
		dz := float32(math.Sin(angle)) * width
		lx := float32(math.Sin(angle)) * lean
		lz := -float32(math.Cos(angle)) * lean

		base := uint32(len(d.Vertices))
		// Two base corners, two mid corners, one tip.
		d.Vertices = append(d.Vertices,
			Vertex{Position: [3]float32{-dx, 0, -dz}, TexCoord: [2]float32{0, 1}},
			Vertex{Position: [3]float32{dx, 0, dz}, TexCoord: [2]float32{1, 1}},
			Vertex{Position: [3]float32{-dx * 0.6, height * 0.55, -dz * 0.6}, TexCoord: [2]float32{0.2, 0.45}},
			Vertex{Position: [3]float32{dx*0.6 + lx*0.5, height * 0.55, dz*0.6 + lz*0.5}, TexCoord: [2]float32{0.8, 0.45}},
			Vertex{Position: [3]float32{lx, height, lz}, TexCoord: [2]float32{0.5, 0}},
		)
		d.Indices = append(d.Indices,
			base, base+1, base+2,
			base+2, base+1, base+3,
			base+2, base+3, base+4,
		)
	}

	d.ComputeNormals()
	// Blades are lit as if facing up so both sides shade alike.
	for i := range d.Vertices {
		n := d.Vertices[i].Normal
		d.Vertices[i].Normal = normalize([3]float32{n[0] * 0.3, 1, n[2] * 0.3})
	}
	d.ComputeBounds()
	return d
}

// Rock builds a noise-displaced icosphere flattened on its base. The
// subdivision level controls triangle count (20 * 4^level).
func Rock(variant, subdivisions int) *Data {
	d := icosphere(subdivisions)
	noise := vegetation.NewNoise(uint32(variant)*7919 + 1)

	squash := 0.55 + 0.1*float32(variant%3)
	for i := range d.Vertices {
		p := d.Vertices[i].Position
		n := noise.FBM(p[0]*1.7+float32(variant), p[2]*1.7+p[1], 3, 0.5)
		r := 0.5 * (1 + 0.35*n)
		y := p[1] * squash
		if y < -0.15 {
			y = -0.15 + (y+0.15)*0.2
		}
		d.Vertices[i].Position = [3]float32{p[0] * r, y*r + 0.15, p[2] * r}
		d.Vertices[i].TexCoord = [2]float32{
			0.5 + float32(math.Atan2(float64(p[2]), float64(p[0])))/(2*math.Pi),
			0.5 - p[1]*0.5,
		}
	}
	d.ComputeNormals()
	d.ComputeBounds()
	return d
}

// Quad builds a unit XZ quad centered at the origin facing +Y.
func Quad() *Data {
	d := &Data{
		Vertices: []Vertex{
			{Position: [3]float32{-0.5, 0, -0.5}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 0}},
			{Position: [3]float32{-0.5, 0, 0.5}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{0, 1}},
			{Position: [3]float32{0.5, 0, -0.5}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 0}},
			{Position: [3]float32{0.5, 0, 0.5}, Normal: [3]float32{0, 1, 0}, TexCoord: [2]float32{1, 1}},
		},
		Indices: []uint32{0, 1, 2, 2, 1, 3},
	}
	d.ComputeBounds()
	return d
}

func icosphere(subdivisions int) *Data {
	t := float32((1 + math.Sqrt(5)) / 2)
	positions := [][3]float32{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i := range positions {
		positions[i] = normalize(positions[i])
	}
	faces := []uint32{
		0, 11, 5, 0, 5, 1, 0, 1, 7, 0, 7, 10, 0, 10, 11,
		1, 5, 9, 5, 11, 4, 11, 10, 2, 10, 7, 6, 7, 1, 8,
		3, 9, 4, 3, 4, 2, 3, 2, 6, 3, 6, 8, 3, 8, 9,
		4, 9, 5, 2, 4, 11, 6, 2, 10, 8, 6, 7, 9, 8, 1,
	}

	for s := 0; s < subdivisions; s++ {
		mid := make(map[[2]uint32]uint32)
		midpoint := func(a, b uint32) uint32 {
			key := [2]uint32{min(a, b), max(a, b)}
			if idx, ok := mid[key]; ok {
				return idx
			}
			pa, pb := positions[a], positions[b]
			positions = append(positions, normalize([3]float32{
				(pa[0] + pb[0]) / 2, (pa[1] + pb[1]) / 2, (pa[2] + pb[2]) / 2,
			}))
			idx := uint32(len(positions) - 1)
			mid[key] = idx
			return idx
		}

		next := make([]uint32, 0, len(faces)*4)
		for i := 0; i < len(faces); i += 3 {
			a, b, c := faces[i], faces[i+1], faces[i+2]
			ab := midpoint(a, b)
			bc := midpoint(b, c)
			ca := midpoint(c, a)
			next = append(next, a, ab, ca, b, bc, ab, c, ca, bc, ab, bc, ca)
		}
		faces = next
	}

	d := &Data{Vertices: make([]Vertex, len(positions)), Indices: faces}
	for i, p := range positions {
		d.Vertices[i] = Vertex{Position: p, Normal: p}
	}
	return d
}
