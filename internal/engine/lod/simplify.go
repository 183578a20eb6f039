package lod

import (
	"errors"
	"math"

	"github.com/Faultbox/verdant/internal/engine/mesh"
)

// ErrDegenerate is returned when simplification collapses every triangle.
var ErrDegenerate = errors.New("lod: simplification produced no triangles")

const (
	minTargetTriangles = 4
	minGrid            = 2
	maxGrid            = 100
	epsilon            = 1e-4
)

// Simplify reduces d to roughly ratio of its triangles by vertex
// clustering. The bounding box is divided into a uniform grid, every cell
// keeps its most important vertex and triangles that collapse are dropped.
// The finest grid whose output stays within the target is used.
func Simplify(d *mesh.Data, ratio float32) (*mesh.Data, error) {
	if err := d.Validate(); err != nil {
		return nil, ErrEmptyMesh
	}
	if ratio >= 1 {
		return d.Clone(), nil
	}

	target := max(int(float32(d.TriangleCount())*ratio), minTargetTriangles)
	importance := vertexImportance(d)

	lo, hi := minGrid, maxGrid
	best := cluster(d, importance, minGrid)
	for lo <= hi {
		g := (lo + hi) / 2
		out := cluster(d, importance, g)
		if out.TriangleCount() <= target {
			best = out
			lo = g + 1
		} else {
			hi = g - 1
		}
	}

	if best.TriangleCount() == 0 {
		return nil, ErrDegenerate
	}
	best.ComputeBounds()
	return best, nil
}

// vertexImportance scores each vertex by connectivity, local normal
// variation and distance from the centroid.
func vertexImportance(d *mesh.Data) []float32 {
	adjacent := make([][]int, len(d.Vertices))
	for i := 0; i+2 < len(d.Indices); i += 3 {
		tri := i / 3
		for k := 0; k < 3; k++ {
			v := d.Indices[i+k]
			adjacent[v] = append(adjacent[v], tri)
		}
	}

	var center [3]float32
	for _, v := range d.Vertices {
		center[0] += v.Position[0]
		center[1] += v.Position[1]
		center[2] += v.Position[2]
	}
	n := float32(len(d.Vertices))
	center = [3]float32{center[0] / n, center[1] / n, center[2] / n}

	faceNormal := func(tri int) [3]float32 {
		return unit(d.Vertices[d.Indices[tri*3]].Normal)
	}

	importance := make([]float32, len(d.Vertices))
	for i, v := range d.Vertices {
		topology := float32(len(adjacent[i])) / 6

		var curvature float32
		if len(adjacent[i]) > 1 {
			var avg [3]float32
			for _, tri := range adjacent[i] {
				fn := faceNormal(tri)
				avg[0] += fn[0]
				avg[1] += fn[1]
				avg[2] += fn[2]
			}
			avg = unit(avg)

			var variation float32
			for _, tri := range adjacent[i] {
				fn := faceNormal(tri)
				variation += 1 - (avg[0]*fn[0] + avg[1]*fn[1] + avg[2]*fn[2])
			}
			curvature = variation / float32(len(adjacent[i]))
		}

		dx := v.Position[0] - center[0]
		dy := v.Position[1] - center[1]
		dz := v.Position[2] - center[2]
		silhouette := float32(math.Sqrt(float64(dx*dx + dy*dy + dz*dz)))

		importance[i] = topology*0.3 + curvature*0.4 + silhouette*0.3
	}
	return importance
}

// cluster collapses vertices on a grid x grid x grid lattice.
func cluster(d *mesh.Data, importance []float32, grid int) *mesh.Data {
	bmin := [3]float32{1e10, 1e10, 1e10}
	bmax := [3]float32{-1e10, -1e10, -1e10}
	for _, v := range d.Vertices {
		for k := 0; k < 3; k++ {
			bmin[k] = min(bmin[k], v.Position[k])
			bmax[k] = max(bmax[k], v.Position[k])
		}
	}
	var cell [3]float32
	for k := 0; k < 3; k++ {
		cell[k] = max((bmax[k]-bmin[k])/float32(grid), epsilon)
	}

	cellOf := func(p [3]float32) int {
		var c [3]int
		for k := 0; k < 3; k++ {
			c[k] = min(max(int((p[k]-bmin[k])/cell[k]), 0), grid-1)
		}
		return c[0] + c[1]*grid + c[2]*grid*grid
	}

	// Most important vertex per occupied cell; ties keep the first seen.
	rep := make(map[int]int)
	order := make([]int, 0)
	cells := make([]int, len(d.Vertices))
	for i, v := range d.Vertices {
		c := cellOf(v.Position)
		cells[i] = c
		cur, ok := rep[c]
		if !ok {
			rep[c] = i
			order = append(order, c)
			continue
		}
		if importance[i] > importance[cur] {
			rep[c] = i
		}
	}

	out := &mesh.Data{Vertices: make([]mesh.Vertex, 0, len(order))}
	newIndex := make(map[int]uint32, len(order))
	for _, c := range order {
		newIndex[c] = uint32(len(out.Vertices))
		out.Vertices = append(out.Vertices, d.Vertices[rep[c]])
	}

	seen := make(map[[3]uint32]struct{})
	for i := 0; i+2 < len(d.Indices); i += 3 {
		a := newIndex[cells[d.Indices[i]]]
		b := newIndex[cells[d.Indices[i+1]]]
		c := newIndex[cells[d.Indices[i+2]]]
		if a == b || b == c || a == c {
			continue
		}
		key := triangleKey(a, b, c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Indices = append(out.Indices, a, b, c)
	}
	return out
}

// triangleKey rotates the triangle so its smallest index comes first,
// keeping winding intact.
func triangleKey(a, b, c uint32) [3]uint32 {
	switch {
	case a <= b && a <= c:
		return [3]uint32{a, b, c}
	case b <= a && b <= c:
		return [3]uint32{b, c, a}
	default:
		return [3]uint32{c, a, b}
	}
}

func unit(v [3]float32) [3]float32 {
	l := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if l < epsilon {
		return v
	}
	return [3]float32{v[0] / l, v[1] / l, v[2] / l}
}
