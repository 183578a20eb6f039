package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadOBJ reads a Wavefront OBJ file from disk.
func LoadOBJ(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}

type objKey struct {
	v, vt, vn int
}

// ParseOBJ parses positions, texture coordinates, normals and faces from a
// Wavefront OBJ stream. Polygons are fan-triangulated. Missing normals are
// computed from the faces.
func ParseOBJ(r io.Reader) (*Data, error) {
	var (
		positions [][3]float32
		texcoords [][2]float32
		normals   [][3]float32
		hasNormal bool
	)
	d := &Data{}
	seen := make(map[objKey]uint32)

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "v":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			positions = append(positions, [3]float32{p[0], p[1], p[2]})
		case "vt":
			p, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			texcoords = append(texcoords, [2]float32{p[0], 1 - p[1]})
		case "vn":
			p, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			normals = append(normals, [3]float32{p[0], p[1], p[2]})
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			corners := make([]uint32, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				key, err := parseFaceRef(ref, len(positions), len(texcoords), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				idx, ok := seen[key]
				if !ok {
					v := Vertex{Position: positions[key.v]}
					if key.vt >= 0 {
						v.TexCoord = texcoords[key.vt]
					}
					if key.vn >= 0 {
						v.Normal = normals[key.vn]
						hasNormal = true
					}
					idx = uint32(len(d.Vertices))
					d.Vertices = append(d.Vertices, v)
					seen[key] = idx
				}
				corners = append(corners, idx)
			}
			for i := 1; i+1 < len(corners); i++ {
				d.Indices = append(d.Indices, corners[0], corners[i], corners[i+1])
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	if !hasNormal {
		d.ComputeNormals()
	}
	d.ComputeBounds()
	return d, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// parseFaceRef parses "v", "v/vt", "v//vn" or "v/vt/vn" into zero-based
// indices, resolving negative (relative) references. Missing parts are -1.
func parseFaceRef(ref string, nv, nvt, nvn int) (objKey, error) {
	parts := strings.Split(ref, "/")
	key := objKey{-1, -1, -1}
	counts := [3]int{nv, nvt, nvn}
	out := [3]*int{&key.v, &key.vt, &key.vn}

	for i, p := range parts {
		if i > 2 {
			break
		}
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return key, fmt.Errorf("bad face reference %q", ref)
		}
		if n < 0 {
			n = counts[i] + n
		} else {
			n--
		}
		if n < 0 || n >= counts[i] {
			return key, fmt.Errorf("face reference %q out of range", ref)
		}
		*out[i] = n
	}
	if key.v < 0 {
		return key, fmt.Errorf("face reference %q has no position", ref)
	}
	return key, nil
}
