package mesh

import (
	"errors"
	"strings"
	"testing"
)

const cubeOBJ = `# unit cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v 0 0 1
v 1 0 1
v 1 1 1
v 0 1 1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
f 5/1 8/4 7/3 6/2
f 1/1 5/2 6/3 2/4
f 4/1 3/2 7/3 8/4
f 2/1 6/2 7/3 3/4
f 1/1 4/2 8/3 5/4
`

func TestParseOBJCube(t *testing.T) {
	d, err := ParseOBJ(strings.NewReader(cubeOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if got := d.TriangleCount(); got != 12 {
		t.Errorf("triangles = %d, want 12", got)
	}
	if d.Bounds.Min != [3]float32{0, 0, 0} || d.Bounds.Max != [3]float32{1, 1, 1} {
		t.Errorf("bounds = %+v", d.Bounds)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 0 1\nvn 0 1 0\nf -3//-1 -1//-1 -2//-1\n"
	d, err := ParseOBJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(d.Vertices) != 3 || d.TriangleCount() != 1 {
		t.Fatalf("got %d vertices, %d triangles", len(d.Vertices), d.TriangleCount())
	}
	if d.Vertices[0].Normal != [3]float32{0, 1, 0} {
		t.Errorf("normal = %v, want [0 1 0]", d.Vertices[0].Normal)
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"no faces", "v 0 0 0\nv 1 0 0\n"},
		{"bad vertex", "v 0 x 0\n"},
		{"out of range", "v 0 0 0\nf 1 2 3\n"},
		{"short face", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestValidateEmpty(t *testing.T) {
	var d *Data
	if err := d.Validate(); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Validate(nil) = %v, want ErrEmptyMesh", err)
	}
	if err := (&Data{}).Validate(); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("Validate(empty) = %v, want ErrEmptyMesh", err)
	}
}

func TestBuiltinMeshes(t *testing.T) {
	for v := 0; v < 9; v++ {
		g := GrassClump(v)
		if err := g.Validate(); err != nil {
			t.Errorf("GrassClump(%d): %v", v, err)
		}
		if g.Bounds.Min[1] != 0 {
			t.Errorf("GrassClump(%d) base at %v, want 0", v, g.Bounds.Min[1])
		}
	}

	for v := 0; v < 3; v++ {
		r := Rock(v, 2)
		if err := r.Validate(); err != nil {
			t.Errorf("Rock(%d): %v", v, err)
		}
		if got := r.TriangleCount(); got != 320 {
			t.Errorf("Rock(%d) triangles = %d, want 320", v, got)
		}
	}

	if err := Quad().Validate(); err != nil {
		t.Errorf("Quad: %v", err)
	}
}

func TestRockDeterministic(t *testing.T) {
	a := Rock(1, 1)
	b := Rock(1, 1)
	for i := range a.Vertices {
		if a.Vertices[i] != b.Vertices[i] {
			t.Fatalf("vertex %d differs", i)
		}
	}
}

func TestClone(t *testing.T) {
	a := Quad()
	b := a.Clone()
	b.Vertices[0].Position[0] = 42
	if a.Vertices[0].Position[0] == 42 {
		t.Error("Clone shares vertex storage")
	}
}
