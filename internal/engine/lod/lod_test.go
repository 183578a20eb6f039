package lod

import (
	"errors"
	"testing"

	"github.com/Faultbox/verdant/internal/engine/mesh"
)

func TestSimplifyFullRatioCopies(t *testing.T) {
	src := mesh.Rock(0, 1)
	out, err := Simplify(src, 1)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if out.TriangleCount() != src.TriangleCount() {
		t.Errorf("triangles = %d, want %d", out.TriangleCount(), src.TriangleCount())
	}
	out.Vertices[0].Position[0] = 99
	if src.Vertices[0].Position[0] == 99 {
		t.Error("Simplify(1) shares storage with the input")
	}
}

func TestSimplifyReduces(t *testing.T) {
	src := mesh.Rock(2, 2)
	orig := src.TriangleCount()

	for _, ratio := range []float32{0.4, 0.1} {
		out, err := Simplify(src, ratio)
		if err != nil {
			t.Fatalf("Simplify(%v): %v", ratio, err)
		}
		if out.TriangleCount() == 0 || out.TriangleCount() >= orig {
			t.Errorf("Simplify(%v) triangles = %d, original %d", ratio, out.TriangleCount(), orig)
		}
		if err := out.Validate(); err != nil {
			t.Errorf("Simplify(%v) produced invalid mesh: %v", ratio, err)
		}
	}

	medium, _ := Simplify(src, 0.4)
	if got, target := medium.TriangleCount(), int(float32(orig)*0.4); got > target {
		t.Errorf("medium triangles = %d, exceeds target %d", got, target)
	}
}

func TestSimplifyEmpty(t *testing.T) {
	if _, err := Simplify(&mesh.Data{}, 0.5); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
}

func degenerate() *mesh.Data {
	// Valid indices, but every vertex sits on the same point.
	return &mesh.Data{
		Vertices: []mesh.Vertex{{}, {}, {}, {}},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestSimplifyDegenerate(t *testing.T) {
	if _, err := Simplify(degenerate(), 0.4); !errors.Is(err, ErrDegenerate) {
		t.Errorf("err = %v, want ErrDegenerate", err)
	}
}

func TestGenerateLevels(t *testing.T) {
	var arena Arena[*mesh.Data]
	levels, err := Generate(&arena, mesh.Rock(1, 2))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if arena.Len() != 3 {
		t.Fatalf("arena holds %d meshes, want 3", arena.Len())
	}
	high := arena.Get(levels[High]).TriangleCount()
	medium := arena.Get(levels[Medium]).TriangleCount()
	low := arena.Get(levels[Low]).TriangleCount()
	if !(high > medium && medium >= low) {
		t.Errorf("triangle counts not decreasing: %d, %d, %d", high, medium, low)
	}
	if levels.Shared(Medium) || levels.Shared(Low) {
		t.Error("levels unexpectedly share the high mesh")
	}
}

func TestGenerateFallback(t *testing.T) {
	var arena Arena[*mesh.Data]
	levels, err := Generate(&arena, degenerate())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if arena.Len() != 1 {
		t.Errorf("arena holds %d meshes, want 1", arena.Len())
	}
	if levels[Medium] != levels[High] || levels[Low] != levels[High] {
		t.Errorf("levels = %v, want all %d", levels, levels[High])
	}
	if !levels.Shared(Low) {
		t.Error("Shared(Low) = false")
	}
}

func TestGenerateRejectsEmpty(t *testing.T) {
	var arena Arena[*mesh.Data]
	if _, err := Generate(&arena, &mesh.Data{}); !errors.Is(err, ErrEmptyMesh) {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
	if arena.Len() != 0 {
		t.Errorf("arena holds %d meshes after failure", arena.Len())
	}
}

func TestArenaReleaseOnce(t *testing.T) {
	var arena Arena[string]
	arena.Add("a")
	arena.Add("b")

	released := map[string]int{}
	arena.Release(func(s string) { released[s]++ })

	if released["a"] != 1 || released["b"] != 1 {
		t.Errorf("released = %v, want each once", released)
	}
	if arena.Len() != 0 {
		t.Errorf("Len after Release = %d", arena.Len())
	}
}

func TestArenaEachOrder(t *testing.T) {
	var a Arena[string]
	for _, s := range []string{"high", "medium", "low"} {
		a.Add(s)
	}

	var got []string
	a.Each(func(i int, s string) {
		if a.Get(i) != s {
			t.Errorf("Each index %d paired with %q, Get returns %q", i, s, a.Get(i))
		}
		got = append(got, s)
	})
	if len(got) != 3 || got[0] != "high" || got[2] != "low" {
		t.Errorf("Each visited %v, want insertion order", got)
	}
}
