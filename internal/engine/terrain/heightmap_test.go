package terrain

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func ramp(t *testing.T) *Heightmap {
	t.Helper()
	// 3x3 samples, height grows with x: 0, 5, 10.
	samples := []float32{
		0, 0.5, 1,
		0, 0.5, 1,
		0, 0.5, 1,
	}
	h, err := New(3, 3, samples, Params{SizeX: 20, SizeZ: 20, HeightScale: 10})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestSampleHeightWorld(t *testing.T) {
	h := ramp(t)

	tests := []struct {
		name string
		x, z float32
		want float32
	}{
		{"left edge", -10, 0, 0},
		{"center", 0, 0, 5},
		{"right edge", 10, 0, 10},
		{"quarter", -5, 3, 2.5},
		{"clamped left", -100, 0, 0},
		{"clamped right", 100, -100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.SampleHeightWorld(tt.x, tt.z); !approx(got, tt.want) {
				t.Errorf("SampleHeightWorld(%v, %v) = %v, want %v", tt.x, tt.z, got, tt.want)
			}
		})
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	p := Params{SizeX: 10, SizeZ: 10, HeightScale: 1}
	if _, err := New(1, 5, make([]float32, 5), p); err == nil {
		t.Error("expected error for 1-wide heightmap")
	}
	if _, err := New(3, 3, make([]float32, 8), p); err == nil {
		t.Error("expected error for sample count mismatch")
	}
	if _, err := New(2, 2, make([]float32, 4), Params{}); err == nil {
		t.Error("expected error for zero world size")
	}
}

func TestHeightRange(t *testing.T) {
	h := ramp(t)
	if h.MinHeight != 0 || h.MaxHeight != 10 {
		t.Errorf("range = [%v, %v], want [0, 10]", h.MinHeight, h.MaxHeight)
	}
}

func TestFlat(t *testing.T) {
	h := Flat(4, 4, 50, 50, 2)
	if got := h.SampleHeightWorld(7, -13); got != 2 {
		t.Errorf("SampleHeightWorld = %v, want 2", got)
	}
}

func TestDecodeImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0})
	img.SetGray(1, 0, color.Gray{Y: 255})
	img.SetGray(0, 1, color.Gray{Y: 0})
	img.SetGray(1, 1, color.Gray{Y: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	h, err := DecodeImage(&buf, Params{SizeX: 10, SizeZ: 10, HeightScale: 4, HeightOff: 1})
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if h.Width != 2 || h.Depth != 2 {
		t.Fatalf("size = %dx%d, want 2x2", h.Width, h.Depth)
	}
	if !approx(h.HeightAt(0, 0), 1) || !approx(h.HeightAt(1, 0), 5) {
		t.Errorf("heights = %v, want [1 5 1 5]", h.Heights)
	}
}

func TestDecodeRaw(t *testing.T) {
	p := Params{SizeX: 10, SizeZ: 10, HeightScale: 10}

	h, err := DecodeRaw(bytes.NewReader([]byte{0, 255, 51, 102}), 2, 2, RAW8, p)
	if err != nil {
		t.Fatalf("RAW8: %v", err)
	}
	if !approx(h.HeightAt(1, 0), 10) || !approx(h.HeightAt(0, 1), 2) {
		t.Errorf("RAW8 heights = %v", h.Heights)
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, []uint16{0, 65535, 0, 65535})
	h, err = DecodeRaw(&buf, 2, 2, RAW16LE, p)
	if err != nil {
		t.Fatalf("RAW16LE: %v", err)
	}
	if !approx(h.HeightAt(1, 1), 10) {
		t.Errorf("RAW16LE heights = %v", h.Heights)
	}

	if _, err := DecodeRaw(bytes.NewReader([]byte{1, 2}), 2, 2, RAW8, p); err == nil {
		t.Error("expected error for short input")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	np := NoiseParams{Seed: 5, Resolution: 33, Frequency: 0.02, Octaves: 4, Persistence: 0.5}
	p := Params{SizeX: 200, SizeZ: 200, HeightScale: 20}

	a, err := Generate(np, p)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, _ := Generate(np, p)

	for i := range a.Heights {
		if a.Heights[i] != b.Heights[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a.Heights[i], b.Heights[i])
		}
		if a.Heights[i] < 0 || a.Heights[i] > 20 {
			t.Fatalf("sample %d = %v outside [0, 20]", i, a.Heights[i])
		}
	}
}

func TestBuildMesh(t *testing.T) {
	h := ramp(t)
	m := BuildMesh(h)

	if len(m.Vertices) != 9 {
		t.Errorf("vertices = %d, want 9", len(m.Vertices))
	}
	if len(m.Indices) != 24 {
		t.Errorf("indices = %d, want 24", len(m.Indices))
	}
	if m.Vertices[0].Position != [3]float32{-10, 0, -10} {
		t.Errorf("first vertex = %v", m.Vertices[0].Position)
	}
	for i, v := range m.Vertices {
		if v.Normal[1] <= 0 {
			t.Errorf("vertex %d normal %v points down", i, v.Normal)
		}
	}
}

func TestCarveBasin(t *testing.T) {
	h := Flat(21, 21, 20, 20, 5)

	level := h.CarveBasin(0, 0, 6, 3)
	if level != 5 {
		t.Errorf("level = %g, want 5", level)
	}
	if got := h.SampleHeightWorld(0, 0); math.Abs(float64(got-2)) > 1e-4 {
		t.Errorf("center height = %g, want 2", got)
	}
	if got := h.SampleHeightWorld(8, 8); got != 5 {
		t.Errorf("outside height = %g, want 5", got)
	}
	if h.MinHeight != 2 || h.MaxHeight != 5 {
		t.Errorf("range = [%g, %g], want [2, 5]", h.MinHeight, h.MaxHeight)
	}

	// A second, shallower carve keeps the deeper bowl.
	h.CarveBasin(0, 0, 6, 1)
	if got := h.SampleHeightWorld(0, 0); math.Abs(float64(got-2)) > 1e-4 {
		t.Errorf("center height after shallow carve = %g, want 2", got)
	}
}
