package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/terrain"
)

func TestSavePixelsFlipsRows(t *testing.T) {
	dir := t.TempDir()
	s := NewScreenshots(filepath.Join(dir, "shots"), "verdant")
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	// 1x2 image: bottom row red, top row blue.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	path, err := s.SavePixels(pixels, 1, 2)
	if err != nil {
		t.Fatalf("SavePixels: %v", err)
	}
	if want := "verdant_2026-01-02_03-04-05_001.png"; filepath.Base(path) != want {
		t.Errorf("file = %s, want %s", filepath.Base(path), want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, b, _ := img.At(0, 0).RGBA(); r != 0 || b == 0 {
		t.Errorf("top pixel should be blue")
	}
	if r, _, _, _ := img.At(0, 1).RGBA(); r == 0 {
		t.Errorf("bottom pixel should be red")
	}

	second, err := s.Save(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if second == path || !strings.HasSuffix(second, "_002.png") {
		t.Errorf("second screenshot %s should not overwrite %s", second, path)
	}
}

func TestSavePixelsSizeMismatch(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "x")
	if _, err := s.SavePixels(make([]byte, 7), 1, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestTopDown(t *testing.T) {
	h := terrain.Flat(3, 3, 100, 50, 0)
	m := NewTopDown(h, 200)

	if b := m.Image.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("image %v, want 200x100", b)
	}

	tests := []struct {
		x, z   float32
		px, py int
	}{
		{-50, -25, 0, 0},
		{0, 0, 100, 50},
		{49.9, 24.9, 199, 99},
	}
	for _, tt := range tests {
		px, py := m.Pixel(tt.x, tt.z)
		if px != tt.px || py != tt.py {
			t.Errorf("Pixel(%g, %g) = %d, %d; want %d, %d", tt.x, tt.z, px, py, tt.px, tt.py)
		}
	}

	blue := color.RGBA{B: 255, A: 255}
	m.DrawDisc(Disc{X: 0, Z: 0, Radius: 5, Color: blue})
	if got := m.Image.RGBAAt(100, 50); got != blue {
		t.Errorf("disc center = %v, want blue", got)
	}
	if got := m.Image.RGBAAt(0, 0); got == blue {
		t.Error("disc leaked to the corner")
	}

	red := color.RGBA{R: 255, A: 255}
	m.DrawLayer(Layer{Points: []mgl32.Vec3{{-50, 0, -25}, {30, 0, 10}}, Color: red, Radius: 1})
	if got := m.Image.RGBAAt(0, 0); got != red {
		t.Errorf("corner stamp = %v, want red", got)
	}
	px, py := m.Pixel(30, 10)
	if got := m.Image.RGBAAt(px+1, py); got != red {
		t.Errorf("stamp radius not applied at %d,%d", px+1, py)
	}
}
