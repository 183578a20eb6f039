package debug

import (
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/terrain"
)

// Layer is a set of points stamped onto a map in one color.
type Layer struct {
	Points []mgl32.Vec3
	Color  color.RGBA
	Radius int // stamp radius in pixels; 0 draws single pixels
}

// Disc is a filled circle in world units, such as a lake.
type Disc struct {
	X, Z   float32
	Radius float32
	Color  color.RGBA
}

// TopDown is a map of the world seen from above. The world's -X,-Z corner
// is the top-left pixel.
type TopDown struct {
	Image *image.RGBA
	sizeX float32
	sizeZ float32
}

// NewTopDown shades the terrain by height into an image width pixels wide,
// keeping the world's aspect ratio.
func NewTopDown(h *terrain.Heightmap, width int) *TopDown {
	width = max(width, 1)
	height := max(int(float32(width)*h.SizeZ/h.SizeX), 1)
	m := &TopDown{
		Image: image.NewRGBA(image.Rect(0, 0, width, height)),
		sizeX: h.SizeX,
		sizeZ: h.SizeZ,
	}

	span := h.MaxHeight - h.MinHeight
	for py := 0; py < height; py++ {
		for px := 0; px < width; px++ {
			x, z := m.world(px, py)
			t := float32(0.5)
			if span > 0 {
				t = (h.SampleHeightWorld(x, z) - h.MinHeight) / span
			}
			m.Image.SetRGBA(px, py, color.RGBA{
				R: uint8(60 + 120*t),
				G: uint8(70 + 110*t),
				B: uint8(50 + 90*t),
				A: 255,
			})
		}
	}
	return m
}

// world returns the world position at the center of pixel (px, py).
func (m *TopDown) world(px, py int) (float32, float32) {
	b := m.Image.Bounds()
	x := (float32(px)+0.5)/float32(b.Dx())*m.sizeX - m.sizeX*0.5
	z := (float32(py)+0.5)/float32(b.Dy())*m.sizeZ - m.sizeZ*0.5
	return x, z
}

// Pixel returns the pixel containing world (x, z).
func (m *TopDown) Pixel(x, z float32) (int, int) {
	b := m.Image.Bounds()
	px := int((x/m.sizeX + 0.5) * float32(b.Dx()))
	py := int((z/m.sizeZ + 0.5) * float32(b.Dy()))
	return px, py
}

// DrawDisc fills a world-space circle.
func (m *TopDown) DrawDisc(d Disc) {
	b := m.Image.Bounds()
	r2 := d.Radius * d.Radius
	for py := 0; py < b.Dy(); py++ {
		for px := 0; px < b.Dx(); px++ {
			x, z := m.world(px, py)
			if dx, dz := x-d.X, z-d.Z; dx*dx+dz*dz < r2 {
				m.Image.SetRGBA(px, py, d.Color)
			}
		}
	}
}

// DrawLayer stamps every point of l.
func (m *TopDown) DrawLayer(l Layer) {
	for _, p := range l.Points {
		cx, cy := m.Pixel(p.X(), p.Z())
		for dy := -l.Radius; dy <= l.Radius; dy++ {
			for dx := -l.Radius; dx <= l.Radius; dx++ {
				if dx*dx+dy*dy > l.Radius*l.Radius {
					continue
				}
				// SetRGBA ignores pixels outside the bounds.
				m.Image.SetRGBA(cx+dx, cy+dy, l.Color)
			}
		}
	}
}
