package terrain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	// Registered image decoders for heightmap files.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/verdant/internal/vegetation"
)

// Heightmap is a regular grid of world-space heights stretched over a
// rectangle centered at the origin. Row z holds samples z*Width..z*Width+Width-1.
type Heightmap struct {
	Width   int // Samples along X
	Depth   int // Samples along Z
	SizeX   float32
	SizeZ   float32
	Heights []float32

	MinHeight float32
	MaxHeight float32
}

// New creates a heightmap from normalized samples in [0, 1].
func New(width, depth int, samples []float32, p Params) (*Heightmap, error) {
	if width < 2 || depth < 2 {
		return nil, fmt.Errorf("heightmap must be at least 2x2, got %dx%d", width, depth)
	}
	if len(samples) != width*depth {
		return nil, fmt.Errorf("heightmap expects %d samples, got %d", width*depth, len(samples))
	}
	if p.SizeX <= 0 || p.SizeZ <= 0 {
		return nil, errors.New("heightmap world size must be positive")
	}

	h := &Heightmap{
		Width:     width,
		Depth:     depth,
		SizeX:     p.SizeX,
		SizeZ:     p.SizeZ,
		Heights:   make([]float32, len(samples)),
		MinHeight: float32(math.Inf(1)),
		MaxHeight: float32(math.Inf(-1)),
	}
	for i, s := range samples {
		v := p.HeightOff + s*p.HeightScale
		h.Heights[i] = v
		h.MinHeight = min(h.MinHeight, v)
		h.MaxHeight = max(h.MaxHeight, v)
	}
	return h, nil
}

// Flat creates a heightmap with every sample at height.
func Flat(width, depth int, sizeX, sizeZ, height float32) *Heightmap {
	samples := make([]float32, width*depth)
	h, err := New(width, depth, samples, Params{SizeX: sizeX, SizeZ: sizeZ, HeightOff: height})
	if err != nil {
		return nil
	}
	return h
}

// HeightAt returns the height of sample (x, z), clamped to the grid.
func (h *Heightmap) HeightAt(x, z int) float32 {
	x = min(max(x, 0), h.Width-1)
	z = min(max(z, 0), h.Depth-1)
	return h.Heights[z*h.Width+x]
}

// SampleHeightWorld bilinearly interpolates the height at world (x, z).
// Coordinates outside the terrain are clamped to its edge.
func (h *Heightmap) SampleHeightWorld(x, z float32) float32 {
	fx := clampf((x+h.SizeX*0.5)/h.SizeX, 0, 1)
	fz := clampf((z+h.SizeZ*0.5)/h.SizeZ, 0, 1)

	gx := fx * float32(h.Width-1)
	gz := fz * float32(h.Depth-1)

	x0 := int(math.Floor(float64(gx)))
	z0 := int(math.Floor(float64(gz)))
	x1 := min(x0+1, h.Width-1)
	z1 := min(z0+1, h.Depth-1)

	tx := gx - float32(x0)
	tz := gz - float32(z0)

	h00 := h.HeightAt(x0, z0)
	h10 := h.HeightAt(x1, z0)
	h01 := h.HeightAt(x0, z1)
	h11 := h.HeightAt(x1, z1)

	h0 := h00*(1-tx) + h10*tx
	h1 := h01*(1-tx) + h11*tx
	return h0*(1-tz) + h1*tz
}

// FromImage builds a heightmap from the luminance of img.
func FromImage(img image.Image, p Params) (*Heightmap, error) {
	b := img.Bounds()
	w, d := b.Dx(), b.Dy()
	samples := make([]float32, 0, w*d)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.Gray16Model.Convert(img.At(x, y)).(color.Gray16)
			samples = append(samples, float32(g.Y)/65535)
		}
	}
	return New(w, d, samples, p)
}

// DecodeImage decodes a PNG, JPEG, BMP, TIFF or WebP heightmap from r.
func DecodeImage(r io.Reader, p Params) (*Heightmap, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode heightmap: %w", err)
	}
	h, err := FromImage(img, p)
	if err != nil {
		return nil, fmt.Errorf("heightmap from %s: %w", format, err)
	}
	return h, nil
}

// DecodeRaw reads width*depth samples in the given raw format.
func DecodeRaw(r io.Reader, width, depth int, format Format, p Params) (*Heightmap, error) {
	n := width * depth
	samples := make([]float32, n)

	switch format {
	case RAW8:
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read raw8 heightmap: %w", err)
		}
		for i, v := range buf {
			samples[i] = float32(v) / 255
		}
	case RAW16LE:
		buf := make([]uint16, n)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("read raw16 heightmap: %w", err)
		}
		for i, v := range buf {
			samples[i] = float32(v) / 65535
		}
	default:
		return nil, fmt.Errorf("unknown heightmap format %d", format)
	}
	return New(width, depth, samples, p)
}

// NoiseParams controls procedural terrain.
type NoiseParams struct {
	Seed        uint32  `yaml:"seed"`
	Resolution  int     `yaml:"resolution"`
	Frequency   float32 `yaml:"frequency"`
	Octaves     int     `yaml:"octaves"`
	Persistence float32 `yaml:"persistence"`
}

// Generate builds a procedural heightmap from fractal noise.
func Generate(np NoiseParams, p Params) (*Heightmap, error) {
	res := np.Resolution
	if res < 2 {
		res = 2
	}
	noise := vegetation.NewNoise(np.Seed)

	samples := make([]float32, res*res)
	for z := 0; z < res; z++ {
		for x := 0; x < res; x++ {
			wx := (float32(x)/float32(res-1) - 0.5) * p.SizeX
			wz := (float32(z)/float32(res-1) - 0.5) * p.SizeZ
			n := noise.FBM(wx*np.Frequency, wz*np.Frequency, np.Octaves, np.Persistence)
			samples[z*res+x] = clampf(n*0.5+0.5, 0, 1)
		}
	}
	return New(res, res, samples, p)
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
