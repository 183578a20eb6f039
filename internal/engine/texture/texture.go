// Package texture decodes images into RGBA pixel data and builds procedural
// textures for the builtin vegetation palette.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	// Registered decoders.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Faultbox/verdant/internal/vegetation"
)

// Image is tightly packed 8-bit RGBA pixel data, row 0 at the top.
type Image struct {
	Width  int
	Height int
	Pixels []byte
}

// Decode decodes PNG, JPEG, BMP, TIFF or WebP data into RGBA.
func Decode(data []byte) (*Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	out := FromImage(img)
	if out.Width == 0 || out.Height == 0 {
		return nil, fmt.Errorf("decode texture: empty %s image", format)
	}
	return out, nil
}

// FromImage converts any image to packed RGBA.
func FromImage(img image.Image) *Image {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != b.Dx()*4 || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Image{Width: b.Dx(), Height: b.Dy(), Pixels: rgba.Pix}
}

// Solid returns a size x size texture filled with c.
func Solid(c color.RGBA, size int) *Image {
	size = max(size, 1)
	img := &Image{Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	for i := 0; i < len(img.Pixels); i += 4 {
		img.Pixels[i] = c.R
		img.Pixels[i+1] = c.G
		img.Pixels[i+2] = c.B
		img.Pixels[i+3] = c.A
	}
	return img
}

// Grass returns a vertical gradient from a dark root to a light tip with a
// hue shift per variant.
func Grass(variant, size int) *Image {
	size = max(size, 2)
	img := &Image{Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	shift := float32(variant%9) / 9

	for y := 0; y < size; y++ {
		t := float32(y) / float32(size-1) // 0 at tip, 1 at root
		r := lerp(0.55+0.2*shift, 0.18, t)
		g := lerp(0.85-0.1*shift, 0.35, t)
		b := lerp(0.35, 0.12, t)
		for x := 0; x < size; x++ {
			o := (y*size + x) * 4
			img.Pixels[o] = byte(r * 255)
			img.Pixels[o+1] = byte(g * 255)
			img.Pixels[o+2] = byte(b * 255)
			img.Pixels[o+3] = 255
		}
	}
	return img
}

// Rock returns a mottled grey texture from fractal noise.
func Rock(variant, size int) *Image {
	size = max(size, 2)
	img := &Image{Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	noise := vegetation.NewNoise(uint32(variant)*104729 + 3)
	tint := [3]float32{1, 0.97 - 0.03*float32(variant%3), 0.92}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			n := noise.FBM(float32(x)*0.08, float32(y)*0.08, 4, 0.5)
			v := clamp01(0.5 + 0.35*n)
			o := (y*size + x) * 4
			img.Pixels[o] = byte(v * tint[0] * 255)
			img.Pixels[o+1] = byte(v * tint[1] * 255)
			img.Pixels[o+2] = byte(v * tint[2] * 255)
			img.Pixels[o+3] = 255
		}
	}
	return img
}

// Ground returns a mottled soil and moss texture that tiles over terrain.
func Ground(variant, size int) *Image {
	size = max(size, 2)
	img := &Image{Width: size, Height: size, Pixels: make([]byte, size*size*4)}
	noise := vegetation.NewNoise(uint32(variant)*15485863 + 11)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			n := clamp01(0.5 + 0.5*noise.FBM(float32(x)*0.1, float32(y)*0.1, 3, 0.5))
			o := (y*size + x) * 4
			img.Pixels[o] = byte(lerp(0.36, 0.26, n) * 255)
			img.Pixels[o+1] = byte(lerp(0.30, 0.45, n) * 255)
			img.Pixels[o+2] = byte(lerp(0.20, 0.16, n) * 255)
			img.Pixels[o+3] = 255
		}
	}
	return img
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
