// Package renderer owns the OpenGL frame state: context initialization,
// clearing, viewport and debug toggles.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/logger"
)

// Config holds renderer configuration.
type Config struct {
	Width      int
	Height     int
	ClearColor [4]float32
	MSAA       bool
	// VertexAttribs is the number of vertex attributes the device binds at
	// once. New fails when the driver offers fewer.
	VertexAttribs int
}

// Renderer handles per-frame OpenGL state.
type Renderer struct {
	log       *zap.Logger
	width     int
	height    int
	wireframe bool
}

// New loads GL function pointers and sets the default pipeline state.
// The GL context must already be current.
func New(cfg Config) (*Renderer, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r := &Renderer{log: logger.Named("renderer"), width: cfg.Width, height: cfg.Height}

	var maxAttribs int32
	gl.GetIntegerv(gl.MAX_VERTEX_ATTRIBS, &maxAttribs)
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
		zap.Int32("max_vertex_attribs", maxAttribs),
	)
	if int(maxAttribs) < cfg.VertexAttribs {
		return nil, fmt.Errorf("driver supports %d vertex attributes, instancing needs %d",
			maxAttribs, cfg.VertexAttribs)
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.FrontFace(gl.CCW)
	if cfg.MSAA {
		gl.Enable(gl.MULTISAMPLE)
	}
	r.SetClearColor(cfg.ClearColor)
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close logs shutdown. GL objects belong to the device that created them.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
}

// SetClearColor sets the sky colour behind the terrain.
func (r *Renderer) SetClearColor(c [4]float32) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
}

// Resize updates the viewport to the drawable size.
func (r *Renderer) Resize(width, height int) {
	r.width, r.height = width, height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("viewport", zap.Int("width", width), zap.Int("height", height))
}

// Begin clears colour and depth.
func (r *Renderer) Begin() {
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// End reports the first pending GL error of the frame, draining the rest.
func (r *Renderer) End() error {
	first := gl.GetError()
	if first == gl.NO_ERROR {
		return nil
	}
	for i := 0; i < 8 && gl.GetError() != gl.NO_ERROR; i++ {
	}
	return fmt.Errorf("gl error 0x%x", first)
}

// ToggleWireframe switches between filled and line polygon modes.
func (r *Renderer) ToggleWireframe() bool {
	r.wireframe = !r.wireframe
	mode := uint32(gl.FILL)
	if r.wireframe {
		mode = gl.LINE
	}
	gl.PolygonMode(gl.FRONT_AND_BACK, mode)
	return r.wireframe
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.width, r.height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}
