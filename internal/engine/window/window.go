// Package window owns the SDL2 window and its OpenGL 4.1 core context.
package window

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/logger"
)

func init() {
	// GL calls must stay on the main thread.
	runtime.LockOSThread()
}

// Config holds window configuration.
type Config struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool
	// MSAA is the multisample count; zero disables multisampling.
	MSAA int
}

// Window wraps an SDL2 window and its GL context.
type Window struct {
	log        *zap.Logger
	sdlWindow  *sdl.Window
	glContext  sdl.GLContext
	fullscreen bool
	msaa       int
}

// New initializes SDL video, creates the window and makes a GL context
// current. If the driver rejects the multisampled format, the window is
// recreated without MSAA.
func New(cfg Config) (*Window, error) {
	w := &Window{log: logger.Named("window"), fullscreen: cfg.Fullscreen}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("SDL_Init failed: %w", err)
	}

	err := w.create(cfg, cfg.MSAA)
	if err != nil && cfg.MSAA > 0 {
		w.log.Warn("multisampled context unavailable, retrying without MSAA",
			zap.Int("samples", cfg.MSAA), zap.Error(err))
		err = w.create(cfg, 0)
	}
	if err != nil {
		sdl.Quit()
		return nil, err
	}

	w.setSwapInterval(cfg.VSync)

	width, height := w.GetSize()
	w.log.Info("window created",
		zap.String("title", cfg.Title),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Bool("fullscreen", cfg.Fullscreen),
		zap.Int("msaa", w.msaa),
	)
	return w, nil
}

func (w *Window) create(cfg Config, msaa int) error {
	// 4.1 core is the newest profile macOS offers.
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MAJOR_VERSION, 4)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_MINOR_VERSION, 1)
	sdl.GLSetAttribute(sdl.GL_CONTEXT_PROFILE_MASK, sdl.GL_CONTEXT_PROFILE_CORE)
	sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1)
	sdl.GLSetAttribute(sdl.GL_DEPTH_SIZE, 24)
	if msaa > 0 {
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 1)
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, msaa)
	} else {
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLEBUFFERS, 0)
		sdl.GLSetAttribute(sdl.GL_MULTISAMPLESAMPLES, 0)
	}

	flags := uint32(sdl.WINDOW_OPENGL | sdl.WINDOW_RESIZABLE | sdl.WINDOW_ALLOW_HIGHDPI)
	if cfg.Fullscreen {
		flags |= sdl.WINDOW_FULLSCREEN_DESKTOP
	}

	win, err := sdl.CreateWindow(cfg.Title,
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(cfg.Width), int32(cfg.Height), flags)
	if err != nil {
		return fmt.Errorf("SDL_CreateWindow failed: %w", err)
	}
	ctx, err := win.GLCreateContext()
	if err != nil {
		win.Destroy()
		return fmt.Errorf("SDL_GL_CreateContext failed: %w", err)
	}

	w.sdlWindow, w.glContext, w.msaa = win, ctx, msaa
	return nil
}

// setSwapInterval prefers adaptive vsync and falls back to regular vsync.
func (w *Window) setSwapInterval(vsync bool) {
	if !vsync {
		if err := sdl.GLSetSwapInterval(0); err != nil {
			w.log.Warn("failed to disable vsync", zap.Error(err))
		}
		return
	}
	if err := sdl.GLSetSwapInterval(-1); err == nil {
		w.log.Debug("adaptive vsync enabled")
		return
	}
	if err := sdl.GLSetSwapInterval(1); err != nil {
		w.log.Warn("failed to enable vsync", zap.Error(err))
	}
}

// Close destroys the context and window and shuts SDL down.
func (w *Window) Close() {
	w.log.Info("closing window")

	if w.glContext != nil {
		sdl.GLDeleteContext(w.glContext)
	}
	if w.sdlWindow != nil {
		w.sdlWindow.Destroy()
	}
	sdl.Quit()
}

// SwapBuffers presents the back buffer.
func (w *Window) SwapBuffers() {
	w.sdlWindow.GLSwap()
}

// GetSize returns the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) GetSize() (int, int) {
	width, height := w.sdlWindow.GLGetDrawableSize()
	return int(width), int(height)
}

// Aspect returns width / height of the drawable.
func (w *Window) Aspect() float32 {
	width, height := w.GetSize()
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

// SetTitle sets the window title.
func (w *Window) SetTitle(title string) {
	w.sdlWindow.SetTitle(title)
}

// ToggleFullscreen switches between desktop fullscreen and windowed mode
// and reports the new state.
func (w *Window) ToggleFullscreen() bool {
	var flags uint32
	if !w.fullscreen {
		flags = sdl.WINDOW_FULLSCREEN_DESKTOP
	}
	if err := w.sdlWindow.SetFullscreen(flags); err != nil {
		w.log.Warn("fullscreen toggle failed", zap.Error(err))
		return w.fullscreen
	}
	w.fullscreen = !w.fullscreen
	return w.fullscreen
}

// CaptureMouse hides the cursor and reports relative motion while enabled.
func (w *Window) CaptureMouse(enabled bool) {
	sdl.SetRelativeMouseMode(enabled)
}
