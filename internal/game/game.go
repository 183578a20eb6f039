// Package game implements the viewer main loop: it owns the window, the
// GL device and the world, and maps input onto the camera.
package game

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/assets"
	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/camera"
	"github.com/Faultbox/verdant/internal/engine/debug"
	"github.com/Faultbox/verdant/internal/engine/gpu/glgpu"
	"github.com/Faultbox/verdant/internal/engine/input"
	"github.com/Faultbox/verdant/internal/engine/renderer"
	"github.com/Faultbox/verdant/internal/engine/window"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/vegetation"
	"github.com/Faultbox/verdant/internal/world"
)

const title = "Verdant"

// Game is the viewer instance.
type Game struct {
	log     *zap.Logger
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	device   *glgpu.Device
	assets   *assets.Manager
	world    *world.World

	camera   *camera.FlyCamera
	overview *camera.OrbitCamera
	walker   *Walker
	walking  bool
	orbiting bool
	captured bool

	screenshots *debug.Screenshots
	wantShot    bool

	stats      world.FrameStats
	frames     int
	statsTimer time.Time
}

// New creates the window, GL device and world.
func New(cfg *config.Config) (*Game, error) {
	log := logger.Named("game")
	log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.Bool("fullscreen", cfg.Graphics.Fullscreen),
	)

	g := &Game{
		log: log,
		cfg: cfg,
	}

	// Create window (this also creates OpenGL context)
	var err error
	g.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
		MSAA:       cfg.Graphics.MSAA,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Create renderer (AFTER window, since OpenGL context must exist)
	width, height := g.window.GetSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:      width,
		Height:     height,
		ClearColor: cfg.Graphics.ClearColor,
		MSAA:       cfg.Graphics.MSAA > 0,

		VertexAttribs: glgpu.AttributeCount,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()
	g.device = glgpu.New()
	g.screenshots = debug.NewScreenshots(cfg.Graphics.ScreenshotDir, "verdant")

	g.assets = assets.NewManager()
	for _, root := range cfg.Assets.Roots {
		if err := g.assets.AddRoot(root); err != nil {
			log.Warn("skipping asset root", zap.String("root", root), zap.Error(err))
		}
	}

	if err := g.buildWorld(); err != nil {
		g.Close()
		return nil, err
	}

	log.Info("viewer initialized")
	return g, nil
}

// buildWorld (re)creates the world and puts the camera at the spawn point.
func (g *Game) buildWorld() error {
	if g.world != nil {
		g.world.Release()
		g.world = nil
	}

	w, err := world.Build(g.device, g.assets, g.cfg)
	if err != nil {
		return fmt.Errorf("failed to build world: %w", err)
	}
	g.world = w

	g.walker = NewWalker(w, 0, 0)
	g.camera = camera.NewFlyCamera(g.walker.Eye().Add(mgl32.Vec3{0, 8, 0}))
	g.camera.Pitch = -0.25

	g.overview = camera.NewOrbitCamera()
	g.overview.FitToWorld(g.cfg.World.SizeX, g.cfg.World.SizeZ, w.GroundHeight(0, 0))
	return nil
}

// Run starts the main loop.
func (g *Game) Run() error {
	g.running = true

	// Timing
	lastTime := time.Now()
	g.statsTimer = lastTime

	var frameBudget time.Duration
	if g.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(g.cfg.Graphics.FPSLimit)
	}

	g.log.Info("starting main loop")

	for g.running {
		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastTime).Seconds())
		lastTime = frameStart

		// 1. Process input
		if g.input.Update() {
			g.running = false
			break
		}
		if err := g.handleEvents(); err != nil {
			return err
		}

		// 2. Update
		g.update(dt)

		// 3. Render
		if err := g.render(); err != nil {
			return fmt.Errorf("render error: %w", err)
		}

		// 4. Present (swap buffers)
		g.window.SwapBuffers()

		g.tickStats()

		if frameBudget > 0 {
			if spare := frameBudget - time.Since(frameStart); spare > 0 {
				time.Sleep(spare)
			}
		}
	}

	return nil
}

func (g *Game) handleEvents() error {
	for _, event := range g.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			width, height := g.window.GetSize()
			g.renderer.Resize(width, height)
		case input.EventMouseDown:
			if event.Button == sdl.BUTTON_LEFT && !g.captured {
				g.setCaptured(true)
			}
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				if g.captured {
					g.setCaptured(false)
				} else {
					g.running = false
				}
			case sdl.SCANCODE_F1:
				g.log.Info("wireframe", zap.Bool("enabled", g.renderer.ToggleWireframe()))
			case sdl.SCANCODE_F3:
				g.cfg.Graphics.ShowStats = !g.cfg.Graphics.ShowStats
				if g.cfg.Graphics.ShowStats {
					logger.SetLevel("debug")
				} else {
					logger.SetLevel(g.cfg.Logging.Level)
					g.window.SetTitle(title)
				}
			case sdl.SCANCODE_F11:
				g.cfg.Graphics.Fullscreen = g.window.ToggleFullscreen()
				width, height := g.window.GetSize()
				g.renderer.Resize(width, height)
			case sdl.SCANCODE_F12:
				g.wantShot = true
			case sdl.SCANCODE_TAB:
				g.toggleWalking()
			case sdl.SCANCODE_O:
				g.orbiting = !g.orbiting
				g.log.Info("overview", zap.Bool("enabled", g.orbiting))
			case sdl.SCANCODE_R:
				g.cfg.World.Seed = vegetation.RandomSeed()
				g.log.Info("regenerating world", zap.Uint32("seed", g.cfg.World.Seed))
				if err := g.buildWorld(); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (g *Game) setCaptured(enabled bool) {
	g.captured = enabled
	g.window.CaptureMouse(enabled)
}

func (g *Game) toggleWalking() {
	g.walking = !g.walking
	if g.walking {
		pos := g.camera.Position
		g.walker.Position = mgl32.Vec3{pos.X(), g.world.GroundHeight(pos.X(), pos.Z()), pos.Z()}
		g.camera.Position = g.walker.Eye()
	}
	g.log.Info("camera mode", zap.Bool("walking", g.walking))
}

func (g *Game) update(dt float32) {
	if g.orbiting {
		if g.input.IsButtonDown(sdl.BUTTON_RIGHT) {
			dx, dy := g.input.MouseDelta()
			g.overview.HandleDrag(float32(dx), float32(dy))
		}
		if wheel := g.input.Wheel(); wheel != 0 {
			g.overview.HandleZoom(float32(wheel))
		}
		g.world.Update(dt, g.overview.Position())
		return
	}

	if g.captured || g.input.IsButtonDown(sdl.BUTTON_RIGHT) {
		dx, dy := g.input.MouseDelta()
		g.camera.Look(float32(dx), float32(dy))
	}

	forward := g.input.Axis(sdl.SCANCODE_S, sdl.SCANCODE_W)
	right := g.input.Axis(sdl.SCANCODE_A, sdl.SCANCODE_D)
	fast := g.input.IsKeyDown(sdl.SCANCODE_LSHIFT)

	if g.walking {
		g.walker.Step(g.world, forward, right, g.camera.Yaw, dt, fast)
		g.camera.Position = g.walker.Eye()
	} else {
		up := g.input.Axis(sdl.SCANCODE_Q, sdl.SCANCODE_E)
		g.camera.Move(forward, right, up, dt, fast)
	}

	g.world.Update(dt, g.camera.Position)
}

func (g *Game) render() error {
	g.renderer.Begin()
	viewProj, eye := g.camera.ViewProjection(g.window.Aspect()), g.camera.Position
	if g.orbiting {
		viewProj, eye = g.overview.ViewProjection(g.window.Aspect()), g.overview.Position()
	}
	g.stats = g.world.Draw(g.device.CommandList(), viewProj, eye)

	if g.wantShot {
		g.wantShot = false
		pixels, width, height := g.renderer.ReadPixels()
		if path, err := g.screenshots.SavePixels(pixels, width, height); err != nil {
			g.log.Warn("screenshot failed", zap.Error(err))
		} else {
			g.log.Info("screenshot saved", zap.String("path", path))
		}
	}
	return g.renderer.End()
}

// tickStats reports frame rate and the last frame's vegetation work once
// per second.
func (g *Game) tickStats() {
	g.frames++
	elapsed := time.Since(g.statsTimer)
	if elapsed < time.Second {
		return
	}
	fps := float64(g.frames) / elapsed.Seconds()
	total := g.stats.Total()

	g.log.Debug("frame",
		zap.Float64("fps", fps),
		zap.Int("draw_calls", total.DrawCalls),
		zap.Int("visible_grass", g.stats.Grass.VisibleInstances),
		zap.Int("visible_rocks", g.stats.Rocks.VisibleInstances),
		zap.Int("bytes_uploaded", total.BytesUploaded),
	)
	if g.cfg.Graphics.ShowStats {
		g.window.SetTitle(fmt.Sprintf("%s | %.0f fps | %d draws | grass %d | rocks %d",
			title, fps, total.DrawCalls, g.stats.Grass.VisibleInstances, g.stats.Rocks.VisibleInstances))
	}

	g.frames = 0
	g.statsTimer = time.Now()
}

// Close cleans up viewer resources.
func (g *Game) Close() {
	g.log.Info("closing viewer")

	if g.world != nil {
		g.world.Release()
		g.world = nil
	}
	if g.device != nil {
		g.device.Close()
	}
	if g.assets != nil {
		g.assets.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
