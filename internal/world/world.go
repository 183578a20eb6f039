// Package world assembles the terrain, runs the vegetation generator and
// feeds its output to the grass and rock fields, then drives all three
// every frame.
package world

import (
	"bytes"
	"fmt"
	"math"
	"path"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/grass"
	"github.com/Faultbox/verdant/internal/engine/instancing"
	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/rocks"
	"github.com/Faultbox/verdant/internal/engine/terrain"
	"github.com/Faultbox/verdant/internal/engine/water"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/vegetation"
)

var terrainLight = mgl32.Vec4{0.5, 1.0, -0.5, 0.35}

// Loader resolves meshes, textures and raw files such as heightmaps.
type Loader interface {
	instancing.Loader
	Load(name string) ([]byte, error)
}

// FrameStats is the per-frame work of every subsystem.
type FrameStats struct {
	SurfaceDraws int // terrain and lake
	Grass        instancing.FrameStats
	Rocks        instancing.FrameStats
}

// Total sums the grass and rock stats and counts surface draws as draw calls.
func (s FrameStats) Total() instancing.FrameStats {
	t := s.Grass
	t.Add(s.Rocks)
	t.DrawCalls += s.SurfaceDraws
	return t
}

// surface is a non-instanced mesh drawn with the terrain pipeline.
type surface struct {
	name    string
	mesh    gpu.Mesh
	texture gpu.Texture
}

// World holds the terrain and the vegetation fields built from one config.
type World struct {
	log *zap.Logger
	cfg *config.Config

	Seed       uint32
	Terrain    *terrain.Heightmap
	Lake       *water.Lake        // nil without a lake
	Vegetation *vegetation.Result // nil when the fields scatter their own instances
	Grass      *grass.Field
	Rocks      *rocks.Field

	surfaces        []surface
	surfacePipeline gpu.Pipeline
}

// Build creates the terrain and both vegetation fields. It fails only when
// the configuration or the heightmap is unusable; a field that cannot
// initialize is logged and stays inert.
func Build(dev gpu.Device, loader Loader, cfg *config.Config) (*World, error) {
	log := logger.Named("world")

	vegCfg, err := cfg.Vegetation.Resolve()
	if err != nil {
		return nil, err
	}

	w := &World{
		log:  log,
		cfg:  cfg,
		Seed: cfg.World.Seed,
	}
	if w.Seed == 0 {
		w.Seed = vegetation.RandomSeed()
	}

	w.Terrain, err = loadTerrain(loader, cfg.World)
	if err != nil {
		return nil, err
	}
	if lake := cfg.World.Lake; lake.Enabled && lake.Radius > 0 {
		rim := w.Terrain.CarveBasin(lake.X, lake.Z, lake.Radius, lake.Depth)
		w.Lake = &water.Lake{X: lake.X, Z: lake.Z, Radius: lake.Radius, Level: rim - water.SurfaceOffset}
	}
	w.uploadSurfaces(dev, loader)

	w.Grass = grass.New(dev, loader, cfg.Grass)
	w.Rocks = rocks.New(dev, loader, cfg.Rocks)

	sizeX, sizeZ := cfg.World.SizeX, cfg.World.SizeZ
	var grassOK, rocksOK bool

	switch cfg.World.Source {
	case config.SourceScatter:
		grassOK = w.Grass.Init(w.Terrain, sizeX, sizeZ, w.Seed)
		rocksOK = w.Rocks.Init(w.Terrain, sizeX, sizeZ, w.Seed)
	default:
		start := time.Now()
		w.Vegetation = vegetation.Generate(w.Terrain, vegCfg, sizeX, sizeZ, w.Seed)
		log.Info("vegetation generated",
			zap.Uint32("seed", w.Seed),
			zap.Int("grass", len(w.Vegetation.Grass)),
			zap.Int("rocks", len(w.Vegetation.Rocks)),
			zap.Duration("took", time.Since(start)),
		)

		grassZones, rockZones := Exclusions(cfg.World)
		groups, typesPerGroup := PaletteShape(cfg.Grass)
		grassOK = w.Grass.InitWithInstances(sizeX, sizeZ,
			GrassInstances(w.Vegetation.Grass, grassZones, groups, typesPerGroup))
		rocksOK = w.Rocks.InitWithInstances(sizeX, sizeZ,
			RockInstances(w.Vegetation.Rocks, rockZones))
	}

	if !grassOK {
		log.Warn("grass field not initialized")
	}
	if !rocksOK {
		log.Warn("rock field not initialized")
	}

	log.Info("world built",
		zap.String("source", cfg.World.Source),
		zap.Int("grass", len(w.Grass.Instances())),
		zap.Int("rocks", len(w.Rocks.Instances())),
		zap.Float32("min_height", w.Terrain.MinHeight),
		zap.Float32("max_height", w.Terrain.MaxHeight),
	)
	return w, nil
}

func loadTerrain(loader Loader, wc config.WorldConfig) (*terrain.Heightmap, error) {
	p := terrain.Params{
		SizeX:       wc.SizeX,
		SizeZ:       wc.SizeZ,
		HeightScale: wc.HeightScale,
		HeightOff:   wc.HeightOffset,
	}
	if wc.Heightmap == "" {
		h, err := terrain.Generate(wc.Terrain, p)
		if err != nil {
			return nil, fmt.Errorf("generating terrain: %w", err)
		}
		return h, nil
	}

	data, err := loader.Load(wc.Heightmap)
	if err != nil {
		return nil, fmt.Errorf("loading heightmap: %w", err)
	}
	var h *terrain.Heightmap
	if format, ok := rawFormat(wc.Heightmap); ok {
		h, err = decodeSquareRaw(data, format, p)
	} else {
		h, err = terrain.DecodeImage(bytes.NewReader(data), p)
	}
	if err != nil {
		return nil, fmt.Errorf("loading heightmap %s: %w", wc.Heightmap, err)
	}
	return h, nil
}

// rawFormat maps headerless heightmap extensions to their sample format.
func rawFormat(name string) (terrain.Format, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".r8", ".raw":
		return terrain.RAW8, true
	case ".r16":
		return terrain.RAW16LE, true
	}
	return 0, false
}

// decodeSquareRaw decodes a raw heightmap whose side length follows from
// its byte count.
func decodeSquareRaw(data []byte, format terrain.Format, p terrain.Params) (*terrain.Heightmap, error) {
	sampleSize := 1
	if format == terrain.RAW16LE {
		sampleSize = 2
	}
	n := len(data) / sampleSize
	side := int(math.Sqrt(float64(n)))
	if side < 2 || side*side*sampleSize != len(data) {
		return nil, fmt.Errorf("raw heightmap of %d bytes is not square", len(data))
	}
	return terrain.DecodeRaw(bytes.NewReader(data), side, side, format, p)
}

// uploadSurfaces creates the terrain and lake GPU resources. A surface
// that fails to load or upload is logged and left undrawn.
func (w *World) uploadSurfaces(dev gpu.Device, loader Loader) {
	pipe, err := dev.CreatePipeline(gpu.TerrainPipeline)
	if err != nil {
		w.log.Warn("terrain pipeline failed", zap.Error(err))
		return
	}

	w.addSurface(dev, loader, "terrain", terrainMesh(w.Terrain), w.cfg.World.Texture)
	if w.Lake != nil {
		w.addSurface(dev, loader, "lake", w.Lake.Mesh(water.DefaultSegments), w.cfg.World.Lake.Texture)
	}

	if len(w.surfaces) == 0 {
		pipe.Release()
		return
	}
	w.surfacePipeline = pipe
}

func (w *World) addSurface(dev gpu.Device, loader Loader, name string, data *mesh.Data, textureRef string) {
	img, err := loader.LoadTexture(textureRef)
	if err != nil {
		w.log.Warn("surface texture failed",
			zap.String("surface", name), zap.String("texture", textureRef), zap.Error(err))
		return
	}
	m, err := dev.CreateMesh(data)
	if err != nil {
		w.log.Warn("surface mesh upload failed", zap.String("surface", name), zap.Error(err))
		return
	}
	tex, err := dev.CreateTexture(img)
	if err != nil {
		m.Release()
		w.log.Warn("surface texture upload failed", zap.String("surface", name), zap.Error(err))
		return
	}
	w.surfaces = append(w.surfaces, surface{name: name, mesh: m, texture: tex})
}

func terrainMesh(h *terrain.Heightmap) *mesh.Data {
	tm := terrain.BuildMesh(h)
	data := &mesh.Data{
		Vertices: make([]mesh.Vertex, len(tm.Vertices)),
		Indices:  tm.Indices,
		Bounds:   mesh.Bounds(tm.Bounds),
	}
	for i, v := range tm.Vertices {
		data.Vertices[i] = mesh.Vertex(v)
	}
	return data
}

// Config returns the configuration the world was built from.
func (w *World) Config() *config.Config {
	return w.cfg
}

// Update advances wind and refreshes rock detail levels.
func (w *World) Update(dt float32, cameraPos mgl32.Vec3) {
	w.Grass.Update(dt)
	w.Rocks.Update(cameraPos)
}

// Draw renders the terrain and lake, then rocks, then grass.
func (w *World) Draw(cmd gpu.CommandList, viewProj mgl32.Mat4, cameraPos mgl32.Vec3) FrameStats {
	var stats FrameStats
	if len(w.surfaces) > 0 {
		cmd.SetPipeline(w.surfacePipeline)
		cmd.SetMat4("VP", viewProj)
		cmd.SetMat4("W", mgl32.Ident4())
		cmd.SetVec4("lightDirAmbient", terrainLight)
		for _, s := range w.surfaces {
			cmd.BindTexture(s.texture)
			cmd.BindMesh(s.mesh)
			cmd.DrawIndexed(s.mesh.IndexCount())
			stats.SurfaceDraws++
		}
	}
	stats.Rocks = w.Rocks.Draw(cmd, viewProj, cameraPos)
	stats.Grass = w.Grass.Draw(cmd, viewProj, cameraPos)
	return stats
}

// Release frees every GPU resource held by the world.
func (w *World) Release() {
	w.Grass.Release()
	w.Rocks.Release()
	for _, s := range w.surfaces {
		s.mesh.Release()
		s.texture.Release()
	}
	w.surfaces = nil
	if w.surfacePipeline != nil {
		w.surfacePipeline.Release()
		w.surfacePipeline = nil
	}
}
