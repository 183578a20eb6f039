// Package rocks renders instanced rocks with three distance-selected
// levels of detail, culled per chunk.
package rocks

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/instancing"
	"github.com/Faultbox/verdant/internal/engine/lod"
	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/vegetation"
)

var lightDirAmbient = mgl32.Vec4{0.5, 1.0, -0.5, 0.2}

const (
	twoPi       = 2 * math.Pi
	maxAttempts = 30
	minScale    = 0.8
	maxScale    = 1.5
)

// Instance is one placed rock. DistanceToCamera and LODLevel are
// recomputed every frame by Update.
type Instance struct {
	Position         mgl32.Vec3
	RotationY        float32
	Scale            float32
	TypeIndex        int
	DistanceToCamera float32
	LODLevel         int
}

type rockType struct {
	name    string
	levels  lod.Levels
	texture gpu.Texture
	count   int
}

// Field owns the rock instances, the LOD mesh arena and one instance
// buffer per (type, LOD). A Field that failed to initialize ignores Update
// and Draw.
type Field struct {
	log    *zap.Logger
	dev    gpu.Device
	loader instancing.Loader
	cfg    Config

	types    []rockType
	meshes   lod.Arena[gpu.Mesh]
	pipeline gpu.Pipeline

	instances []Instance
	chunks    *instancing.ChunkGrid
	visible   *instancing.Buckets
	buffers   *instancing.BufferSet
	scratch   []byte

	initialized bool
}

// New creates an uninitialized field.
func New(dev gpu.Device, loader instancing.Loader, cfg Config) *Field {
	return &Field{
		log:    logger.Named("rocks"),
		dev:    dev,
		loader: loader,
		cfg:    cfg,
	}
}

// Init loads the palette and scatters rocks per chunk by dart throwing
// with a minimum spacing. A zero seed draws a random one.
func (f *Field) Init(terrain vegetation.HeightSampler, sizeX, sizeZ float32, seed uint32) bool {
	if !f.load() {
		return false
	}
	if seed == 0 {
		seed = vegetation.RandomSeed()
	}
	f.instances = f.scatter(terrain, sizeX, sizeZ, vegetation.NewRand(seed))
	f.log.Info("generated rocks",
		zap.Uint32("seed", seed),
		zap.Int("instances", len(f.instances)))
	return f.finish(sizeX, sizeZ)
}

// InitWithInstances loads the palette and takes ownership of a
// pre-generated instance list. Out-of-range type indices are folded into
// the loaded palette and unknown detail levels start at Low.
func (f *Field) InitWithInstances(sizeX, sizeZ float32, instances []Instance) bool {
	f.log.Info("initializing with pre-generated instances", zap.Int("instances", len(instances)))
	if !f.load() {
		return false
	}
	f.instances = instances
	for i := range f.instances {
		inst := &f.instances[i]
		inst.TypeIndex = instancing.Remap(inst.TypeIndex, len(f.types))
		if inst.LODLevel < lod.High || inst.LODLevel >= lod.Count {
			inst.LODLevel = lod.Low
		}
	}
	return f.finish(sizeX, sizeZ)
}

func (f *Field) load() bool {
	f.release()
	if err := f.cfg.Validate(); err != nil {
		f.log.Error("invalid rock config", zap.Error(err))
		return false
	}

	for _, tc := range f.cfg.Types {
		t, ok := f.loadType(tc)
		if !ok {
			continue
		}
		f.types = append(f.types, t)
	}
	if len(f.types) == 0 {
		f.log.Error("no rock types loaded")
		return false
	}

	p, err := f.dev.CreatePipeline(gpu.RockPipeline)
	if err != nil {
		f.log.Error("failed to create rock pipeline", zap.Error(err))
		f.release()
		return false
	}
	f.pipeline = p
	return true
}

// loadType builds the three detail levels for a type and uploads each
// distinct mesh once. Levels that fell back share the high mesh index.
func (f *Field) loadType(tc TypeConfig) (rockType, bool) {
	fail := func(err error) (rockType, bool) {
		f.log.Warn("failed to load rock type",
			zap.String("type", tc.Name),
			zap.String("model", tc.Model),
			zap.String("texture", tc.Texture),
			zap.Error(err))
		return rockType{}, false
	}

	data, err := f.loader.LoadMesh(tc.Model)
	if err != nil {
		return fail(err)
	}
	img, err := f.loader.LoadTexture(tc.Texture)
	if err != nil {
		return fail(err)
	}

	var cpu lod.Arena[*mesh.Data]
	levels, err := lod.Generate(&cpu, data)
	if err != nil {
		return fail(err)
	}

	uploaded := make([]gpu.Mesh, 0, cpu.Len())
	releaseAll := func() {
		for _, m := range uploaded {
			m.Release()
		}
	}
	for i := 0; i < cpu.Len(); i++ {
		m, err := f.dev.CreateMesh(cpu.Get(i))
		if err != nil {
			releaseAll()
			return fail(err)
		}
		uploaded = append(uploaded, m)
	}
	tex, err := f.dev.CreateTexture(img)
	if err != nil {
		releaseAll()
		return fail(err)
	}

	base := f.meshes.Len()
	for _, m := range uploaded {
		f.meshes.Add(m)
	}
	for level := range levels {
		levels[level] += base
	}

	f.log.Debug("loaded rock type",
		zap.String("type", tc.Name),
		zap.Int("high", cpu.Get(0).TriangleCount()),
		zap.Int("meshes", cpu.Len()))
	return rockType{name: tc.Name, levels: levels, texture: tex}, true
}

func (f *Field) scatter(terrain vegetation.HeightSampler, sizeX, sizeZ float32, rng *rand.Rand) []Instance {
	if terrain == nil || f.cfg.Density <= 0 {
		return nil
	}
	chunk := f.cfg.ChunkSize
	numX := int(sizeX / chunk)
	numZ := int(sizeZ / chunk)
	perChunk := int(f.cfg.Density / 100 * chunk * chunk)
	halfX := sizeX * 0.5
	halfZ := sizeZ * 0.5

	var out []Instance
	for cz := 0; cz < numZ; cz++ {
		for cx := 0; cx < numX; cx++ {
			minX := float32(cx)*chunk - halfX
			minZ := float32(cz)*chunk - halfZ
			for _, p := range dartThrow(rng, minX, minZ, chunk, f.cfg.MinDistance, perChunk) {
				out = append(out, Instance{
					Position:  mgl32.Vec3{p[0], terrain.SampleHeightWorld(p[0], p[1]), p[1]},
					RotationY: uniform(rng, 0, twoPi),
					Scale:     uniform(rng, minScale, maxScale),
					TypeIndex: rng.Intn(len(f.types)),
					LODLevel:  lod.Low,
				})
			}
		}
	}
	return out
}

// dartThrow places up to n points in the square, each at least radius from
// the others, giving up on a point after maxAttempts rejections.
func dartThrow(rng *rand.Rand, minX, minZ, size, radius float32, n int) []mgl32.Vec2 {
	points := make([]mgl32.Vec2, 0, n)
	r2 := radius * radius
	for i := 0; i < n; i++ {
		for attempt := 0; attempt < maxAttempts; attempt++ {
			x := uniform(rng, minX, minX+size)
			z := uniform(rng, minZ, minZ+size)
			ok := true
			for _, p := range points {
				dx, dz := x-p[0], z-p[1]
				if dx*dx+dz*dz < r2 {
					ok = false
					break
				}
			}
			if ok {
				points = append(points, mgl32.Vec2{x, z})
				break
			}
		}
	}
	return points
}

func (f *Field) finish(sizeX, sizeZ float32) bool {
	f.chunks = instancing.NewChunkGrid(sizeX, sizeZ, f.cfg.ChunkSize)
	for i, inst := range f.instances {
		f.chunks.Assign(i, inst.Position.X(), inst.Position.Z())
		f.types[inst.TypeIndex].count++
	}

	// Every LOD buffer of a type can hold all of that type's instances.
	capacities := make([]int, len(f.types)*lod.Count)
	for t, rt := range f.types {
		for level := 0; level < lod.Count; level++ {
			capacities[slot(t, level)] = rt.count
		}
	}
	f.visible = instancing.NewBuckets(len(capacities))
	f.buffers = instancing.NewBufferSet(f.dev, gpu.RockInstances, capacities, f.log)
	f.initialized = true

	f.logStatistics()
	return true
}

func slot(typeIndex, level int) int {
	return typeIndex*lod.Count + level
}

// Initialized reports whether the field loaded at least one type.
func (f *Field) Initialized() bool {
	return f.initialized
}

// Instances returns the owned instance list. Callers must not modify it.
func (f *Field) Instances() []Instance {
	return f.instances
}

// Update recomputes camera distances and detail levels. It must run before
// Draw in every frame.
func (f *Field) Update(cameraPos mgl32.Vec3) {
	if !f.initialized {
		return
	}
	f.UpdateLODLevels(cameraPos)
}

// UpdateLODLevels classifies every instance by its XZ distance to the
// camera.
func (f *Field) UpdateLODLevels(cameraPos mgl32.Vec3) {
	for i := range f.instances {
		inst := &f.instances[i]
		dx := inst.Position.X() - cameraPos.X()
		dz := inst.Position.Z() - cameraPos.Z()
		inst.DistanceToCamera = float32(math.Sqrt(float64(dx*dx + dz*dz)))
		inst.LODLevel = SelectLOD(inst.DistanceToCamera, f.cfg.LODDistanceHigh, f.cfg.LODDistanceMedium)
	}
}

// SelectLOD maps a camera distance to a detail level.
func SelectLOD(distance, high, medium float32) int {
	switch {
	case distance < high:
		return lod.High
	case distance < medium:
		return lod.Medium
	default:
		return lod.Low
	}
}

// Draw culls chunks, uploads each non-empty (type, LOD) bucket and issues
// one instanced draw per bucket.
func (f *Field) Draw(cmd gpu.CommandList, viewProj mgl32.Mat4, cameraPos mgl32.Vec3) instancing.FrameStats {
	var stats instancing.FrameStats
	if !f.initialized {
		return stats
	}

	stats.Chunks = f.chunks.Len()
	stats.VisibleChunks = f.cull(cameraPos)
	stats.VisibleInstances = f.visible.Total()

	ready := make([]bool, f.visible.Slots())
	for s := range ready {
		n := f.visible.Len(s)
		if n == 0 {
			continue
		}
		f.scratch = f.scratch[:0]
		for _, i := range f.visible.Items(s) {
			inst := &f.instances[i]
			f.scratch = instancing.RockRecord{
				Position:  inst.Position,
				RotationY: inst.RotationY,
				Scale:     inst.Scale,
			}.AppendTo(f.scratch)
		}
		if f.buffers.Upload(s, f.scratch, n) {
			ready[s] = true
			stats.BytesUploaded += len(f.scratch)
		}
	}

	cmd.SetPipeline(f.pipeline)
	cmd.SetMat4("VP", viewProj)
	cmd.SetMat4("W", mgl32.Ident4())
	cmd.SetVec4("cameraPos", cameraPos.Vec4(f.cfg.ViewDistance))
	cmd.SetVec4("lightDirAmbient", lightDirAmbient)
	cmd.SetVec4("rockColor", mgl32.Vec4(f.cfg.Color))

	for t, rt := range f.types {
		for level := 0; level < lod.Count; level++ {
			s := slot(t, level)
			if !ready[s] {
				continue
			}
			m := f.meshes.Get(rt.levels[level])
			cmd.BindTexture(rt.texture)
			cmd.BindMesh(m)
			cmd.BindInstances(f.buffers.Buffer(s))
			cmd.DrawIndexedInstanced(m.IndexCount(), f.visible.Len(s))
			stats.DrawCalls++
		}
	}
	return stats
}

func (f *Field) cull(cameraPos mgl32.Vec3) int {
	f.visible.Reset()
	visible := f.chunks.Cull(cameraPos, f.cfg.ViewDistance)
	f.chunks.EachVisible(func(i int) {
		inst := &f.instances[i]
		f.visible.Add(slot(inst.TypeIndex, inst.LODLevel), i)
	})
	return visible
}

// Release frees all GPU resources. Meshes shared between levels are
// released once.
func (f *Field) Release() {
	f.release()
	f.instances = nil
	f.chunks = nil
	f.visible = nil
}

func (f *Field) release() {
	f.meshes.Release(func(m gpu.Mesh) { m.Release() })
	for _, t := range f.types {
		t.texture.Release()
	}
	f.types = nil
	if f.pipeline != nil {
		f.pipeline.Release()
		f.pipeline = nil
	}
	if f.buffers != nil {
		f.buffers.Release()
		f.buffers = nil
	}
	f.initialized = false
}

func uniform(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}
