// Package grass renders instanced grass organized into groups of weighted
// types, culled per chunk and animated by wind.
package grass

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/instancing"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/vegetation"
)

// Lighting constants shared with the grass shader.
var lightDirAmbient = mgl32.Vec4{0.5, 1.0, -0.5, 0.3}

const (
	twoPi       = 2 * math.Pi
	jitterScale = 0.3
	minScale    = 0.8
	maxScale    = 1.2
)

// Instance is one grass blade clump.
type Instance struct {
	Position   mgl32.Vec3
	RotationY  float32
	Scale      float32
	WindPhase  float32
	GroupIndex int
	TypeIndex  int
}

type grassType struct {
	name    string
	mesh    gpu.Mesh
	texture gpu.Texture
	weight  float32
	slot    int
	count   int
}

type group struct {
	name   string
	weight float32
	types  []grassType
}

// Field owns the grass instances, their chunk grid and per-type GPU
// buffers. A Field that failed to initialize ignores Update and Draw.
type Field struct {
	log    *zap.Logger
	dev    gpu.Device
	loader instancing.Loader
	cfg    Config

	groups   []group
	slots    int
	pipeline gpu.Pipeline

	instances []Instance
	chunks    *instancing.ChunkGrid
	visible   *instancing.Buckets
	buffers   *instancing.BufferSet
	scratch   []byte

	windTime    float32
	initialized bool
}

// New creates an uninitialized field.
func New(dev gpu.Device, loader instancing.Loader, cfg Config) *Field {
	return &Field{
		log:    logger.Named("grass"),
		dev:    dev,
		loader: loader,
		cfg:    cfg,
	}
}

// Init loads the palette and scatters a jittered grid of instances in every
// chunk, choosing group and type by weight. A zero seed draws a random one.
func (f *Field) Init(terrain vegetation.HeightSampler, sizeX, sizeZ float32, seed uint32) bool {
	if !f.load() {
		return false
	}
	if seed == 0 {
		seed = vegetation.RandomSeed()
	}
	f.instances = f.scatter(terrain, sizeX, sizeZ, vegetation.NewRand(seed))
	f.log.Info("generated grass",
		zap.Uint32("seed", seed),
		zap.Int("instances", len(f.instances)))
	return f.finish(sizeX, sizeZ)
}

// InitWithInstances loads the palette and takes ownership of a
// pre-generated instance list. Out-of-range group and type indices are
// folded into the loaded palette.
func (f *Field) InitWithInstances(sizeX, sizeZ float32, instances []Instance) bool {
	f.log.Info("initializing with pre-generated instances", zap.Int("instances", len(instances)))
	if !f.load() {
		return false
	}
	f.instances = instances
	for i := range f.instances {
		inst := &f.instances[i]
		inst.GroupIndex = instancing.Remap(inst.GroupIndex, len(f.groups))
		inst.TypeIndex = instancing.Remap(inst.TypeIndex, len(f.groups[inst.GroupIndex].types))
	}
	return f.finish(sizeX, sizeZ)
}

// load uploads every configured type. Types that fail to load are dropped,
// and so are groups left empty.
func (f *Field) load() bool {
	f.release()
	if err := f.cfg.Validate(); err != nil {
		f.log.Error("invalid grass config", zap.Error(err))
		return false
	}

	for _, gc := range f.cfg.Groups {
		g := group{name: gc.Name, weight: gc.Weight}
		for _, tc := range gc.Types {
			t, ok := f.loadType(tc)
			if !ok {
				continue
			}
			t.slot = f.slots
			f.slots++
			g.types = append(g.types, t)
		}
		if len(g.types) > 0 {
			f.groups = append(f.groups, g)
		}
	}
	if len(f.groups) == 0 {
		f.log.Error("no grass groups loaded")
		return false
	}

	p, err := f.dev.CreatePipeline(gpu.GrassPipeline)
	if err != nil {
		f.log.Error("failed to create grass pipeline", zap.Error(err))
		f.release()
		return false
	}
	f.pipeline = p
	normalize(f.groups)
	return true
}

func (f *Field) loadType(tc TypeConfig) (grassType, bool) {
	fail := func(err error) (grassType, bool) {
		f.log.Warn("failed to load grass type",
			zap.String("type", tc.Name),
			zap.String("model", tc.Model),
			zap.String("texture", tc.Texture),
			zap.Error(err))
		return grassType{}, false
	}

	data, err := f.loader.LoadMesh(tc.Model)
	if err != nil {
		return fail(err)
	}
	img, err := f.loader.LoadTexture(tc.Texture)
	if err != nil {
		return fail(err)
	}
	m, err := f.dev.CreateMesh(data)
	if err != nil {
		return fail(err)
	}
	tex, err := f.dev.CreateTexture(img)
	if err != nil {
		m.Release()
		return fail(err)
	}
	return grassType{name: tc.Name, mesh: m, texture: tex, weight: tc.Weight}, true
}

// normalize scales group weights and per-group type weights to sum to one.
func normalize(groups []group) {
	var total float32
	for _, g := range groups {
		total += g.weight
	}
	for i := range groups {
		g := &groups[i]
		if total > 0 {
			g.weight /= total
		} else {
			g.weight = 0
		}

		var typeTotal float32
		for _, t := range g.types {
			typeTotal += t.weight
		}
		for j := range g.types {
			if typeTotal > 0 {
				g.types[j].weight /= typeTotal
			} else {
				g.types[j].weight = 0
			}
		}
	}
}

// selectGroup walks the cumulative group weights; values past the end pick
// the last group.
func (f *Field) selectGroup(r float32) int {
	var cumulative float32
	for i, g := range f.groups {
		cumulative += g.weight
		if r <= cumulative {
			return i
		}
	}
	return len(f.groups) - 1
}

func (f *Field) selectType(groupIndex int, r float32) int {
	if groupIndex < 0 || groupIndex >= len(f.groups) {
		return 0
	}
	types := f.groups[groupIndex].types
	var cumulative float32
	for i, t := range types {
		cumulative += t.weight
		if r <= cumulative {
			return i
		}
	}
	return len(types) - 1
}

func (f *Field) scatter(terrain vegetation.HeightSampler, sizeX, sizeZ float32, rng *rand.Rand) []Instance {
	if terrain == nil || f.cfg.Density <= 0 {
		return nil
	}
	chunk := f.cfg.ChunkSize
	spacing := 1 / float32(math.Sqrt(float64(f.cfg.Density)))
	jitter := f.cfg.MinDistance * jitterScale

	numX := int(sizeX / chunk)
	numZ := int(sizeZ / chunk)
	perAxis := int(chunk / spacing)
	halfX := sizeX * 0.5
	halfZ := sizeZ * 0.5

	out := make([]Instance, 0, numX*numZ*perAxis*perAxis)
	for cz := 0; cz < numZ; cz++ {
		for cx := 0; cx < numX; cx++ {
			minX := float32(cx)*chunk - halfX
			minZ := float32(cz)*chunk - halfZ
			for z := 0; z < perAxis; z++ {
				for x := 0; x < perAxis; x++ {
					wx := minX + float32(x)*spacing + uniform(rng, -jitter, jitter)
					wz := minZ + float32(z)*spacing + uniform(rng, -jitter, jitter)
					g := f.selectGroup(rng.Float32())
					t := f.selectType(g, rng.Float32())
					out = append(out, Instance{
						Position:   mgl32.Vec3{wx, terrain.SampleHeightWorld(wx, wz), wz},
						RotationY:  uniform(rng, 0, twoPi),
						Scale:      uniform(rng, minScale, maxScale),
						WindPhase:  uniform(rng, 0, twoPi),
						GroupIndex: g,
						TypeIndex:  t,
					})
				}
			}
		}
	}
	return out
}

// finish builds the chunk grid, counts instances per type and allocates
// one buffer per type sized for all of that type's instances.
func (f *Field) finish(sizeX, sizeZ float32) bool {
	f.chunks = instancing.NewChunkGrid(sizeX, sizeZ, f.cfg.ChunkSize)
	for i, inst := range f.instances {
		f.chunks.Assign(i, inst.Position.X(), inst.Position.Z())
		f.groups[inst.GroupIndex].types[inst.TypeIndex].count++
	}

	capacities := make([]int, f.slots)
	for _, g := range f.groups {
		for _, t := range g.types {
			capacities[t.slot] = t.count
		}
	}
	f.visible = instancing.NewBuckets(f.slots)
	f.buffers = instancing.NewBufferSet(f.dev, gpu.GrassInstances, capacities, f.log)
	f.initialized = true

	f.logStatistics()
	return true
}

// Initialized reports whether the field loaded at least one type.
func (f *Field) Initialized() bool {
	return f.initialized
}

// Instances returns the owned instance list. Callers must not modify it.
func (f *Field) Instances() []Instance {
	return f.instances
}

// WindTime returns the accumulated wind animation time.
func (f *Field) WindTime() float32 {
	return f.windTime
}

// Update advances the wind animation.
func (f *Field) Update(dt float32) {
	if !f.initialized {
		return
	}
	f.windTime += dt * f.cfg.WindSpeed
}

// Draw culls chunks against the camera, uploads visible instances per type
// and issues one instanced draw per type with visible instances.
func (f *Field) Draw(cmd gpu.CommandList, viewProj mgl32.Mat4, cameraPos mgl32.Vec3) instancing.FrameStats {
	var stats instancing.FrameStats
	if !f.initialized {
		return stats
	}

	stats.Chunks = f.chunks.Len()
	stats.VisibleChunks = f.cull(cameraPos)
	stats.VisibleInstances = f.visible.Total()

	ready := make([]bool, f.slots)
	for slot := 0; slot < f.slots; slot++ {
		n := f.visible.Len(slot)
		if n == 0 {
			continue
		}
		f.scratch = f.scratch[:0]
		for _, i := range f.visible.Items(slot) {
			inst := &f.instances[i]
			f.scratch = instancing.GrassRecord{
				Position:  inst.Position,
				RotationY: inst.RotationY,
				Scale:     inst.Scale,
				WindPhase: inst.WindPhase,
			}.AppendTo(f.scratch)
		}
		if f.buffers.Upload(slot, f.scratch, n) {
			ready[slot] = true
			stats.BytesUploaded += len(f.scratch)
		}
	}

	cmd.SetPipeline(f.pipeline)
	cmd.SetMat4("VP", viewProj)
	cmd.SetMat4("W", mgl32.Ident4())
	cmd.SetVec4("windParams", mgl32.Vec4{
		f.cfg.WindDirection[0], f.cfg.WindDirection[1], f.cfg.WindStrength, f.windTime,
	})
	cmd.SetVec4("cameraPos", cameraPos.Vec4(f.cfg.ViewDistance))
	cmd.SetVec4("lightDirAmbient", lightDirAmbient)
	cmd.SetVec4("grassColorTop", mgl32.Vec4(f.cfg.ColorTop))
	cmd.SetVec4("grassColorBottom", mgl32.Vec4(f.cfg.ColorBottom))

	for _, g := range f.groups {
		for _, t := range g.types {
			if !ready[t.slot] {
				continue
			}
			n := f.visible.Len(t.slot)
			cmd.BindTexture(t.texture)
			cmd.BindMesh(t.mesh)
			cmd.BindInstances(f.buffers.Buffer(t.slot))
			cmd.DrawIndexedInstanced(t.mesh.IndexCount(), n)
			stats.DrawCalls++
		}
	}
	return stats
}

// cull marks visible chunks and rebuilds the per-type visible buckets.
func (f *Field) cull(cameraPos mgl32.Vec3) int {
	f.visible.Reset()
	visible := f.chunks.Cull(cameraPos, f.cfg.ViewDistance)
	f.chunks.EachVisible(func(i int) {
		inst := &f.instances[i]
		f.visible.Add(f.groups[inst.GroupIndex].types[inst.TypeIndex].slot, i)
	})
	return visible
}

// Release frees all GPU resources and returns the field to the
// uninitialized state.
func (f *Field) Release() {
	f.release()
	f.instances = nil
	f.chunks = nil
	f.visible = nil
}

func (f *Field) release() {
	for _, g := range f.groups {
		for _, t := range g.types {
			t.mesh.Release()
			t.texture.Release()
		}
	}
	f.groups = nil
	f.slots = 0
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
