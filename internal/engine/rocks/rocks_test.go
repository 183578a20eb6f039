package rocks

import (
	"errors"
	"image/color"
	"reflect"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/instancing"
	"github.com/Faultbox/verdant/internal/engine/lod"
	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/engine/texture"
	"github.com/Faultbox/verdant/internal/vegetation"
)

type fakeLoader struct {
	fail       map[string]bool
	degenerate bool
}

func (l fakeLoader) LoadMesh(ref string) (*mesh.Data, error) {
	if l.fail[ref] {
		return nil, errors.New("missing mesh")
	}
	if l.degenerate {
		return &mesh.Data{
			Vertices: []mesh.Vertex{{}, {}, {}, {}},
			Indices:  []uint32{0, 1, 2, 0, 2, 3},
		}, nil
	}
	return mesh.Rock(1, 2), nil
}

func (l fakeLoader) LoadTexture(ref string) (*texture.Image, error) {
	if l.fail[ref] {
		return nil, errors.New("missing texture")
	}
	return texture.Solid(color.RGBA{R: 128, G: 128, B: 128, A: 255}, 4), nil
}

var flat = vegetation.HeightFunc(func(x, z float32) float32 { return 0 })

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ViewDistance = 1000
	return cfg
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero chunk", func(c *Config) { c.ChunkSize = 0 }},
		{"negative view", func(c *Config) { c.ViewDistance = -5 }},
		{"negative density", func(c *Config) { c.Density = -1 }},
		{"inverted lod", func(c *Config) { c.LODDistanceMedium = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if cfg.Validate() == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSelectLOD(t *testing.T) {
	tests := []struct {
		distance float32
		want     int
	}{
		{0, lod.High},
		{19.99, lod.High},
		{20, lod.Medium},
		{49.99, lod.Medium},
		{50, lod.Low},
		{5000, lod.Low},
	}
	for _, tt := range tests {
		if got := SelectLOD(tt.distance, 20, 50); got != tt.want {
			t.Errorf("SelectLOD(%v) = %d, want %d", tt.distance, got, tt.want)
		}
	}
}

func TestUpdateLODSweep(t *testing.T) {
	f := New(gpu.NewMemDevice(), fakeLoader{}, testConfig())
	if !f.InitWithInstances(200, 200, []Instance{{Scale: 1}}) {
		t.Fatal("InitWithInstances failed")
	}

	tests := []struct {
		cameraX float32
		want    int
	}{
		{0, lod.High},
		{10, lod.High},
		{20, lod.Medium},
		{35, lod.Medium},
		{50, lod.Low},
		{80, lod.Low},
	}
	for _, tt := range tests {
		// Height does not contribute to the distance.
		f.Update(mgl32.Vec3{tt.cameraX, 100, 0})
		inst := f.Instances()[0]
		if inst.DistanceToCamera != tt.cameraX {
			t.Errorf("camera x %v: distance = %v", tt.cameraX, inst.DistanceToCamera)
		}
		if inst.LODLevel != tt.want {
			t.Errorf("camera x %v: LOD = %d, want %d", tt.cameraX, inst.LODLevel, tt.want)
		}
	}
}

func TestInitWithInstancesNormalizes(t *testing.T) {
	f := New(gpu.NewMemDevice(), fakeLoader{}, testConfig())
	instances := []Instance{
		{TypeIndex: -1},
		{TypeIndex: 4, LODLevel: 7},
		{TypeIndex: 2, LODLevel: -1},
		{TypeIndex: 1, LODLevel: lod.Medium},
	}
	if !f.InitWithInstances(100, 100, instances) {
		t.Fatal("InitWithInstances failed")
	}
	want := [][2]int{{2, lod.High}, {1, lod.Low}, {2, lod.Low}, {1, lod.Medium}}
	for i, inst := range f.Instances() {
		if inst.TypeIndex != want[i][0] || inst.LODLevel != want[i][1] {
			t.Errorf("instance %d = (%d, %d), want %v", i, inst.TypeIndex, inst.LODLevel, want[i])
		}
	}
}

func TestBufferCapacities(t *testing.T) {
	dev := gpu.NewMemDevice()
	f := New(dev, fakeLoader{}, testConfig())
	instances := []Instance{{}, {}, {}, {}, {TypeIndex: 1}, {TypeIndex: 1}}
	if !f.InitWithInstances(100, 100, instances) {
		t.Fatal("InitWithInstances failed")
	}
	if len(dev.Buffers) != 2*lod.Count {
		t.Fatalf("allocated %d buffers, want %d", len(dev.Buffers), 2*lod.Count)
	}
	for i, b := range dev.Buffers {
		want := 4
		if i >= lod.Count {
			want = 2
		}
		if b.Capacity() != want {
			t.Errorf("buffer %d capacity = %d, want %d", i, b.Capacity(), want)
		}
		if b.Layout() != gpu.RockInstances {
			t.Errorf("buffer %d layout = %v", i, b.Layout())
		}
	}
}

func TestDrawPerLevel(t *testing.T) {
	dev := gpu.NewMemDevice()
	f := New(dev, fakeLoader{}, testConfig())
	instances := []Instance{
		{Position: mgl32.Vec3{5, 0, 0}, Scale: 1},
		{Position: mgl32.Vec3{0, 0, 30}, Scale: 1},
		{Position: mgl32.Vec3{-80, 0, 0}, Scale: 1},
		{Position: mgl32.Vec3{0, 0, -90}, Scale: 1},
	}
	if !f.InitWithInstances(200, 200, instances) {
		t.Fatal("InitWithInstances failed")
	}

	camera := mgl32.Vec3{0, 2, 0}
	f.Update(camera)
	stats := f.Draw(dev.CommandList(), mgl32.Ident4(), camera)

	if stats.DrawCalls != 3 {
		t.Fatalf("DrawCalls = %d, want 3", stats.DrawCalls)
	}
	if stats.VisibleInstances != 4 {
		t.Errorf("VisibleInstances = %d, want 4", stats.VisibleInstances)
	}
	if stats.BytesUploaded != 4*gpu.RockInstanceStride {
		t.Errorf("BytesUploaded = %d, want %d", stats.BytesUploaded, 4*gpu.RockInstanceStride)
	}

	draws := dev.Draws()
	wantCounts := []int{1, 1, 2}
	for i, d := range draws {
		if d.Pipeline != gpu.RockPipeline {
			t.Errorf("draw %d used %v pipeline", i, d.Pipeline)
		}
		if d.InstanceCount != wantCounts[i] {
			t.Errorf("draw %d instances = %d, want %d", i, d.InstanceCount, wantCounts[i])
		}
		if d.InstanceCount > d.Instances.Capacity() {
			t.Errorf("draw %d exceeds capacity", i)
		}
	}
	if draws[0].IndexCount != len(mesh.Rock(1, 2).Indices) {
		t.Errorf("high detail draw uses %d indices", draws[0].IndexCount)
	}
	if draws[2].IndexCount >= draws[0].IndexCount {
		t.Errorf("low detail draw (%d indices) not cheaper than high (%d)",
			draws[2].IndexCount, draws[0].IndexCount)
	}
	if v, _ := dev.Uniform("rockColor"); v != (mgl32.Vec4{0.7, 0.7, 0.7, 1}) {
		t.Errorf("rockColor = %v", v)
	}
	if v, _ := dev.Uniform("lightDirAmbient"); v != lightDirAmbient {
		t.Errorf("lightDirAmbient = %v", v)
	}
}

func TestDrawCulls(t *testing.T) {
	cfg := testConfig()
	cfg.ViewDistance = 10
	cfg.ChunkSize = 20
	dev := gpu.NewMemDevice()
	f := New(dev, fakeLoader{}, cfg)
	instances := []Instance{
		{Position: mgl32.Vec3{-95, 0, -95}},
		{Position: mgl32.Vec3{95, 0, 95}},
	}
	if !f.InitWithInstances(200, 200, instances) {
		t.Fatal("InitWithInstances failed")
	}
	camera := mgl32.Vec3{-90, 0, -90}
	f.Update(camera)
	stats := f.Draw(dev.CommandList(), mgl32.Ident4(), camera)
	if stats.VisibleInstances != 1 || stats.DrawCalls != 1 {
		t.Errorf("stats = %+v, want one visible instance and one draw", stats)
	}
}

func TestSharedLevelsReleasedOnce(t *testing.T) {
	dev := gpu.NewMemDevice()
	f := New(dev, fakeLoader{degenerate: true}, testConfig())
	if !f.InitWithInstances(100, 100, []Instance{{}}) {
		t.Fatal("InitWithInstances failed")
	}
	if len(dev.Meshes) != len(f.cfg.Types) {
		t.Errorf("uploaded %d meshes, want one per type", len(dev.Meshes))
	}

	s := f.Statistics()
	if s.Meshes != len(dev.Meshes) {
		t.Errorf("Statistics().Meshes = %d, want %d", s.Meshes, len(dev.Meshes))
	}
	var triangles int
	for _, m := range dev.Meshes {
		triangles += len(m.Data.Indices) / 3
	}
	if s.Triangles != triangles {
		t.Errorf("Statistics().Triangles = %d, want %d", s.Triangles, triangles)
	}
	if !s.Types[0].SharedLevels[lod.Medium] || !s.Types[0].SharedLevels[lod.Low] {
		t.Errorf("fallback levels not shared: %v", s.Types[0].SharedLevels)
	}

	f.Update(mgl32.Vec3{})
	stats := f.Draw(dev.CommandList(), mgl32.Ident4(), mgl32.Vec3{})
	if stats.DrawCalls != 1 || dev.Draws()[0].Mesh != dev.Meshes[0] {
		t.Error("high detail draw did not use the shared mesh")
	}

	f.Release()
	for _, m := range dev.Meshes {
		if !m.Released {
			t.Errorf("mesh %d not released", m.ID)
		}
	}
}

func TestDrawSkipsMissingBuffers(t *testing.T) {
	dev := gpu.NewMemDevice()
	dev.FailBuffer = func(gpu.InstanceLayout, int) bool { return true }
	f := New(dev, fakeLoader{}, testConfig())
	if !f.InitWithInstances(100, 100, []Instance{{}, {TypeIndex: 2}}) {
		t.Fatal("InitWithInstances failed")
	}
	f.Update(mgl32.Vec3{})
	if stats := f.Draw(dev.CommandList(), mgl32.Ident4(), mgl32.Vec3{}); stats.DrawCalls != 0 {
		t.Errorf("DrawCalls = %d without buffers", stats.DrawCalls)
	}
	if len(dev.Draws()) != 0 {
		t.Error("draws recorded without buffers")
	}
}

func TestLoadFailures(t *testing.T) {
	cfg := testConfig()
	fail := map[string]bool{}
	for _, tc := range cfg.Types {
		fail[tc.Model] = true
	}
	dev := gpu.NewMemDevice()
	f := New(dev, fakeLoader{fail: fail}, cfg)
	if f.InitWithInstances(100, 100, []Instance{{}}) {
		t.Fatal("InitWithInstances succeeded with no loadable types")
	}
	f.Update(mgl32.Vec3{})
	if stats := f.Draw(dev.CommandList(), mgl32.Ident4(), mgl32.Vec3{}); stats != (instancing.FrameStats{}) {
		t.Errorf("uninitialized draw returned %+v", stats)
	}

	// One failure only drops that type.
	f = New(gpu.NewMemDevice(), fakeLoader{fail: map[string]bool{cfg.Types[1].Texture: true}}, cfg)
	if !f.InitWithInstances(100, 100, []Instance{{TypeIndex: 5}}) {
		t.Fatal("InitWithInstances failed")
	}
	if s := f.Statistics(); len(s.Types) != 2 || s.Types[1].Name != cfg.Types[2].Name {
		t.Errorf("loaded types = %+v", s.Types)
	}
	if got := f.Instances()[0].TypeIndex; got != 1 {
		t.Errorf("remapped type = %d, want 1", got)
	}
}

func TestInitDartThrowing(t *testing.T) {
	cfg := testConfig()
	cfg.ChunkSize = 10
	cfg.Density = 10
	cfg.MinDistance = 1

	f := New(gpu.NewMemDevice(), fakeLoader{}, cfg)
	if !f.Init(flat, 20, 20, 99) {
		t.Fatal("Init failed")
	}
	got := f.Instances()
	if len(got) == 0 || len(got) > 4*10 {
		t.Fatalf("instances = %d, want 1..40", len(got))
	}

	for i, a := range got {
		if a.LODLevel != lod.Low {
			t.Errorf("instance %d starts at LOD %d", i, a.LODLevel)
		}
		if a.Scale < minScale || a.Scale > maxScale {
			t.Errorf("instance %d scale %v", i, a.Scale)
		}
		for j := i + 1; j < len(got); j++ {
			b := got[j]
			if f.chunks.Index(a.Position.X(), a.Position.Z()) != f.chunks.Index(b.Position.X(), b.Position.Z()) {
				continue
			}
			dx := a.Position.X() - b.Position.X()
			dz := a.Position.Z() - b.Position.Z()
			if dx*dx+dz*dz < cfg.MinDistance*cfg.MinDistance {
				t.Errorf("instances %d and %d closer than %v", i, j, cfg.MinDistance)
			}
		}
	}

	g := New(gpu.NewMemDevice(), fakeLoader{}, cfg)
	g.Init(flat, 20, 20, 99)
	if !reflect.DeepEqual(got, g.Instances()) {
		t.Error("same seed produced different rocks")
	}
}

func TestStatisticsByLevel(t *testing.T) {
	f := New(gpu.NewMemDevice(), fakeLoader{}, testConfig())
	instances := []Instance{
		{Position: mgl32.Vec3{1, 0, 0}},
		{Position: mgl32.Vec3{30, 0, 0}},
		{Position: mgl32.Vec3{90, 0, 0}, TypeIndex: 2},
	}
	if !f.InitWithInstances(200, 200, instances) {
		t.Fatal("InitWithInstances failed")
	}
	f.Update(mgl32.Vec3{})
	s := f.Statistics()
	if s.Instances != 3 {
		t.Errorf("Instances = %d, want 3", s.Instances)
	}
	if s.Types[0].Levels != [lod.Count]int{1, 1, 0} || s.Types[0].Total != 2 {
		t.Errorf("type 0 = %+v", s.Types[0])
	}
	if s.Types[2].Levels != [lod.Count]int{0, 0, 1} {
		t.Errorf("type 2 = %+v", s.Types[2])
	}
	if s.Buffers != 2*lod.Count {
		t.Errorf("Buffers = %d, want %d", s.Buffers, 2*lod.Count)
	}
}
