package world

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/verdant/internal/assets"
	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/grass"
	"github.com/Faultbox/verdant/internal/engine/lod"
	"github.com/Faultbox/verdant/internal/engine/terrain"
	"github.com/Faultbox/verdant/internal/vegetation"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.SizeX = 64
	cfg.World.SizeZ = 64
	cfg.World.HeightScale = 2
	cfg.World.Terrain.Resolution = 33
	cfg.World.Lake = config.LakeConfig{
		Enabled: true, X: 10, Z: 10, Radius: 8, Depth: 2, Margin: 2,
		Texture: "builtin:water",
	}
	cfg.World.SpawnClearing = 5
	return cfg
}

func item(x, z float32, typeIndex int) vegetation.Item {
	return vegetation.Item{
		Position:  mgl32.Vec3{x, 0, z},
		Scale:     1,
		TypeIndex: typeIndex,
	}
}

func TestGrassInstances(t *testing.T) {
	items := []vegetation.Item{
		item(0, 0, 0),
		item(1, 1, 4),
		item(2, 2, 7),
		item(20, 20, 1), // inside the zone
	}
	zones := vegetation.Exclusions{{X: 20, Z: 20, Radius: 3}}

	got := GrassInstances(items, zones, 3, 3)
	if len(got) != 3 {
		t.Fatalf("got %d instances, want 3", len(got))
	}
	want := [][2]int{{0, 0}, {1, 1}, {1, 2}}
	for i, w := range want {
		if got[i].GroupIndex != w[0] || got[i].TypeIndex != w[1] {
			t.Errorf("instance %d: group/type = %d/%d, want %d/%d",
				i, got[i].GroupIndex, got[i].TypeIndex, w[0], w[1])
		}
		if got[i].WindPhase < 0 || got[i].WindPhase >= 2*math.Pi {
			t.Errorf("instance %d: wind phase %g out of range", i, got[i].WindPhase)
		}
	}

	again := GrassInstances(items, zones, 3, 3)
	for i := range got {
		if got[i].WindPhase != again[i].WindPhase {
			t.Errorf("instance %d: wind phase not reproducible", i)
		}
	}
}

func TestGrassInstancesEmptyPalette(t *testing.T) {
	got := GrassInstances([]vegetation.Item{item(0, 0, 5)}, nil, 0, 3)
	if len(got) != 1 || got[0].GroupIndex != 0 || got[0].TypeIndex != 0 {
		t.Errorf("got %+v, want group 0 type 0", got)
	}
}

func TestRockInstances(t *testing.T) {
	items := []vegetation.Item{item(1, 1, 2), item(10, 0, 1)}
	zones := vegetation.Exclusions{{Radius: 5}}

	got := RockInstances(items, zones)
	if len(got) != 1 {
		t.Fatalf("got %d rocks, want 1", len(got))
	}
	if got[0].TypeIndex != 1 || got[0].LODLevel != lod.Low || got[0].DistanceToCamera != 0 {
		t.Errorf("unexpected rock %+v", got[0])
	}
}

func TestPaletteShape(t *testing.T) {
	tests := []struct {
		name          string
		cfg           grass.Config
		groups, types int
	}{
		{"default", grass.DefaultConfig(), 3, 3},
		{"empty", grass.Config{}, 0, 0},
		{"uneven", grass.Config{Groups: []grass.GroupConfig{
			{Types: make([]grass.TypeConfig, 4)},
			{Types: make([]grass.TypeConfig, 1)},
		}}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ty := PaletteShape(tt.cfg)
			if g != tt.groups || ty != tt.types {
				t.Errorf("PaletteShape = %d, %d; want %d, %d", g, ty, tt.groups, tt.types)
			}
		})
	}
}

func TestExclusions(t *testing.T) {
	wc := testConfig().World
	grassZones, rockZones := Exclusions(wc)
	if len(grassZones) != 1 || grassZones[0].Radius != 10 {
		t.Errorf("grass zones = %+v, want one zone of radius 10", grassZones)
	}
	if len(rockZones) != 1 || rockZones[0].Radius != 5 {
		t.Errorf("rock zones = %+v, want one zone of radius 5", rockZones)
	}

	wc.Lake.Enabled = false
	wc.SpawnClearing = 0
	grassZones, rockZones = Exclusions(wc)
	if len(grassZones) != 0 || len(rockZones) != 0 {
		t.Errorf("expected no zones, got %v and %v", grassZones, rockZones)
	}
}

func TestBuildGenerator(t *testing.T) {
	dev := gpu.NewMemDevice()
	cfg := testConfig()

	w, err := Build(dev, assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer w.Release()

	if w.Vegetation == nil {
		t.Fatal("expected generator output")
	}
	if !w.Grass.Initialized() {
		t.Error("grass field not initialized")
	}
	if len(w.Grass.Instances()) == 0 {
		t.Fatal("expected grass instances")
	}

	lake := cfg.World.Lake
	edge := lake.Radius + lake.Margin
	for _, g := range w.Grass.Instances() {
		dx := g.Position.X() - lake.X
		dz := g.Position.Z() - lake.Z
		if dx*dx+dz*dz < edge*edge {
			t.Fatalf("grass at %v inside lake exclusion", g.Position)
		}
	}
	for _, r := range w.Rocks.Instances() {
		if r.Position.X()*r.Position.X()+r.Position.Z()*r.Position.Z() < 25 {
			t.Fatalf("rock at %v inside spawn clearing", r.Position)
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	a, err := Build(gpu.NewMemDevice(), assets.NewManager(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	b, err := Build(gpu.NewMemDevice(), assets.NewManager(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ga, gb := a.Grass.Instances(), b.Grass.Instances()
	if len(ga) != len(gb) {
		t.Fatalf("grass counts differ: %d vs %d", len(ga), len(gb))
	}
	for i := range ga {
		if ga[i] != gb[i] {
			t.Fatalf("grass %d differs: %+v vs %+v", i, ga[i], gb[i])
		}
	}
	if len(a.Rocks.Instances()) != len(b.Rocks.Instances()) {
		t.Errorf("rock counts differ")
	}
}

func TestBuildScatter(t *testing.T) {
	cfg := testConfig()
	cfg.World.Source = config.SourceScatter

	w, err := Build(gpu.NewMemDevice(), assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Vegetation != nil {
		t.Error("scatter mode should not run the generator")
	}
	if !w.Grass.Initialized() || !w.Rocks.Initialized() {
		t.Error("both fields should initialize")
	}
}

func TestBuildRandomSeed(t *testing.T) {
	cfg := testConfig()
	cfg.World.Seed = 0

	w, err := Build(gpu.NewMemDevice(), assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Seed == 0 {
		t.Error("expected a non-zero seed to be chosen")
	}
	if w.Vegetation.Seed != w.Seed {
		t.Errorf("generator seed %d, world seed %d", w.Vegetation.Seed, w.Seed)
	}
}

func TestBuildHeightmapImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.SetGray(0, 0, color.Gray{Y: 0})

	f, err := os.Create(filepath.Join(dir, "height.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cfg := testConfig()
	cfg.World.Heightmap = "height.png"
	cfg.World.HeightScale = 10
	cfg.World.HeightOffset = -1
	cfg.World.Lake.Enabled = false

	w, err := Build(gpu.NewMemDevice(), assets.NewManager(dir), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Terrain.Width != 8 || w.Terrain.Depth != 8 {
		t.Errorf("terrain %dx%d, want 8x8", w.Terrain.Width, w.Terrain.Depth)
	}
	if w.Terrain.MinHeight != -1 || w.Terrain.MaxHeight != 9 {
		t.Errorf("height range [%g, %g], want [-1, 9]", w.Terrain.MinHeight, w.Terrain.MaxHeight)
	}
	if got := w.GroundHeight(0, 0); got != 9 {
		t.Errorf("GroundHeight(0, 0) = %g, want 9", got)
	}
}

func TestBuildRawHeightmap(t *testing.T) {
	dir := t.TempDir()
	raw := make([]byte, 16)
	for i := range raw {
		raw[i] = 255
	}
	if err := os.WriteFile(filepath.Join(dir, "height.r8"), raw, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.r8"), raw[:5], 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.World.Heightmap = "height.r8"
	cfg.World.HeightScale = 10
	cfg.World.HeightOffset = -1
	cfg.World.Lake.Enabled = false

	w, err := Build(gpu.NewMemDevice(), assets.NewManager(dir), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Terrain.Width != 4 || w.Terrain.Depth != 4 {
		t.Errorf("terrain %dx%d, want 4x4", w.Terrain.Width, w.Terrain.Depth)
	}
	if got := w.GroundHeight(3, -3); got != 9 {
		t.Errorf("GroundHeight = %g, want 9", got)
	}

	cfg.World.Heightmap = "bad.r8"
	if _, err := Build(gpu.NewMemDevice(), assets.NewManager(dir), cfg); err == nil {
		t.Error("non-square raw heightmap accepted")
	}
}

func TestRawFormat(t *testing.T) {
	tests := []struct {
		name   string
		format terrain.Format
		ok     bool
	}{
		{"maps/a.r8", terrain.RAW8, true},
		{"a.RAW", terrain.RAW8, true},
		{"a.r16", terrain.RAW16LE, true},
		{"a.png", 0, false},
	}
	for _, tt := range tests {
		format, ok := rawFormat(tt.name)
		if ok != tt.ok || format != tt.format {
			t.Errorf("rawFormat(%q) = %v, %v; want %v, %v", tt.name, format, ok, tt.format, tt.ok)
		}
	}
}

func TestBuildMissingHeightmap(t *testing.T) {
	cfg := testConfig()
	cfg.World.Heightmap = "missing.png"

	_, err := Build(gpu.NewMemDevice(), assets.NewManager(t.TempDir()), cfg)
	if !errors.Is(err, assets.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBuildUnknownPreset(t *testing.T) {
	cfg := testConfig()
	cfg.Vegetation.Preset = "tundra"
	if _, err := Build(gpu.NewMemDevice(), assets.NewManager(), cfg); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestDrawOrder(t *testing.T) {
	dev := gpu.NewMemDevice()
	w, err := Build(dev, assets.NewManager(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	cam := mgl32.Vec3{0, 10, 0}
	w.Update(0.016, cam)
	stats := w.Draw(dev.CommandList(), mgl32.Ident4(), cam)

	draws := dev.Draws()
	if len(draws) < 2 {
		t.Fatalf("expected terrain and lake draws, got %+v", draws)
	}
	for _, d := range draws[:2] {
		if d.Pipeline != gpu.TerrainPipeline || d.Instances != nil || d.InstanceCount != 1 {
			t.Errorf("surfaces should be plain indexed draws first, got %+v", d)
		}
	}

	seenGrass := false
	for _, d := range draws[2:] {
		switch d.Pipeline {
		case gpu.GrassPipeline:
			seenGrass = true
		case gpu.RockPipeline:
			if seenGrass {
				t.Fatal("rock drawn after grass")
			}
		case gpu.TerrainPipeline:
			t.Fatal("surface drawn after vegetation")
		}
	}
	if !seenGrass {
		t.Error("expected grass draws")
	}

	total := stats.Total()
	if total.DrawCalls != len(draws) {
		t.Errorf("DrawCalls = %d, recorded %d", total.DrawCalls, len(draws))
	}
	if stats.SurfaceDraws != 2 {
		t.Errorf("SurfaceDraws = %d, want 2", stats.SurfaceDraws)
	}
}

func TestTerrainTextureFailure(t *testing.T) {
	dev := gpu.NewMemDevice()
	cfg := testConfig()
	cfg.World.Texture = "builtin:nothing"

	w, err := Build(dev, assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	stats := w.Draw(dev.CommandList(), mgl32.Ident4(), mgl32.Vec3{})
	if stats.SurfaceDraws != 1 {
		t.Errorf("SurfaceDraws = %d, want only the lake", stats.SurfaceDraws)
	}

	cfg.World.Lake.Texture = "builtin:nothing"
	dev = gpu.NewMemDevice()
	w, err = Build(dev, assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	stats = w.Draw(dev.CommandList(), mgl32.Ident4(), mgl32.Vec3{})
	if stats.SurfaceDraws != 0 {
		t.Errorf("SurfaceDraws = %d, want 0", stats.SurfaceDraws)
	}
	if len(dev.Pipelines) != 3 || !dev.Pipelines[0].Released {
		t.Errorf("unused terrain pipeline should be released")
	}
}

func TestLakeBasin(t *testing.T) {
	w, err := Build(gpu.NewMemDevice(), assets.NewManager(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Lake == nil {
		t.Fatal("expected a lake")
	}
	if ground := w.GroundHeight(10, 10); ground >= w.Lake.Level {
		t.Errorf("lake bed %g not below water level %g", ground, w.Lake.Level)
	}

	cfg := testConfig()
	cfg.World.Lake.Enabled = false
	w, err = Build(gpu.NewMemDevice(), assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if w.Lake != nil {
		t.Error("lake built while disabled")
	}
}

func TestBlocked(t *testing.T) {
	cfg := testConfig()
	cfg.World.Source = config.SourceScatter
	w, err := Build(gpu.NewMemDevice(), assets.NewManager(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	const radius = 0.5
	// Lake center (10, 10), radius 8: deep water ends at 7.
	if !w.inLake(mgl32.Vec3{10, 0, 10}, radius) {
		t.Error("lake center should block")
	}
	if w.inLake(mgl32.Vec3{17.5, 0, 10}, radius) {
		t.Error("shallow shore should not block")
	}

	rocks := w.Rocks.Instances()
	if len(rocks) == 0 {
		t.Skip("no rocks scattered")
	}
	r := rocks[0]
	if !w.Blocked(r.Position, radius) {
		t.Errorf("standing on rock at %v should block", r.Position)
	}
}

func TestSweep(t *testing.T) {
	dev := gpu.NewMemDevice()
	w, err := Build(dev, assets.NewManager(), testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := w.Sweep(dev, 8, 20, 2)
	if s.Frames != 8 {
		t.Errorf("Frames = %d, want 8", s.Frames)
	}
	if s.Total.DrawCalls == 0 || s.Total.VisibleInstances == 0 {
		t.Errorf("expected work during the sweep, got %+v", s.Total)
	}
	if s.Average.DrawCalls*8 > s.Total.DrawCalls {
		t.Errorf("average %d exceeds total/frames", s.Average.DrawCalls)
	}
	if s.Peak.VisibleInstances < s.Average.VisibleInstances {
		t.Errorf("peak %d below average %d", s.Peak.VisibleInstances, s.Average.VisibleInstances)
	}
	// Reset runs before each frame, so only the last frame is recorded.
	if got := len(dev.Draws()); got >= s.Total.DrawCalls {
		t.Errorf("draws were not reset between frames: %d recorded", got)
	}

	if empty := w.Sweep(dev, 0, 20, 2); empty.Frames != 0 {
		t.Errorf("zero-frame sweep reported %d frames", empty.Frames)
	}
}
