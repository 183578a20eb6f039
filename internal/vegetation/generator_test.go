package vegetation

import (
	"flag"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"
)

var update = flag.Bool("update", false, "rewrite golden files")

// rollingHills is the reference heightmap used by the golden test.
func rollingHills(x, z float32) float32 {
	return 3 * float32(math.Sin(float64(x)*0.05)*math.Cos(float64(z)*0.05))
}

func flat(float32, float32) float32 { return 0 }

func TestGenerateDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a := Generate(HeightFunc(rollingHills), cfg, 80, 60, 1234)
	b := Generate(HeightFunc(rollingHills), cfg, 80, 60, 1234)

	if len(a.Grass)+len(a.Rocks) == 0 {
		t.Fatal("generation produced no items")
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different results: %d/%d grass, %d/%d rocks",
			len(a.Grass), len(b.Grass), len(a.Rocks), len(b.Rocks))
	}
}

func TestGenerateSeedsDiffer(t *testing.T) {
	cfg := DefaultConfig()
	a := Generate(HeightFunc(flat), cfg, 80, 80, 1)
	b := Generate(HeightFunc(flat), cfg, 80, 80, 2)
	if reflect.DeepEqual(a.Grass, b.Grass) && reflect.DeepEqual(a.Rocks, b.Rocks) {
		t.Error("different seeds produced identical placements")
	}
}

func TestGenerateZeroSeedPicksOne(t *testing.T) {
	res := Generate(HeightFunc(flat), DefaultConfig(), 20, 20, 0)
	if res.Seed == 0 {
		t.Error("zero seed was not replaced")
	}
}

func TestGenerateNilTerrain(t *testing.T) {
	res := Generate(nil, DefaultConfig(), 50, 50, 9)
	if len(res.Grass) != 0 || len(res.Rocks) != 0 {
		t.Errorf("nil terrain produced %d grass, %d rocks", len(res.Grass), len(res.Rocks))
	}
}

func TestGenerateSpacing(t *testing.T) {
	cfg, _ := Preset("dense")
	res := Generate(HeightFunc(rollingHills), cfg, 60, 60, 77)

	for name, items := range map[string][]Item{"grass": res.Grass, "rocks": res.Rocks} {
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				a, b := items[i], items[j]
				dx := a.Position.X() - b.Position.X()
				dz := a.Position.Z() - b.Position.Z()
				dist := float32(math.Sqrt(float64(dx*dx + dz*dz)))
				if dist < a.Radius+b.Radius {
					t.Fatalf("%s items %d and %d overlap: distance %v < %v", name, i, j, dist, a.Radius+b.Radius)
				}
			}
		}
	}
}

func TestGenerateTerrainConstraints(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHeight = -1
	cfg.MaxHeight = 2
	cfg.MaxSlope = 5

	terrain := HeightFunc(func(x, z float32) float32 {
		return 4 * float32(math.Sin(float64(x)*0.1)*math.Cos(float64(z)*0.08))
	})
	res := Generate(terrain, cfg, 100, 100, 31)
	if len(res.Grass)+len(res.Rocks) == 0 {
		t.Fatal("no items placed")
	}

	for _, items := range [][]Item{res.Grass, res.Rocks} {
		for _, it := range items {
			x, z := it.Position.X(), it.Position.Z()
			h := terrain(x, z)
			if h < cfg.MinHeight || h > cfg.MaxHeight {
				t.Errorf("item at (%v, %v) has height %v outside [%v, %v]", x, z, h, cfg.MinHeight, cfg.MaxHeight)
			}
			if s := SlopeDegrees(terrain, x, z); s < cfg.MinSlope || s > cfg.MaxSlope {
				t.Errorf("item at (%v, %v) has slope %v outside [%v, %v]", x, z, s, cfg.MinSlope, cfg.MaxSlope)
			}
			if it.Position.Y() != h {
				t.Errorf("item Y = %v, terrain height = %v", it.Position.Y(), h)
			}
		}
	}
}

func TestGenerateWithinBounds(t *testing.T) {
	res := Generate(HeightFunc(flat), DefaultConfig(), 40, 30, 5)
	for _, items := range [][]Item{res.Grass, res.Rocks} {
		for _, it := range items {
			if x := it.Position.X(); x < -20 || x > 20 {
				t.Errorf("x = %v outside world", x)
			}
			if z := it.Position.Z(); z < -15 || z > 15 {
				t.Errorf("z = %v outside world", z)
			}
		}
	}
}

func TestGenerateHeightWindowExcludesAll(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinHeight = 100
	cfg.MaxHeight = 200

	res := Generate(HeightFunc(flat), cfg, 100, 100, 42)
	if len(res.Grass) != 0 || len(res.Rocks) != 0 {
		t.Errorf("got %d grass, %d rocks, want none", len(res.Grass), len(res.Rocks))
	}
	if res.SpawnPoints != 0 {
		t.Errorf("SpawnPoints = %d, want 0", res.SpawnPoints)
	}
}

func TestGenerateGrassOnlyDensePlane(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Density = 3
	cfg.MinPointSpacing = 0.5
	cfg.RockProbability = 0
	cfg.GrassCluster.Probability = 0
	cfg.RockCluster.Probability = 0

	res := Generate(HeightFunc(flat), cfg, 50, 50, 2024)

	if len(res.Rocks) != 0 {
		t.Errorf("got %d rocks, want 0", len(res.Rocks))
	}
	if res.Clusters != 0 {
		t.Errorf("got %d clusters, want 0", res.Clusters)
	}

	spacing := cfg.Spacing()
	grid := int(math.Ceil(float64(50/spacing))) * int(math.Ceil(float64(50/spacing)))
	if n := len(res.Grass); n == 0 || n > grid {
		t.Errorf("grass count %d not in (0, %d]", n, grid)
	}
	if n := len(res.Grass); n < grid/10 {
		t.Errorf("grass count %d far below grid size %d", n, grid)
	}

	for _, it := range res.Grass {
		if it.TypeIndex < 0 || it.TypeIndex > 8 {
			t.Fatalf("grass type index %d outside [0, 8]", it.TypeIndex)
		}
		if it.Category != Grass {
			t.Fatalf("item category = %v, want grass", it.Category)
		}
	}
}

func TestGenerateRockOnly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RockProbability = 1

	res := Generate(HeightFunc(flat), cfg, 60, 60, 8)
	if len(res.Grass) != 0 {
		t.Errorf("got %d grass, want 0", len(res.Grass))
	}
	if len(res.Rocks) == 0 {
		t.Fatal("no rocks placed")
	}
	for _, it := range res.Rocks {
		if it.TypeIndex < 0 || it.TypeIndex >= RockPaletteSize {
			t.Fatalf("rock type index %d out of range", it.TypeIndex)
		}
		if it.Scale < cfg.RockMinScale || it.Scale > cfg.RockMaxScale {
			t.Fatalf("rock scale %v outside [%v, %v]", it.Scale, cfg.RockMinScale, cfg.RockMaxScale)
		}
		if it.Radius != cfg.RockRadius*it.Scale {
			t.Fatalf("rock radius %v != base * scale", it.Radius)
		}
	}
}

func TestGenerateClustersCounted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.GrassCluster.Probability = 1
	cfg.RockCluster.Probability = 1

	res := Generate(HeightFunc(flat), cfg, 50, 50, 11)
	if res.Clusters != res.SpawnPoints {
		t.Errorf("Clusters = %d, want one per spawn point (%d)", res.Clusters, res.SpawnPoints)
	}
}

func TestGenerateGolden(t *testing.T) {
	res := Generate(HeightFunc(rollingHills), DefaultConfig(), 100, 100, 42)
	got := strconv.Itoa(len(res.Grass)) + " " + strconv.Itoa(len(res.Rocks)) + "\n"

	path := filepath.Join("testdata", "seed42.golden")
	if *update {
		if err := os.MkdirAll("testdata", 0o755); err != nil {
			t.Fatalf("create testdata: %v", err)
		}
		if err := os.WriteFile(path, []byte(got), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
		t.Logf("wrote %s: %s", path, strings.TrimSpace(got))
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden (run with -update to record it): %v", err)
	}
	if string(want) != got {
		t.Errorf("seed 42 counts = %q, want %q", strings.TrimSpace(got), strings.TrimSpace(string(want)))
	}
}
