package vegetation

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/logger"
)

const (
	jitterFraction  = 0.4
	borderMargin    = 1.0
	skipProbability = 0.1

	slopeDelta = 0.5

	minRockChance = 0.05
	maxRockChance = 0.95

	noiseOctaves     = 4
	noisePersistence = 0.5

	clusterJitterMin   = 0.85
	clusterJitterRange = 0.3
)

// Point is a candidate spawn location in world XZ.
type Point struct {
	X, Z float32
}

// Result is the output of one generation run.
type Result struct {
	Seed        uint32  `yaml:"seed"`
	SizeX       float32 `yaml:"size_x"`
	SizeZ       float32 `yaml:"size_z"`
	SpawnPoints int     `yaml:"spawn_points"`
	Clusters    int     `yaml:"clusters"`
	Grass       []Item  `yaml:"grass"`
	Rocks       []Item  `yaml:"rocks"`
}

// Generator scatters grass and rocks over a rectangular area centered at the
// origin. A Generator holds per-run state and is not safe for concurrent use;
// create one per goroutine.
type Generator struct {
	log *zap.Logger

	terrain HeightSampler
	cfg     Config
	sizeX   float32
	sizeZ   float32

	rng   *rand.Rand
	noise *Noise

	// Each category checks overlap only against its own kind.
	grassGrid *SpatialHashGrid
	rockGrid  *SpatialHashGrid

	result *Result
}

// NewGenerator creates a generator.
func NewGenerator() *Generator {
	return &Generator{log: logger.Named("vegetation")}
}

// Generate is a convenience wrapper around NewGenerator().Generate.
func Generate(terrain HeightSampler, cfg Config, sizeX, sizeZ float32, seed uint32) *Result {
	return NewGenerator().Generate(terrain, cfg, sizeX, sizeZ, seed)
}

// Generate runs the full placement pipeline. A zero seed draws a random one,
// recorded in the result. Runs with the same seed, config, terrain and size
// return identical results. A nil terrain yields an empty result.
func (g *Generator) Generate(terrain HeightSampler, cfg Config, sizeX, sizeZ float32, seed uint32) *Result {
	if seed == 0 {
		seed = RandomSeed()
	}

	g.terrain = terrain
	g.cfg = cfg
	g.sizeX = sizeX
	g.sizeZ = sizeZ
	g.rng = NewRand(seed)
	g.noise = NewNoise(seed)
	g.result = &Result{Seed: seed, SizeX: sizeX, SizeZ: sizeZ}

	g.log.Info("starting generation",
		zap.Uint32("seed", seed),
		zap.Float32("sizeX", sizeX),
		zap.Float32("sizeZ", sizeZ))

	cellSize := maxf(cfg.RockRadius, cfg.GrassRadius) * 4
	g.grassGrid = NewSpatialHashGrid(sizeX, sizeZ, cellSize)
	g.rockGrid = NewSpatialHashGrid(sizeX, sizeZ, cellSize)
	g.checkCellSize(cellSize)

	points := g.spawnPoints()
	g.result.SpawnPoints = len(points)
	g.log.Debug("spawn points generated", zap.Int("count", len(points)))

	for _, p := range points {
		cat := g.determineCategory(p.X, p.Z)
		if g.shouldCluster(cat) {
			g.result.Clusters++
			g.generateCluster(p.X, p.Z, cat)
		} else {
			g.tryPlaceItem(p.X, p.Z, cat)
		}
	}

	g.log.Info("generation complete",
		zap.Int("grass", len(g.result.Grass)),
		zap.Int("rocks", len(g.result.Rocks)),
		zap.Int("clusters", g.result.Clusters))

	res := g.result
	g.result = nil
	g.terrain = nil
	return res
}

// checkCellSize warns when scaled radii can exceed what a 3x3 neighborhood
// query covers. Overlaps between such items may go undetected.
func (g *Generator) checkCellSize(cellSize float32) {
	maxSum := maxf(
		2*g.cfg.GrassRadius*g.cfg.GrassMaxScale,
		2*g.cfg.RockRadius*g.cfg.RockMaxScale,
	)
	if maxSum > cellSize {
		g.log.Warn("overlap radius exceeds spatial cell size; large items may overlap",
			zap.Float32("cellSize", cellSize),
			zap.Float32("maxRadiusSum", maxSum))
	}
}

// spawnPoints lays a jittered grid over the area, drops a fraction of the
// points and those failing terrain constraints, then shuffles the rest.
func (g *Generator) spawnPoints() []Point {
	spacing := g.cfg.Spacing()
	if spacing <= 0 {
		g.log.Warn("non-positive spawn spacing; no points generated", zap.Float32("spacing", spacing))
		return nil
	}

	halfX := g.sizeX * 0.5
	halfZ := g.sizeZ * 0.5
	countX := int(math.Ceil(float64(g.sizeX / spacing)))
	countZ := int(math.Ceil(float64(g.sizeZ / spacing)))
	jitter := spacing * jitterFraction

	g.log.Debug("spawn grid",
		zap.Int("countX", countX),
		zap.Int("countZ", countZ),
		zap.Float32("spacing", spacing))

	points := make([]Point, 0, max(countX*countZ, 0))
	for gz := 0; gz < countZ; gz++ {
		for gx := 0; gx < countX; gx++ {
			x := -halfX + (float32(gx)+0.5)*spacing
			z := -halfZ + (float32(gz)+0.5)*spacing

			x += uniform(g.rng, -jitter, jitter)
			z += uniform(g.rng, -jitter, jitter)

			x = clampf(x, -halfX+borderMargin, halfX-borderMargin)
			z = clampf(z, -halfZ+borderMargin, halfZ-borderMargin)

			if uniform(g.rng, 0, 1) < skipProbability {
				continue
			}
			if !g.validTerrain(x, z) {
				continue
			}
			points = append(points, Point{X: x, Z: z})
		}
	}

	g.rng.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
	return points
}

// validTerrain checks height and slope bounds at (x, z).
func (g *Generator) validTerrain(x, z float32) bool {
	if g.terrain == nil {
		return true
	}
	return TerrainAllows(g.terrain, g.cfg, x, z)
}

// TerrainAllows reports whether the height and slope at (x, z) fall inside
// the configured bounds.
func TerrainAllows(terrain HeightSampler, cfg Config, x, z float32) bool {
	h := terrain.SampleHeightWorld(x, z)
	if h < cfg.MinHeight || h > cfg.MaxHeight {
		return false
	}
	slope := SlopeDegrees(terrain, x, z)
	return slope >= cfg.MinSlope && slope <= cfg.MaxSlope
}

// SlopeDegrees estimates the terrain slope at (x, z) by central differences.
func SlopeDegrees(terrain HeightSampler, x, z float32) float32 {
	h1 := terrain.SampleHeightWorld(x+slopeDelta, z)
	h2 := terrain.SampleHeightWorld(x-slopeDelta, z)
	h3 := terrain.SampleHeightWorld(x, z+slopeDelta)
	h4 := terrain.SampleHeightWorld(x, z-slopeDelta)

	sx := (h1 - h2) / (2 * slopeDelta)
	sz := (h3 - h4) / (2 * slopeDelta)
	return float32(math.Atan(math.Sqrt(float64(sx*sx+sz*sz))) * 180 / math.Pi)
}

// determineCategory picks grass or rock. Noise shifts the configured rock
// probability so rocks gather in patches. A probability of exactly 0 or 1 is
// honored as-is rather than clamped.
func (g *Generator) determineCategory(x, z float32) Category {
	chance := g.rockChance(x, z)
	roll := uniform(g.rng, 0, 1)

	switch {
	case g.cfg.RockProbability <= 0:
		return Grass
	case g.cfg.RockProbability >= 1:
		return Rock
	}
	if roll < chance {
		return Rock
	}
	return Grass
}

func (g *Generator) rockChance(x, z float32) float32 {
	n := g.noise.FBM(x*g.cfg.NoiseScale, z*g.cfg.NoiseScale, noiseOctaves, noisePersistence)
	n = n*0.5 + 0.5
	chance := g.cfg.RockProbability + (n-0.5)*g.cfg.NoiseInfluence*2
	return clampf(chance, minRockChance, maxRockChance)
}

func (g *Generator) shouldCluster(cat Category) bool {
	return uniform(g.rng, 0, 1) < g.cfg.Cluster(cat).Probability
}

// generateCluster places a center item and scatters the rest around it with
// radial falloff. Members outside the area are dropped without retry.
func (g *Generator) generateCluster(cx, cz float32, cat Category) {
	cl := g.cfg.Cluster(cat)
	count := uniformInt(g.rng, cl.MinItems, cl.MaxItems)

	g.tryPlaceItem(cx, cz, cat)

	halfX := g.sizeX * 0.5
	halfZ := g.sizeZ * 0.5
	for i := 1; i < count; i++ {
		t := uniform(g.rng, 0, 1)
		dist := cl.Radius * (1 - float32(math.Pow(float64(1-t), float64(cl.Falloff))))
		dist *= uniform(g.rng, 0, 1)*clusterJitterRange + clusterJitterMin

		angle := uniform(g.rng, 0, 2*math.Pi)
		x := cx + float32(math.Cos(float64(angle)))*dist
		z := cz + float32(math.Sin(float64(angle)))*dist

		if x < -halfX || x > halfX || z < -halfZ || z > halfZ {
			continue
		}
		g.tryPlaceItem(x, z, cat)
	}
}

// tryPlaceItem validates terrain, randomizes the item and commits it unless
// it overlaps an existing item of the same category.
func (g *Generator) tryPlaceItem(x, z float32, cat Category) bool {
	if g.terrain == nil {
		return false
	}
	if !g.validTerrain(x, z) {
		return false
	}
	y := g.terrain.SampleHeightWorld(x, z)

	var scale, radius float32
	var typeIndex int
	grid := g.grassGrid
	if cat == Rock {
		scale = uniform(g.rng, g.cfg.RockMinScale, g.cfg.RockMaxScale)
		radius = g.cfg.RockRadius * scale
		typeIndex = uniformInt(g.rng, 0, RockPaletteSize-1)
		grid = g.rockGrid
	} else {
		scale = uniform(g.rng, g.cfg.GrassMinScale, g.cfg.GrassMaxScale)
		radius = g.cfg.GrassRadius * scale
		typeIndex = uniformInt(g.rng, 0, GrassPaletteSize-1)
	}

	if grid.CheckOverlap(x, z, radius) {
		return false
	}

	item := Item{
		Position:  mgl32.Vec3{x, y, z},
		RotationY: uniform(g.rng, 0, 2*math.Pi),
		Scale:     scale,
		TypeIndex: typeIndex,
		Category:  cat,
		Radius:    radius,
	}
	if cat == Rock {
		g.result.Rocks = append(g.result.Rocks, item)
	} else {
		g.result.Grass = append(g.result.Grass, item)
	}
	grid.Insert(item)
	return true
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
