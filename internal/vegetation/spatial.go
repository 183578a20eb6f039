package vegetation

import "math"

// SpatialHashGrid buckets items by XZ cell over a world rectangle centered
// at the origin. Overlap queries only visit the 3x3 cells around the query
// point, so the cell size must be at least the largest radius sum tested.
type SpatialHashGrid struct {
	cellSize float32
	offsetX  float32
	offsetZ  float32
	width    int
	height   int
	cells    [][]Item
	count    int
}

// NewSpatialHashGrid allocates an empty grid covering
// [-sizeX/2, sizeX/2] x [-sizeZ/2, sizeZ/2].
func NewSpatialHashGrid(sizeX, sizeZ, cellSize float32) *SpatialHashGrid {
	g := &SpatialHashGrid{}
	g.Init(sizeX, sizeZ, cellSize)
	return g
}

// Init resets the grid to the given world size and cell size.
func (g *SpatialHashGrid) Init(sizeX, sizeZ, cellSize float32) {
	if cellSize <= 0 {
		cellSize = 1
	}
	g.cellSize = cellSize
	g.offsetX = sizeX * 0.5
	g.offsetZ = sizeZ * 0.5
	g.width = int(math.Ceil(float64(sizeX/cellSize))) + 1
	g.height = int(math.Ceil(float64(sizeZ/cellSize))) + 1
	g.cells = make([][]Item, g.width*g.height)
	g.count = 0
}

// Clear removes all items but keeps the grid dimensions.
func (g *SpatialHashGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.count = 0
}

// Insert stores item in the cell under its XZ position. Positions outside
// the grid are dropped and Insert reports false.
func (g *SpatialHashGrid) Insert(item Item) bool {
	idx := g.cellIndex(item.Position.X(), item.Position.Z())
	if idx < 0 {
		return false
	}
	g.cells[idx] = append(g.cells[idx], item)
	g.count++
	return true
}

// CheckOverlap reports whether a disc of radius at (x, z) intersects any
// stored item's disc. Two discs overlap when their center distance is
// strictly less than the radius sum.
func (g *SpatialHashGrid) CheckOverlap(x, z, radius float32) bool {
	cx, cz := g.cellCoords(x, z)

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			cellX := cx + dx
			cellZ := cz + dz
			if cellX < 0 || cellX >= g.width || cellZ < 0 || cellZ >= g.height {
				continue
			}

			for _, item := range g.cells[cellZ*g.width+cellX] {
				distX := item.Position.X() - x
				distZ := item.Position.Z() - z
				minDist := item.Radius + radius
				if distX*distX+distZ*distZ < minDist*minDist {
					return true
				}
			}
		}
	}

	return false
}

// Len returns the number of stored items.
func (g *SpatialHashGrid) Len() int {
	return g.count
}

// CellSize returns the grid cell edge length.
func (g *SpatialHashGrid) CellSize() float32 {
	return g.cellSize
}

func (g *SpatialHashGrid) cellCoords(x, z float32) (int, int) {
	cx := int(math.Floor(float64((x + g.offsetX) / g.cellSize)))
	cz := int(math.Floor(float64((z + g.offsetZ) / g.cellSize)))
	return cx, cz
}

// cellIndex returns the linear cell index for (x, z), or -1 if out of bounds.
func (g *SpatialHashGrid) cellIndex(x, z float32) int {
	cx, cz := g.cellCoords(x, z)
	if cx < 0 || cx >= g.width || cz < 0 || cz >= g.height {
		return -1
	}
	return cz*g.width + cx
}
