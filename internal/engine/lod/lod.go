// Package lod builds simplified mesh variants for distance-based detail
// selection.
package lod

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/mesh"
	"github.com/Faultbox/verdant/internal/logger"
)

// Detail levels.
const (
	High = iota
	Medium
	Low

	Count
)

// Ratios are the triangle fractions kept at each level.
var Ratios = [Count]float32{1.0, 0.4, 0.1}

// ErrEmptyMesh is returned when the input mesh has no geometry.
var ErrEmptyMesh = errors.New("lod: empty input mesh")

// Levels maps each detail level to an arena index.
type Levels [Count]int

// Shared reports whether level uses the same mesh as High.
func (l Levels) Shared(level int) bool {
	return level != High && l[level] == l[High]
}

// LevelName returns a display name for a detail level.
func LevelName(level int) string {
	switch level {
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// Generate simplifies d at every ratio and stores the results in arena.
// A level whose simplification fails reuses the High index. An error is
// returned only when d itself is unusable; then nothing is added.
func Generate(arena *Arena[*mesh.Data], d *mesh.Data) (Levels, error) {
	log := logger.Named("lod")

	if err := d.Validate(); err != nil {
		return Levels{}, fmt.Errorf("%w: %w", ErrEmptyMesh, err)
	}

	log.Debug("generating levels",
		zap.Int("triangles", d.TriangleCount()),
		zap.Int("vertices", len(d.Vertices)))

	var levels Levels
	levels[High] = arena.Add(d.Clone())

	for level := Medium; level < Count; level++ {
		simplified, err := Simplify(d, Ratios[level])
		if err != nil {
			log.Warn("simplification failed, using high detail mesh",
				zap.String("level", LevelName(level)),
				zap.Error(err))
			levels[level] = levels[High]
			continue
		}
		levels[level] = arena.Add(simplified)
	}
	return levels, nil
}
