package rocks

import (
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/lod"
)

// TypeStats counts the instances of one rock type per detail level.
type TypeStats struct {
	Name   string         `yaml:"name"`
	Total  int            `yaml:"total"`
	Levels [lod.Count]int `yaml:"levels,flow"`
	// SharedLevels is true for levels drawn with the high detail mesh.
	SharedLevels [lod.Count]bool `yaml:"shared_levels,flow"`
}

// Statistics describes the field using the most recent LOD classification.
type Statistics struct {
	Instances int         `yaml:"instances"`
	Chunks    int         `yaml:"chunks"`
	Meshes    int         `yaml:"meshes"`
	Triangles int         `yaml:"triangles"` // over all uploaded LOD meshes
	Buffers   int         `yaml:"buffers"`
	Types     []TypeStats `yaml:"types"`
}

// Statistics returns instance counts per type and level. Buffers is the
// upper bound on draw calls per frame.
func (f *Field) Statistics() Statistics {
	var s Statistics
	if !f.initialized {
		return s
	}
	s.Instances = len(f.instances)
	s.Chunks = f.chunks.Len()
	s.Meshes = f.meshes.Len()
	f.meshes.Each(func(_ int, m gpu.Mesh) {
		s.Triangles += m.IndexCount() / 3
	})
	s.Buffers = f.buffers.Allocated()

	s.Types = make([]TypeStats, len(f.types))
	for t, rt := range f.types {
		s.Types[t].Name = rt.name
		s.Types[t].Total = rt.count
		for level := 0; level < lod.Count; level++ {
			s.Types[t].SharedLevels[level] = rt.levels.Shared(level)
		}
	}
	for _, inst := range f.instances {
		s.Types[inst.TypeIndex].Levels[inst.LODLevel]++
	}
	return s
}

func (f *Field) logStatistics() {
	s := f.Statistics()
	f.log.Info("rock field ready",
		zap.Int("instances", s.Instances),
		zap.Int("chunks", s.Chunks),
		zap.Int("meshes", s.Meshes),
		zap.Int("triangles", s.Triangles),
		zap.Int("draw_calls", s.Buffers))
	for _, t := range s.Types {
		f.log.Debug("rock type",
			zap.String("type", t.Name),
			zap.Int("total", t.Total),
			zap.Int(lod.LevelName(lod.High), t.Levels[lod.High]),
			zap.Int(lod.LevelName(lod.Medium), t.Levels[lod.Medium]),
			zap.Int(lod.LevelName(lod.Low), t.Levels[lod.Low]))
	}
}
