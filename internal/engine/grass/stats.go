package grass

import "go.uber.org/zap"

// TypeStats counts the instances of one grass type.
type TypeStats struct {
	Group   string  `yaml:"group"`
	Type    string  `yaml:"type"`
	Count   int     `yaml:"count"`
	Percent float32 `yaml:"percent"`
}

// Statistics describes the field after initialization.
type Statistics struct {
	Instances int         `yaml:"instances"`
	Chunks    int         `yaml:"chunks"`
	Buffers   int         `yaml:"buffers"`
	Types     []TypeStats `yaml:"types"`
}

// Statistics returns instance counts per group and type. Buffers is the
// upper bound on draw calls per frame.
func (f *Field) Statistics() Statistics {
	var s Statistics
	if !f.initialized {
		return s
	}
	s.Instances = len(f.instances)
	s.Chunks = f.chunks.Len()
	s.Buffers = f.buffers.Allocated()
	for _, g := range f.groups {
		for _, t := range g.types {
			ts := TypeStats{Group: g.name, Type: t.name, Count: t.count}
			if s.Instances > 0 {
				ts.Percent = 100 * float32(t.count) / float32(s.Instances)
			}
			s.Types = append(s.Types, ts)
		}
	}
	return s
}

func (f *Field) logStatistics() {
	s := f.Statistics()
	f.log.Info("grass field ready",
		zap.Int("instances", s.Instances),
		zap.Int("chunks", s.Chunks),
		zap.Int("groups", len(f.groups)),
		zap.Int("draw_calls", s.Buffers))
	for _, t := range s.Types {
		f.log.Debug("grass type",
			zap.String("group", t.Group),
			zap.String("type", t.Type),
			zap.Int("count", t.Count),
			zap.Float32("percent", t.Percent))
	}
}
