package instancing

import (
	"go.uber.org/zap"

	"github.com/Faultbox/verdant/internal/engine/gpu"
)

// BufferSet owns one instance buffer per slot. Slots whose allocation
// failed, or whose capacity is zero, hold nil and are skipped on upload
// and draw.
type BufferSet struct {
	log      *zap.Logger
	layout   gpu.InstanceLayout
	buffers  []gpu.Buffer
	capacity []int
}

// NewBufferSet allocates capacities[i] records for slot i.
func NewBufferSet(dev gpu.Device, layout gpu.InstanceLayout, capacities []int, log *zap.Logger) *BufferSet {
	s := &BufferSet{
		log:      log,
		layout:   layout,
		buffers:  make([]gpu.Buffer, len(capacities)),
		capacity: append([]int(nil), capacities...),
	}
	for slot, n := range capacities {
		if n <= 0 {
			continue
		}
		buf, err := dev.CreateInstanceBuffer(layout, n)
		if err != nil {
			log.Error("failed to create instance buffer",
				zap.Stringer("layout", layout),
				zap.Int("slot", slot),
				zap.Int("capacity", n),
				zap.Error(err))
			continue
		}
		s.buffers[slot] = buf
	}
	return s
}

// Buffer returns the buffer for slot, or nil.
func (s *BufferSet) Buffer(slot int) gpu.Buffer {
	if slot < 0 || slot >= len(s.buffers) {
		return nil
	}
	return s.buffers[slot]
}

// Capacity returns the record capacity configured for slot.
func (s *BufferSet) Capacity(slot int) int {
	if slot < 0 || slot >= len(s.capacity) {
		return 0
	}
	return s.capacity[slot]
}

// Allocated returns the number of slots holding a buffer.
func (s *BufferSet) Allocated() int {
	n := 0
	for _, b := range s.buffers {
		if b != nil {
			n++
		}
	}
	return n
}

// Upload writes count packed records to slot's buffer and reports whether
// the slot can be drawn. Counts above capacity are refused.
func (s *BufferSet) Upload(slot int, data []byte, count int) bool {
	buf := s.Buffer(slot)
	if buf == nil || count == 0 {
		return false
	}
	if count > buf.Capacity() {
		s.log.Error("visible instances exceed buffer capacity",
			zap.Int("slot", slot),
			zap.Int("count", count),
			zap.Int("capacity", buf.Capacity()))
		return false
	}
	if err := buf.Upload(data); err != nil {
		s.log.Error("instance upload failed", zap.Int("slot", slot), zap.Error(err))
		return false
	}
	return true
}

// Release frees every buffer.
func (s *BufferSet) Release() {
	for i, b := range s.buffers {
		if b != nil {
			b.Release()
			s.buffers[i] = nil
		}
	}
}
