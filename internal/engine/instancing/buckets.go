package instancing

// Buckets partitions instance indices into numbered slots. Grass uses one
// slot per (group, type); rocks use one per (type, LOD).
type Buckets struct {
	lists [][]int
}

// NewBuckets creates n empty slots.
func NewBuckets(n int) *Buckets {
	return &Buckets{lists: make([][]int, n)}
}

// Slots returns the number of slots.
func (b *Buckets) Slots() int {
	return len(b.lists)
}

// Reset empties every slot, keeping allocations.
func (b *Buckets) Reset() {
	for i := range b.lists {
		b.lists[i] = b.lists[i][:0]
	}
}

// Add appends instance index i to slot. Out-of-range slots are ignored.
func (b *Buckets) Add(slot, i int) {
	if slot < 0 || slot >= len(b.lists) {
		return
	}
	b.lists[slot] = append(b.lists[slot], i)
}

// Len returns the number of instances in slot.
func (b *Buckets) Len(slot int) int {
	if slot < 0 || slot >= len(b.lists) {
		return 0
	}
	return len(b.lists[slot])
}

// Items returns the instance indices in slot. The slice is reused after
// the next Reset.
func (b *Buckets) Items(slot int) []int {
	if slot < 0 || slot >= len(b.lists) {
		return nil
	}
	return b.lists[slot]
}

// Total returns the number of instances across all slots.
func (b *Buckets) Total() int {
	n := 0
	for _, l := range b.lists {
		n += len(l)
	}
	return n
}

// Remap folds an index into [0, n) with a non-negative modulo. n must be
// positive.
func Remap(i, n int) int {
	return ((i % n) + n) % n
}
