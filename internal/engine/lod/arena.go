package lod

// Arena owns a set of values addressed by index. LOD slots that fall back
// to another level share its index, so each value is released exactly once.
type Arena[T any] struct {
	items []T
}

// Add stores v and returns its index.
func (a *Arena[T]) Add(v T) int {
	a.items = append(a.items, v)
	return len(a.items) - 1
}

// Get returns the value at index i.
func (a *Arena[T]) Get(i int) T {
	return a.items[i]
}

// Len returns the number of stored values.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// Each calls fn for every stored value in insertion order.
func (a *Arena[T]) Each(fn func(int, T)) {
	for i, v := range a.items {
		fn(i, v)
	}
}

// Release calls fn once per stored value, then empties the arena.
func (a *Arena[T]) Release(fn func(T)) {
	if fn != nil {
		for _, v := range a.items {
			fn(v)
		}
	}
	clear(a.items)
	a.items = a.items[:0]
}
