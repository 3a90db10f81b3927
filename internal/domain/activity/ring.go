package activity

// DefaultCapacity bounds the activity and notification feeds.
const DefaultCapacity = 50

// Ring is an append-only feed capped at a fixed capacity. The newest entry is
// first; pushing past capacity drops the oldest.
type Ring[T any] struct {
	items []T
	cap   int
}

// NewRing creates a ring holding at most capacity entries.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{cap: capacity}
}

// Push prepends v, evicting the oldest entry when full.
func (r *Ring[T]) Push(v T) {
	if len(r.items) == r.cap {
		r.items = r.items[:r.cap-1]
	}
	r.items = append(r.items, v)
	copy(r.items[1:], r.items[:len(r.items)-1])
	r.items[0] = v
}

// Items returns a copy of the entries, newest first.
func (r *Ring[T]) Items() []T {
	return append([]T(nil), r.items...)
}

// Len returns the number of entries held.
func (r *Ring[T]) Len() int { return len(r.items) }

// Cap returns the maximum number of entries.
func (r *Ring[T]) Cap() int { return r.cap }

// Update applies fn to every entry in place and reports how many changed.
func (r *Ring[T]) Update(fn func(*T) bool) int {
	n := 0
	for i := range r.items {
		if fn(&r.items[i]) {
			n++
		}
	}
	return n
}

// Reset replaces the entries, keeping at most Cap of them in the given order.
func (r *Ring[T]) Reset(items []T) {
	if len(items) > r.cap {
		items = items[:r.cap]
	}
	r.items = append([]T(nil), items...)
}
