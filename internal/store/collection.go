package store

import "slices"

// Removed carries an entity taken out of a collection and its former
// position, so a rollback can put it back where it was.
type Removed[T any] struct {
	Value T
	Index int
}

// collection is an ordered list of entities keyed by id. New entities are
// prepended; updates merge in place.
type collection[T any, P any] struct {
	items []T
	id    func(T) string
	apply func(*T, P) bool
	build func(id string, p P) T
	clone func(T) T
}

func (c *collection[T, P]) index(id string) int {
	return slices.IndexFunc(c.items, func(v T) bool { return c.id(v) == id })
}

func (c *collection[T, P]) get(id string) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.copyOf(c.items[i]), true
	}
	var zero T
	return zero, false
}

func (c *collection[T, P]) all() []T {
	out := make([]T, len(c.items))
	for i, v := range c.items {
		out[i] = c.copyOf(v)
	}
	return out
}

func (c *collection[T, P]) copyOf(v T) T {
	if c.clone == nil {
		return v
	}
	return c.clone(v)
}

// upsert merges p into the entity with id, or prepends a new one built from
// p. It reports whether the collection changed.
func (c *collection[T, P]) upsert(id string, p P) bool {
	if i := c.index(id); i >= 0 {
		return c.apply(&c.items[i], p)
	}
	c.items = slices.Insert(c.items, 0, c.build(id, p))
	return true
}

// merge is upsert restricted to entities already present.
func (c *collection[T, P]) merge(id string, p P) (found, changed bool) {
	i := c.index(id)
	if i < 0 {
		return false, false
	}
	return true, c.apply(&c.items[i], p)
}

// insert prepends v unless its id is already present.
func (c *collection[T, P]) insert(v T) bool {
	return c.insertAt(0, v)
}

func (c *collection[T, P]) insertAt(i int, v T) bool {
	if c.index(c.id(v)) >= 0 {
		return false
	}
	i = max(0, min(i, len(c.items)))
	c.items = slices.Insert(c.items, i, c.copyOf(v))
	return true
}

func (c *collection[T, P]) remove(id string) (Removed[T], bool) {
	i := c.index(id)
	if i < 0 {
		return Removed[T]{}, false
	}
	r := Removed[T]{Value: c.items[i], Index: i}
	c.items = slices.Delete(c.items, i, i+1)
	return r, true
}

func (c *collection[T, P]) replace(items []T) {
	c.items = make([]T, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, v := range items {
		if seen[c.id(v)] {
			continue
		}
		seen[c.id(v)] = true
		c.items = append(c.items, c.copyOf(v))
	}
}

// rekey swaps a tentative entity for its confirmed record. If the confirmed
// id is already present the tentative entry is dropped and the record merged
// into the existing entity instead, so exactly one entity carries the id.
func (c *collection[T, P]) rekey(tentativeID string, canonical T, full func(T) P) {
	canonicalID := c.id(canonical)
	ti := c.index(tentativeID)
	if tentativeID != canonicalID && c.index(canonicalID) >= 0 {
		if ti >= 0 {
			c.items = slices.Delete(c.items, ti, ti+1)
		}
		c.apply(&c.items[c.index(canonicalID)], full(canonical))
		return
	}
	if ti >= 0 {
		c.items[ti] = c.copyOf(canonical)
		return
	}
	c.items = slices.Insert(c.items, 0, c.copyOf(canonical))
}
