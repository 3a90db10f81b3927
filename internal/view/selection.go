package view

import "slices"

// Selection holds the per-collection sets of ids checked for bulk actions.
type Selection struct {
	sets map[Kind]map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{sets: make(map[Kind]map[string]struct{})}
}

func (s *Selection) set(kind Kind) map[string]struct{} {
	m, ok := s.sets[kind]
	if !ok {
		m = make(map[string]struct{})
		s.sets[kind] = m
	}
	return m
}

// Has reports whether id is selected in kind.
func (s *Selection) Has(kind Kind, id string) bool {
	_, ok := s.sets[kind][id]
	return ok
}

// Set selects or deselects id.
func (s *Selection) Set(kind Kind, id string, on bool) {
	if on {
		s.set(kind)[id] = struct{}{}
		return
	}
	delete(s.sets[kind], id)
}

// Toggle flips id and returns whether it is now selected.
func (s *Selection) Toggle(kind Kind, id string) bool {
	on := !s.Has(kind, id)
	s.Set(kind, id, on)
	return on
}

// SelectAll replaces the selection of kind with ids.
func (s *Selection) SelectAll(kind Kind, ids []string) {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	s.sets[kind] = m
}

// Clear empties the selection of kind.
func (s *Selection) Clear(kind Kind) {
	delete(s.sets, kind)
}

// Prune removes id from the selection of kind and reports whether it was there.
func (s *Selection) Prune(kind Kind, id string) bool {
	if !s.Has(kind, id) {
		return false
	}
	delete(s.sets[kind], id)
	return true
}

// Rename moves a selected id to a new id, used when a tentative id is confirmed.
func (s *Selection) Rename(kind Kind, from, to string) {
	if s.Prune(kind, from) {
		s.Set(kind, to, true)
	}
}

// IDs returns the selected ids of kind, sorted.
func (s *Selection) IDs(kind Kind) []string {
	ids := make([]string, 0, len(s.sets[kind]))
	for id := range s.sets[kind] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of selected ids in kind.
func (s *Selection) Count(kind Kind) int {
	return len(s.sets[kind])
}
