package task

import (
	"fmt"
	"slices"
)

// Blocked reports whether any task in BlockedBy exists and is unfinished.
// Blockers that no longer exist do not block.
func (t Task) Blocked(lookup func(id string) (Task, bool)) bool {
	for _, id := range t.BlockedBy {
		if other, ok := lookup(id); ok && !other.Completed() {
			return true
		}
	}
	return false
}

// AddBlocker returns the BlockedBy list with blockerID appended.
func (t Task) AddBlocker(blockerID string, lookup func(id string) (Task, bool)) ([]string, error) {
	if blockerID == "" || blockerID == t.ID {
		return nil, fmt.Errorf("%w: a task cannot block itself", ErrInvalidInput)
	}
	if _, ok := lookup(blockerID); !ok {
		return nil, fmt.Errorf("%w: blocking task %s", ErrTaskNotFound, blockerID)
	}
	if slices.Contains(t.BlockedBy, blockerID) {
		return slices.Clone(t.BlockedBy), nil
	}
	if dependsOn(blockerID, t.ID, lookup, map[string]bool{}) {
		return nil, fmt.Errorf("%w: dependency cycle through %s", ErrInvalidInput, blockerID)
	}
	return append(slices.Clone(t.BlockedBy), blockerID), nil
}

// RemoveBlocker returns the BlockedBy list without blockerID.
func (t Task) RemoveBlocker(blockerID string) []string {
	return slices.DeleteFunc(slices.Clone(t.BlockedBy), func(id string) bool { return id == blockerID })
}

func dependsOn(from, target string, lookup func(string) (Task, bool), seen map[string]bool) bool {
	if from == target {
		return true
	}
	if seen[from] {
		return false
	}
	seen[from] = true
	t, ok := lookup(from)
	if !ok {
		return false
	}
	for _, next := range t.BlockedBy {
		if dependsOn(next, target, lookup, seen) {
			return true
		}
	}
	return false
}
