// Package patch holds the shallow-merge helpers shared by the entity Patch types.
//
// A nil source pointer means "field absent from the patch" and leaves the
// destination untouched. Every helper reports whether the destination changed,
// which is what makes re-applying an identical patch a no-op.
package patch

import (
	"slices"
	"time"
)

// Assign copies *src into *dst when src is present and differs.
func Assign[T comparable](dst *T, src *T) bool {
	if src == nil || *dst == *src {
		return false
	}
	*dst = *src
	return true
}

// AssignSlice replaces *dst with a copy of *src when src is present and differs.
func AssignSlice[T comparable](dst *[]T, src *[]T) bool {
	if src == nil || slices.Equal(*dst, *src) {
		return false
	}
	*dst = slices.Clone(*src)
	return true
}

// AssignTime copies a timestamp, comparing instants rather than representations.
func AssignTime(dst *time.Time, src *time.Time) bool {
	if src == nil || dst.Equal(*src) {
		return false
	}
	*dst = *src
	return true
}

// Ptr returns a pointer to v. Handy when building patches inline.
func Ptr[T any](v T) *T {
	return &v
}
