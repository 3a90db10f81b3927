package view

import "strings"

// AllValue is the category filter value that matches everything.
const AllValue = "All"

// Predicate selects items for display.
type Predicate[T any] func(T) bool

// All is the conjunction of preds. Nil predicates are skipped, so All() matches everything.
func All[T any](preds ...Predicate[T]) Predicate[T] {
	return func(v T) bool {
		for _, p := range preds {
			if p != nil && !p(v) {
				return false
			}
		}
		return true
	}
}

// TextMatch matches when query is a case-insensitive substring of any field.
// An empty query matches everything.
func TextMatch[T any](query string, fields ...func(T) string) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return matchAll[T]
	}
	return func(v T) bool {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(v)), q) {
				return true
			}
		}
		return false
	}
}

// Category matches case-insensitive equality on one field. "" and "All" match everything.
func Category[T any](value string, field func(T) string) Predicate[T] {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, AllValue) {
		return matchAll[T]
	}
	return func(v T) bool {
		return strings.EqualFold(field(v), value)
	}
}

func matchAll[T any](T) bool { return true }

// Apply returns the items matching p in their original order.
func Apply[T any](items []T, p Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, v := range items {
		if p == nil || p(v) {
			out = append(out, v)
		}
	}
	return out
}
