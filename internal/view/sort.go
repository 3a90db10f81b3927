package view

import (
	"cmp"
	"slices"
	"strings"
)

// KeyKind selects how a sort key compares.
type KeyKind int

const (
	// Text compares case-insensitively.
	Text KeyKind = iota
	// Number compares numerically.
	Number
	// Date compares calendar dates; empty dates sort after any date.
	Date
)

// Key is a named sortable column.
type Key[T any] struct {
	Name   string
	Kind   KeyKind
	Text   func(T) string
	Number func(T) float64
}

// Compare orders a and b ascending by this key.
func (k Key[T]) Compare(a, b T) int {
	switch k.Kind {
	case Number:
		return cmp.Compare(k.Number(a), k.Number(b))
	case Date:
		da, db := k.Text(a), k.Text(b)
		switch {
		case da == db:
			return 0
		case da == "":
			return 1
		case db == "":
			return -1
		}
		return strings.Compare(da, db)
	default:
		return strings.Compare(strings.ToLower(k.Text(a)), strings.ToLower(k.Text(b)))
	}
}

// SortSpec is a key plus direction. The zero value leaves source order.
type SortSpec[T any] struct {
	Key  *Key[T]
	Desc bool
}

// Sort orders items in place. The sort is stable in both directions, so
// items with equal keys keep their source order.
func Sort[T any](items []T, spec SortSpec[T]) {
	if spec.Key == nil {
		return
	}
	k := *spec.Key
	slices.SortStableFunc(items, func(a, b T) int {
		c := k.Compare(a, b)
		if spec.Desc {
			return -c
		}
		return c
	})
}
