// Package sanitize strips unsafe markup from user-supplied text before it is
// stored or echoed back.
package sanitize

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func ugc() *bluemonday.Policy {
	policyOnce.Do(func() { policy = bluemonday.UGCPolicy() })
	return policy
}

// String removes scripts, event handlers and other unsafe markup from s.
// Safe formatting tags are kept.
func String(s string) string {
	return ugc().Sanitize(s)
}

// Value sanitises every string inside a decoded JSON value. Maps and slices
// are rebuilt; numbers, booleans and nil pass through unchanged.
func Value(v any) any {
	switch x := v.(type) {
	case string:
		return String(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Value(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Value(val)
		}
		return out
	default:
		return v
	}
}

// Map sanitises a decoded JSON object.
func Map(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Value(m).(map[string]any)
}
