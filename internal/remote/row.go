package remote

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID returns the row id as a string. Numeric ids become their decimal form.
func (r Row) ID() string {
	return toString(r["id"])
}

// lookup returns the first present key among names.
func (r Row) lookup(names ...string) (any, bool) {
	for _, n := range names {
		if v, ok := r[n]; ok {
			return v, true
		}
	}
	return nil, false
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case json.Number:
		f, _ := x.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	}
	return 0
}

func toBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	case float64:
		return x != 0
	case int:
		return x != 0
	case json.Number:
		f, _ := x.Float64()
		return f != 0
	}
	return false
}

func toTime(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func toStrings(v any) []string {
	switch x := v.(type) {
	case []string:
		return append([]string(nil), x...)
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			if s := toString(e); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Field readers return nil when none of the keys is present, so a decoded
// patch leaves absent fields untouched.

func (r Row) strField(names ...string) *string {
	v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	s := toString(v)
	return &s
}

func (r Row) floatField(names ...string) *float64 {
	v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	f := toFloat(v)
	return &f
}

func (r Row) intField(names ...string) *int64 {
	v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	n := int64(toFloat(v))
	return &n
}

func (r Row) timeField(names ...string) *time.Time {
	v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	t := toTime(v)
	return &t
}

func (r Row) listField(names ...string) *[]string {
	v, ok := r.lookup(names...)
	if !ok {
		return nil
	}
	s := toStrings(v)
	return &s
}

// Merge returns a copy of r with other's keys laid over it.
func (r Row) Merge(other Row) Row {
	out := make(Row, len(r)+len(other))
	for k, v := range r {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}
