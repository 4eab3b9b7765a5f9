package interchange

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Normalize rewrites decoder output into keyed form: maps become
// map[string]any, byte strings become strings, and non-negative integers
// (including json.Number and integral floats) become uint64. Negative and
// fractional numbers are left alone for the marshaller to reject.
func Normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			out[key] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	case []byte:
		return string(x)
	case json.Number:
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u
		}
		if f, err := x.Float64(); err == nil {
			return Normalize(f)
		}
		return x
	case float64:
		if x >= 0 && x < math.MaxUint64 && x == math.Trunc(x) {
			return uint64(x)
		}
		return x
	case float32:
		return Normalize(float64(x))
	case int:
		return signed(int64(x))
	case int8:
		return signed(int64(x))
	case int16:
		return signed(int64(x))
	case int32:
		return signed(int64(x))
	case int64:
		return signed(x)
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	}
	return v
}

func signed(n int64) any {
	if n < 0 {
		return n
	}
	return uint64(n)
}
