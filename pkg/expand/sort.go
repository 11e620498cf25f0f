package expand

import (
	"cmp"
	"slices"

	"github.com/plume-design/fut-gen/pkg/inputs"
)

// SortInputs sorts the positional inputs of ti in place unless the
// declaration sets do_not_sort. Inputs that cannot be ordered (keyed entries
// or mixed value types at one position) keep their declared order.
// It reports whether the order changed.
func SortInputs(ti *inputs.TestInput) bool {
	if ti.DoNotSort || len(ti.Inputs) < 2 {
		return false
	}
	sorted := slices.Clone(ti.Inputs)
	ordered := true
	slices.SortStableFunc(sorted, func(a, b any) int {
		c, ok := compareValues(a, b)
		if !ok {
			ordered = false
		}
		return c
	})
	if !ordered {
		return false
	}
	changed := false
	for i := range sorted {
		if !valueEqual(sorted[i], ti.Inputs[i]) {
			changed = true
			break
		}
	}
	ti.Inputs = sorted
	return changed
}

// compareValues orders numbers, strings, booleans and lists of those.
// Lists compare element-wise, a shorter prefix first.
func compareValues(a, b any) (int, bool) {
	switch x := a.(type) {
	case nil:
		return 0, b == nil
	case string:
		y, ok := b.(string)
		return cmp.Compare(x, y), ok
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		default:
			return 1, true
		}
	case []any:
		y, ok := b.([]any)
		if !ok {
			return 0, false
		}
		for i := 0; i < min(len(x), len(y)); i++ {
			c, ok := compareValues(x[i], y[i])
			if !ok {
				return 0, false
			}
			if c != 0 {
				return c, true
			}
		}
		return cmp.Compare(len(x), len(y)), true
	}
	if isNumber(a) && isNumber(b) {
		return cmp.Compare(toInt64(a), toInt64(b)), true
	}
	return 0, false
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	}
	return 0
}
