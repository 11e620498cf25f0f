package expand

import (
	"reflect"

	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/inputs"
)

// Match describes the entry a flag block is evaluated against.
type Match struct {
	// Tuple is the positional input after expansion. Nil for keyed entries.
	Tuple []any

	// Origin is the tuple as declared, before permutations and interface
	// resolution. Flag blocks may name either form.
	Origin []any

	// Unconditional is set when the declaration had no explicit inputs;
	// every flag block then applies.
	Unconditional bool
}

// Annotator attaches skip, ignore and xfail markers to parameter sets.
type Annotator struct{}

// Annotate sets the flag and message keys of cfg for every matching block
// and returns the flags applied, in evaluation order. When several blocks of
// one flag match, the last block's message wins.
func (Annotator) Annotate(flags map[inputs.Flag][]inputs.FlagCondition, m Match, cfg Params) []inputs.Flag {
	var applied []inputs.Flag
	for _, flag := range inputs.Flags {
		matched := false
		for _, cond := range flags[flag] {
			if !m.matches(cond) {
				continue
			}
			matched = true
			cfg[FlagKey(flag)] = true
			if cond.HasMsg {
				cfg[FlagMsgKey(flag)] = cond.Msg
			} else {
				cfg[FlagMsgKey(flag)] = DefaultFlagMsg(flag)
			}
		}
		if matched {
			applied = append(applied, flag)
		}
	}
	return applied
}

func (m Match) matches(cond inputs.FlagCondition) bool {
	if cond.HasInputs && m.Tuple != nil {
		for _, want := range cond.Inputs {
			if tupleEqual(want, m.Tuple) || (m.Origin != nil && tupleEqual(want, m.Origin)) {
				return true
			}
		}
		return false
	}
	if m.Unconditional {
		return true
	}
	return !cond.HasInputs && cond.HasMsg
}

func tupleEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	if isNumber(a) && isNumber(b) {
		x, _ := config.ToInt(a)
		y, _ := config.ToInt(b)
		return x == y
	}
	la, okA := a.([]any)
	lb, okB := b.([]any)
	if okA && okB {
		return tupleEqual(la, lb)
	}
	return reflect.DeepEqual(a, b)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, uint64:
		return true
	}
	return false
}

// isSentinel reports whether entries is exactly [{}].
func isSentinel(entries []any) bool {
	if len(entries) != 1 {
		return false
	}
	m, ok := config.AsMap(entries[0])
	return ok && len(m) == 0
}
