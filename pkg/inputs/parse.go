package inputs

import (
	"fmt"
	"slices"
	"sort"

	"github.com/plume-design/fut-gen/pkg/config"
)

// FromMap decodes a merged raw declaration into a TestInput.
//
// Scalars in inputs become one-element tuples, {range: [a, b]} values become
// Range, and values at channel positions are canonicalized to int. The
// singular "input" key inside a flag block is reported as malformed.
func FromMap(name string, raw Raw) (*TestInput, error) {
	ti := &TestInput{Name: name}
	if raw == nil {
		return ti, nil
	}

	var additional []any

	for key, val := range raw {
		switch key {
		case KeyDefault:
			m, ok := config.AsMap(val)
			if !ok && val != nil {
				return nil, malformed(name, "default must be a mapping, got %T", val)
			}
			ti.Default, _ = DeepCopy(m).(map[string]any)
		case KeyArgsMapping:
			args, err := stringList(val)
			if err != nil {
				return nil, malformed(name, "args_mapping: %v", err)
			}
			ti.ArgsMapping = args
		case KeyInputs:
			list, ok := val.([]any)
			if !ok && val != nil {
				return nil, malformed(name, "inputs must be a list, got %T", val)
			}
			ti.Inputs, _ = DeepCopy(list).([]any)
			if ti.Inputs == nil {
				ti.Inputs = []any{}
			}
			ti.HasInputs = true
		case KeyAdditionalInputs:
			// Folded into inputs by the merger; a leftover list is appended.
			list, ok := val.([]any)
			if !ok && val != nil {
				return nil, malformed(name, "additional_inputs must be a list, got %T", val)
			}
			additional = list
		case string(FlagSkip), string(FlagIgnore), string(FlagXfail):
			conds, err := parseFlag(name, Flag(key), val)
			if err != nil {
				return nil, err
			}
			if ti.Flags == nil {
				ti.Flags = make(map[Flag][]FlagCondition)
			}
			ti.Flags[Flag(key)] = conds
		case KeyExpandPermutations:
			ti.ExpandPermutations = truthy(val)
		case KeyDoNotSort:
			ti.DoNotSort = truthy(val)
		case KeyInsertEncryption:
			ti.InsertEncryption = truthy(val)
		default:
			if ti.Extra == nil {
				ti.Extra = make(map[string]any)
			}
			ti.Extra[key] = DeepCopy(val)
		}
	}

	if len(additional) > 0 {
		ti.Inputs = append(ti.Inputs, DeepCopy(additional).([]any)...)
		ti.HasInputs = true
	}

	if err := ti.normalize(); err != nil {
		return nil, err
	}
	return ti, nil
}

// normalize is deferred until every key is decoded since it needs both
// args_mapping and inputs.
func (ti *TestInput) normalize() error {
	for i, entry := range ti.Inputs {
		switch e := entry.(type) {
		case map[string]any:
			ti.Inputs[i] = canonicalMap(e)
		case []any:
			tuple, err := ti.canonicalTuple(e)
			if err != nil {
				return err
			}
			ti.Inputs[i] = tuple
		default:
			if m, ok := config.AsMap(entry); ok {
				ti.Inputs[i] = canonicalMap(m)
				continue
			}
			if ti.ArgsMapping != nil {
				tuple, err := ti.canonicalTuple([]any{entry})
				if err != nil {
					return err
				}
				ti.Inputs[i] = tuple
			}
		}
	}
	if ti.Default != nil {
		ti.Default = canonicalMap(ti.Default)
	}
	for f, conds := range ti.Flags {
		for ci := range conds {
			for j, tuple := range conds[ci].Inputs {
				canon, err := ti.canonicalTuple(tuple)
				if err != nil {
					return err
				}
				conds[ci].Inputs[j] = canon
			}
		}
		ti.Flags[f] = conds
	}
	return nil
}

func (ti *TestInput) canonicalTuple(tuple []any) ([]any, error) {
	args := ti.ArgsMapping
	if len(tuple) == len(args)-1 {
		// Generator tokens in args_mapping have no positional value yet.
		args = slices.DeleteFunc(slices.Clone(args), IsToken)
	}
	out := make([]any, len(tuple))
	for i, v := range tuple {
		out[i] = canonicalValue(v)
		if i >= len(args) {
			continue
		}
		switch arg := args[i]; {
		case slices.Contains(ChannelKeys, arg):
			out[i] = canonicalChannel(out[i])
		case arg == ChannelsKey:
			out[i] = canonicalChannelList(out[i])
		}
	}
	return out, nil
}

func canonicalValue(v any) any {
	m, ok := config.AsMap(v)
	if !ok {
		if l, ok := v.([]any); ok {
			out := make([]any, len(l))
			for i, e := range l {
				out[i] = canonicalValue(e)
			}
			return out
		}
		return v
	}
	if r, ok := m[KeyRange]; ok && len(m) == 1 {
		bounds, err := config.ToIntSlice(r)
		if err == nil && len(bounds) == 2 {
			return Range{From: bounds[0], To: bounds[1]}
		}
	}
	return canonicalMap(m)
}

func canonicalMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case slices.Contains(ChannelKeys, k):
			out[k] = canonicalChannel(v)
		case k == ChannelsKey:
			out[k] = canonicalChannelList(v)
		default:
			out[k] = v
		}
	}
	return out
}

// canonicalChannel converts channel values to int. Permutation lists and
// ranges are converted element-wise.
func canonicalChannel(v any) any {
	switch t := v.(type) {
	case nil, Range:
		return v
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = canonicalChannel(e)
		}
		return out
	}
	if i, ok := config.ToInt(v); ok {
		return i
	}
	return v
}

func canonicalChannelList(v any) any {
	l, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]any, len(l))
	for i, e := range l {
		out[i] = canonicalChannel(e)
	}
	return out
}

func parseFlag(test string, flag Flag, val any) ([]FlagCondition, error) {
	var blocks []any
	switch v := val.(type) {
	case []any:
		blocks = v
	case nil:
		blocks = []any{map[string]any{}}
	default:
		blocks = []any{v}
	}

	conds := make([]FlagCondition, 0, len(blocks))
	for _, b := range blocks {
		m, ok := config.AsMap(b)
		if !ok {
			return nil, malformed(test, "%s block must be a mapping, got %T", flag, b)
		}
		if _, ok := m[KeyInput]; ok {
			return nil, malformed(test, "%s block uses %q, expected %q", flag, KeyInput, KeyInputs)
		}
		var cond FlagCondition
		if msg, ok := m[KeyMsg]; ok {
			cond.HasMsg = true
			cond.Msg = fmt.Sprint(msg)
		}
		if raw, ok := m[KeyInputs]; ok {
			cond.HasInputs = true
			list, ok := raw.([]any)
			if !ok {
				return nil, malformed(test, "%s inputs must be a list, got %T", flag, raw)
			}
			cond.Inputs = make([][]any, 0, len(list))
			for _, e := range list {
				if tuple, ok := e.([]any); ok {
					cond.Inputs = append(cond.Inputs, DeepCopy(tuple).([]any))
				} else {
					cond.Inputs = append(cond.Inputs, []any{e})
				}
			}
		}
		for k := range m {
			if k != KeyMsg && k != KeyInputs {
				return nil, malformed(test, "%s block has unknown key %s", flag, quote(k))
			}
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

func stringList(v any) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
	out := make([]string, 0, len(list))
	for _, e := range list {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("argument %v is not a string", e)
		}
		out = append(out, s)
	}
	return out, nil
}

func truthy(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
