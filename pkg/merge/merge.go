// Package merge combines the generic, platform and model input layers into
// one declaration per test.
//
// Layers are applied in increasing priority. For every test name:
//
//   - inputs in the higher layer replace the accumulated inputs;
//   - otherwise additional_inputs are appended to the accumulated inputs;
//   - default mappings are merged key by key, the higher layer winning;
//   - every other key of the higher layer replaces the accumulated one.
//
// Tests declared only in a higher layer are carried through. Merging never
// mutates its arguments, and the result contains no additional_inputs, so
// merging a result with itself is a no-op.
package merge

import (
	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/inputs"
)

// Merge applies layers in increasing priority and returns the merged set.
func Merge(layers ...inputs.Set) inputs.Set {
	out := inputs.Set{}
	for _, layer := range layers {
		for _, name := range layer.Names() {
			out[name] = MergeTest(out[name], layer[name])
		}
	}
	return out
}

// MergeLayers merges the three repository layers, model last.
func MergeLayers(l *inputs.Layers) inputs.Set {
	return Merge(l.Generic, l.Platform, l.Model)
}

// MergeTest merges the higher-priority declaration over onto base. A nil
// base yields a normalized copy of over.
func MergeTest(base, over inputs.Raw) inputs.Raw {
	out := normalize(base)
	if over == nil {
		return out
	}
	over = copyRaw(over)

	if in, ok := over[inputs.KeyInputs]; ok {
		out[inputs.KeyInputs] = in
		delete(over, inputs.KeyInputs)
		delete(over, inputs.KeyAdditionalInputs)
	} else if add, ok := over[inputs.KeyAdditionalInputs]; ok {
		out[inputs.KeyInputs] = appendInputs(out[inputs.KeyInputs], add)
		delete(over, inputs.KeyAdditionalInputs)
	}

	if def, ok := over[inputs.KeyDefault]; ok {
		baseDef, baseOK := config.AsMap(out[inputs.KeyDefault])
		overDef, overOK := config.AsMap(def)
		if baseOK && overOK {
			merged := make(map[string]any, len(baseDef)+len(overDef))
			for k, v := range baseDef {
				merged[k] = v
			}
			for k, v := range overDef {
				merged[k] = v
			}
			out[inputs.KeyDefault] = merged
			delete(over, inputs.KeyDefault)
		}
	}

	for k, v := range over {
		out[k] = v
	}
	return out
}

// normalize copies r and folds additional_inputs into inputs.
func normalize(r inputs.Raw) inputs.Raw {
	out := copyRaw(r)
	if add, ok := out[inputs.KeyAdditionalInputs]; ok {
		out[inputs.KeyInputs] = appendInputs(out[inputs.KeyInputs], add)
		delete(out, inputs.KeyAdditionalInputs)
	}
	return out
}

func appendInputs(base, add any) []any {
	baseList, _ := base.([]any)
	addList, _ := add.([]any)
	out := make([]any, 0, len(baseList)+len(addList))
	out = append(out, baseList...)
	return append(out, addList...)
}

func copyRaw(r inputs.Raw) inputs.Raw {
	if r == nil {
		return inputs.Raw{}
	}
	return inputs.DeepCopy(r).(inputs.Raw)
}
