package merge

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/plume-design/fut-gen/pkg/inputs"
)

func generic() inputs.Set {
	return inputs.Set{
		"wm2_set_channel": {
			"default":      map[string]any{"a": 1, "b": 1, "c": 1},
			"args_mapping": []any{"channel", "ht_mode", "radio_band"},
			"inputs":       []any{[]any{6, "HT40", "24g"}},
		},
		"wm2_set_ssid": {
			"inputs": []any{"ssid-a"},
		},
	}
}

func platform() inputs.Set {
	return inputs.Set{
		"wm2_set_channel": {
			"default":           map[string]any{"b": 2, "c": 2},
			"additional_inputs": []any{[]any{157, "HT40", "5gu"}},
		},
		"wm2_platform_only": {
			"additional_inputs": []any{"x"},
		},
	}
}

func model() inputs.Set {
	return inputs.Set{
		"wm2_set_channel": {
			"default": map[string]any{"c": 3},
			"xfail":   map[string]any{"msg": "known issue"},
		},
		"wm2_set_ssid": {
			"inputs": []any{"ssid-b"},
		},
		"nm2_model_only": {
			"inputs": []any{"eth0"},
		},
	}
}

func TestMergePrecedence(t *testing.T) {
	got := Merge(generic(), platform(), model())

	want := inputs.Set{
		"wm2_set_channel": {
			"default":      map[string]any{"a": 1, "b": 2, "c": 3},
			"args_mapping": []any{"channel", "ht_mode", "radio_band"},
			"inputs":       []any{[]any{6, "HT40", "24g"}, []any{157, "HT40", "5gu"}},
			"xfail":        map[string]any{"msg": "known issue"},
		},
		"wm2_set_ssid": {
			"inputs": []any{"ssid-b"},
		},
		"wm2_platform_only": {
			"inputs": []any{"x"},
		},
		"nm2_model_only": {
			"inputs": []any{"eth0"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	once := Merge(generic(), platform(), model())

	if diff := cmp.Diff(once, Merge(once)); diff != "" {
		t.Errorf("Merge(out) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(once, Merge(once, once)); diff != "" {
		t.Errorf("Merge(out, out) mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	a := Merge(generic(), platform(), model())
	b := Merge(generic(), platform(), model())
	assert.Equal(t, a, b)
}

func TestMergeDoesNotMutateLayers(t *testing.T) {
	g, p, m := generic(), platform(), model()
	Merge(g, p, m)

	assert.Equal(t, generic(), g)
	assert.Equal(t, platform(), p)
	assert.Equal(t, model(), m)
}

func TestMergeTest(t *testing.T) {
	tests := []struct {
		name string
		base inputs.Raw
		over inputs.Raw
		want inputs.Raw
	}{
		{
			name: "inputs replace",
			base: inputs.Raw{"inputs": []any{1, 2}},
			over: inputs.Raw{"inputs": []any{3}, "additional_inputs": []any{4}},
			want: inputs.Raw{"inputs": []any{3}},
		},
		{
			name: "additional inputs append",
			base: inputs.Raw{"inputs": []any{1}},
			over: inputs.Raw{"additional_inputs": []any{2}},
			want: inputs.Raw{"inputs": []any{1, 2}},
		},
		{
			name: "additional inputs without base inputs",
			base: inputs.Raw{"default": map[string]any{"a": 1}},
			over: inputs.Raw{"additional_inputs": []any{2}},
			want: inputs.Raw{"default": map[string]any{"a": 1}, "inputs": []any{2}},
		},
		{
			name: "default only in higher layer",
			base: inputs.Raw{"inputs": []any{1}},
			over: inputs.Raw{"default": map[string]any{"a": 2}},
			want: inputs.Raw{"inputs": []any{1}, "default": map[string]any{"a": 2}},
		},
		{
			name: "other keys replace",
			base: inputs.Raw{"args_mapping": []any{"a"}, "skip": map[string]any{"msg": "x"}},
			over: inputs.Raw{"args_mapping": []any{"b"}},
			want: inputs.Raw{"args_mapping": []any{"b"}, "skip": map[string]any{"msg": "x"}},
		},
		{
			name: "nil base",
			base: nil,
			over: inputs.Raw{"additional_inputs": []any{1}},
			want: inputs.Raw{"inputs": []any{1}},
		},
		{
			name: "nil over",
			base: inputs.Raw{"inputs": []any{1}},
			over: nil,
			want: inputs.Raw{"inputs": []any{1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeTest(tt.base, tt.over))
		})
	}
}

func TestMergeLayers(t *testing.T) {
	got := MergeLayers(&inputs.Layers{Generic: generic(), Platform: platform(), Model: model()})
	assert.Equal(t, Merge(generic(), platform(), model()), got)
}
