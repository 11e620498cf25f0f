package expand

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plume-design/fut-gen/pkg/inputs"
)

func TestSortInputs(t *testing.T) {
	tests := []struct {
		name        string
		in          []any
		doNotSort   bool
		want        []any
		wantChanged bool
	}{
		{
			name:        "tuples sorted element-wise",
			in:          []any{[]any{44, "HT20", "5gl"}, []any{6, "HT40", "24g"}, []any{6, "HT20", "24g"}},
			want:        []any{[]any{6, "HT20", "24g"}, []any{6, "HT40", "24g"}, []any{44, "HT20", "5gl"}},
			wantChanged: true,
		},
		{
			name: "already sorted",
			in:   []any{[]any{1}, []any{2}},
			want: []any{[]any{1}, []any{2}},
		},
		{
			name:        "shorter prefix first",
			in:          []any{[]any{"a", 1}, []any{"a"}},
			want:        []any{[]any{"a"}, []any{"a", 1}},
			wantChanged: true,
		},
		{
			name: "mixed types keep order",
			in:   []any{[]any{"24g"}, []any{6}},
			want: []any{[]any{"24g"}, []any{6}},
		},
		{
			name: "keyed entries keep order",
			in:   []any{map[string]any{"b": 1}, map[string]any{"a": 1}},
			want: []any{map[string]any{"b": 1}, map[string]any{"a": 1}},
		},
		{
			name:      "do_not_sort",
			in:        []any{[]any{2}, []any{1}},
			doNotSort: true,
			want:      []any{[]any{2}, []any{1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ti := &inputs.TestInput{Inputs: tt.in, HasInputs: true, DoNotSort: tt.doNotSort}
			changed := SortInputs(ti)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, ti.Inputs)
		})
	}
}
