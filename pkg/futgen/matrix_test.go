package futgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/log"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		in      string
		want    Pair
		wantErr bool
	}{
		{"PP603X/PP203X", Pair{DUT: "PP603X", REF: "PP203X"}, false},
		{"PP603X", Pair{DUT: "PP603X"}, false},
		{"/PP203X", Pair{}, true},
		{"", Pair{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePair(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "PP603X/PP203X", Pair{DUT: "PP603X", REF: "PP203X"}.String())
}

func TestGenerateMatrix(t *testing.T) {
	rec := log.NewRecorder()
	opts := Options{BaseDir: "testdata", Tests: []string{"wm2_set_channel"}, Trace: rec, RunID: "matrix"}
	pairs := []Pair{
		{DUT: "PP603X", REF: "PP203X"},
		{DUT: "PP203X", REF: "PP603X"},
	}

	got, err := GenerateMatrix(context.Background(), opts, pairs, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// The gateway decides the iterated bands. PP203X runs 24g at 20 MHz,
	// which rules out HT40 there.
	assert.Len(t, got[pairs[0]]["wm2_set_channel"], 3)
	assert.Len(t, got[pairs[1]]["wm2_set_channel"], 1)

	labels := got.ByLabel()
	assert.Contains(t, labels, "PP603X/PP203X")
	assert.Contains(t, labels, "PP203X/PP603X")

	seen := map[string]bool{}
	for _, e := range rec.Events(log.Filter{RunID: "matrix"}) {
		seen[e.Pair] = true
	}
	assert.Equal(t, map[string]bool{"PP603X/PP203X": true, "PP203X/PP603X": true}, seen)
}

func TestGenerateMatrixFailingPair(t *testing.T) {
	pairs := []Pair{
		{DUT: "PP603X", REF: "PP203X"},
		{DUT: "XX000", REF: "PP203X"},
	}
	_, err := GenerateMatrix(context.Background(), Options{BaseDir: "testdata"}, pairs, 0)
	assert.ErrorIs(t, err, capability.ErrModelNotFound)
	assert.ErrorContains(t, err, "XX000/PP203X")
}

func TestGenerateMatrixRegulatoryError(t *testing.T) {
	opts := Options{BaseDir: "testdata", RegulatoryFile: "missing.yaml"}
	_, err := GenerateMatrix(context.Background(), opts, []Pair{{DUT: "PP603X"}}, 0)
	assert.Error(t, err)
}
