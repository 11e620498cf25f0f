package futgen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/generator"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/log"
)

func testOptions() Options {
	return Options{BaseDir: "testdata", DUT: "PP603X", REF: "PP203X"}
}

func newGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	gen, err := New(context.Background(), opts)
	require.NoError(t, err)
	return gen
}

func channelEntry(channel int, band string) expand.Params {
	return expand.Params{
		"channel":    channel,
		"ht_mode":    "HT40",
		"radio_band": band,
		"encryption": "WPA2",
		"ssid":       "fut-ssid",
		"psk":        "platform-psk",
		"xfail":      true,
		"xfail_msg":  "known firmware issue",
	}
}

func TestTestConfigs(t *testing.T) {
	gen := newGenerator(t, testOptions())

	got, err := gen.TestConfigs(context.Background())
	require.NoError(t, err)

	want := TestConfigMap{
		"fsm_configure_test": {{"channel": 6, "radio_band": "24g"}},
		"nm2_set_mtu": {
			{"if_name": "eth1", "if_type": "eth", "mtu": 1500},
			{"if_name": "eth2", "if_type": "eth", "mtu": 1500},
		},
		"wm2_set_channel": {
			channelEntry(6, "24g"),
			channelEntry(44, "5gl"),
			channelEntry(157, "5gu"),
		},
		"wm2_set_ssid": {
			{"channel": 6, "ht_mode": "HT40", "radio_band": "24g", "ssid": "plain"},
			{"channel": 44, "ht_mode": "HT40", "radio_band": "5gl", "ssid": "short"},
			{"channel": 44, "ht_mode": "HT40", "radio_band": "5gl", "ssid": "long"},
		},
	}
	bcn := got["wm2_set_bcn_int"]
	delete(got, "wm2_set_bcn_int")
	assert.Empty(t, cmp.Diff(want, got))
	assert.Len(t, bcn, 9)
}

func TestTestConfigsRegenerates(t *testing.T) {
	gen := newGenerator(t, testOptions())

	first, err := gen.TestConfigs(context.Background())
	require.NoError(t, err)
	first["wm2_set_channel"][0]["ssid"] = "changed"

	second, err := gen.TestConfigs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fut-ssid", second["wm2_set_channel"][0]["ssid"])
}

func TestExtendedGenType(t *testing.T) {
	opts := testOptions()
	opts.GenType = generator.GenTypeExtended
	gen := newGenerator(t, opts)

	assert.Equal(t, []string{"wm2_set_channel"}, gen.Tests())
	got, err := gen.Generate("wm2_set_channel")
	require.NoError(t, err)
	assert.Len(t, got, 9)
}

func TestTestSelection(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{"all", nil, []string{"fsm_configure_test", "nm2_set_mtu", "wm2_set_bcn_int", "wm2_set_channel", "wm2_set_ssid"}},
		{"exact", []string{"nm2_set_mtu"}, []string{"nm2_set_mtu"}},
		{"glob", []string{"wm2_set_*"}, []string{"wm2_set_bcn_int", "wm2_set_channel", "wm2_set_ssid"}},
		{"mixed", []string{"fsm_*", "wm2_set_channel"}, []string{"fsm_configure_test", "wm2_set_channel"}},
		{"unknown", []string{"onbrd_*"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Tests = tt.patterns
			gen := newGenerator(t, opts)
			assert.Equal(t, tt.want, gen.Tests())

			configs, err := gen.TestConfigs(context.Background())
			require.NoError(t, err)
			assert.Len(t, configs, len(tt.want))
		})
	}
}

func TestModuleFilter(t *testing.T) {
	opts := testOptions()
	opts.Modules = []string{"NM"}
	gen := newGenerator(t, opts)
	assert.Equal(t, []string{"nm2_set_mtu"}, gen.Tests())
}

func TestTraceEvents(t *testing.T) {
	rec := log.NewRecorder()
	opts := testOptions()
	opts.Trace = rec
	opts.RunID = "run-1"
	gen := newGenerator(t, opts)
	assert.Equal(t, "run-1", gen.RunID())

	_, err := gen.TestConfigs(context.Background())
	require.NoError(t, err)

	load := log.StageLoad
	require.Len(t, rec.Events(log.Filter{Stage: &load}), 1)

	merge := log.StageMerge
	merged := rec.Events(log.Filter{Stage: &merge})
	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Count)

	stage := log.StageGenerate
	info := log.DecisionInfo
	selected := rec.Events(log.Filter{Stage: &stage, Decision: &info})
	byTest := map[string]string{}
	for _, e := range selected {
		byTest[e.Test] = e.Generator
	}
	assert.Equal(t, map[string]string{
		"fsm_configure_test": "default",
		"nm2_set_mtu":        "NM",
		"wm2_set_bcn_int":    "WM",
		"wm2_set_channel":    "WM",
		"wm2_set_ssid":       "WM",
	}, byTest)

	for _, e := range rec.Events(log.Filter{}) {
		assert.Equal(t, "run-1", e.RunID)
		assert.Equal(t, "PP603X/PP203X", e.Pair)
	}
}

func TestGeneratedRunID(t *testing.T) {
	a := newGenerator(t, testOptions())
	b := newGenerator(t, testOptions())
	assert.NotEmpty(t, a.RunID())
	assert.NotEqual(t, a.RunID(), b.RunID())
}

func TestWithoutReference(t *testing.T) {
	opts := testOptions()
	opts.REF = ""
	gen := newGenerator(t, opts)
	assert.Nil(t, gen.Leaf())

	got, err := gen.Generate("wm2_set_channel")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestNewErrors(t *testing.T) {
	t.Run("no dut", func(t *testing.T) {
		_, err := New(context.Background(), Options{BaseDir: "testdata"})
		assert.ErrorIs(t, err, ErrNoDUT)
	})

	t.Run("unknown model", func(t *testing.T) {
		opts := testOptions()
		opts.REF = "XX000"
		_, err := New(context.Background(), opts)
		assert.ErrorIs(t, err, capability.ErrModelNotFound)
		assert.ErrorContains(t, err, "ref XX000")
	})

	t.Run("gen type", func(t *testing.T) {
		opts := testOptions()
		opts.GenType = "exhaustive"
		_, err := New(context.Background(), opts)
		assert.Error(t, err)
	})

	t.Run("test pattern", func(t *testing.T) {
		opts := testOptions()
		opts.Tests = []string{"wm2_[set"}
		_, err := New(context.Background(), opts)
		assert.ErrorContains(t, err, "invalid test pattern")
	})

	t.Run("regulatory file", func(t *testing.T) {
		opts := testOptions()
		opts.RegulatoryFile = "missing.yaml"
		_, err := New(context.Background(), opts)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(ctx, testOptions())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerateUnknownTest(t *testing.T) {
	gen := newGenerator(t, testOptions())
	_, err := gen.Generate("wm2_missing")
	assert.ErrorIs(t, err, inputs.ErrMalformed)
}

// copyTree copies the testdata tree so a test can add files to it.
func copyTree(t *testing.T) string {
	t.Helper()
	dst := t.TempDir()
	err := filepath.WalkDir("testdata", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel("testdata", path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dst
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGenerationErrorAbortsRun(t *testing.T) {
	dir := copyTree(t)
	writeFile(t, filepath.Join(dir, "config/test_case/model/PP603X/NM_inputs.yaml"), `
test_inputs:
  nm2_set_gateway:
    inputs:
      - FutGen|wifi-interfaces
`)
	opts := testOptions()
	opts.BaseDir = dir
	gen := newGenerator(t, opts)

	_, err := gen.TestConfigs(context.Background())
	assert.ErrorIs(t, err, expand.ErrConfig)
	assert.ErrorContains(t, err, "nm2_set_gateway")
}

func TestValidate(t *testing.T) {
	gen := newGenerator(t, testOptions())
	assert.NoError(t, gen.Validate())

	dir := copyTree(t)
	writeFile(t, filepath.Join(dir, "internal/config/test_case/platform/qca/SM_inputs.yaml"), `
test_inputs:
  sm_survey_report:
    skip:
      - input: [6, 24g]
        msg: singular input
`)
	opts := testOptions()
	opts.BaseDir = dir
	gen = newGenerator(t, opts)

	err := gen.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "platform layer")
	assert.ErrorContains(t, err, "merged")
}

func TestInputIsSorted(t *testing.T) {
	dir := copyTree(t)
	writeFile(t, filepath.Join(dir, "config/test_case/model/PP603X/FSM_inputs.yaml"), `
test_inputs:
  fsm_configure_test:
    args_mapping: [channel, radio_band]
    inputs:
      - [11, 24g]
      - [1, 24g]
  fsm_unsorted:
    do_not_sort: true
    args_mapping: [channel, radio_band]
    inputs:
      - [11, 24g]
      - [1, 24g]
`)
	opts := testOptions()
	opts.BaseDir = dir
	gen := newGenerator(t, opts)

	ti, err := gen.Input("fsm_configure_test")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{1, "24g"}, []any{11, "24g"}}, ti.Inputs)

	ti, err = gen.Input("fsm_unsorted")
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{11, "24g"}, []any{1, "24g"}}, ti.Inputs)

	raw, ok := gen.Merged("fsm_unsorted")
	require.True(t, ok)
	assert.Equal(t, true, raw["do_not_sort"])
}
