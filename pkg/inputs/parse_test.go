package inputs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func rawFromYAML(t *testing.T, doc string) Raw {
	t.Helper()
	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))
	return Raw(m)
}

func TestFromMap(t *testing.T) {
	raw := rawFromYAML(t, `
default:
  channel: "36"
  psk: secret
args_mapping: [channel, ht_mode, radio_band, channels]
inputs:
  - ["6", HT40, 24g, ["1", 6]]
  - {channel: "11", ht_mode: HT20}
expand_permutations: true
do_not_sort: true
owner: wm
skip:
  - inputs: [[6, HT40, 24g, [1, 6]]]
    msg: flaky
`)
	ti, err := FromMap("wm2_test", raw)
	require.NoError(t, err)

	assert.Equal(t, "wm2_test", ti.Name)
	assert.Equal(t, map[string]any{"channel": 36, "psk": "secret"}, ti.Default)
	assert.Equal(t, []string{"channel", "ht_mode", "radio_band", "channels"}, ti.ArgsMapping)
	assert.True(t, ti.HasInputs)
	assert.Equal(t, []any{
		[]any{6, "HT40", "24g", []any{1, 6}},
		map[string]any{"channel": 11, "ht_mode": "HT20"},
	}, ti.Inputs)
	assert.True(t, ti.ExpandPermutations)
	assert.True(t, ti.DoNotSort)
	assert.False(t, ti.InsertEncryption)
	assert.Equal(t, map[string]any{"owner": "wm"}, ti.Extra)

	require.Len(t, ti.Flags[FlagSkip], 1)
	cond := ti.Flags[FlagSkip][0]
	assert.True(t, cond.HasInputs)
	assert.True(t, cond.HasMsg)
	assert.Equal(t, "flaky", cond.Msg)
	assert.Equal(t, [][]any{{6, "HT40", "24g", []any{1, 6}}}, cond.Inputs)
}

func TestFromMapScalarsAndRanges(t *testing.T) {
	raw := rawFromYAML(t, `
args_mapping: [radio_band, tx_power]
inputs:
  - 24g
  - [5gl, {range: [1, 3]}]
ignore:
  inputs: [24g]
`)
	ti, err := FromMap("wm2_set_radio_tx_power", raw)
	require.NoError(t, err)

	assert.Equal(t, []any{
		[]any{"24g"},
		[]any{"5gl", Range{From: 1, To: 3}},
	}, ti.Inputs)
	assert.Equal(t, [][]any{{"24g"}}, ti.Flags[FlagIgnore][0].Inputs)
	assert.Equal(t, []any{1, 2, 3}, Range{From: 1, To: 3}.Values())
}

func TestFromMapWithoutArgsMappingKeepsScalars(t *testing.T) {
	ti, err := FromMap("nm2_remove_reinsert_iface", rawFromYAML(t, `
inputs:
  - "FutGen|vif-phy-interfaces"
additional_inputs:
  - "FutGen|vif-bhaul-sta-interfaces"
`))
	require.NoError(t, err)
	assert.Equal(t, []any{"FutGen|vif-phy-interfaces", "FutGen|vif-bhaul-sta-interfaces"}, ti.Inputs)
}

func TestFromMapTokenArgsAlignment(t *testing.T) {
	ti, err := FromMap("sm_survey_report", rawFromYAML(t, `
args_mapping: [ht_mode, "FutGen|sm_radio_type", channel]
inputs:
  - [HT20, "6"]
`))
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"HT20", 6}}, ti.Inputs)
}

func TestFromMapErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"singular input", "skip:\n  input: [6, HT40]\n  msg: no\n"},
		{"unknown flag key", "xfail:\n  reason: x\n"},
		{"flag inputs not a list", "skip:\n  inputs: 6\n"},
		{"default not a mapping", "default: [1]\n"},
		{"args_mapping not strings", "args_mapping: [1, 2]\n"},
		{"inputs not a list", "inputs: 5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromMap("wm2_test", rawFromYAML(t, tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestFromMapUnconditionalFlag(t *testing.T) {
	ti, err := FromMap("wm2_test", rawFromYAML(t, "skip: {msg: reason}\n"))
	require.NoError(t, err)

	assert.False(t, ti.HasInputs)
	assert.Equal(t, []FlagCondition{{Msg: "reason", HasMsg: true}}, ti.Flags[FlagSkip])
}

func TestCloneIsDeep(t *testing.T) {
	ti, err := FromMap("wm2_test", rawFromYAML(t, `
default: {a: 1}
args_mapping: [x]
inputs: [[1]]
skip: {inputs: [1]}
`))
	require.NoError(t, err)

	cp := ti.Clone()
	cp.Default["a"] = 2
	cp.Inputs[0].([]any)[0] = 9
	cp.ArgsMapping[0] = "y"
	cp.Flags[FlagSkip][0].Inputs[0][0] = 9

	assert.Equal(t, 1, ti.Default["a"])
	assert.Equal(t, 1, ti.Inputs[0].([]any)[0])
	assert.Equal(t, "x", ti.ArgsMapping[0])
	assert.Equal(t, 1, ti.Flags[FlagSkip][0].Inputs[0][0])
}

func TestValidate(t *testing.T) {
	set := Set{
		"ok":  Raw{"inputs": []any{1}},
		"bad": Raw{"skip": map[string]any{"input": 1}},
	}
	err := Validate(set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.NotContains(t, err.Error(), "ok:")
}
