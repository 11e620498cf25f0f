package generator

import (
	"fmt"
	"slices"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/log"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// WPA3NotSupportedMsg is attached to WPA3 tests on gateways without 802.11ax.
const WPA3NotSupportedMsg = "NO-SUPPORT: Device does not support WPA3"

const (
	argGWRadioBand   = "gw_radio_band"
	argLeafRadioBand = "leaf_radio_band"
	argGWChannel     = "gw_channel"
	argLeafChannel   = "leaf_channel"
	argTxPower       = "tx_power"
	argBcnInt        = "bcn_int"
)

var beaconIntervals = []int{100, 200, 400}

// WM generates the wireless manager suite.
type WM struct {
	base
}

// NewWM creates the WM suite.
func NewWM(cfg Config) *WM {
	return &WM{base: newBase("WM", cfg)}
}

// Name returns "WM".
func (w *WM) Name() string { return w.suite }

// Register adds the WM generators to r.
func (w *WM) Register(r *Registry) {
	r.Register(w.suite, "wm2_set_bcn_int", GeneratorFunc(w.SetBcnInt))
	r.Register(w.suite, "wm2_set_channel", GeneratorFunc(w.SetChannel))
	r.Register(w.suite, "wm2_set_ht_mode", GeneratorFunc(w.SetHTMode))
	r.Register(w.suite, "wm2_ht_mode_and_channel_iteration", GeneratorFunc(w.HTModeAndChannelIteration))

	parsed := GeneratorFunc(w.parsed)
	r.Register(w.suite, "wm2_topology_change_change_parent_change_band_change_channel", parsed)
	r.Register(w.suite, "wm2_topology_change_change_parent_same_band_change_channel", parsed)

	for _, test := range []string{"wm2_connect_wpa3_client", "wm2_connect_wpa3_leaf", "wm2_create_wpa3_ap"} {
		r.Register(w.suite, test, w.requireWPA3(parsed))
	}

	r.Register(w.suite, "wm2_set_ht_mode_neg", GeneratorFunc(w.SetHTModeNeg))

	permuted := GeneratorFunc(w.permuted)
	r.Register(w.suite, "wm2_set_channel_neg", permuted)
	r.Register(w.suite, "wm2_set_ssid", permuted)
	r.Register(w.suite, "wm2_verify_wifi_security_modes", permuted)
	r.Register(w.suite, "wm2_set_radio_tx_power", GeneratorFunc(w.SetRadioTxPower))
}

// SetBcnInt iterates the representative channels of every gateway band at
// HT40 with each beacon interval.
func (w *WM) SetBcnInt(ti *inputs.TestInput) ([]expand.Params, error) {
	const htMode = "HT40"
	var params []map[string]any
	for _, band := range w.cfg.GW.Bands() {
		for _, ch := range w.representative(ti, band, htMode) {
			for _, bcn := range beaconIntervals {
				params = append(params, map[string]any{
					expand.ArgChannel:   ch,
					expand.ArgHTMode:    htMode,
					expand.ArgRadioBand: band,
					argBcnInt:           bcn,
				})
			}
		}
	}
	return w.expandKeyed(ti, params)
}

// SetChannel iterates the representative channels of every gateway band
// at HT40.
func (w *WM) SetChannel(ti *inputs.TestInput) ([]expand.Params, error) {
	const htMode = "HT40"
	var params []map[string]any
	for _, band := range w.cfg.GW.Bands() {
		for _, ch := range w.representative(ti, band, htMode) {
			params = append(params, radioParams(ch, htMode, band))
		}
	}
	return w.expandKeyed(ti, params)
}

// representative returns the gen type's channels of band usable at htMode
// on the gateway. A band narrower than htMode is recorded as a width drop.
func (w *WM) representative(ti *inputs.TestInput, band, htMode string) []int {
	if !w.checker.HTModeSupported(band, htMode, capability.RoleGateway) {
		reason := fmt.Sprintf("%s exceeds the max channel width of %s on the gw", htMode, band)
		w.debug("dropping band", "test", ti.Name, "band", band, "ht_mode", htMode, "reason", reason)
		w.cfg.Expander.Emit(log.Event{
			Test:      ti.Name,
			Stage:     log.StageFilter,
			Decision:  log.DecisionDrop,
			Generator: w.suite,
			Filter:    expand.FilterWidth,
			Params:    map[string]any{expand.ArgHTMode: htMode, expand.ArgRadioBand: band},
			Reason:    reason,
		})
		return nil
	}
	return w.checker.FilterSupportedChannels(w.cfg.genType().Channels(band), band, htMode)
}

// SetHTMode iterates every HT mode up to the band's maximum width over the
// representative channels legal for that mode.
func (w *WM) SetHTMode(ti *inputs.TestInput) ([]expand.Params, error) {
	var params []map[string]any
	for _, band := range w.cfg.GW.Bands() {
		for _, ht := range regulatory.HTModesUpTo(w.cfg.GW.MaxChannelWidth(band)) {
			for _, ch := range w.checker.FilterSupportedChannels(w.cfg.genType().Channels(band), band, ht) {
				params = append(params, radioParams(ch, ht, band))
			}
		}
	}
	return w.expandKeyed(ti, params)
}

// HTModeAndChannelIteration combines channels with every HT mode up to the
// band's maximum width. The extended type walks every declared channel, 6g
// excepted, where the suggested set is used.
func (w *WM) HTModeAndChannelIteration(ti *inputs.TestInput) ([]expand.Params, error) {
	gt := w.cfg.genType()
	var params []map[string]any
	for _, band := range w.cfg.GW.Bands() {
		channels := gt.Channels(band)
		if gt == GenTypeExtended && band != regulatory.Band6G {
			channels = w.cfg.GW.RadioChannels(band)
		}
		modes := regulatory.HTModesUpTo(w.cfg.GW.MaxChannelWidth(band))
		for _, ch := range channels {
			for _, ht := range modes {
				if len(w.checker.FilterSupportedChannels([]int{ch}, band, ht)) == 0 {
					continue
				}
				params = append(params, radioParams(ch, ht, band))
			}
		}
	}
	return w.expandKeyed(ti, params)
}

func radioParams(channel int, htMode, band string) map[string]any {
	return map[string]any{
		expand.ArgChannel:    channel,
		expand.ArgHTMode:     htMode,
		expand.ArgRadioBand:  band,
		expand.ArgEncryption: encryptionFor(band),
	}
}

// SetHTModeNeg keeps inputs whose band is narrower than 160 MHz on the
// gateway, then applies the gateway/leaf checks.
func (w *WM) SetHTModeNeg(ti *inputs.TestInput) ([]expand.Params, error) {
	idx := ti.ArgIndex(expand.ArgRadioBand)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s: radio_band is not mapped", expand.ErrConfig, ti.Name)
	}
	c := ti.Clone()
	c.Inputs = slices.DeleteFunc(c.Inputs, func(entry any) bool {
		tuple, ok := entry.([]any)
		if !ok || idx >= len(tuple) {
			return false
		}
		band, _ := tuple[idx].(string)
		width := w.cfg.GW.MaxChannelWidth(band)
		if width == 0 || width >= 160 {
			w.drop(ti.Name, tuple, fmt.Sprintf("max channel width %d of %s", width, band))
			return true
		}
		return false
	})
	return w.parsed(c)
}

// SetRadioTxPower expands the [min, max] tx_power bounds of every input
// into one input per power level.
func (w *WM) SetRadioTxPower(ti *inputs.TestInput) ([]expand.Params, error) {
	idx := ti.ArgIndex(argTxPower)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s: tx_power is not mapped", expand.ErrConfig, ti.Name)
	}
	c := ti.Clone()
	c.Inputs = make([]any, 0, len(ti.Inputs))
	for _, entry := range ti.Inputs {
		tuple, ok := entry.([]any)
		if !ok || idx >= len(tuple) {
			c.Inputs = append(c.Inputs, entry)
			continue
		}
		work := slices.Clone(tuple)
		if bounds, err := config.ToIntSlice(work[idx]); err == nil && len(bounds) == 2 {
			work[idx] = inputs.Range{From: bounds[0], To: bounds[1]}
		}
		for _, p := range expand.Permutations(work) {
			c.Inputs = append(c.Inputs, expand.Derived{Tuple: p, Origin: tuple})
		}
	}
	return w.parsed(c)
}

func (w *WM) permuted(ti *inputs.TestInput) ([]expand.Params, error) {
	c := ti.Clone()
	c.Inputs = make([]any, 0, len(ti.Inputs))
	for _, entry := range ti.Inputs {
		tuple, ok := entry.([]any)
		if !ok {
			c.Inputs = append(c.Inputs, entry)
			continue
		}
		for _, p := range expand.Permutations(tuple) {
			c.Inputs = append(c.Inputs, expand.Derived{Tuple: p, Origin: tuple})
		}
	}
	return w.parsed(c)
}

func (w *WM) parsed(ti *inputs.TestInput) ([]expand.Params, error) {
	return w.cfg.Expander.Expand(w.ParseInputs(ti))
}

// ParseInputs drops inputs whose gateway or leaf bands are missing on the
// device, and inputs whose gateway or leaf channel is not usable at HT20.
// A channel is checked against its own band keyword when mapped, else
// against radio_band.
func (w *WM) ParseInputs(ti *inputs.TestInput) *inputs.TestInput {
	c := ti.Clone()
	if c.ArgsMapping == nil {
		return c
	}
	out := make([]any, 0, len(c.Inputs))
	for _, entry := range c.Inputs {
		tuple := entryTuple(entry)
		if tuple == nil {
			out = append(out, entry)
			continue
		}
		if reason := w.rejectWM(c, tuple); reason != "" {
			w.drop(c.Name, tuple, reason)
			continue
		}
		out = append(out, entry)
	}
	c.Inputs = out
	return c
}

func (w *WM) rejectWM(ti *inputs.TestInput, tuple []any) string {
	bands := []struct {
		arg  string
		role capability.Role
	}{
		{argGWRadioBand, capability.RoleGateway},
		{argLeafRadioBand, capability.RoleLeaf},
	}
	for _, b := range bands {
		band, ok := stringArg(ti, tuple, b.arg)
		if ok && !w.checker.BandCompatible(band, b.role) {
			return fmt.Sprintf("%s %s not supported by %s", b.arg, band, b.role)
		}
	}

	channels := []struct {
		arg     string
		bandArg string
		role    capability.Role
	}{
		{argGWChannel, argGWRadioBand, capability.RoleGateway},
		{argLeafChannel, argLeafRadioBand, capability.RoleLeaf},
	}
	for _, ch := range channels {
		v, mapped := argValue(ti, tuple, ch.arg)
		if !mapped || v == nil {
			continue
		}
		channel, ok := config.ToInt(v)
		if !ok {
			continue
		}
		bandArg := ch.bandArg
		if !ti.HasArg(bandArg) {
			bandArg = expand.ArgRadioBand
		}
		band, ok := stringArg(ti, tuple, bandArg)
		if !ok {
			continue
		}
		if !w.checker.BandChannelCompatible(band, channel, ch.role, regulatory.DefaultHTMode) {
			return fmt.Sprintf("%s %d not usable on %s %s", ch.arg, channel, ch.role, band)
		}
	}
	return ""
}

// requireWPA3 replaces the output of gen with a single ignored entry when
// the gateway cannot run WPA3.
func (w *WM) requireWPA3(gen Generator) Generator {
	return GeneratorFunc(func(ti *inputs.TestInput) ([]expand.Params, error) {
		if w.checker.WPA3Capable() {
			return gen.Generate(ti)
		}
		w.warn("WPA3 is not supported on this device", "test", ti.Name)
		return w.notSupported(ti, WPA3NotSupportedMsg)
	})
}

// notSupported expands ti into one ignored parameter set carrying msg and
// the declaration defaults.
func (w *WM) notSupported(ti *inputs.TestInput, msg string) ([]expand.Params, error) {
	c := ti.Clone()
	c.ArgsMapping = nil
	c.Inputs = nil
	c.HasInputs = false
	c.Flags = map[inputs.Flag][]inputs.FlagCondition{
		inputs.FlagIgnore: {{Msg: msg, HasMsg: true}},
	}
	w.cfg.Expander.Emit(log.Event{
		Test:      ti.Name,
		Stage:     log.StageGenerate,
		Decision:  log.DecisionFlag,
		Generator: w.suite,
		Reason:    msg,
	})
	return w.cfg.Expander.Expand(c)
}

// entryTuple returns the positional values of an input entry, or nil for
// keyed entries.
func entryTuple(entry any) []any {
	switch v := entry.(type) {
	case []any:
		return v
	case expand.Derived:
		return v.Tuple
	}
	return nil
}

func argValue(ti *inputs.TestInput, tuple []any, arg string) (any, bool) {
	i := ti.ArgIndex(arg)
	if i < 0 || i >= len(tuple) {
		return nil, false
	}
	return tuple[i], true
}

// stringArg returns a non-null string value mapped to arg.
func stringArg(ti *inputs.TestInput, tuple []any, arg string) (string, bool) {
	v, ok := argValue(ti, tuple, arg)
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	return s, true
}
