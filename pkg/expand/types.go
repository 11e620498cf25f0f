package expand

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Well-known argument names.
const (
	ArgRadioBand  = "radio_band"
	ArgChannel    = "channel"
	ArgHTMode     = "ht_mode"
	ArgEncryption = "encryption"
	ArgIfRole     = "if_role"
	ArgIfName     = "if_name"
	ArgIfType     = "if_type"
)

// ErrConfig is wrapped by every error caused by an inconsistent declaration.
var ErrConfig = errors.New("invalid test configuration")

// Params is one expanded parameter set.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	return maps.Clone(p)
}

// FlagKey returns the output key for flag. Ignored entries are kept and
// marked ignore_collect so they can be dropped at collection time.
func FlagKey(flag inputs.Flag) string {
	if flag == inputs.FlagIgnore {
		return "ignore_collect"
	}
	return string(flag)
}

// FlagMsgKey returns the output key of the reason attached to flag.
func FlagMsgKey(flag inputs.Flag) string {
	return FlagKey(flag) + "_msg"
}

// DefaultFlagMsg is the reason used when a flag block carries no msg.
func DefaultFlagMsg(flag inputs.Flag) string {
	key := strings.ToUpper(FlagKey(flag))
	return key + ": Uncommented " + key
}

// Candidate is one positional tuple under evaluation by the filters.
type Candidate struct {
	// Test is the test name.
	Test string

	// Args is the args_mapping of the declaration.
	Args []string

	// Tuple holds the positional values. Filters may rewrite values in place.
	Tuple []any
}

// Index returns the tuple position of arg, or -1 when arg is not mapped or
// the tuple is too short.
func (c *Candidate) Index(arg string) int {
	i := slices.Index(c.Args, arg)
	if i >= len(c.Tuple) {
		return -1
	}
	return i
}

// Value returns the value mapped to arg.
func (c *Candidate) Value(arg string) (any, bool) {
	i := c.Index(arg)
	if i < 0 {
		return nil, false
	}
	return c.Tuple[i], true
}

// Set replaces the value mapped to arg.
func (c *Candidate) Set(arg string, v any) bool {
	i := c.Index(arg)
	if i < 0 {
		return false
	}
	c.Tuple[i] = v
	return true
}

// HTMode returns the HT mode of the tuple, HT20 when ht_mode is not mapped.
// ok is false for a null HT mode, which disables the HT mode checks.
func (c *Candidate) HTMode() (mode string, ok bool) {
	v, mapped := c.Value(ArgHTMode)
	if !mapped {
		return regulatory.DefaultHTMode, true
	}
	if v == nil {
		return "", false
	}
	s, isString := v.(string)
	return s, isString
}

// bandPair couples a band keyword with its channel keyword and the device
// it is checked against.
type bandPair struct {
	bandKey    string
	channelKey string
	role       capability.Role
}

// bandPairs returns the band keywords present in Args, in keyword order.
// channelKey is empty when the matching channel keyword is not mapped.
func (c *Candidate) bandPairs() []bandPair {
	var pairs []bandPair
	for i, key := range inputs.RadioBandKeys {
		if !slices.Contains(c.Args, key) {
			continue
		}
		p := bandPair{bandKey: key, role: compat.RoleForBandKey(key)}
		if slices.Contains(c.Args, inputs.ChannelKeys[i]) {
			p.channelKey = inputs.ChannelKeys[i]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

// band returns the band value of p, false when absent or null.
func (c *Candidate) band(p bandPair) (string, bool) {
	v, ok := c.Value(p.bandKey)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Derived is an input entry built by a suite generator from a declared
// token. Exactly one of Tuple and Params is set. Flag blocks are matched
// against Origin, the entry as declared.
type Derived struct {
	Tuple  []any
	Params map[string]any
	Origin []any
}

func (d Derived) item() item {
	if d.Params != nil {
		return item{keyed: d.Params, origin: d.Origin}
	}
	origin := d.Origin
	if origin == nil {
		origin = slices.Clone(d.Tuple)
	}
	return item{tuple: slices.Clone(d.Tuple), origin: origin}
}
