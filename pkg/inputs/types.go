package inputs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Declaration keys of a raw test input.
const (
	KeyDefault            = "default"
	KeyArgsMapping        = "args_mapping"
	KeyInputs             = "inputs"
	KeyInput              = "input"
	KeyAdditionalInputs   = "additional_inputs"
	KeyMsg                = "msg"
	KeyExpandPermutations = "expand_permutations"
	KeyDoNotSort          = "do_not_sort"
	KeyInsertEncryption   = "insert_encryption"
	KeyRange              = "range"
)

// Flag is a collection-time marker attached to expanded parameter sets.
type Flag string

const (
	FlagSkip   Flag = "skip"
	FlagIgnore Flag = "ignore"
	FlagXfail  Flag = "xfail"
)

// Flags lists every flag in evaluation order.
var Flags = []Flag{FlagSkip, FlagIgnore, FlagXfail}

// Band and channel keywords. Each band keyword pairs with the channel
// keyword at the same index.
var (
	RadioBandKeys = []string{"radio_band", "gw_radio_band", "leaf_radio_band", "l1_radio_band", "l2_radio_band"}
	ChannelKeys   = []string{"channel", "gw_channel", "leaf_channel", "l1_channel", "l2_channel"}
)

// Plural channel list keyword.
const ChannelsKey = "channels"

// ErrMalformed is the sentinel wrapped by every declaration error.
var ErrMalformed = errors.New("malformed test input")

// Raw is one undecoded test declaration as it appears in an inputs file.
type Raw map[string]any

// Set maps test names to raw declarations for one layer.
type Set map[string]Raw

// Names returns the test names of s, sorted.
func (s Set) Names() []string {
	return sortedKeys(s)
}

// FlagCondition is one skip/ignore/xfail block.
type FlagCondition struct {
	// Inputs lists the tuples the block applies to. Nil when the block has
	// no inputs key.
	Inputs [][]any

	// HasInputs reports whether the block carried an inputs key.
	HasInputs bool

	// Msg is the reason attached to matching entries.
	Msg string

	// HasMsg reports whether the block carried a msg key.
	HasMsg bool
}

// Range is an inclusive integer range inside an input tuple, written as
// {range: [from, to]}.
type Range struct {
	From int
	To   int
}

// Values returns every integer in the range.
func (r Range) Values() []any {
	if r.To < r.From {
		return nil
	}
	out := make([]any, 0, r.To-r.From+1)
	for i := r.From; i <= r.To; i++ {
		out = append(out, i)
	}
	return out
}

// TestInput is a decoded, merged test declaration.
type TestInput struct {
	// Name is the test name.
	Name string

	// Default is merged into every expanded parameter set.
	Default map[string]any

	// ArgsMapping names the positional values of each tuple in Inputs.
	ArgsMapping []string

	// Inputs holds tuples ([]any), keyed parameter sets (map[string]any)
	// or scalars.
	Inputs []any

	// HasInputs reports whether the declaration carried an inputs key.
	HasInputs bool

	// Flags holds the skip/ignore/xfail blocks.
	Flags map[Flag][]FlagCondition

	// ExpandPermutations expands list values into a cartesian product.
	ExpandPermutations bool

	// DoNotSort keeps the expanded list in declaration order.
	DoNotSort bool

	// InsertEncryption appends an implicit encryption argument.
	InsertEncryption bool

	// Extra carries keys without generation semantics.
	Extra map[string]any
}

// HasArg reports whether name is part of ArgsMapping.
func (ti *TestInput) HasArg(name string) bool {
	return ti.ArgIndex(name) >= 0
}

// ArgIndex returns the position of name in ArgsMapping, or -1.
func (ti *TestInput) ArgIndex(name string) int {
	for i, a := range ti.ArgsMapping {
		if a == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of ti.
func (ti *TestInput) Clone() *TestInput {
	out := &TestInput{
		Name:               ti.Name,
		HasInputs:          ti.HasInputs,
		ExpandPermutations: ti.ExpandPermutations,
		DoNotSort:          ti.DoNotSort,
		InsertEncryption:   ti.InsertEncryption,
	}
	if ti.Default != nil {
		out.Default, _ = DeepCopy(ti.Default).(map[string]any)
	}
	if ti.ArgsMapping != nil {
		out.ArgsMapping = append([]string(nil), ti.ArgsMapping...)
	}
	if ti.Inputs != nil {
		out.Inputs, _ = DeepCopy(ti.Inputs).([]any)
	}
	if ti.Flags != nil {
		out.Flags = make(map[Flag][]FlagCondition, len(ti.Flags))
		for f, conds := range ti.Flags {
			cp := make([]FlagCondition, len(conds))
			for i, c := range conds {
				cp[i] = c
				if c.Inputs != nil {
					cp[i].Inputs = make([][]any, len(c.Inputs))
					for j, tuple := range c.Inputs {
						cp[i].Inputs[j], _ = DeepCopy(tuple).([]any)
					}
				}
			}
			out.Flags[f] = cp
		}
	}
	if ti.Extra != nil {
		out.Extra, _ = DeepCopy(ti.Extra).(map[string]any)
	}
	return out
}

// LoadError describes an inputs file or declaration that failed to load.
type LoadError struct {
	// File is the inputs file, if known.
	File string

	// Test is the test name, if known.
	Test string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Test != "" {
		msg = e.Test + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func malformed(test, format string, args ...any) error {
	return &LoadError{
		Test:    test,
		Message: fmt.Sprintf(format, args...),
		Cause:   ErrMalformed,
	}
}

// DeepCopy copies the maps and slices of a decoded value.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case Raw:
		out := make(Raw, len(t))
		for k, e := range t {
			out[k] = DeepCopy(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = DeepCopy(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []int:
		return append([]int(nil), t...)
	default:
		return v
	}
}

func quote(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprint(v)
}

// TokenPrefix marks symbolic values resolved by suite generators.
const TokenPrefix = "FutGen|"

// IsToken reports whether s is a generator token.
func IsToken(s string) bool {
	return strings.HasPrefix(s, TokenPrefix)
}
