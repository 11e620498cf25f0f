package generator

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/log"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// GenType selects the size of generated iteration tables.
type GenType string

const (
	// GenTypeOptimized uses the minimal representative channel set.
	GenTypeOptimized GenType = "optimized"

	// GenTypeExtended uses the suggested channel set.
	GenTypeExtended GenType = "extended"
)

// DefaultGenType is used when no generation type is configured.
const DefaultGenType = GenTypeOptimized

// ParseGenType parses a generation type name. An empty name yields the
// default.
func ParseGenType(s string) (GenType, error) {
	switch GenType(strings.ToLower(s)) {
	case "":
		return DefaultGenType, nil
	case GenTypeOptimized:
		return GenTypeOptimized, nil
	case GenTypeExtended:
		return GenTypeExtended, nil
	}
	return "", fmt.Errorf("unknown generation type %q (expected %s or %s)", s, GenTypeOptimized, GenTypeExtended)
}

var suggestedChannels = map[string][]int{
	regulatory.Band24G: {1, 6, 11},
	regulatory.Band5G:  {44, 157},
	regulatory.Band5GL: {44, 60},
	regulatory.Band5GU: {108, 124, 140, 157},
	regulatory.Band6G:  {5, 21, 37, 53, 69, 85, 101, 117, 133, 149, 165, 181, 197, 213},
}

var minimalChannels = map[string][]int{
	regulatory.Band24G: {6},
	regulatory.Band5G:  {44, 157},
	regulatory.Band5GL: {44},
	regulatory.Band5GU: {157},
	regulatory.Band6G:  {5, 149},
}

// Channels returns the representative channels of band for g.
func (g GenType) Channels(band string) []int {
	if g == GenTypeExtended {
		return suggestedChannels[band]
	}
	return minimalChannels[band]
}

// Device is the capability view the suite generators read.
// *capability.Device implements it.
type Device interface {
	compat.Capabilities

	// Get reads a dotted capability path.
	Get(path string, fallback ...any) any

	// Bands returns every band with a declared channel list.
	Bands() []string
}

// Config configures the suite generators of one gateway/leaf pair.
type Config struct {
	// Expander expands declarations and owns the compatibility checker.
	// Required.
	Expander *expand.Expander

	// GW is the device under test. Required.
	GW Device

	// Leaf is the reference device. May be nil.
	Leaf Device

	// GenType selects the iteration tables. Defaults to DefaultGenType.
	GenType GenType

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

func (c Config) genType() GenType {
	if c.GenType == "" {
		return DefaultGenType
	}
	return c.GenType
}

// Default returns the generator used for tests without a specialized one.
func Default(e *expand.Expander) Generator {
	return GeneratorFunc(e.Expand)
}

// RegisterAllSuites registers every suite with the given registry.
func RegisterAllSuites(r *Registry, cfg Config) {
	r.RegisterSuite(NewWM(cfg))
	r.RegisterSuite(NewNM(cfg))
	r.RegisterSuite(NewSM(cfg))
	r.RegisterSuite(NewONBRD(cfg))
}

// NewDefaultRegistry creates a registry with all suites registered and the
// plain expander as fallback.
func NewDefaultRegistry(cfg Config) *Registry {
	r := NewRegistry(Default(cfg.Expander))
	RegisterAllSuites(r, cfg)
	return r
}

// base holds what every suite shares.
type base struct {
	cfg     Config
	checker *compat.Checker
	suite   string
}

func newBase(suite string, cfg Config) base {
	return base{cfg: cfg, checker: cfg.Expander.Checker(), suite: suite}
}

// expandKeyed expands prebuilt parameter sets through the expander so that
// defaults and flag blocks apply to them.
func (b *base) expandKeyed(ti *inputs.TestInput, params []map[string]any) ([]expand.Params, error) {
	w := ti.Clone()
	w.ArgsMapping = nil
	w.ExpandPermutations = false
	w.InsertEncryption = false
	w.HasInputs = true
	w.Inputs = make([]any, len(params))
	for i, p := range params {
		w.Inputs[i] = p
	}
	return b.cfg.Expander.Expand(w)
}

func (b *base) drop(test string, tuple []any, reason string) {
	b.debug("dropping input", "suite", b.suite, "test", test, "input", tuple, "reason", reason)
	b.cfg.Expander.Emit(log.Event{
		Test:      test,
		Stage:     log.StageGenerate,
		Decision:  log.DecisionDrop,
		Generator: b.suite,
		Tuple:     tuple,
		Reason:    reason,
	})
}

func (b *base) debug(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug(msg, args...)
	}
}

func (b *base) warn(msg string, args ...any) {
	if b.cfg.Logger != nil {
		b.cfg.Logger.Warn(msg, args...)
	}
}

// encryptionFor returns the encryption used for band by iteration tables.
func encryptionFor(band string) string {
	if band == regulatory.Band6G {
		return compat.EncryptionWPA3
	}
	return compat.EncryptionWPA2
}
