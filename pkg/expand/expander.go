package expand

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/log"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// InterfaceResolver resolves interface roles into device interfaces.
// *capability.Device implements it.
type InterfaceResolver interface {
	InterfacesByRole(role, band string) ([]capability.Interface, error)
}

// Config configures an Expander.
type Config struct {
	// Checker answers the compatibility questions. Required.
	Checker *compat.Checker

	// Interfaces resolves if_role arguments against the gateway. If nil,
	// declarations mapping if_role fail to expand.
	Interfaces InterfaceResolver

	// Filters holds the compatibility filters. If nil, the default set
	// is used.
	Filters *FilterRegistry

	// Logger is the optional logger for debug output. If nil, logging is
	// disabled.
	Logger *slog.Logger

	// Trace receives generation decisions. If nil, tracing is disabled.
	Trace log.Logger

	// RunID and Pair are stamped on every trace event.
	RunID string
	Pair  string
}

// Expander expands test declarations for one gateway/leaf pair.
// It is safe for concurrent use once built.
type Expander struct {
	checker    *compat.Checker
	interfaces InterfaceResolver
	filters    *FilterRegistry
	annotator  Annotator
	logger     *slog.Logger
	trace      log.Logger
	runID      string
	pair       string
}

// New creates an Expander.
func New(cfg Config) *Expander {
	filters := cfg.Filters
	if filters == nil {
		filters = NewDefaultFilterRegistry()
	}
	return &Expander{
		checker:    cfg.Checker,
		interfaces: cfg.Interfaces,
		filters:    filters,
		logger:     cfg.Logger,
		trace:      cfg.Trace,
		runID:      cfg.RunID,
		pair:       cfg.Pair,
	}
}

// Checker returns the compatibility checker.
func (e *Expander) Checker() *compat.Checker {
	return e.checker
}

// Filters returns the filter registry.
func (e *Expander) Filters() *FilterRegistry {
	return e.filters
}

// DefaultGen expands in, which is either a declaration (*inputs.TestInput,
// inputs.Raw or a plain mapping) or an already built list of parameter
// sets. A list is returned unchanged.
func (e *Expander) DefaultGen(in any) ([]Params, error) {
	switch v := in.(type) {
	case nil:
		return e.Expand(&inputs.TestInput{})
	case *inputs.TestInput:
		return e.Expand(v)
	case inputs.Raw:
		return e.expandRaw(v)
	case map[string]any:
		return e.expandRaw(inputs.Raw(v))
	case []Params:
		return v, nil
	case []map[string]any:
		out := make([]Params, len(v))
		for i, m := range v {
			out[i] = Params(m)
		}
		return out, nil
	case []any:
		out := make([]Params, 0, len(v))
		for _, entry := range v {
			m, ok := config.AsMap(entry)
			if !ok {
				return nil, fmt.Errorf("%w: parameter set %v is not a mapping", ErrConfig, entry)
			}
			out = append(out, Params(m))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot expand %T", ErrConfig, in)
	}
}

func (e *Expander) expandRaw(raw inputs.Raw) ([]Params, error) {
	ti, err := inputs.FromMap("", raw)
	if err != nil {
		return nil, err
	}
	return e.Expand(ti)
}

// item is one entry moving through the expansion steps. Exactly one of
// keyed and tuple is set.
type item struct {
	keyed  map[string]any
	tuple  []any
	origin []any
}

// Expand runs the expansion steps on a copy of ti.
func (e *Expander) Expand(ti *inputs.TestInput) ([]Params, error) {
	w := ti.Clone()
	if !w.HasInputs {
		w.Inputs = []any{map[string]any{}}
	}
	unconditional := isSentinel(w.Inputs)

	items := make([]item, 0, len(w.Inputs))
	for _, entry := range w.Inputs {
		switch v := entry.(type) {
		case []any:
			items = append(items, item{tuple: v, origin: slices.Clone(v)})
		case Derived:
			items = append(items, v.item())
		default:
			if m, ok := config.AsMap(v); ok {
				items = append(items, item{keyed: m})
				continue
			}
			tuple := []any{v}
			items = append(items, item{tuple: tuple, origin: slices.Clone(tuple)})
		}
	}

	var err error
	if items, err = e.resolveRoles(w, items); err != nil {
		return nil, err
	}
	items = expandPermutations(w, items)
	insertEncryption(w, items)

	out := make([]Params, 0, len(items))
	for _, it := range items {
		if it.keyed != nil {
			cfg := Params(maps.Clone(it.keyed))
			e.annotate(w, Match{Tuple: it.origin, Origin: it.origin, Unconditional: unconditional}, cfg)
			out = append(out, cfg)
			continue
		}
		if w.ArgsMapping == nil {
			return nil, fmt.Errorf("%w: %s: positional input %v without args_mapping", ErrConfig, w.Name, it.tuple)
		}

		c := &Candidate{Test: w.Name, Args: w.ArgsMapping, Tuple: it.tuple}
		if !e.runFilters(c) {
			continue
		}
		if len(c.Tuple) != len(w.ArgsMapping) {
			return nil, fmt.Errorf("%w: %s: input %v has %d values, args_mapping %v has %d",
				ErrConfig, w.Name, c.Tuple, len(c.Tuple), w.ArgsMapping, len(w.ArgsMapping))
		}
		cfg := make(Params, len(c.Tuple))
		for i, arg := range w.ArgsMapping {
			cfg[arg] = c.Tuple[i]
		}
		e.annotate(w, Match{Tuple: c.Tuple, Origin: it.origin, Unconditional: unconditional}, cfg)
		out = append(out, cfg)
	}

	for i, cfg := range out {
		out[i] = withDefaults(w.Default, cfg)
	}

	e.emit(log.Event{
		Test:     w.Name,
		Stage:    log.StageOutput,
		Decision: log.DecisionInfo,
		Count:    len(out),
		Reason:   fmt.Sprintf("%d of %d inputs expanded", len(out), len(items)),
	})
	return out, nil
}

// runFilters applies the enabled filters in order and reports whether the
// candidate survived.
func (e *Expander) runFilters(c *Candidate) bool {
	for _, f := range e.filters.EnabledFilters() {
		v := f.Check(e.checker, c)
		switch v.Decision {
		case log.DecisionDrop:
			e.debug("dropping incompatible input", "test", c.Test, "filter", f.ID(), "input", c.Tuple, "reason", v.Reason)
			e.emit(log.Event{
				Test:     c.Test,
				Stage:    log.StageFilter,
				Decision: log.DecisionDrop,
				Filter:   f.ID(),
				Tuple:    slices.Clone(c.Tuple),
				Reason:   v.Reason,
			})
			return false
		case log.DecisionModify:
			e.emit(log.Event{
				Test:     c.Test,
				Stage:    log.StageFilter,
				Decision: log.DecisionModify,
				Filter:   f.ID(),
				Tuple:    slices.Clone(c.Tuple),
				Reason:   v.Reason,
			})
		}
	}
	return true
}

func (e *Expander) annotate(w *inputs.TestInput, m Match, cfg Params) {
	if len(w.Flags) == 0 {
		return
	}
	applied := e.annotator.Annotate(w.Flags, m, cfg)
	if len(applied) == 0 {
		return
	}
	names := make([]string, len(applied))
	for i, f := range applied {
		names[i] = FlagKey(f)
	}
	e.emit(log.Event{
		Test:     w.Name,
		Stage:    log.StageAnnotate,
		Decision: log.DecisionFlag,
		Tuple:    m.Tuple,
		Params:   maps.Clone(cfg),
		Reason:   strings.Join(names, ","),
	})
}

// resolveRoles replaces every tuple mapping if_role by one tuple per
// resolved interface, with if_name and if_type appended.
func (e *Expander) resolveRoles(w *inputs.TestInput, items []item) ([]item, error) {
	roleIdx := w.ArgIndex(ArgIfRole)
	if roleIdx < 0 {
		return items, nil
	}
	if e.interfaces == nil {
		return nil, fmt.Errorf("%w: %s: if_role needs device interfaces", ErrConfig, w.Name)
	}
	bandIdx := w.ArgIndex(ArgRadioBand)

	out := make([]item, 0, len(items))
	for _, it := range items {
		if it.keyed != nil {
			out = append(out, it)
			continue
		}
		if roleIdx >= len(it.tuple) {
			return nil, fmt.Errorf("%w: %s: input %v has no if_role value", ErrConfig, w.Name, it.tuple)
		}
		role, _ := it.tuple[roleIdx].(string)
		band := ""
		if bandIdx >= 0 && bandIdx < len(it.tuple) {
			band, _ = it.tuple[bandIdx].(string)
		}
		ifaces, err := e.interfaces.InterfacesByRole(role, band)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConfig, w.Name, err)
		}
		if len(ifaces) == 0 {
			e.emit(log.Event{
				Test:     w.Name,
				Stage:    log.StageGenerate,
				Decision: log.DecisionDrop,
				Tuple:    slices.Clone(it.tuple),
				Reason:   fmt.Sprintf("no %s interface on the gw", role),
			})
			continue
		}
		for _, iface := range ifaces {
			tuple := append(slices.Clone(it.tuple), iface.Name, iface.Type)
			out = append(out, item{tuple: tuple, origin: it.origin})
		}
	}
	if !w.HasArg(ArgIfName) && !w.HasArg(ArgIfType) {
		w.ArgsMapping = append(w.ArgsMapping, ArgIfName, ArgIfType)
	}
	return out, nil
}

// expandPermutations expands list and range values into their cartesian
// product when the declaration asks for it. Otherwise ranges are replaced
// by the list of their values.
func expandPermutations(w *inputs.TestInput, items []item) []item {
	out := make([]item, 0, len(items))
	for _, it := range items {
		if it.tuple == nil {
			out = append(out, it)
			continue
		}
		if !w.ExpandPermutations {
			for i, v := range it.tuple {
				if r, ok := v.(inputs.Range); ok {
					it.tuple[i] = r.Values()
				}
			}
			out = append(out, it)
			continue
		}
		for _, p := range Permutations(it.tuple) {
			out = append(out, item{tuple: p, origin: it.origin})
		}
	}
	return out
}

// Permutations returns the cartesian product of a tuple. List and range
// values contribute one choice per element; scalars are kept.
func Permutations(tuple []any) [][]any {
	result := [][]any{{}}
	for _, v := range tuple {
		var choices []any
		switch t := v.(type) {
		case []any:
			choices = t
		case inputs.Range:
			choices = t.Values()
		default:
			choices = []any{v}
		}
		next := make([][]any, 0, len(result)*len(choices))
		for _, prefix := range result {
			for _, choice := range choices {
				next = append(next, append(slices.Clone(prefix), choice))
			}
		}
		result = next
	}
	return result
}

// insertEncryption appends an encryption argument to declarations that map
// radio_band but not encryption: WPA3 on 6g, WPA2 elsewhere.
func insertEncryption(w *inputs.TestInput, items []item) {
	if !w.InsertEncryption || !w.HasArg(ArgRadioBand) || w.HasArg(ArgEncryption) {
		return
	}
	bandIdx := w.ArgIndex(ArgRadioBand)
	w.ArgsMapping = append(w.ArgsMapping, ArgEncryption)
	for i := range items {
		t := items[i].tuple
		if t == nil || len(t) == len(w.ArgsMapping) || bandIdx >= len(t) {
			continue
		}
		enc := compat.EncryptionWPA2
		if strings.EqualFold(fmt.Sprint(t[bandIdx]), regulatory.Band6G) {
			enc = compat.EncryptionWPA3
		}
		items[i].tuple = append(t, enc)
	}
}

// withDefaults merges cfg over defaults; generated values win.
func withDefaults(defaults map[string]any, cfg Params) Params {
	if len(defaults) == 0 {
		return cfg
	}
	out := make(Params, len(defaults)+len(cfg))
	for k, v := range defaults {
		out[k] = inputs.DeepCopy(v)
	}
	maps.Copy(out, cfg)
	return out
}

// WithDefaults merges every parameter set over defaults. Custom generators
// use it to apply declaration defaults to their own output.
func WithDefaults(defaults map[string]any, params []Params) []Params {
	out := make([]Params, len(params))
	for i, p := range params {
		out[i] = withDefaults(defaults, p)
	}
	return out
}

// Emit records a trace event stamped with the run ID and pair.
func (e *Expander) Emit(event log.Event) {
	e.emit(event)
}

func (e *Expander) emit(event log.Event) {
	if e.trace == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = e.runID
	event.Pair = e.pair
	e.trace.Log(event)
}

// Logger returns the debug logger, possibly nil.
func (e *Expander) Logger() *slog.Logger {
	return e.logger
}

func (e *Expander) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
