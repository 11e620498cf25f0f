package futgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/generator"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/log"
	"github.com/plume-design/fut-gen/pkg/merge"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// DefaultRegulatoryFile is the regulatory table below the base directory.
const DefaultRegulatoryFile = "config/rules/regulatory.yaml"

// ErrNoDUT is returned when Options.DUT is empty.
var ErrNoDUT = errors.New("device under test model is required")

// TestConfigMap maps test names to their expanded parameter sets.
type TestConfigMap map[string][]expand.Params

// Options configures a generation run.
type Options struct {
	// BaseDir is the FUT root containing config/. Defaults to ".".
	BaseDir string

	// DUT is the gateway model. Required.
	DUT string

	// REF is the leaf model. If empty, every leaf check fails.
	REF string

	// Modules restricts input files to names containing one of the entries.
	Modules []string

	// Tests restricts the output to matching test names. Entries are exact
	// names or glob patterns. Empty selects every test.
	Tests []string

	// GenType selects the input table variant and the channel maps.
	// Empty means generator.DefaultGenType.
	GenType generator.GenType

	// RegulatoryFile is the regulatory table path, relative to BaseDir
	// unless absolute. Defaults to DefaultRegulatoryFile.
	RegulatoryFile string

	// Regulatory is a preloaded table. When set, RegulatoryFile is ignored.
	Regulatory *regulatory.Table

	// RunID stamps trace events. If empty, a random UUID is used.
	RunID string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// Trace receives generation decisions. If nil, tracing is disabled.
	Trace log.Logger
}

// Validate checks the options and fills in defaults.
func (o *Options) Validate() error {
	if o.DUT == "" {
		return ErrNoDUT
	}
	if o.BaseDir == "" {
		o.BaseDir = "."
	}
	if o.GenType == "" {
		o.GenType = generator.DefaultGenType
	}
	if _, err := generator.ParseGenType(string(o.GenType)); err != nil {
		return err
	}
	if o.RegulatoryFile == "" {
		o.RegulatoryFile = DefaultRegulatoryFile
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	return nil
}

// Pair returns the "<dut>/<ref>" label of the options.
func (o *Options) Pair() string {
	return o.DUT + "/" + o.REF
}

func (o *Options) regulatoryPath() string {
	if filepath.IsAbs(o.RegulatoryFile) {
		return o.RegulatoryFile
	}
	return filepath.Join(o.BaseDir, o.RegulatoryFile)
}

// Generator is one generation run for a gateway/leaf pair.
// It is read-only after New and safe for concurrent use.
type Generator struct {
	opts     Options
	gw       *capability.Device
	leaf     *capability.Device
	table    *regulatory.Table
	layers   *inputs.Layers
	merged   inputs.Set
	selector *Selector
	expander *expand.Expander
	registry *generator.Registry
}

// New loads everything a run needs. Capability, regulatory and input
// errors abort the run.
func New(ctx context.Context, opts Options) (*Generator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	selector, err := NewSelector(opts.Tests)
	if err != nil {
		return nil, err
	}
	g := &Generator{opts: opts, selector: selector}

	if g.gw, err = capability.Load(opts.BaseDir, opts.DUT); err != nil {
		return nil, fmt.Errorf("dut %s: %w", opts.DUT, err)
	}
	if opts.REF != "" {
		if g.leaf, err = capability.Load(opts.BaseDir, opts.REF); err != nil {
			return nil, fmt.Errorf("ref %s: %w", opts.REF, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.table = opts.Regulatory
	if g.table == nil {
		if g.table, err = regulatory.Load(opts.regulatoryPath()); err != nil {
			return nil, err
		}
	}

	repo := &inputs.Repository{
		BaseDir: opts.BaseDir,
		GenType: string(opts.GenType),
		Modules: opts.Modules,
		Logger:  opts.Logger,
	}
	if g.layers, err = repo.LoadLayers(opts.DUT, g.gw.WifiVendor()); err != nil {
		return nil, err
	}
	g.merged = merge.MergeLayers(g.layers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// A nil *capability.Device must not reach the checker as a non-nil
	// interface.
	var leafCaps compat.Capabilities
	var leafDev generator.Device
	if g.leaf != nil {
		leafCaps, leafDev = g.leaf, g.leaf
	}
	g.expander = expand.New(expand.Config{
		Checker:    compat.New(g.gw, leafCaps, g.table, opts.Logger),
		Interfaces: g.gw,
		Logger:     opts.Logger,
		Trace:      opts.Trace,
		RunID:      opts.RunID,
		Pair:       opts.Pair(),
	})
	g.registry = generator.NewDefaultRegistry(generator.Config{
		Expander: g.expander,
		GW:       g.gw,
		Leaf:     leafDev,
		GenType:  opts.GenType,
		Logger:   opts.Logger,
	})

	g.expander.Emit(log.Event{
		Stage:    log.StageLoad,
		Decision: log.DecisionInfo,
		Reason:   fmt.Sprintf("gw %s (%s), leaf %s, domain %s", g.gw.Model, g.gw.Source, opts.REF, g.gw.RegulatoryDomain()),
	})
	g.expander.Emit(log.Event{
		Stage:    log.StageMerge,
		Decision: log.DecisionInfo,
		Reason:   fmt.Sprintf("generic %d, platform %d, model %d", len(g.layers.Generic), len(g.layers.Platform), len(g.layers.Model)),
		Count:    len(g.merged),
	})
	g.debug("generation run ready", "pair", opts.Pair(), "run_id", opts.RunID, "tests", len(g.merged))
	return g, nil
}

// Options returns the validated options of the run.
func (g *Generator) Options() Options { return g.opts }

// RunID returns the trace run ID.
func (g *Generator) RunID() string { return g.opts.RunID }

// GW returns the gateway capabilities.
func (g *Generator) GW() *capability.Device { return g.gw }

// Leaf returns the leaf capabilities, or nil without a REF model.
func (g *Generator) Leaf() *capability.Device { return g.leaf }

// Layers returns the unmerged input layers.
func (g *Generator) Layers() *inputs.Layers { return g.layers }

// Registry returns the generator registry.
func (g *Generator) Registry() *generator.Registry { return g.registry }

// Expander returns the expander of the run.
func (g *Generator) Expander() *expand.Expander { return g.expander }

// Merged returns the raw merged declaration of test.
func (g *Generator) Merged(test string) (inputs.Raw, bool) {
	raw, ok := g.merged[test]
	return raw, ok
}

// Tests returns the selected merged test names, sorted.
func (g *Generator) Tests() []string {
	var out []string
	for _, name := range g.merged.Names() {
		if g.selector.Match(name) {
			out = append(out, name)
		}
	}
	return out
}

// Input decodes the merged declaration of test and applies the default
// input ordering.
func (g *Generator) Input(test string) (*inputs.TestInput, error) {
	raw, ok := g.merged[test]
	if !ok {
		return nil, fmt.Errorf("%w: unknown test %q", inputs.ErrMalformed, test)
	}
	ti, err := inputs.FromMap(test, raw)
	if err != nil {
		return nil, err
	}
	expand.SortInputs(ti)
	return ti, nil
}

// Generate expands one test through its generator.
func (g *Generator) Generate(test string) ([]expand.Params, error) {
	ti, err := g.Input(test)
	if err != nil {
		return nil, err
	}
	suite := g.registry.SuiteOf(test)
	if suite == "" {
		suite = "default"
	}
	g.expander.Emit(log.Event{
		Test:      test,
		Stage:     log.StageGenerate,
		Decision:  log.DecisionInfo,
		Generator: suite,
		Reason:    "generator selected",
	})
	g.debug("generating", "test", test, "generator", suite)

	out, err := g.registry.Get(test).Generate(ti)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", test, err)
	}
	if out == nil {
		out = []expand.Params{}
	}
	return out, nil
}

// TestConfigs generates every selected test. The result is rebuilt on
// every call. The first failing test aborts the run.
func (g *Generator) TestConfigs(ctx context.Context) (TestConfigMap, error) {
	out := make(TestConfigMap)
	for _, test := range g.Tests() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		params, err := g.Generate(test)
		if err != nil {
			return nil, err
		}
		out[test] = params
	}
	return out, nil
}

// Validate decodes every merged declaration and every layer on its own,
// returning all declaration errors joined.
func (g *Generator) Validate() error {
	var errs []error
	for _, layer := range []struct {
		name string
		set  inputs.Set
	}{
		{string(inputs.LayerGeneric), g.layers.Generic},
		{string(inputs.LayerPlatform), g.layers.Platform},
		{string(inputs.LayerModel), g.layers.Model},
	} {
		if err := inputs.Validate(layer.set); err != nil {
			errs = append(errs, fmt.Errorf("%s layer: %w", layer.name, err))
		}
	}
	if err := inputs.Validate(g.merged); err != nil {
		errs = append(errs, fmt.Errorf("merged: %w", err))
	}
	return errors.Join(errs...)
}

func (g *Generator) debug(msg string, args ...any) {
	if g.opts.Logger != nil {
		g.opts.Logger.Debug(msg, args...)
	}
}
