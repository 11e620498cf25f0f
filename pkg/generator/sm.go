package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// SMRadioTypeToken in args_mapping is replaced by sm_radio_type, derived
// from each tuple's radio_band.
const SMRadioTypeToken = inputs.TokenPrefix + "sm_radio_type"

const argSMRadioType = "sm_radio_type"

var smTests = []string{
	"sm_dynamic_noise_floor",
	"sm_leaf_report",
	"sm_neighbor_report",
	"sm_survey_report",
}

// SM generates the stats manager suite.
type SM struct {
	base
}

// NewSM creates the SM suite.
func NewSM(cfg Config) *SM {
	return &SM{base: newBase("SM", cfg)}
}

// Name returns "SM".
func (s *SM) Name() string { return s.suite }

// Register adds the SM generators to r.
func (s *SM) Register(r *Registry) {
	for _, test := range smTests {
		r.Register(s.suite, test, GeneratorFunc(s.Generate))
	}
}

// Generate inserts the stats radio type and expands the result.
func (s *SM) Generate(ti *inputs.TestInput) ([]expand.Params, error) {
	parsed, err := s.ParseInputs(ti)
	if err != nil {
		return nil, err
	}
	return s.cfg.Expander.Expand(parsed)
}

// ParseInputs replaces the sm_radio_type token of args_mapping and inserts
// the radio type of every tuple at its position. Declarations without a
// channel argument or without the token are returned unchanged.
func (s *SM) ParseInputs(ti *inputs.TestInput) (*inputs.TestInput, error) {
	c := ti.Clone()
	tokenIdx := c.ArgIndex(SMRadioTypeToken)
	if tokenIdx < 0 || !c.HasArg(expand.ArgChannel) {
		return c, nil
	}

	// Tuples carry no value for the token yet.
	declared := slices.Delete(slices.Clone(c.ArgsMapping), tokenIdx, tokenIdx+1)
	bandIdx := slices.Index(declared, expand.ArgRadioBand)
	if bandIdx < 0 {
		return nil, fmt.Errorf("%w: %s: %s needs radio_band", expand.ErrConfig, c.Name, SMRadioTypeToken)
	}
	c.ArgsMapping[tokenIdx] = argSMRadioType

	for i, entry := range c.Inputs {
		tuple, ok := entry.([]any)
		if !ok || len(tuple) != len(declared) {
			continue
		}
		band, _ := tuple[bandIdx].(string)
		c.Inputs[i] = expand.Derived{Tuple: slices.Insert(slices.Clone(tuple), tokenIdx, any(SMRadioType(band))), Origin: tuple}
	}
	return c, nil
}

// SMRadioType returns the stats radio type of band: "2.4G" for 24g, the
// upper-cased band otherwise.
func SMRadioType(band string) string {
	if band == regulatory.Band24G {
		return "2.4G"
	}
	return strings.ToUpper(band)
}
