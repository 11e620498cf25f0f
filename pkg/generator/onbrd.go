package generator

import (
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
)

// ONBRD generates the onboarding suite. It shares interface token
// resolution with NM.
type ONBRD struct {
	TokenResolver
}

// NewONBRD creates the ONBRD suite.
func NewONBRD(cfg Config) *ONBRD {
	return &ONBRD{TokenResolver{base: newBase("ONBRD", cfg)}}
}

// Name returns "ONBRD".
func (o *ONBRD) Name() string { return o.suite }

// Register adds the ONBRD generators to r.
func (o *ONBRD) Register(r *Registry) {
	r.Register(o.suite, "onbrd_verify_dhcp_dry_run_success", GeneratorFunc(o.Generate))
}

// Generate resolves interface tokens and expands the result.
func (o *ONBRD) Generate(ti *inputs.TestInput) ([]expand.Params, error) {
	parsed, err := o.ParseInputs(ti)
	if err != nil {
		return nil, err
	}
	return o.cfg.Expander.Expand(parsed)
}
