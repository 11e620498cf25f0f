package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plume-design/fut-gen/pkg/futgen"
)

func newValidateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every input declaration of a model without generating",
		Long: `validate loads the input layers of the device under test, decodes every
declaration of each layer and of the merged result, and reports all
malformed declarations. It exits with status 2 when any is found.`,
		Args: cobra.NoArgs,
		RunE: a.runValidate,
	}
	addPairFlags(cmd.Flags())
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, _ []string) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	if s.DUT == "" {
		return errors.New("--dut is required")
	}
	gen, err := futgen.New(cmd.Context(), s.Options(a.logger(s), nil))
	if err != nil {
		return err
	}

	if err := gen.Validate(); err != nil {
		fmt.Fprintf(a.stderr, "%s: invalid declarations:\n%v\n", s.DUT, err)
		return errValidation
	}
	layers := gen.Layers()
	fmt.Fprintf(a.stdout, "%s: OK (generic %d, platform %d, model %d, merged %d tests)\n",
		s.DUT, len(layers.Generic), len(layers.Platform), len(layers.Model), len(gen.Tests()))
	return nil
}
