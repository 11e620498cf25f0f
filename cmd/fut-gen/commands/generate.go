package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/plume-design/fut-gen/pkg/futgen"
)

// Output is the document written by the generate command.
type Output struct {
	Data any `json:"data"`
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	logger := a.logger(s)
	trace, closeTrace, err := a.tracer(s, logger)
	if err != nil {
		return err
	}
	defer closeTrace()

	opts := s.Options(logger, trace)
	var data any
	if len(s.Pairs) > 0 {
		pairs := make([]futgen.Pair, 0, len(s.Pairs))
		for _, p := range s.Pairs {
			pair, err := futgen.ParsePair(p)
			if err != nil {
				return err
			}
			pairs = append(pairs, pair)
		}
		matrix, err := futgen.GenerateMatrix(cmd.Context(), opts, pairs, s.Jobs)
		if err != nil {
			return err
		}
		data = matrix.ByLabel()
	} else {
		if s.DUT == "" || s.REF == "" {
			return errors.New("--dut and --ref are required")
		}
		gen, err := futgen.New(cmd.Context(), opts)
		if err != nil {
			return err
		}
		configs, err := gen.TestConfigs(cmd.Context())
		if err != nil {
			return err
		}
		data = configs
	}

	if s.JSON == "" {
		return writeOutput(a.stdout, data)
	}
	f, err := os.Create(s.JSON)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeOutput(f, data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("configurations written", "path", s.JSON)
	return nil
}

// writeOutput encodes data as {"data": ...} with sorted keys and a
// four-space indent.
func writeOutput(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Output{Data: data}); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
