package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plume-design/fut-gen/pkg/capability"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

func newShowCommand(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show MODEL [PATH]",
		Short: "Print a model's capabilities",
		Long: `show prints the capability set of MODEL, or the subtree at the dotted
PATH (e.g. interfaces.radio_channels.5gl).`,
		Example: `  fut-gen show PP603X
  fut-gen show PP603X interfaces.max_channel_width --format json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShow(args, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "output format (yaml, json)")
	return cmd
}

func (a *app) runShow(args []string, format string) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	dev, err := capability.Load(s.BaseDir, args[0])
	if err != nil {
		return err
	}

	var value any = dev.Map()
	if len(args) == 2 {
		if value, err = dev.GetOrRaise(args[1]); err != nil {
			return err
		}
	}

	switch format {
	case formatYAML:
		data, err := yaml.Marshal(value)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "# %s (%s)\n%s", dev.Model, dev.Source, data)
	case formatJSON:
		data, err := json.MarshalIndent(value, "", "    ")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
	return nil
}
