// Package commands implements the fut-gen CLI commands.
package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/plume-design/fut-gen/pkg/futgen"
	"github.com/plume-design/fut-gen/pkg/generator"
	"github.com/plume-design/fut-gen/pkg/log"
)

const (
	exitSuccess      = 0
	exitCommandError = 1
	exitValidation   = 2
)

const (
	envPrefix  = "FUTGEN"
	configName = "fut-gen"
	configDir  = "$HOME/.config/fut-gen"
)

// Setting keys. Each is also the flag name.
const (
	keyBaseDir        = "base_dir"
	keyConfig         = "config"
	keyDUT            = "dut"
	keyREF            = "ref"
	keyPair           = "pair"
	keyJobs           = "jobs"
	keyJSON           = "json"
	keyModule         = "module"
	keyTest           = "test"
	keyGenType        = "gen_type"
	keyRegulatoryFile = "regulatory_file"
	keyTrace          = "trace"
	keyVerbose        = "verbose"
)

// errValidation marks failures reported with exitValidation.
var errValidation = errors.New("validation failed")

// Settings are the resolved settings of one invocation. Flags override
// FUTGEN_* environment variables, which override the config file.
type Settings struct {
	BaseDir        string
	DUT            string
	REF            string
	Pairs          []string
	Jobs           int
	JSON           string
	Modules        []string
	Tests          []string
	GenType        generator.GenType
	RegulatoryFile string
	Trace          string
	Verbose        bool
}

// Options returns the generation options for the settings.
func (s Settings) Options(logger *slog.Logger, trace log.Logger) futgen.Options {
	return futgen.Options{
		BaseDir:        s.BaseDir,
		DUT:            s.DUT,
		REF:            s.REF,
		Modules:        s.Modules,
		Tests:          s.Tests,
		GenType:        s.GenType,
		RegulatoryFile: s.RegulatoryFile,
		Logger:         logger,
		Trace:          trace,
	}
}

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer
}

// Run executes the command line and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if errors.Is(err, errValidation) {
			return exitValidation
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCommandError
	}
	return exitSuccess
}

// NewRootCommand builds the fut-gen command tree. The root command itself
// generates configurations.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "fut-gen",
		Short: "Generate FUT test configurations for a device pair",
		Long: `fut-gen merges the generic, platform and model test inputs of a device
pair and expands them into the parameter sets of every test.

The result is printed as {"data": {test: [params, ...]}} or written to
the file given with --json.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.bind,
		RunE:              a.runGenerate,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String(keyBaseDir, ".", "FUT root directory containing config/")
	pf.String(keyConfig, "", "config file (default: <base_dir>/fut-gen.yaml or "+configDir+"/fut-gen.yaml)")
	pf.StringP(keyGenType, "g", string(generator.DefaultGenType), "generation type (optimized, extended)")
	pf.String(keyRegulatoryFile, futgen.DefaultRegulatoryFile, "regulatory table, relative to base_dir")
	pf.StringSliceP(keyModule, "m", nil, "only load input files whose name contains MODULE (repeatable)")
	pf.String(keyTrace, "", "write generation decisions to a trace file")
	pf.BoolP(keyVerbose, "v", false, "enable debug logging")

	f := root.Flags()
	addPairFlags(f)
	f.StringSlice(keyPair, nil, "generate DUT/REF pairs concurrently instead of --dut/--ref (repeatable)")
	f.Int(keyJobs, 0, "maximum pairs generated at once (0 = unlimited)")
	f.StringP(keyJSON, "j", "", "write the result to a JSON file instead of stdout")
	f.StringSliceP(keyTest, "t", nil, "only output tests matching NAME or glob pattern (repeatable)")

	root.AddCommand(
		newValidateCommand(a),
		newShowCommand(a),
		newExploreCommand(a),
		newTraceCommand(a),
	)
	return root
}

func addPairFlags(f *pflag.FlagSet) {
	f.StringP(keyDUT, "d", "", "device under test (gateway) model")
	f.StringP(keyREF, "r", "", "reference (leaf) model")
}

// bind layers flags over the environment and the config file.
func (a *app) bind(cmd *cobra.Command, _ []string) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if path := a.v.GetString(keyConfig); path != "" {
		a.v.SetConfigFile(path)
	} else {
		a.v.SetConfigName(configName)
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(a.v.GetString(keyBaseDir))
		a.v.AddConfigPath(configDir)
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// settings resolves the bound settings.
func (a *app) settings() (Settings, error) {
	genType, err := generator.ParseGenType(a.v.GetString(keyGenType))
	if err != nil {
		return Settings{}, err
	}
	return Settings{
		BaseDir:        a.v.GetString(keyBaseDir),
		DUT:            a.v.GetString(keyDUT),
		REF:            a.v.GetString(keyREF),
		Pairs:          a.v.GetStringSlice(keyPair),
		Jobs:           a.v.GetInt(keyJobs),
		JSON:           a.v.GetString(keyJSON),
		Modules:        a.v.GetStringSlice(keyModule),
		Tests:          a.v.GetStringSlice(keyTest),
		GenType:        genType,
		RegulatoryFile: a.v.GetString(keyRegulatoryFile),
		Trace:          a.v.GetString(keyTrace),
		Verbose:        a.v.GetBool(keyVerbose),
	}, nil
}

// logger writes to stderr so that stdout carries only results.
func (a *app) logger(s Settings) *slog.Logger {
	level := slog.LevelWarn
	if s.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
}

// tracer returns the trace sink for the settings and a close function.
// extra loggers are added to the fan-out.
func (a *app) tracer(s Settings, logger *slog.Logger, extra ...log.Logger) (log.Logger, func() error, error) {
	sinks := extra
	closeFn := func() error { return nil }
	if s.Trace != "" {
		fl, err := log.NewFileLogger(s.Trace)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create trace file: %w", err)
		}
		sinks = append(sinks, fl)
		closeFn = fl.Close
	}
	if s.Verbose {
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}
	switch len(sinks) {
	case 0:
		return nil, closeFn, nil
	case 1:
		return sinks[0], closeFn, nil
	}
	return log.NewMultiLogger(sinks...), closeFn, nil
}
