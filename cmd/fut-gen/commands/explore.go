package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plume-design/fut-gen/pkg/futgen"
	"github.com/plume-design/fut-gen/pkg/log"
)

func newExploreCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Inspect a generation run interactively",
		Long: `explore loads a device pair once and opens a shell to list tests, print
merged declarations, expand single tests and replay the decisions that
shaped them.`,
		Args: cobra.NoArgs,
		RunE: a.runExplore,
	}
	addPairFlags(cmd.Flags())
	cmd.Flags().StringSliceP(keyTest, "t", nil, "only list tests matching NAME or glob pattern (repeatable)")
	return cmd
}

func (a *app) runExplore(cmd *cobra.Command, _ []string) error {
	s, err := a.settings()
	if err != nil {
		return err
	}
	if s.DUT == "" || s.REF == "" {
		return errors.New("--dut and --ref are required")
	}
	logger := a.logger(s)
	rec := log.NewRecorder()
	trace, closeTrace, err := a.tracer(s, logger, rec)
	if err != nil {
		return err
	}
	defer closeTrace()

	gen, err := futgen.New(cmd.Context(), s.Options(logger, trace))
	if err != nil {
		return err
	}
	rec.Reset()

	e, err := NewExplorer(gen, rec)
	if err != nil {
		return err
	}
	return e.Run(cmd.Context())
}

// Explorer is the interactive shell over one generation run.
type Explorer struct {
	gen *futgen.Generator
	rec *log.Recorder
	rl  *readline.Instance
	out io.Writer
}

// NewExplorer creates an explorer reading commands from the terminal.
// rec must be a trace sink of gen.
func NewExplorer(gen *futgen.Generator, rec *log.Recorder) (*Explorer, error) {
	e := &Explorer{gen: gen, rec: rec}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fut-gen> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    e.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	e.rl = rl
	e.out = rl.Stdout()
	return e, nil
}

// newScriptedExplorer creates an explorer without a terminal. Commands are
// passed to Exec directly.
func newScriptedExplorer(gen *futgen.Generator, rec *log.Recorder, out io.Writer) *Explorer {
	return &Explorer{gen: gen, rec: rec, out: out}
}

func (e *Explorer) completer() *readline.PrefixCompleter {
	tests := readline.PcItemDynamic(func(string) []string { return e.gen.Tests() })
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("tests"),
		readline.PcItem("suites"),
		readline.PcItem("show", tests),
		readline.PcItem("gen", tests),
		readline.PcItem("why", tests),
		readline.PcItem("get"),
		readline.PcItem("quit"),
	)
}

// Run reads commands until quit, EOF or ctx is done.
func (e *Explorer) Run(ctx context.Context) error {
	defer e.rl.Close()

	e.printHelp()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := e.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			return nil
		}
		if e.Exec(line) {
			return nil
		}
	}
}

// Exec runs one command line and reports whether the shell should exit.
func (e *Explorer) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		e.printHelp()

	case "tests", "ls":
		e.cmdTests(args)

	case "suites":
		e.cmdSuites()

	case "show", "s":
		e.cmdShow(args)

	case "gen", "g":
		e.cmdGen(args)

	case "get":
		e.cmdGet(args)

	case "why", "w":
		e.cmdWhy(args)

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(e.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (e *Explorer) printHelp() {
	opts := e.gen.Options()
	fmt.Fprintf(e.out, `
fut-gen explorer: %s, %s, run %s
  tests [pattern]         - List tests and their generator
  suites                  - List generator suites
  show <test>             - Print the merged declaration
  gen <test>              - Expand a test
  get <path> [gw|leaf]    - Read a capability (default gw)
  why <test> [decision]   - Expand a test and replay its decisions
  help                    - Show this help
  quit                    - Exit
`, opts.Pair(), opts.GenType, shortenRunID(e.gen.RunID()))
}

func (e *Explorer) cmdTests(args []string) {
	selector, err := futgen.NewSelector(args)
	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	registry := e.gen.Registry()
	n := 0
	for _, test := range e.gen.Tests() {
		if !selector.Match(test) {
			continue
		}
		suite := registry.SuiteOf(test)
		if suite == "" {
			suite = "-"
		}
		fmt.Fprintf(e.out, "  %-60s %s\n", test, suite)
		n++
	}
	fmt.Fprintf(e.out, "%d tests\n", n)
}

func (e *Explorer) cmdSuites() {
	registry := e.gen.Registry()
	counts := map[string]int{}
	for _, test := range registry.Tests() {
		counts[registry.SuiteOf(test)]++
	}
	for _, suite := range registry.Suites() {
		fmt.Fprintf(e.out, "  %-8s %d tests\n", suite, counts[suite])
	}
}

func (e *Explorer) cmdShow(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(e.out, "Usage: show <test>")
		return
	}
	raw, ok := e.gen.Merged(args[0])
	if !ok {
		fmt.Fprintf(e.out, "Unknown test: %s\n", args[0])
		return
	}
	data, err := yaml.Marshal(map[string]any(raw))
	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	fmt.Fprint(e.out, string(data))
}

func (e *Explorer) cmdGen(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(e.out, "Usage: gen <test>")
		return
	}
	params, err := e.gen.Generate(args[0])
	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	data, err := json.MarshalIndent(params, "", "    ")
	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(e.out, string(data))
	fmt.Fprintf(e.out, "%d entries\n", len(params))
}

func (e *Explorer) cmdGet(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(e.out, "Usage: get <path> [gw|leaf]")
		return
	}
	dev := e.gen.GW()
	if len(args) == 2 {
		switch args[1] {
		case "gw":
		case "leaf":
			dev = e.gen.Leaf()
		default:
			fmt.Fprintf(e.out, "Unknown device: %s (must be gw or leaf)\n", args[1])
			return
		}
	}
	if dev == nil {
		fmt.Fprintln(e.out, "No leaf device loaded")
		return
	}
	value, err := dev.GetOrRaise(args[0])
	if err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(e.out, compactJSON(value))
}

func (e *Explorer) cmdWhy(args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(e.out, "Usage: why <test> [decision]")
		return
	}
	filter := log.Filter{Test: args[0]}
	if len(args) == 2 {
		d, err := log.ParseDecision(args[1])
		if err != nil {
			fmt.Fprintf(e.out, "Error: %v\n", err)
			return
		}
		filter.Decision = &d
	}

	e.rec.Reset()
	if _, err := e.gen.Generate(args[0]); err != nil {
		fmt.Fprintf(e.out, "Error: %v\n", err)
		return
	}
	events := e.rec.Events(filter)
	for _, event := range events {
		formatEvent(e.out, event)
	}
	fmt.Fprintf(e.out, "%d events\n", len(events))
}
