package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/plume-design/fut-gen/pkg/log"
)

func newTraceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read back a generation trace file",
	}

	var (
		filter   log.Filter
		stage    string
		decision string
	)
	view := &cobra.Command{
		Use:   "view FILE",
		Short: "Print trace events in human-readable format",
		Example: `  fut-gen trace view run.ftrace
  fut-gen trace view --test wm2_set_channel --decision drop run.ftrace`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stage != "" {
				s, err := log.ParseStage(stage)
				if err != nil {
					return err
				}
				filter.Stage = &s
			}
			if decision != "" {
				d, err := log.ParseDecision(decision)
				if err != nil {
					return err
				}
				filter.Decision = &d
			}
			return RunView(args[0], filter, a.stdout)
		},
	}
	vf := view.Flags()
	vf.StringVar(&filter.RunID, "run", "", "only events of this run ID")
	vf.StringVar(&filter.Pair, "pair", "", "only events of this DUT/REF pair")
	vf.StringVar(&filter.Test, "test", "", "only events of this test")
	vf.StringVar(&filter.FilterID, "filter", "", "only drops by this compatibility filter")
	vf.StringVar(&stage, "stage", "", "only events of this stage (load, merge, generate, filter, annotate, output)")
	vf.StringVar(&decision, "decision", "", "only events with this decision (info, keep, drop, flag, modify)")

	stats := &cobra.Command{
		Use:   "stats FILE",
		Short: "Show statistics about a trace file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStats(args[0], a.stdout)
		},
	}

	cmd.AddCommand(view, stats)
	return cmd
}

// RunView prints the events of path matching filter.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [run:id] pair STAGE DECISION test
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] %s %-8s %-6s %s\n",
		ts, shortenRunID(event.RunID), event.Pair, event.Stage, event.Decision, event.Test)

	if event.Generator != "" {
		fmt.Fprintf(w, "  Generator: %s\n", event.Generator)
	}
	if event.Filter != "" {
		fmt.Fprintf(w, "  Filter: %s\n", event.Filter)
	}
	if event.Tuple != nil {
		fmt.Fprintf(w, "  Tuple: %s\n", compactJSON(event.Tuple))
	}
	if event.Params != nil {
		fmt.Fprintf(w, "  Params: %s\n", compactJSON(event.Params))
	}
	if event.Count != 0 {
		fmt.Fprintf(w, "  Count: %d\n", event.Count)
	}
	if event.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", event.Reason)
	}
	fmt.Fprintln(w)
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// Stats holds aggregate statistics about a trace file.
type Stats struct {
	TotalEvents      int
	EventsByStage    map[log.Stage]int
	EventsByDecision map[log.Decision]int
	DropsByFilter    map[string]int
	DropsByTest      map[string]int
	EntriesByTest    map[string]int
	EventsByPair     map[string]int
	Runs             map[string]bool
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats analyzes the trace file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open trace file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByStage:    make(map[log.Stage]int),
		EventsByDecision: make(map[log.Decision]int),
		DropsByFilter:    make(map[string]int),
		DropsByTest:      make(map[string]int),
		EntriesByTest:    make(map[string]int),
		EventsByPair:     make(map[string]int),
		Runs:             make(map[string]bool),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByStage[event.Stage]++
		stats.EventsByDecision[event.Decision]++
		if event.RunID != "" {
			stats.Runs[event.RunID] = true
		}
		if event.Pair != "" {
			stats.EventsByPair[event.Pair]++
		}

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		switch {
		case event.Decision == log.DecisionDrop:
			id := event.Filter
			if id == "" {
				id = event.Generator
			}
			stats.DropsByFilter[id]++
			stats.DropsByTest[event.Test]++
		case event.Stage == log.StageOutput:
			stats.EntriesByTest[event.Test] += event.Count
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== FUT Generation Trace Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Millisecond))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Runs:         %d\n", len(stats.Runs))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Stage:")
	for _, stage := range []log.Stage{log.StageLoad, log.StageMerge, log.StageGenerate, log.StageFilter, log.StageAnnotate, log.StageOutput} {
		if count := stats.EventsByStage[stage]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", stage.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Decision:")
	for _, d := range []log.Decision{log.DecisionInfo, log.DecisionKeep, log.DecisionDrop, log.DecisionFlag, log.DecisionModify} {
		if count := stats.EventsByDecision[d]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", d.String()+":", count)
		}
	}

	printCounts(w, "Events by Pair:", stats.EventsByPair)
	printCounts(w, "Drops by Filter:", stats.DropsByFilter)
	printCounts(w, "Drops by Test:", stats.DropsByTest)
	printCounts(w, "Entries by Test:", stats.EntriesByTest)
}

// printCounts prints counts sorted by decreasing count, then name.
func printCounts(w io.Writer, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, title)
	for _, name := range names {
		fmt.Fprintf(w, "  %-40s %d\n", name+":", counts[name])
	}
}
