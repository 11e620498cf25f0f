package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Log(Event{Test: "a", Decision: DecisionKeep})
	r.Log(Event{Test: "b", Decision: DecisionDrop})
	r.Log(Event{Test: "a", Decision: DecisionDrop})

	if got := len(r.Events(Filter{})); got != 3 {
		t.Errorf("all events: got %d, want 3", got)
	}
	drop := DecisionDrop
	events := r.Events(Filter{Test: "a", Decision: &drop})
	if len(events) != 1 || events[0].Test != "a" {
		t.Errorf("filtered events: %+v", events)
	}

	r.Reset()
	if got := len(r.Events(Filter{})); got != 0 {
		t.Errorf("after reset: got %d events", got)
	}
}

func TestMultiLoggerSkipsNil(t *testing.T) {
	a, b := NewRecorder(), NewRecorder()
	m := NewMultiLogger(a, nil, b)
	m.Log(Event{Test: "x"})

	if len(a.Events(Filter{})) != 1 || len(b.Events(Filter{})) != 1 {
		t.Error("event was not delivered to every logger")
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	NewSlogAdapter(logger).Log(Event{
		Test:     "wm2_set_channel",
		Stage:    StageFilter,
		Decision: DecisionDrop,
		Filter:   "UNII4",
		Tuple:    []any{"5gu", 169, "HT20"},
	})

	out := buf.String()
	for _, want := range []string{"msg=trace", "stage=FILTER", "decision=DROP", "filter=UNII4", "test=wm2_set_channel"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNoopLogger(t *testing.T) {
	var l Logger = NoopLogger{}
	l.Log(Event{})
}
