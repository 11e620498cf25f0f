package log

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("stage", event.Stage.String()),
		slog.String("decision", event.Decision.String()),
	}
	if event.Pair != "" {
		attrs = append(attrs, slog.String("pair", event.Pair))
	}
	if event.Test != "" {
		attrs = append(attrs, slog.String("test", event.Test))
	}
	if event.Generator != "" {
		attrs = append(attrs, slog.String("generator", event.Generator))
	}
	if event.Filter != "" {
		attrs = append(attrs, slog.String("filter", event.Filter))
	}
	if event.Tuple != nil {
		attrs = append(attrs, slog.String("tuple", fmt.Sprint(event.Tuple)))
	}
	if event.Params != nil {
		attrs = append(attrs, slog.Any("params", event.Params))
	}
	if event.Count != 0 {
		attrs = append(attrs, slog.Int("count", event.Count))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
