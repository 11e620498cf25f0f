package log

import (
	"errors"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects trace events. Zero-valued fields match everything.
type Filter struct {
	// RunID matches a single generation run.
	RunID string

	// Pair matches the "<dut>/<ref>" device pair.
	Pair string

	// Test matches the test name exactly.
	Test string

	// Stage matches the generation stage.
	Stage *Stage

	// Decision matches the decision.
	Decision *Decision

	// FilterID matches the compatibility filter that dropped an entry.
	FilterID string
}

func (f *Filter) matches(event Event) bool {
	switch {
	case f.RunID != "" && event.RunID != f.RunID:
		return false
	case f.Pair != "" && event.Pair != f.Pair:
		return false
	case f.Test != "" && event.Test != f.Test:
		return false
	case f.Stage != nil && event.Stage != *f.Stage:
		return false
	case f.Decision != nil && event.Decision != *f.Decision:
		return false
	case f.FilterID != "" && event.Filter != f.FilterID:
		return false
	}
	return true
}

// Reader streams events from a .ftrace file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens path and reads all events.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path and reads only events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, decoder: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// All drains the reader.
func (r *Reader) All() ([]Event, error) {
	var events []Event
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
