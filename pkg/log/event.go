package log

import (
	"fmt"
	"strings"
	"time"
)

// Event is one generation trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// RunID identifies one generation run (UUID).
	RunID string `cbor:"2,keyasint"`

	// Pair names the device pair as "<dut>/<ref>".
	Pair string `cbor:"3,keyasint,omitempty"`

	// Test is the test name the event belongs to.
	Test string `cbor:"4,keyasint,omitempty"`

	// Stage where the event was produced.
	Stage Stage `cbor:"5,keyasint"`

	// Decision taken for the entry.
	Decision Decision `cbor:"6,keyasint"`

	// Filter is the ID of the filter that produced a drop.
	Filter string `cbor:"7,keyasint,omitempty"`

	// Generator is the generator that handled the test.
	Generator string `cbor:"8,keyasint,omitempty"`

	// Tuple is the positional input the decision applies to.
	Tuple []any `cbor:"9,keyasint,omitempty"`

	// Params is the keyed parameter set the decision applies to.
	Params map[string]any `cbor:"10,keyasint,omitempty"`

	// Reason explains the decision.
	Reason string `cbor:"11,keyasint,omitempty"`

	// Count carries a size, e.g. the number of generated entries.
	Count int `cbor:"12,keyasint,omitempty"`
}

// Stage identifies the generation step that produced an event.
type Stage uint8

const (
	// StageLoad covers capability and inputs loading.
	StageLoad Stage = 0
	// StageMerge covers layer merging.
	StageMerge Stage = 1
	// StageGenerate covers generator selection and suite generators.
	StageGenerate Stage = 2
	// StageFilter covers compatibility filters.
	StageFilter Stage = 3
	// StageAnnotate covers skip/ignore/xfail annotation.
	StageAnnotate Stage = 4
	// StageOutput covers the final result of a test.
	StageOutput Stage = 5
)

var stageNames = map[Stage]string{
	StageLoad:     "LOAD",
	StageMerge:    "MERGE",
	StageGenerate: "GENERATE",
	StageFilter:   "FILTER",
	StageAnnotate: "ANNOTATE",
	StageOutput:   "OUTPUT",
}

// String returns the stage name.
func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (Stage, error) {
	for stage, name := range stageNames {
		if strings.EqualFold(name, s) {
			return stage, nil
		}
	}
	return 0, fmt.Errorf("unknown stage %q", s)
}

// Decision is the outcome recorded by an event.
type Decision uint8

const (
	// DecisionInfo records progress without a decision.
	DecisionInfo Decision = 0
	// DecisionKeep records an entry that passed.
	DecisionKeep Decision = 1
	// DecisionDrop records an entry removed from the output.
	DecisionDrop Decision = 2
	// DecisionFlag records an entry marked skip, ignore or xfail.
	DecisionFlag Decision = 3
	// DecisionModify records an entry changed in place.
	DecisionModify Decision = 4
)

var decisionNames = map[Decision]string{
	DecisionInfo:   "INFO",
	DecisionKeep:   "KEEP",
	DecisionDrop:   "DROP",
	DecisionFlag:   "FLAG",
	DecisionModify: "MODIFY",
}

// String returns the decision name.
func (d Decision) String() string {
	if name, ok := decisionNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseDecision parses a decision name, case-insensitively.
func ParseDecision(s string) (Decision, error) {
	for d, name := range decisionNames {
		if strings.EqualFold(name, s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown decision %q", s)
}
