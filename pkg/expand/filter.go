package expand

import (
	"fmt"
	"sync"

	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/log"
)

// Filter is a compatibility check applied to every candidate tuple.
type Filter interface {
	// ID returns the unique identifier for this filter (e.g., "CHAN").
	ID() string
	// Name returns a human-readable name for the filter.
	Name() string
	// Check evaluates the candidate. A filter may rewrite tuple values in
	// place and report that with DecisionModify.
	Check(chk *compat.Checker, c *Candidate) Verdict
}

// Verdict is the outcome of one filter check.
type Verdict struct {
	// Decision is DecisionKeep, DecisionDrop or DecisionModify.
	Decision log.Decision

	// Reason explains a drop or modification.
	Reason string
}

// Dropped reports whether the candidate must be removed.
func (v Verdict) Dropped() bool {
	return v.Decision == log.DecisionDrop
}

func keep() Verdict {
	return Verdict{Decision: log.DecisionKeep}
}

func drop(format string, args ...any) Verdict {
	return Verdict{Decision: log.DecisionDrop, Reason: fmt.Sprintf(format, args...)}
}

func modified(format string, args ...any) Verdict {
	return Verdict{Decision: log.DecisionModify, Reason: fmt.Sprintf(format, args...)}
}

// BaseFilter provides the ID and Name methods of a Filter.
type BaseFilter struct {
	id   string
	name string
}

// NewBaseFilter creates a BaseFilter.
func NewBaseFilter(id, name string) *BaseFilter {
	return &BaseFilter{id: id, name: name}
}

// ID returns the filter ID.
func (f *BaseFilter) ID() string { return f.id }

// Name returns the filter name.
func (f *BaseFilter) Name() string { return f.name }

// FilterRegistry holds the filters run by an Expander, in registration order.
type FilterRegistry struct {
	mu      sync.RWMutex
	filters map[string]Filter
	enabled map[string]bool
	order   []string
}

// NewFilterRegistry creates an empty registry.
func NewFilterRegistry() *FilterRegistry {
	return &FilterRegistry{
		filters: make(map[string]Filter),
		enabled: make(map[string]bool),
	}
}

// Register adds or replaces a filter. The filter is enabled.
// A replaced filter keeps its original position.
func (r *FilterRegistry) Register(f Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := f.ID()
	if _, exists := r.filters[id]; !exists {
		r.order = append(r.order, id)
	}
	r.filters[id] = f
	r.enabled[id] = true
}

// Enable enables a filter by ID.
func (r *FilterRegistry) Enable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.filters[id]; ok {
		r.enabled[id] = true
	}
}

// Disable disables a filter by ID.
func (r *FilterRegistry) Disable(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.filters[id]; ok {
		r.enabled[id] = false
	}
}

// IsEnabled returns true if the filter is registered and enabled.
func (r *FilterRegistry) IsEnabled(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[id]
}

// Get returns a filter by ID, or nil.
func (r *FilterRegistry) Get(id string) Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filters[id]
}

// EnabledFilters returns the enabled filters in registration order.
func (r *FilterRegistry) EnabledFilters() []Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Filter
	for _, id := range r.order {
		if r.enabled[id] {
			out = append(out, r.filters[id])
		}
	}
	return out
}

// AllFilters returns every registered filter in registration order.
func (r *FilterRegistry) AllFilters() []Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Filter, len(r.order))
	for i, id := range r.order {
		out[i] = r.filters[id]
	}
	return out
}

// Count returns the number of registered filters.
func (r *FilterRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.filters)
}
