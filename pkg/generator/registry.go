package generator

import (
	"sort"
	"sync"

	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
)

// Generator turns one merged test declaration into parameter sets.
type Generator interface {
	Generate(ti *inputs.TestInput) ([]expand.Params, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ti *inputs.TestInput) ([]expand.Params, error)

// Generate calls f(ti).
func (f GeneratorFunc) Generate(ti *inputs.TestInput) ([]expand.Params, error) {
	return f(ti)
}

// Suite contributes the specialized generators of one test suite.
type Suite interface {
	// Name returns the suite name, e.g. "WM".
	Name() string

	// Register adds the suite's generators to r.
	Register(r *Registry)
}

type entry struct {
	suite string
	gen   Generator
}

// Registry maps test names to specialized generators. Tests without a
// specialized generator use the fallback.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]entry
	order    []string // registration order
	fallback Generator
}

// NewRegistry creates a registry with the given fallback generator.
func NewRegistry(fallback Generator) *Registry {
	return &Registry{
		entries:  make(map[string]entry),
		order:    make([]string, 0),
		fallback: fallback,
	}
}

// Register adds gen for test. A second registration for the same test
// replaces the first one and keeps its position.
func (r *Registry) Register(suite, test string, gen Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[test]; !exists {
		r.order = append(r.order, test)
	}
	r.entries[test] = entry{suite: suite, gen: gen}
}

// RegisterSuite registers every generator of s.
func (r *Registry) RegisterSuite(s Suite) {
	s.Register(r)
}

// Get returns the generator for test, or the fallback generator.
func (r *Registry) Get(test string) Generator {
	if g, ok := r.Lookup(test); ok {
		return g
	}
	return r.Fallback()
}

// Lookup returns the specialized generator for test.
func (r *Registry) Lookup(test string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[test]
	return e.gen, ok
}

// Fallback returns the generator used for tests without a specialized one.
func (r *Registry) Fallback() Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fallback
}

// SuiteOf returns the suite that registered test, or "" for the fallback.
func (r *Registry) SuiteOf(test string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[test].suite
}

// Tests returns every test with a specialized generator in registration order.
func (r *Registry) Tests() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Suites returns the names of all registered suites, sorted.
func (r *Registry) Suites() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{})
	for _, e := range r.entries {
		set[e.suite] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of specialized generators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
