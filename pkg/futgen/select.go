package futgen

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Selector matches test names against exact names and glob patterns.
// A zero Selector matches everything.
type Selector struct {
	patterns []string
	globs    []glob.Glob
}

// NewSelector compiles patterns. An empty list selects every test.
func NewSelector(patterns []string) (*Selector, error) {
	s := &Selector{}
	for _, p := range patterns {
		if p == "" {
			continue
		}
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid test pattern %q: %w", p, err)
		}
		s.patterns = append(s.patterns, p)
		s.globs = append(s.globs, g)
	}
	return s, nil
}

// Match reports whether name is selected.
func (s *Selector) Match(name string) bool {
	if s == nil || len(s.globs) == 0 {
		return true
	}
	for _, g := range s.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the compiled patterns in declaration order.
func (s *Selector) Patterns() []string {
	if s == nil {
		return nil
	}
	return s.patterns
}
