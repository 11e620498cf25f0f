// Package config provides dotted-path access to nested configuration maps.
//
// A Config wraps a decoded YAML document (map[string]any) and resolves
// paths such as "interfaces.radio_channels.24g" by descending one map level
// per segment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotFound is returned by GetOrRaise when a path segment is missing.
var ErrNotFound = errors.New("key not found")

// KeyError reports the path and the segment that could not be resolved.
type KeyError struct {
	Path    string
	Segment string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key %q not found in configuration (path %q)", e.Segment, e.Path)
}

func (e *KeyError) Unwrap() error {
	return ErrNotFound
}

// Config is a dotted-path accessor over a nested map.
type Config struct {
	cfg map[string]any
}

// New wraps m. A nil map yields an empty Config.
func New(m map[string]any) *Config {
	if m == nil {
		m = make(map[string]any)
	}
	return &Config{cfg: m}
}

// Map returns the underlying map.
func (c *Config) Map() map[string]any {
	return c.cfg
}

// Get resolves path and returns the value found there.
//
// If any segment is missing the fallback is returned; the fallback defaults
// to the empty string. A non-map value found before the last segment is
// returned as a leaf. Maps, including empty ones, are always descended.
func (c *Config) Get(path string, fallback ...any) any {
	var def any = ""
	if len(fallback) > 0 {
		def = fallback[0]
	}
	v, err := c.lookup(path)
	if err != nil || v == nil {
		return def
	}
	return v
}

// GetOrRaise resolves path like Get but returns a *KeyError instead of a
// fallback when a segment is missing.
func (c *Config) GetOrRaise(path string) (any, error) {
	v, err := c.lookup(path)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, &KeyError{Path: path, Segment: lastSegment(path)}
	}
	return v, nil
}

// Has reports whether path resolves to a non-nil value.
func (c *Config) Has(path string) bool {
	v, err := c.lookup(path)
	return err == nil && v != nil
}

// Set stores value under a single top-level key.
func (c *Config) Set(key string, value any) {
	c.cfg[key] = value
}

func (c *Config) lookup(path string) (any, error) {
	segments := strings.Split(path, ".")
	var cur any = c.cfg
	for i, seg := range segments {
		m, ok := AsMap(cur)
		if !ok {
			// Non-map before the final segment terminates the descent.
			return cur, nil
		}
		v, ok := m[seg]
		if !ok {
			return nil, &KeyError{Path: path, Segment: seg}
		}
		if i == len(segments)-1 {
			return v, nil
		}
		cur = v
	}
	return cur, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// AsMap converts the map shapes produced by YAML and JSON decoders to
// map[string]any.
func AsMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// ToInt converts the numeric shapes produced by decoders, and numeric
// strings, to int.
func ToInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

// ToIntSlice converts a decoded list to []int. A scalar yields a
// one-element slice. Elements that are not numeric are reported as an error.
func ToIntSlice(v any) ([]int, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case []int:
		return l, nil
	case []any:
		out := make([]int, 0, len(l))
		for _, e := range l {
			i, ok := ToInt(e)
			if !ok {
				return nil, fmt.Errorf("value %v (%T) is not an integer", e, e)
			}
			out = append(out, i)
		}
		return out, nil
	default:
		i, ok := ToInt(v)
		if !ok {
			return nil, fmt.Errorf("value %v (%T) is not an integer list", v, v)
		}
		return []int{i}, nil
	}
}
