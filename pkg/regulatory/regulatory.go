// Package regulatory holds the regulatory channel table used to validate
// channel, HT mode and radio band combinations per regulatory domain.
//
// The table file has the layout
//
//	US:
//	  band:
//	    24g:
//	      HT20: [1, 2, ...]
//	  dfs:
//	    5g: [52, 56, ...]
//	UNII_4:
//	  HT20: [169, 173, 177]
package regulatory

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plume-design/fut-gen/pkg/config"
)

// Radio bands in canonical order.
const (
	Band24G = "24g"
	Band5G  = "5g"
	Band5GL = "5gl"
	Band5GU = "5gu"
	Band6G  = "6g"
)

// Bands lists every supported radio band in canonical order.
var Bands = []string{Band24G, Band5G, Band5GL, Band5GU, Band6G}

// HTModes lists the channel bandwidths in increasing width.
var HTModes = []string{"HT20", "HT40", "HT80", "HT160"}

// DefaultHTMode is assumed when a parameter set carries no ht_mode.
const DefaultHTMode = "HT20"

// unii4Key is the top-level key of the UNII-4 channel table.
const unii4Key = "UNII_4"

// ErrUnknownDomain is returned when a domain is not present in the table.
var ErrUnknownDomain = errors.New("unknown regulatory domain")

// Domain is the channel table of one regulatory domain.
type Domain struct {
	// Bands maps band -> HT mode -> legal channels.
	Bands map[string]map[string][]int

	// DFS maps band -> channels requiring radar detection.
	DFS map[string][]int
}

// Table is the process-wide regulatory rule set. It is read-only after load.
type Table struct {
	domains map[string]*Domain
	unii4   map[string][]int
}

// IsBand reports whether band is a known radio band.
func IsBand(band string) bool {
	return slices.Contains(Bands, band)
}

// IsHTMode reports whether mode is a known HT mode.
func IsHTMode(mode string) bool {
	return slices.Contains(HTModes, mode)
}

// HTWidth returns the channel width in MHz of an HT mode ("HT40" -> 40).
func HTWidth(mode string) (int, bool) {
	w, ok := config.ToInt(strings.TrimPrefix(strings.ToUpper(mode), "HT"))
	if !ok || !strings.HasPrefix(strings.ToUpper(mode), "HT") {
		return 0, false
	}
	return w, true
}

// HTModesUpTo returns the HT modes whose width does not exceed maxWidth.
func HTModesUpTo(maxWidth int) []string {
	var modes []string
	for _, m := range HTModes {
		if w, _ := HTWidth(m); w <= maxWidth {
			modes = append(modes, m)
		}
	}
	return modes
}

// Load reads a regulatory table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regulatory rules %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load regulatory rules from %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes a regulatory table. Channel values are canonicalized to int.
func Parse(data []byte) (*Table, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	t := &Table{
		domains: make(map[string]*Domain),
		unii4:   make(map[string][]int),
	}
	for key, val := range raw {
		m, ok := config.AsMap(val)
		if !ok {
			return nil, fmt.Errorf("entry %q: expected mapping, got %T", key, val)
		}
		if key == unii4Key {
			modes, err := parseModes(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			t.unii4 = modes
			continue
		}
		d, err := parseDomain(m)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", key, err)
		}
		t.domains[strings.ToUpper(key)] = d
	}
	return t, nil
}

func parseDomain(m map[string]any) (*Domain, error) {
	d := &Domain{
		Bands: make(map[string]map[string][]int),
		DFS:   make(map[string][]int),
	}
	if bands, ok := config.AsMap(m["band"]); ok {
		for band, v := range bands {
			modes, ok := config.AsMap(v)
			if !ok {
				return nil, fmt.Errorf("band %s: expected mapping, got %T", band, v)
			}
			parsed, err := parseModes(modes)
			if err != nil {
				return nil, fmt.Errorf("band %s: %w", band, err)
			}
			d.Bands[strings.ToLower(band)] = parsed
		}
	}
	if dfs, ok := config.AsMap(m["dfs"]); ok {
		for band, v := range dfs {
			channels, err := config.ToIntSlice(v)
			if err != nil {
				return nil, fmt.Errorf("dfs %s: %w", band, err)
			}
			d.DFS[strings.ToLower(band)] = channels
		}
	}
	return d, nil
}

func parseModes(m map[string]any) (map[string][]int, error) {
	out := make(map[string][]int, len(m))
	for mode, v := range m {
		channels, err := config.ToIntSlice(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		out[strings.ToUpper(mode)] = channels
	}
	return out, nil
}

// Domains returns the loaded domain names, sorted.
func (t *Table) Domains() []string {
	names := make([]string, 0, len(t.domains))
	for name := range t.domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Domain returns the channel table of a domain.
func (t *Table) Domain(name string) (*Domain, error) {
	d, ok := t.domains[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, name)
	}
	return d, nil
}

// Channels returns the legal channels for a domain, band and HT mode.
func (t *Table) Channels(domain, band, htMode string) ([]int, error) {
	d, err := t.Domain(domain)
	if err != nil {
		return nil, err
	}
	modes, ok := d.Bands[strings.ToLower(band)]
	if !ok {
		return nil, fmt.Errorf("band %s not defined for domain %s", band, domain)
	}
	channels, ok := modes[strings.ToUpper(htMode)]
	if !ok {
		return nil, fmt.Errorf("HT mode %s not defined for band %s in domain %s", htMode, band, domain)
	}
	return channels, nil
}

// Validate reports whether channel is legal for band and htMode in domain.
// Unknown bands, HT modes and domains are never valid.
func (t *Table) Validate(channel int, htMode, band, domain string) bool {
	if !IsHTMode(strings.ToUpper(htMode)) || !IsBand(strings.ToLower(band)) {
		return false
	}
	channels, err := t.Channels(domain, band, htMode)
	if err != nil {
		return false
	}
	return slices.Contains(channels, channel)
}

// IsDFS reports whether channel requires radar detection in domain.
func (t *Table) IsDFS(domain, band string, channel int) bool {
	d, err := t.Domain(domain)
	if err != nil {
		return false
	}
	return slices.Contains(d.DFS[strings.ToLower(band)], channel)
}

// UNII4Channels returns the UNII-4 channels for an HT mode.
func (t *Table) UNII4Channels(htMode string) []int {
	return t.unii4[strings.ToUpper(htMode)]
}
