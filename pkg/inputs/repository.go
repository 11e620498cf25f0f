package inputs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plume-design/fut-gen/pkg/config"
)

// Layer identifies an input precedence layer.
type Layer string

const (
	LayerGeneric  Layer = "generic"
	LayerPlatform Layer = "platform"
	LayerModel    Layer = "model"
)

const (
	testCaseDir  = "config/test_case"
	internalDir  = "internal"
	inputsSuffix = "_inputs"
	rootKey      = "test_inputs"
)

// Layers holds the three input layers of one generation run.
type Layers struct {
	Generic  Set
	Platform Set
	Model    Set
}

// Repository discovers and loads inputs files below a FUT base directory.
type Repository struct {
	// BaseDir is the FUT root containing config/test_case.
	BaseDir string

	// GenType selects config/test_case/generic/<GenType> when it exists.
	GenType string

	// Modules restricts loading to files whose name contains one of the
	// entries. Empty loads every file.
	Modules []string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// LoadLayers loads the generic, platform and model layers. Missing
// directories yield empty layers.
func (r *Repository) LoadLayers(model, vendor string) (*Layers, error) {
	generic, err := r.Load(LayerGeneric, "")
	if err != nil {
		return nil, err
	}
	var platform Set
	if vendor == "" {
		r.warn("missing wifi_vendor capability, skipping platform inputs")
		platform = Set{}
	} else if platform, err = r.Load(LayerPlatform, vendor); err != nil {
		return nil, err
	}
	m, err := r.Load(LayerModel, model)
	if err != nil {
		return nil, err
	}
	return &Layers{Generic: generic, Platform: platform, Model: m}, nil
}

// Load loads one layer. name is the vendor for LayerPlatform and the model
// for LayerModel.
func (r *Repository) Load(layer Layer, name string) (Set, error) {
	dirs := r.Dirs(layer, name)
	out := Set{}
	found := false
	for _, dir := range dirs {
		set, err := r.LoadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true
		for test, raw := range set {
			out[test] = raw
		}
	}
	if !found {
		r.warn("inputs directory does not exist", "layer", layer, "name", name)
	}
	return out, nil
}

// Dirs returns the candidate directories of a layer, lowest priority first.
func (r *Repository) Dirs(layer Layer, name string) []string {
	var rel []string
	switch layer {
	case LayerGeneric:
		generic := filepath.Join(testCaseDir, "generic")
		if r.GenType != "" && isDir(filepath.Join(r.BaseDir, generic, r.GenType)) {
			generic = filepath.Join(generic, r.GenType)
		}
		rel = []string{generic}
	case LayerPlatform:
		rel = []string{filepath.Join(testCaseDir, "platform", name)}
	case LayerModel:
		rel = []string{filepath.Join(testCaseDir, "model", name)}
		if alt := strings.ReplaceAll(strings.ToUpper(name), "-", "_"); alt != name {
			rel = append(rel, filepath.Join(testCaseDir, "model", alt))
		}
	}

	var dirs []string
	for _, prefix := range []string{"", internalDir} {
		for _, p := range rel {
			dirs = append(dirs, filepath.Join(r.BaseDir, prefix, p))
		}
	}
	return dirs
}

// LoadDir loads every *_inputs.yaml file in dir. Files are read in lexical
// order and later files replace earlier declarations of the same test.
func (r *Repository) LoadDir(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsInputsFile(e.Name()) || !r.selected(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	out := Set{}
	for _, f := range files {
		set, err := ParseFile(f)
		if err != nil {
			return nil, err
		}
		r.debug("loaded inputs file", "file", f, "tests", len(set))
		for test, raw := range set {
			out[test] = raw
		}
	}
	return out, nil
}

func (r *Repository) selected(filename string) bool {
	if len(r.Modules) == 0 {
		return true
	}
	for _, m := range r.Modules {
		if strings.Contains(filename, m) {
			return true
		}
	}
	return false
}

// IsInputsFile reports whether filename follows the *_inputs.yaml convention.
func IsInputsFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".yaml" && ext != ".yml" {
		return false
	}
	return strings.HasSuffix(strings.TrimSuffix(filename, filepath.Ext(filename)), inputsSuffix)
}

// ParseFile parses one inputs file.
func ParseFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	set, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: "failed to parse", Cause: err}
	}
	return set, nil
}

// Parse decodes an inputs document. The declarations are read from the
// top-level test_inputs key when present, otherwise from the document root.
func Parse(data []byte) (Set, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if root, ok := doc[rootKey]; ok {
		m, ok := config.AsMap(root)
		if !ok && root != nil {
			return nil, &LoadError{Message: fmt.Sprintf("%s must be a mapping, got %T", rootKey, root), Cause: ErrMalformed}
		}
		doc = m
	}

	set := make(Set, len(doc))
	for test, v := range doc {
		if v == nil {
			set[test] = Raw{}
			continue
		}
		m, ok := config.AsMap(v)
		if !ok {
			return nil, malformed(test, "declaration must be a mapping, got %T", v)
		}
		set[test] = Raw(m)
	}
	return set, nil
}

// Validate decodes every declaration of s and returns all errors joined.
func Validate(s Set) error {
	var errs []error
	for _, name := range s.Names() {
		if _, err := FromMap(name, s[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (r *Repository) debug(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, args...)
	}
}

func (r *Repository) warn(msg string, args ...any) {
	if r.Logger != nil {
		r.Logger.Warn(msg, args...)
	}
}
