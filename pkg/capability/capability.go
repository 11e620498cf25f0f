// Package capability loads per-model device capability descriptions and
// exposes typed accessors over them.
//
// A capability file is a YAML document describing radios, channels,
// interface names and the regulatory domain of one device model. The file is
// located through the model's device configuration:
//
//	config/model/<MODEL>/device/config.yaml        -> pod_api_model
//	config/model_properties/<pod_api_model>.yaml   -> capabilities
//
// Both locations are also searched below an "internal" directory.
package capability

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Role identifies which device of a generation pair a capability set belongs to.
type Role string

const (
	RoleGateway Role = "gw"
	RoleLeaf    Role = "leaf"
)

// DefaultRegulatoryDomain is used when a device does not declare one.
const DefaultRegulatoryDomain = "US"

const (
	modelDir           = "config/model"
	modelPropertiesDir = "config/model_properties"
	internalDir        = "internal"
	deviceConfigFile   = "device/config.yaml"
	capabilitiesRoot   = "capabilities"
)

// ErrModelNotFound is returned when no configuration exists for a model.
var ErrModelNotFound = errors.New("model configuration not found")

// Device is the read-only capability set of one device model.
type Device struct {
	*config.Config

	// Model is the FUT model name (e.g. "PP603X").
	Model string

	// PodAPIModel is the name of the underlying capability description.
	PodAPIModel string

	// Source is the capability file the set was loaded from.
	Source string
}

// DeviceConfig is the subset of device/config.yaml used for generation.
type DeviceConfig struct {
	PodAPIModel string `yaml:"pod_api_model"`
}

// Load resolves and loads the capabilities of model below baseDir.
func Load(baseDir, model string) (*Device, error) {
	podAPIModel, err := resolvePodAPIModel(baseDir, model)
	if err != nil {
		return nil, err
	}

	path, ok := firstExisting(candidatePaths(baseDir, modelPropertiesDir, podAPIModel+".yaml"))
	if !ok {
		return nil, fmt.Errorf("%w: no capabilities for %s (pod_api_model %s)", ErrModelNotFound, model, podAPIModel)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse capabilities %s: %w", path, err)
	}
	d.Model = model
	d.PodAPIModel = podAPIModel
	d.Source = path
	return d, nil
}

// resolvePodAPIModel reads pod_api_model from the model's device config,
// falling back to the lower-cased model name.
func resolvePodAPIModel(baseDir, model string) (string, error) {
	fallback := strings.ToLower(model)
	path, ok := firstExisting(candidatePaths(baseDir, modelDir, filepath.Join(model, deviceConfigFile)))
	if !ok {
		return fallback, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read device config %s: %w", path, err)
	}
	var dc DeviceConfig
	if err := yaml.Unmarshal(data, &dc); err != nil {
		return "", fmt.Errorf("failed to parse device config %s: %w", path, err)
	}
	if dc.PodAPIModel == "" {
		return fallback, nil
	}
	return dc.PodAPIModel, nil
}

// ModelDir returns the configuration directory of model, or "" if none exists.
func ModelDir(baseDir, model string) string {
	for _, p := range candidatePaths(baseDir, modelDir, model) {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			return p
		}
	}
	return ""
}

func candidatePaths(baseDir, dir, name string) []string {
	return []string{
		filepath.Join(baseDir, dir, name),
		filepath.Join(baseDir, internalDir, dir, name),
	}
}

func firstExisting(paths []string) (string, bool) {
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Parse decodes a capability document. An optional top-level "capabilities"
// key is unwrapped. Channel lists and channel widths are canonicalized to int.
func Parse(data []byte) (*Device, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	if root, ok := config.AsMap(raw[capabilitiesRoot]); ok {
		raw = root
	}
	if err := canonicalize(raw); err != nil {
		return nil, err
	}
	return &Device{Config: config.New(raw)}, nil
}

// FromMap builds a Device from an already decoded map.
func FromMap(model string, m map[string]any) (*Device, error) {
	if err := canonicalize(m); err != nil {
		return nil, err
	}
	return &Device{Config: config.New(m), Model: model, PodAPIModel: strings.ToLower(model)}, nil
}

func canonicalize(raw map[string]any) error {
	ifaces, ok := config.AsMap(raw["interfaces"])
	if !ok {
		return nil
	}
	if channels, ok := config.AsMap(ifaces["radio_channels"]); ok {
		for band, v := range channels {
			if s, isStr := v.(string); isStr && s == "" {
				continue
			}
			list, err := config.ToIntSlice(v)
			if err != nil {
				return fmt.Errorf("interfaces.radio_channels.%s: %w", band, err)
			}
			channels[band] = list
		}
		ifaces["radio_channels"] = channels
	}
	if widths, ok := config.AsMap(ifaces["max_channel_width"]); ok {
		for band, v := range widths {
			if w, ok := config.ToInt(v); ok {
				widths[band] = w
			}
		}
		ifaces["max_channel_width"] = widths
	}
	raw["interfaces"] = ifaces
	return nil
}

// RegulatoryDomain returns the device's regulatory domain, upper-cased.
func (d *Device) RegulatoryDomain() string {
	s, _ := d.Get("regulatory_domain").(string)
	if s == "" {
		return DefaultRegulatoryDomain
	}
	return strings.ToUpper(s)
}

// WifiVendor returns the wifi chipset vendor, or "" if undeclared.
func (d *Device) WifiVendor() string {
	s, _ := d.Get("wifi_vendor").(string)
	return s
}

// PhyRadioName returns the physical radio interface for band.
func (d *Device) PhyRadioName(band string) string {
	s, _ := d.Get("interfaces.phy_radio_name." + band).(string)
	return s
}

// RadioChannels returns the channels declared for band. A band declared
// with an empty value has no channels.
func (d *Device) RadioChannels(band string) []int {
	channels, _ := d.Get("interfaces.radio_channels." + band).([]int)
	return channels
}

// MaxChannelWidth returns the maximum channel width of band in MHz, or 0.
func (d *Device) MaxChannelWidth(band string) int {
	w, _ := config.ToInt(d.Get("interfaces.max_channel_width." + band))
	return w
}

// HWModes returns the per-band hardware modes (e.g. "11ax").
func (d *Device) HWModes() map[string]string {
	m, ok := config.AsMap(d.Get("interfaces.radio_hw_mode"))
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for band, v := range m {
		if s, ok := v.(string); ok {
			out[band] = s
		}
	}
	return out
}

// Bands returns, in canonical order, every band with a declared channel list.
func (d *Device) Bands() []string {
	var bands []string
	for _, band := range regulatory.Bands {
		if _, ok := d.Get("interfaces.radio_channels." + band).([]int); ok {
			bands = append(bands, band)
		}
	}
	return bands
}

// SupportsChannel reports whether channel is declared for band.
func (d *Device) SupportsChannel(band string, channel int) bool {
	return slices.Contains(d.RadioChannels(band), channel)
}
