// Package compat checks radio parameter combinations against device
// capabilities and the regulatory table.
//
// A Checker is built once per generation pair (gateway and leaf device) and
// shared by the expander and the suite generators.
package compat

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Encryption modes accepted by the compatibility checks.
const (
	EncryptionWPA2 = "WPA2"
	EncryptionWPA3 = "WPA3"
)

// HWMode80211AX is the hardware mode required for WPA3.
const HWMode80211AX = "11ax"

// ErrNo5GBand is returned by UNII4Capable for gateways without a 5 GHz radio.
var ErrNo5GBand = errors.New("no 5g radio band supported")

// Capabilities is the capability view the checker needs from a device.
type Capabilities interface {
	PhyRadioName(band string) string
	RadioChannels(band string) []int
	MaxChannelWidth(band string) int
	HWModes() map[string]string
	RegulatoryDomain() string
}

// Rules is the regulatory view the checker needs.
type Rules interface {
	Validate(channel int, htMode, band, domain string) bool
	UNII4Channels(htMode string) []int
}

// Checker answers compatibility questions for a gateway/leaf pair.
type Checker struct {
	devices map[capability.Role]Capabilities
	rules   Rules
	domain  string
	logger  *slog.Logger

	unii4Once sync.Once
	unii4     bool
	unii4Err  error
}

// New creates a Checker. The regulatory domain is taken from the gateway.
// leaf may be nil, in which case every leaf check fails.
func New(gw, leaf Capabilities, rules Rules, logger *slog.Logger) *Checker {
	devices := map[capability.Role]Capabilities{capability.RoleGateway: gw}
	if leaf != nil {
		devices[capability.RoleLeaf] = leaf
	}
	return &Checker{
		devices: devices,
		rules:   rules,
		domain:  gw.RegulatoryDomain(),
		logger:  logger,
	}
}

// Domain returns the regulatory domain used for validation.
func (c *Checker) Domain() string {
	return c.domain
}

// Device returns the capabilities of role, or nil.
func (c *Checker) Device(role capability.Role) Capabilities {
	return c.devices[role]
}

// BandCompatible reports whether the device has a physical radio for band.
func (c *Checker) BandCompatible(band string, role capability.Role) bool {
	d := c.devices[role]
	if d == nil {
		return false
	}
	ok := d.PhyRadioName(band) != ""
	if !ok {
		c.debug("radio band is not compatible with device", "band", band, "device", role)
	}
	return ok
}

// BandChannelCompatible reports whether the device declares channel for
// band and the combination is legal for htMode in the regulatory domain.
func (c *Checker) BandChannelCompatible(band string, channel int, role capability.Role, htMode string) bool {
	d := c.devices[role]
	if d == nil {
		return false
	}
	channels := d.RadioChannels(band)
	if len(channels) == 0 {
		return false
	}
	supported := slices.Contains(channels, channel)
	if !supported {
		c.debug("channel is not supported by device", "band", band, "channel", channel, "device", role)
	}
	legal := c.rules.Validate(channel, htMode, band, c.domain)
	if !legal {
		c.debug("invalid combination of parameters",
			"channel", channel, "ht_mode", htMode, "band", band, "domain", c.domain)
	}
	return supported && legal
}

// HTModeSupported reports whether htMode fits the band's maximum channel
// width on the device.
func (c *Checker) HTModeSupported(band, htMode string, role capability.Role) bool {
	d := c.devices[role]
	if d == nil {
		return false
	}
	maxWidth := d.MaxChannelWidth(band)
	if maxWidth == 0 {
		return false
	}
	width, ok := regulatory.HTWidth(htMode)
	if !ok {
		return false
	}
	if width > maxWidth {
		c.debug("HT mode is larger than max supported width for band",
			"ht_mode", htMode, "band", band, "max_width", maxWidth)
		return false
	}
	return true
}

// WPA3Capable reports whether any gateway radio runs 802.11ax.
func (c *Checker) WPA3Capable() bool {
	for _, mode := range c.devices[capability.RoleGateway].HWModes() {
		if mode == HWMode80211AX {
			return true
		}
	}
	return false
}

// EncryptionCompatible reports whether the gateway supports encryption.
// WPA2 is always supported and WPA3 requires 802.11ax. Any other mode is
// rejected.
func (c *Checker) EncryptionCompatible(encryption string) bool {
	switch encryption {
	case EncryptionWPA2:
		return true
	case EncryptionWPA3:
	default:
		c.debug("unknown encryption mode", "encryption", encryption)
		return false
	}
	if !c.WPA3Capable() {
		c.debug("encryption WPA3 not supported on device")
		return false
	}
	return true
}

// UNII4Capable reports whether the gateway's 5 GHz radio declares every
// UNII-4 channel. The result is computed once.
func (c *Checker) UNII4Capable() (bool, error) {
	c.unii4Once.Do(func() {
		gw := c.devices[capability.RoleGateway]
		band := ""
		for _, b := range []string{regulatory.Band5G, regulatory.Band5GU} {
			if c.BandCompatible(b, capability.RoleGateway) {
				band = b
				break
			}
		}
		if band == "" {
			c.unii4Err = ErrNo5GBand
			return
		}
		supported := gw.RadioChannels(band)
		c.unii4 = true
		for _, ch := range c.rules.UNII4Channels(regulatory.DefaultHTMode) {
			if !slices.Contains(supported, ch) {
				c.unii4 = false
				break
			}
		}
	})
	return c.unii4, c.unii4Err
}

// FilterSupportedChannels returns the channels that the gateway declares
// for band and that are legal for htMode. A band narrower than htMode
// yields none.
func (c *Checker) FilterSupportedChannels(channels []int, band, htMode string) []int {
	if !c.HTModeSupported(band, htMode, capability.RoleGateway) {
		return nil
	}
	supported := c.devices[capability.RoleGateway].RadioChannels(band)
	var out []int
	for _, ch := range channels {
		if slices.Contains(supported, ch) && c.rules.Validate(ch, htMode, band, c.domain) {
			out = append(out, ch)
		}
	}
	return out
}

// ValidateChannel reports whether the combination is legal in the domain
// regardless of device support.
func (c *Checker) ValidateChannel(channel int, htMode, band string) bool {
	return c.rules.Validate(channel, htMode, band, c.domain)
}

// RoleForBandKey returns the device checked for a band keyword: leaf for
// leaf_, l1_ and l2_ prefixed keywords, the gateway otherwise.
func RoleForBandKey(key string) capability.Role {
	for _, prefix := range []string{"leaf_", "l1_", "l2_"} {
		if strings.HasPrefix(key, prefix) {
			return capability.RoleLeaf
		}
	}
	return capability.RoleGateway
}

func (c *Checker) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
