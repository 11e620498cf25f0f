package expand

import (
	"slices"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/compat"
	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/inputs"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Filter IDs.
const (
	FilterEncryption = "ENC"
	FilterBand       = "BAND"
	FilterWidth      = "WIDTH"
	FilterChannel    = "CHAN"
	FilterChannels   = "CHANNELS"
	FilterUNII4      = "UNII4"
)

// RegisterCompatibilityFilters registers the device and regulatory filters
// in evaluation order.
func RegisterCompatibilityFilters(r *FilterRegistry) {
	r.Register(NewEncryptionFilter())
	r.Register(NewBandFilter())
	r.Register(NewWidthFilter())
	r.Register(NewChannelFilter())
	r.Register(NewChannelListFilter())
	r.Register(NewUNII4Filter())
}

// NewDefaultFilterRegistry creates a registry with every filter registered.
func NewDefaultFilterRegistry() *FilterRegistry {
	r := NewFilterRegistry()
	RegisterCompatibilityFilters(r)
	return r
}

// EncryptionFilter drops unknown encryption modes, and WPA3 tuples on
// gateways without 802.11ax.
type EncryptionFilter struct {
	*BaseFilter
}

func NewEncryptionFilter() *EncryptionFilter {
	return &EncryptionFilter{NewBaseFilter(FilterEncryption, "encryption requires hardware support")}
}

func (f *EncryptionFilter) Check(chk *compat.Checker, c *Candidate) Verdict {
	v, ok := c.Value(ArgEncryption)
	if !ok || v == nil {
		return keep()
	}
	enc, _ := v.(string)
	if !chk.EncryptionCompatible(enc) {
		return drop("encryption %v is not supported by the gw", v)
	}
	return keep()
}

// BandFilter drops tuples whose radio band has no physical radio on the
// device the band keyword refers to.
type BandFilter struct {
	*BaseFilter
}

func NewBandFilter() *BandFilter {
	return &BandFilter{NewBaseFilter(FilterBand, "radio band present on device")}
}

func (f *BandFilter) Check(chk *compat.Checker, c *Candidate) Verdict {
	for _, p := range c.bandPairs() {
		band, ok := c.band(p)
		if !ok {
			continue
		}
		if !chk.BandCompatible(band, p.role) {
			return drop("%s %s is not available on the %s", p.bandKey, band, p.role)
		}
	}
	return keep()
}

// WidthFilter drops tuples whose HT mode is wider than the band allows.
type WidthFilter struct {
	*BaseFilter
}

func NewWidthFilter() *WidthFilter {
	return &WidthFilter{NewBaseFilter(FilterWidth, "HT mode within max channel width")}
}

func (f *WidthFilter) Check(chk *compat.Checker, c *Candidate) Verdict {
	ht, ok := c.HTMode()
	if !ok {
		return keep()
	}
	for _, p := range c.bandPairs() {
		band, ok := c.band(p)
		if !ok {
			continue
		}
		if !chk.HTModeSupported(band, ht, p.role) {
			return drop("%s exceeds the max channel width of %s on the %s", ht, band, p.role)
		}
	}
	return keep()
}

// ChannelFilter drops tuples whose channel is not declared by the device
// or is not legal for the band and HT mode in the regulatory domain.
type ChannelFilter struct {
	*BaseFilter
}

func NewChannelFilter() *ChannelFilter {
	return &ChannelFilter{NewBaseFilter(FilterChannel, "channel supported and regulatory compliant")}
}

func (f *ChannelFilter) Check(chk *compat.Checker, c *Candidate) Verdict {
	ht, ok := c.HTMode()
	if !ok {
		return keep()
	}
	for _, p := range c.bandPairs() {
		if p.channelKey == "" {
			continue
		}
		band, ok := c.band(p)
		if !ok {
			continue
		}
		v, _ := c.Value(p.channelKey)
		if v == nil {
			continue
		}
		channel, ok := config.ToInt(v)
		if !ok {
			return drop("%s %v is not a channel number", p.channelKey, v)
		}
		if !chk.BandChannelCompatible(band, channel, p.role, ht) {
			return drop("channel %d %s %s is not supported on the %s in %s",
				channel, ht, band, p.role, chk.Domain())
		}
	}
	return keep()
}

// ChannelListFilter narrows a channels list to the channels the gateway
// supports. The tuple is never dropped.
type ChannelListFilter struct {
	*BaseFilter
}

func NewChannelListFilter() *ChannelListFilter {
	return &ChannelListFilter{NewBaseFilter(FilterChannels, "channel list narrowed to supported channels")}
}

func (f *ChannelListFilter) Check(chk *compat.Checker, c *Candidate) Verdict {
	list, ok := c.Value(inputs.ChannelsKey)
	if !ok {
		return keep()
	}
	channels, ok := list.([]any)
	if !ok {
		return keep()
	}
	bandValue, ok := c.Value(ArgRadioBand)
	band, isString := bandValue.(string)
	if !ok || !isString {
		return keep()
	}
	ht, ok := c.HTMode()
	if !ok {
		return keep()
	}

	kept := make([]any, 0, len(channels))
	for _, v := range channels {
		ch, ok := config.ToInt(v)
		if ok &&
			chk.BandChannelCompatible(band, ch, capability.RoleGateway, ht) &&
			chk.HTModeSupported(band, ht, capability.RoleGateway) {
			kept = append(kept, ch)
		}
	}
	if len(kept) == len(channels) {
		return keep()
	}
	c.Set(inputs.ChannelsKey, kept)
	return modified("kept %d of %d channels for %s %s", len(kept), len(channels), band, ht)
}

// Channels removed on gateways without UNII-4 support.
var (
	unii4Channels   = []int{169, 173, 177, 181}
	unii4HT20Only   = 165
	unii4NoHT160    = []int{149, 153, 157, 161}
	unii4Bands      = []string{regulatory.Band5G, regulatory.Band5GU}
	unii4WidestMode = "HT160"
)

// UNII4Filter drops channel combinations overlapping UNII-4 on gateways
// whose 5 GHz radio does not declare every UNII-4 channel.
type UNII4Filter struct {
	*BaseFilter
}

func NewUNII4Filter() *UNII4Filter {
	return &UNII4Filter{NewBaseFilter(FilterUNII4, "UNII-4 channels require gw support")}
}

func (f *UNII4Filter) Check(chk *compat.Checker, c *Candidate) Verdict {
	pairs := c.bandPairs()
	if len(pairs) == 0 {
		return keep()
	}
	ht, ok := c.HTMode()
	if !ok {
		return keep()
	}
	// A gateway without a 5 GHz radio loses these tuples to BandFilter.
	if capable, err := chk.UNII4Capable(); err != nil || capable {
		return keep()
	}
	for _, p := range pairs {
		if p.channelKey == "" {
			continue
		}
		band, ok := c.band(p)
		if !ok || !slices.Contains(unii4Bands, band) {
			continue
		}
		v, _ := c.Value(p.channelKey)
		channel, ok := config.ToInt(v)
		if v == nil || !ok {
			continue
		}
		if unii4Excluded(channel, ht) {
			return drop("channel %d %s overlaps UNII-4, not supported by the gw", channel, ht)
		}
	}
	return keep()
}

func unii4Excluded(channel int, ht string) bool {
	switch {
	case slices.Contains(unii4Channels, channel):
		return true
	case channel == unii4HT20Only:
		return ht != regulatory.DefaultHTMode
	case slices.Contains(unii4NoHT160, channel):
		return ht == unii4WidestMode
	}
	return false
}
