package compat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/fut-gen/pkg/capability"
)

// ---------------------------------------------------------------------------
// stubCapabilities
// ---------------------------------------------------------------------------

type stubCapabilities struct{ mock.Mock }

func (s *stubCapabilities) PhyRadioName(band string) string { return s.Called(band).String(0) }
func (s *stubCapabilities) MaxChannelWidth(band string) int { return s.Called(band).Int(0) }
func (s *stubCapabilities) RegulatoryDomain() string        { return s.Called().String(0) }
func (s *stubCapabilities) RadioChannels(band string) []int {
	ret := s.Called(band)
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).([]int)
}
func (s *stubCapabilities) HWModes() map[string]string {
	ret := s.Called()
	if ret.Get(0) == nil {
		return nil
	}
	return ret.Get(0).(map[string]string)
}

// ---------------------------------------------------------------------------
// stubRules
// ---------------------------------------------------------------------------

type stubRules struct{ mock.Mock }

func (r *stubRules) Validate(channel int, htMode, band, domain string) bool {
	return r.Called(channel, htMode, band, domain).Bool(0)
}
func (r *stubRules) UNII4Channels(htMode string) []int {
	return r.Called(htMode).Get(0).([]int)
}

func newGateway() *stubCapabilities {
	gw := &stubCapabilities{}
	gw.On("RegulatoryDomain").Return("US")
	gw.On("PhyRadioName", "24g").Return("wifi0").Maybe()
	gw.On("PhyRadioName", "5g").Return("").Maybe()
	gw.On("PhyRadioName", "5gu").Return("wifi2").Maybe()
	gw.On("RadioChannels", "24g").Return([]int{1, 6, 11}).Maybe()
	gw.On("RadioChannels", "5g").Return(nil).Maybe()
	gw.On("RadioChannels", "5gu").Return([]int{100, 149, 157, 165}).Maybe()
	gw.On("MaxChannelWidth", "24g").Return(40).Maybe()
	gw.On("MaxChannelWidth", "5g").Return(0).Maybe()
	gw.On("MaxChannelWidth", "5gu").Return(80).Maybe()
	gw.On("HWModes").Return(map[string]string{"24g": "11n", "5gu": "11ac"}).Maybe()
	return gw
}

func newRules() *stubRules {
	r := &stubRules{}
	r.On("Validate", 6, "HT40", "24g", "US").Return(true).Maybe()
	r.On("Validate", 11, "HT40", "24g", "US").Return(false).Maybe()
	r.On("Validate", mock.Anything, "HT20", mock.Anything, "US").Return(true).Maybe()
	r.On("UNII4Channels", "HT20").Return([]int{169, 173, 177}).Maybe()
	return r
}

func TestBandCompatible(t *testing.T) {
	c := New(newGateway(), nil, newRules(), nil)

	assert.True(t, c.BandCompatible("24g", capability.RoleGateway))
	assert.False(t, c.BandCompatible("5g", capability.RoleGateway))
	assert.False(t, c.BandCompatible("24g", capability.RoleLeaf))
}

func TestBandChannelCompatible(t *testing.T) {
	c := New(newGateway(), nil, newRules(), nil)

	tests := []struct {
		name    string
		band    string
		channel int
		htMode  string
		want    bool
	}{
		{"supported and legal", "24g", 6, "HT40", true},
		{"supported but illegal", "24g", 11, "HT40", false},
		{"not declared", "24g", 13, "HT20", false},
		{"band without channels", "5g", 36, "HT20", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.BandChannelCompatible(tt.band, tt.channel, capability.RoleGateway, tt.htMode))
		})
	}
}

func TestHTModeSupported(t *testing.T) {
	c := New(newGateway(), nil, newRules(), nil)

	assert.True(t, c.HTModeSupported("24g", "HT40", capability.RoleGateway))
	assert.False(t, c.HTModeSupported("24g", "HT80", capability.RoleGateway))
	assert.False(t, c.HTModeSupported("5g", "HT20", capability.RoleGateway))
	assert.False(t, c.HTModeSupported("5gu", "VHT", capability.RoleGateway))
}

func TestEncryptionCompatible(t *testing.T) {
	c := New(newGateway(), nil, newRules(), nil)
	assert.True(t, c.EncryptionCompatible("WPA2"))
	assert.False(t, c.EncryptionCompatible("WPA3"))
	for _, enc := range []string{"open", "wpa2", "WEP", ""} {
		assert.False(t, c.EncryptionCompatible(enc), enc)
	}
	assert.False(t, c.WPA3Capable())

	ax := &stubCapabilities{}
	ax.On("RegulatoryDomain").Return("EU")
	ax.On("HWModes").Return(map[string]string{"5gl": "11ax"})
	c = New(ax, nil, newRules(), nil)
	assert.True(t, c.EncryptionCompatible("WPA3"))
	assert.Equal(t, "EU", c.Domain())
}

func TestUNII4Capable(t *testing.T) {
	rules := newRules()
	gw := newGateway()
	c := New(gw, nil, rules, nil)

	ok, err := c.UNII4Capable()
	require.NoError(t, err)
	assert.False(t, ok)

	// Computed once.
	_, _ = c.UNII4Capable()
	rules.AssertNumberOfCalls(t, "UNII4Channels", 1)

	none := &stubCapabilities{}
	none.On("RegulatoryDomain").Return("US")
	none.On("PhyRadioName", mock.Anything).Return("")
	c = New(none, nil, rules, nil)
	_, err = c.UNII4Capable()
	assert.True(t, errors.Is(err, ErrNo5GBand))
}

func TestFilterSupportedChannels(t *testing.T) {
	c := New(newGateway(), nil, newRules(), nil)
	assert.Equal(t, []int{6}, c.FilterSupportedChannels([]int{6, 11, 13}, "24g", "HT40"))
	assert.Nil(t, c.FilterSupportedChannels([]int{36}, "5g", "HT20"))
	assert.Nil(t, c.FilterSupportedChannels([]int{100, 149}, "5gu", "HT160"), "wider than max_channel_width")
}

func TestRoleForBandKey(t *testing.T) {
	assert.Equal(t, capability.RoleGateway, RoleForBandKey("radio_band"))
	assert.Equal(t, capability.RoleGateway, RoleForBandKey("gw_radio_band"))
	assert.Equal(t, capability.RoleLeaf, RoleForBandKey("leaf_radio_band"))
	assert.Equal(t, capability.RoleLeaf, RoleForBandKey("l1_radio_band"))
	assert.Equal(t, capability.RoleLeaf, RoleForBandKey("l2_radio_band"))
}
