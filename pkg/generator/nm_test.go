package generator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/log"
)

func TestTokenRole(t *testing.T) {
	tests := []struct {
		body    string
		variant string
		role    string
		ifType  string
	}{
		{"eth-interfaces", "", "lan_interfaces", "eth"},
		{"eth-interfaces", "wan", "wan_interfaces", "eth"},
		{"vif-phy-interfaces", "", "phy_radio_name", "vif"},
		{"vif-interfaces", "", "backhaul_sta", "vif"},
		{"vif-interfaces", "home_ap", "home_ap", "vif"},
		{"vif-home-ap-interfaces", "", "home_ap", "vif"},
		{"vif-bhaul-sta-interfaces", "", "backhaul_sta", "vif"},
		{"vif-bhaul-ap-interfaces", "", "backhaul_ap", "vif"},
		{"vif-onboard-ap-interfaces", "", "onboard_ap", "vif"},
		{"bridge-interface", "", "lan_bridge", "bridge"},
		{"bridge-interface", "wan", "wan_bridge", "bridge"},
		{"primary-interface", "", "primary_lan_interface", "eth"},
		{"primary-interface", "wan", "primary_wan_interface", "eth"},
	}
	for _, tt := range tests {
		t.Run(tt.body+"/"+tt.variant, func(t *testing.T) {
			role, ifType, err := tokenRole(tt.body, tt.variant)
			require.NoError(t, err)
			assert.Equal(t, tt.role, role)
			assert.Equal(t, tt.ifType, ifType)
		})
	}

	_, _, err := tokenRole("wifi-interfaces", "")
	assert.ErrorIs(t, err, expand.ErrConfig)
}

func TestSplitToken(t *testing.T) {
	body, suffix := splitToken("FutGen|bridge-interface-if-name-type")
	assert.Equal(t, "bridge-interface", body)
	assert.Equal(t, "-if-name-type", suffix)

	body, suffix = splitToken("FutGen|eth-interfaces-if-name")
	assert.Equal(t, "eth-interfaces", body)
	assert.Equal(t, "-if-name", suffix)

	body, suffix = splitToken("FutGen|eth-interfaces")
	assert.Equal(t, "eth-interfaces", body)
	assert.Empty(t, suffix)
}

func TestResolve(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	nm := NewNM(f.cfg)

	got, err := nm.Resolve("FutGen|vif-home-ap-interfaces", "")
	require.NoError(t, err)
	assert.Equal(t, []capability.Interface{
		{Name: "home-ap-24", Type: "vif"},
		{Name: "home-ap-l50", Type: "vif"},
		{Name: "home-ap-u50", Type: "vif"},
	}, got)

	got, err = nm.Resolve("FutGen|vif-onboard-ap-interfaces", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNMTokenEntries(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_mtu", `
default: {mtu: 1500}
inputs:
  - FutGen|eth-interfaces
  - FutGen|bridge-interface
  - FutGen|vif-onboard-ap-interfaces
`)
	got := f.generate(t, ti)
	want := []expand.Params{
		{"if_name": "eth1", "if_type": "eth", "mtu": 1500},
		{"if_name": "eth2", "if_type": "eth", "mtu": 1500},
		{"if_name": "br-home", "if_type": "bridge", "mtu": 1500},
	}
	assert.Empty(t, cmp.Diff(want, got))

	drop := log.DecisionDrop
	events := f.trace.Events(log.Filter{Test: "nm2_set_mtu", Decision: &drop})
	require.Len(t, events, 1)
	assert.Equal(t, "NM", events[0].Generator)
}

func TestNMFlagsMatchDeclaredToken(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_netmask", `
args_mapping: [if_name, if_type]
inputs:
  - FutGen|eth-interfaces
  - [br-test, bridge]
skip:
  - inputs: [[FutGen|eth-interfaces]]
    msg: no ethernet in this testbed
`)
	got := f.generate(t, ti)
	want := []expand.Params{
		{"if_name": "eth1", "if_type": "eth", "skip": true, "skip_msg": "no ethernet in this testbed"},
		{"if_name": "eth2", "if_type": "eth", "skip": true, "skip_msg": "no ethernet in this testbed"},
		{"if_name": "br-test", "if_type": "bridge"},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestNMNameOnlyToken(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_dns", `
args_mapping: [if_name]
inputs:
  - FutGen|eth-interfaces-if-name
`)
	got := f.generate(t, ti)
	want := []expand.Params{{"if_name": "eth1"}, {"if_name": "eth2"}}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestNMBandTokens(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_vlan_interface", `
args_mapping: [radio_band, if_name, if_type, vlan_id]
inputs:
  - [24g, FutGen|vif-home-ap-by-band-and-type, 100]
  - [5gu, FutGen|bhaul-sta-by-band-and-type, 200]
  - [6g, FutGen|vif-home-ap-by-band-and-type, 300]
`)
	got := f.generate(t, ti)
	want := []expand.Params{
		{"radio_band": "24g", "if_name": "home-ap-24", "if_type": "vif", "vlan_id": 100},
		{"radio_band": "5gu", "if_name": "bhaul-sta-u50", "if_type": "vif", "vlan_id": 200},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestNMKeyedTokens(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_inet_addr", `
inputs:
  - FutGen|bridge-interface-if-name-type: wan
    inet_addr: 10.10.10.30
  - FutGen|primary-interface-if-name-type: lan
    inet_addr: 10.10.10.40
  - FutGen|primary-interface-if-name-type: wan
    inet_addr: 10.10.10.50
`)
	got := f.generate(t, ti)
	want := []expand.Params{
		{"if_name": "br-wan", "if_type": "bridge", "inet_addr": "10.10.10.30"},
		{"if_name": "eth0", "if_type": "eth", "inet_addr": "10.10.10.50"},
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestNMUnknownToken(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_gateway", `
inputs:
  - FutGen|wifi-interfaces
`)
	_, err := f.registry.Get(ti.Name).Generate(ti)
	assert.ErrorIs(t, err, expand.ErrConfig)
}

func TestNMPlainInputsPassThrough(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "nm2_set_nat", `
args_mapping: [if_name, if_type, nat]
inputs:
  - [eth0, eth, true]
`)
	got := f.generate(t, ti)
	assert.Equal(t, []expand.Params{{"if_name": "eth0", "if_type": "eth", "nat": true}}, got)
}

func TestONBRDPrimaryInterface(t *testing.T) {
	f := newFixture(t, GenTypeOptimized)
	ti := testInput(t, "onbrd_verify_dhcp_dry_run_success", `
inputs:
  - FutGen|primary-interface-if-name-type: wan
`)
	assert.Equal(t, "ONBRD", f.registry.SuiteOf(ti.Name))
	got := f.generate(t, ti)
	assert.Equal(t, []expand.Params{{"if_name": "eth0", "if_type": "eth"}}, got)
}
