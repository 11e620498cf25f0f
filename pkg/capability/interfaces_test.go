package capability

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfacesByRole(t *testing.T) {
	d, err := Load("testdata", "PP603X")
	require.NoError(t, err)

	tests := []struct {
		name string
		role string
		band string
		want []Interface
	}{
		{
			name: "vif for band",
			role: "home_ap",
			band: "5gl",
			want: []Interface{{Name: "home-ap-l50", Type: IfTypeVIF}},
		},
		{
			name: "vif all bands",
			role: "backhaul_sta",
			want: []Interface{
				{Name: "bhaul-sta-24", Type: IfTypeVIF},
				{Name: "bhaul-sta-l50", Type: IfTypeVIF},
				{Name: "bhaul-sta-u50", Type: IfTypeVIF},
			},
		},
		{
			name: "vif missing band",
			role: "home_ap",
			band: "6g",
			want: nil,
		},
		{
			name: "bridge",
			role: "lan_bridge",
			want: []Interface{{Name: "br-home", Type: IfTypeBridge}},
		},
		{
			name: "eth list",
			role: "lan_interfaces",
			want: []Interface{{Name: "eth1", Type: IfTypeEth}, {Name: "eth2", Type: IfTypeEth}},
		},
		{
			name: "undeclared role",
			role: "uplink_gre",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.InterfacesByRole(tt.role, tt.band)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInterfacesByRoleErrors(t *testing.T) {
	d, err := Load("testdata", "PP603X")
	require.NoError(t, err)

	_, err = d.InterfacesByRole("kitchen_ap", "")
	assert.True(t, errors.Is(err, ErrUnknownRole))

	_, err = d.InterfacesByRole("home_ap", "60g")
	assert.Error(t, err)
}

func TestInterfaceNames(t *testing.T) {
	assert.Nil(t, InterfaceNames(""))
	assert.Equal(t, []string{"eth0"}, InterfaceNames("eth0"))
	assert.Equal(t, []string{"a", "b"}, InterfaceNames([]any{"a", "", "b"}))
	assert.Equal(t, []string{"w24", "w6", "x"},
		InterfaceNames(map[string]any{"6g": "w6", "24g": "w24", "other": "x", "5g": ""}))
}
