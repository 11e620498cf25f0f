package capability

import (
	"errors"
	"fmt"
	"sort"

	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/regulatory"
)

// Interface types.
const (
	IfTypeVIF    = "vif"
	IfTypeGRE    = "gre"
	IfTypeBridge = "bridge"
	IfTypeEth    = "eth"
)

// ErrUnknownRole is returned for interface roles not known to the resolver.
var ErrUnknownRole = errors.New("invalid interface role")

// Interface is one resolved interface name with its type.
type Interface struct {
	Name string
	Type string
}

var roleTypes = map[string]string{
	"aux_1_ap":              IfTypeVIF,
	"aux_2_ap":              IfTypeVIF,
	"cportal_ap":            IfTypeVIF,
	"fhaul_ap":              IfTypeVIF,
	"haahs_ap":              IfTypeVIF,
	"home_ap":               IfTypeVIF,
	"backhaul_ap":           IfTypeVIF,
	"onboard_ap":            IfTypeVIF,
	"backhaul_sta":          IfTypeVIF,
	"uplink_gre":            IfTypeGRE,
	"lan_bridge":            IfTypeBridge,
	"wan_bridge":            IfTypeBridge,
	"lan_interfaces":        IfTypeEth,
	"wan_interfaces":        IfTypeEth,
	"management_interface":  IfTypeEth,
	"ppp_wan_interface":     IfTypeEth,
	"primary_lan_interface": IfTypeEth,
	"primary_wan_interface": IfTypeEth,
}

// RoleType returns the interface type of an interface role.
func RoleType(role string) (string, error) {
	t, ok := roleTypes[role]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, role)
	}
	return t, nil
}

// InterfacesByRole resolves an interface role to interface names.
//
// For VIF roles the capability value is a band -> name mapping; band selects
// one entry, and an empty band selects every non-empty entry in canonical
// band order. A nil result means the device has no interface for the role.
func (d *Device) InterfacesByRole(role, band string) ([]Interface, error) {
	ifType, err := RoleType(role)
	if err != nil {
		return nil, err
	}

	value := d.Get("interfaces."+role, nil)
	var names []string
	if m, ok := config.AsMap(value); ok && ifType == IfTypeVIF {
		switch {
		case band == "":
			names = mapValues(m)
		case regulatory.IsBand(band):
			if s, ok := m[band].(string); ok && s != "" {
				names = []string{s}
			}
		default:
			return nil, fmt.Errorf("unsupported radio_band: %s", band)
		}
	} else {
		names = InterfaceNames(value)
	}
	if len(names) == 0 {
		return nil, nil
	}

	out := make([]Interface, 0, len(names))
	for _, n := range names {
		out = append(out, Interface{Name: n, Type: ifType})
	}
	return out, nil
}

// InterfaceNames flattens a capability value into a list of names. Strings
// become one name, lists keep their order, and mappings yield their non-empty
// values in canonical band order followed by the remaining keys sorted.
func InterfaceNames(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	if m, ok := config.AsMap(value); ok {
		return mapValues(m)
	}
	return nil
}

func mapValues(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for _, b := range regulatory.Bands {
		if _, ok := m[b]; ok {
			keys = append(keys, b)
		}
	}
	var rest []string
	for k := range m {
		if !regulatory.IsBand(k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	keys = append(keys, rest...)

	var out []string
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
