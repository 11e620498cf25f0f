package generator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/plume-design/fut-gen/pkg/capability"
	"github.com/plume-design/fut-gen/pkg/config"
	"github.com/plume-design/fut-gen/pkg/expand"
	"github.com/plume-design/fut-gen/pkg/inputs"
)

// Interface token suffixes. A bare token resolves to if_name/if_type pairs.
const (
	suffixIfName     = "-if-name"
	suffixIfNameType = "-if-name-type"
)

// Tokens resolved inside positional inputs: the token is replaced by the
// interface of the tuple's radio_band and followed by "vif".
var bandTokens = map[string]string{
	inputs.TokenPrefix + "vif-home-ap-by-band-and-type": "home_ap",
	inputs.TokenPrefix + "bhaul-sta-by-band-and-type":   "backhaul_sta",
	inputs.TokenPrefix + "phy-if-by-band-and-type":      "phy_radio_name",
}

// Tokens used as keys of keyed inputs. The token's value names the role
// variant, e.g. "lan" or "wan".
var keyTokens = []string{
	inputs.TokenPrefix + "eth-interfaces-if-name",
	inputs.TokenPrefix + "bridge-interface-if-name-type",
	inputs.TokenPrefix + "bridge-interface-if-name",
	inputs.TokenPrefix + "vif-interfaces-if-name",
	inputs.TokenPrefix + "primary-interface-if-name-type",
	inputs.TokenPrefix + "primary-interface-if-name",
}

// nmTests are the network manager tests with interface tokens.
var nmTests = []string{
	"nm2_enable_disable_iface_network",
	"nm2_ovsdb_configure_interface_dhcpd",
	"nm2_ovsdb_ip_port_forward",
	"nm2_ovsdb_remove_reinsert_iface",
	"nm2_set_broadcast",
	"nm2_set_dns",
	"nm2_set_gateway",
	"nm2_set_inet_addr",
	"nm2_set_mtu",
	"nm2_set_nat",
	"nm2_set_netmask",
	"nm2_vlan_interface",
	"nm2_set_ip_assign_scheme",
}

// tokenRole resolves a token body (prefix and suffix removed) and an
// optional role variant to a capability role and interface type.
func tokenRole(body, variant string) (role, ifType string, err error) {
	switch body {
	case "eth-interfaces":
		return variantOr(variant, "%s_interfaces", "lan_interfaces"), capability.IfTypeEth, nil
	case "vif-phy-interfaces":
		return "phy_radio_name", capability.IfTypeVIF, nil
	case "vif-interfaces":
		// A variant names the VIF role directly, e.g. "home_ap".
		return variantOr(variant, "%s", "backhaul_sta"), capability.IfTypeVIF, nil
	case "vif-home-ap-interfaces":
		return "home_ap", capability.IfTypeVIF, nil
	case "vif-bhaul-sta-interfaces":
		return "backhaul_sta", capability.IfTypeVIF, nil
	case "vif-bhaul-ap-interfaces":
		return "backhaul_ap", capability.IfTypeVIF, nil
	case "vif-onboard-ap-interfaces":
		return "onboard_ap", capability.IfTypeVIF, nil
	case "bridge-interface":
		return variantOr(variant, "%s_bridge", "lan_bridge"), capability.IfTypeBridge, nil
	case "primary-interface":
		return variantOr(variant, "primary_%s_interface", "primary_lan_interface"), capability.IfTypeEth, nil
	}
	return "", "", fmt.Errorf("%w: unsupported interface token %q", expand.ErrConfig, inputs.TokenPrefix+body)
}

func variantOr(variant, format, fallback string) string {
	if variant == "" {
		return fallback
	}
	return fmt.Sprintf(format, variant)
}

// splitToken separates a token into its body and suffix.
func splitToken(token string) (body, suffix string) {
	body = strings.TrimPrefix(token, inputs.TokenPrefix)
	for _, s := range []string{suffixIfNameType, suffixIfName} {
		if strings.HasSuffix(body, s) {
			return strings.TrimSuffix(body, s), s
		}
	}
	return body, ""
}

// TokenResolver resolves interface tokens against the gateway.
// It is shared by the suites addressing interfaces symbolically.
type TokenResolver struct {
	base
}

// Resolve returns the gateway interfaces named by token. variant selects
// the role variant of parameterized tokens and may be empty.
func (r *TokenResolver) Resolve(token, variant string) ([]capability.Interface, error) {
	body, _ := splitToken(token)
	role, ifType, err := tokenRole(body, variant)
	if err != nil {
		return nil, err
	}
	names := capability.InterfaceNames(r.cfg.GW.Get("interfaces."+role, nil))
	out := make([]capability.Interface, len(names))
	for i, n := range names {
		out[i] = capability.Interface{Name: n, Type: ifType}
	}
	return out, nil
}

// ParseInputs replaces interface tokens in the inputs of ti:
//
//   - a token entry expands to one {if_name, if_type} set per interface,
//     or to one single-value input per name for -if-name tokens;
//   - a by-band token inside a tuple is replaced by the interface of the
//     tuple's radio_band, followed by "vif"; tuples without one are dropped;
//   - a keyed input with a token key expands per interface, keeping its
//     other keys for -if-name-type tokens.
//
// Flag blocks still match the declared token entry.
func (r *TokenResolver) ParseInputs(ti *inputs.TestInput) (*inputs.TestInput, error) {
	c := ti.Clone()
	out := make([]any, 0, len(c.Inputs))
	for _, entry := range c.Inputs {
		var (
			expanded []any
			err      error
		)
		switch v := entry.(type) {
		case string:
			expanded, err = r.tokenEntry(c, v, entry)
		case []any:
			if len(v) == 1 {
				if s, ok := v[0].(string); ok && inputs.IsToken(s) && bandTokens[s] == "" {
					expanded, err = r.tokenEntry(c, s, entry)
					break
				}
			}
			expanded, err = r.bandEntry(c, v)
		default:
			if m, ok := config.AsMap(entry); ok {
				expanded, err = r.keyedEntry(c, m)
			} else {
				expanded = []any{entry}
			}
		}
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	c.Inputs = out
	return c, nil
}

func (r *TokenResolver) tokenEntry(ti *inputs.TestInput, token string, declared any) ([]any, error) {
	if !inputs.IsToken(token) {
		return []any{declared}, nil
	}
	ifaces, err := r.Resolve(token, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ti.Name, err)
	}
	if len(ifaces) == 0 {
		r.drop(ti.Name, []any{token}, "no interface for "+token)
		return nil, nil
	}
	_, suffix := splitToken(token)
	origin := []any{token}
	out := make([]any, 0, len(ifaces))
	for _, iface := range ifaces {
		if suffix == suffixIfName {
			out = append(out, expand.Derived{Tuple: []any{iface.Name}, Origin: origin})
			continue
		}
		out = append(out, expand.Derived{
			Params: map[string]any{expand.ArgIfName: iface.Name, expand.ArgIfType: iface.Type},
			Origin: origin,
		})
	}
	return out, nil
}

func (r *TokenResolver) bandEntry(ti *inputs.TestInput, tuple []any) ([]any, error) {
	idx := slices.IndexFunc(tuple, func(v any) bool {
		s, ok := v.(string)
		return ok && bandTokens[s] != ""
	})
	if idx < 0 {
		return []any{tuple}, nil
	}
	token := tuple[idx].(string)
	band, ok := stringArg(ti, tuple, expand.ArgRadioBand)
	if !ok {
		return nil, fmt.Errorf("%w: %s: %s needs a radio_band value", expand.ErrConfig, ti.Name, token)
	}
	name, _ := r.cfg.GW.Get("interfaces."+bandTokens[token]+"."+band, nil).(string)
	if name == "" {
		r.drop(ti.Name, tuple, fmt.Sprintf("no %s interface on %s", bandTokens[token], band))
		return nil, nil
	}
	resolved := append(append(append(make([]any, 0, len(tuple)+1), tuple[:idx]...), name, capability.IfTypeVIF), tuple[idx+1:]...)
	return []any{expand.Derived{Tuple: resolved, Origin: tuple}}, nil
}

func (r *TokenResolver) keyedEntry(ti *inputs.TestInput, m map[string]any) ([]any, error) {
	token := ""
	for _, t := range keyTokens {
		if _, ok := m[t]; ok {
			token = t
			break
		}
	}
	if token == "" {
		return []any{m}, nil
	}
	variant, _ := m[token].(string)
	rest := make(map[string]any, len(m)-1)
	for k, v := range m {
		if k != token {
			rest[k] = v
		}
	}

	ifaces, err := r.Resolve(token, variant)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ti.Name, err)
	}
	if len(ifaces) == 0 {
		r.drop(ti.Name, nil, fmt.Sprintf("no interface for %s %s", token, variant))
		return nil, nil
	}
	_, suffix := splitToken(token)
	out := make([]any, 0, len(ifaces))
	for _, iface := range ifaces {
		if suffix == suffixIfName {
			out = append(out, expand.Derived{Tuple: []any{iface.Name}})
			continue
		}
		p := make(map[string]any, len(rest)+2)
		p[expand.ArgIfName] = iface.Name
		p[expand.ArgIfType] = iface.Type
		for k, v := range rest {
			p[k] = v
		}
		out = append(out, expand.Derived{Params: p})
	}
	return out, nil
}

// NM generates the network manager suite.
type NM struct {
	TokenResolver
}

// NewNM creates the NM suite.
func NewNM(cfg Config) *NM {
	return &NM{TokenResolver{base: newBase("NM", cfg)}}
}

// Name returns "NM".
func (n *NM) Name() string { return n.suite }

// Register adds the NM generators to r.
func (n *NM) Register(r *Registry) {
	for _, test := range nmTests {
		r.Register(n.suite, test, GeneratorFunc(n.Generate))
	}
}

// Generate resolves interface tokens and expands the result.
func (n *NM) Generate(ti *inputs.TestInput) ([]expand.Params, error) {
	parsed, err := n.ParseInputs(ti)
	if err != nil {
		return nil, err
	}
	return n.cfg.Expander.Expand(parsed)
}
