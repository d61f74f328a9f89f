package state

import (
	"net"
	"net/netip"
	"time"

	"github.com/cilium/cilium/pkg/ip"
)

// RoutingCfg holds the knobs of the global routing computation
type RoutingCfg struct {
	// RandomEcmp picks uniformly among equal-cost candidates instead of the first one
	RandomEcmp bool `yaml:"random_ecmp,omitempty"`
	// EcmpSeed seeds the ECMP random source, 0 picks a random seed
	EcmpSeed uint64 `yaml:"ecmp_seed,omitempty"`
	// RespondToInterfaceEvents recomputes every table when an interface goes up/down or an address changes
	RespondToInterfaceEvents bool `yaml:"respond_to_interface_events,omitempty"`
	// LookupCacheTTL enables a per-table lookup cache, only used when RandomEcmp is off
	LookupCacheTTL time.Duration `yaml:"lookup_cache_ttl,omitempty"`
	// DefaultMetric is the interface cost used when a device does not set one
	DefaultMetric uint16 `yaml:"default_metric,omitempty"`
	LogPath       string `yaml:"log_path,omitempty"` // if not empty, logs are also written to this file
}

func DefaultRoutingCfg() RoutingCfg {
	return RoutingCfg{
		RespondToInterfaceEvents: true,
		DefaultMetric:            DefaultMetric,
	}
}

func toIPNets(prefixes []netip.Prefix) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(prefixes))
	for _, p := range prefixes {
		if p.IsValid() {
			nets = append(nets, &net.IPNet{
				IP:   p.Addr().AsSlice(),
				Mask: net.CIDRMask(p.Bits(), p.Addr().BitLen()),
			})
		}
	}
	return nets
}

func fromIPNets(nets []*net.IPNet) []netip.Prefix {
	output := make([]netip.Prefix, 0, len(nets))
	for _, n := range nets {
		if addr, ok := netip.AddrFromSlice(n.IP); ok {
			ones, _ := n.Mask.Size()
			output = append(output, netip.PrefixFrom(addr.Unmap(), ones))
		}
	}
	return output
}

// CoalescePrefix merges adjacent and overlapping prefixes into the smallest covering set
func CoalescePrefix(prefixes []netip.Prefix) []netip.Prefix {
	ipv4, ipv6 := ip.CoalesceCIDRs(toIPNets(prefixes))
	return fromIPNets(append(ipv4, ipv6...))
}
