package core

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/netip"
	"slices"
	"strings"

	"github.com/encodeous/gospf/perf"
	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
	"github.com/gaissmai/bart"
	"github.com/jellydator/ttlcache/v3"
)

type lookupKey struct {
	dst netip.Addr
	oif int
}

// RoutingTable is the per-node forwarding table filled by the route manager.
// Routes are enumerated host routes first, then network routes, then
// external routes.
type RoutingTable struct {
	node      string
	view      topo.View
	cfg       *state.RoutingCfg
	rng       *rand.Rand
	log       *slog.Logger
	hosts     []state.RouteEntry
	networks  []state.RouteEntry
	externals []state.RouteEntry
	// netIndex maps each network to its entries in networks, nil when stale
	netIndex *bart.Table[[]int]
	cache    *ttlcache.Cache[lookupKey, state.Route]
}

func NewRoutingTable(node string, view topo.View, cfg *state.RoutingCfg, rng *rand.Rand, log *slog.Logger) *RoutingTable {
	t := &RoutingTable{
		node: node,
		view: view,
		cfg:  cfg,
		rng:  rng,
		log:  log,
	}
	if cfg.LookupCacheTTL > 0 && !cfg.RandomEcmp {
		t.cache = ttlcache.New[lookupKey, state.Route](
			ttlcache.WithTTL[lookupKey, state.Route](cfg.LookupCacheTTL),
			ttlcache.WithDisableTouchOnHit[lookupKey, state.Route](),
		)
	}
	return t
}

func (t *RoutingTable) Node() string {
	return t.node
}

func (t *RoutingTable) changed() {
	t.netIndex = nil
	if t.cache != nil {
		t.cache.DeleteAll()
	}
}

func insertUnique(list []state.RouteEntry, e state.RouteEntry) ([]state.RouteEntry, bool) {
	if slices.ContainsFunc(list, e.Same) {
		return list, false
	}
	return append(list, e), true
}

// AddHostRouteTo adds a route to a single address. An invalid gateway makes
// the route on-link. Adding an existing route does nothing.
func (t *RoutingTable) AddHostRouteTo(dest, gateway netip.Addr, iface int, metric uint32) {
	var ok bool
	t.hosts, ok = insertUnique(t.hosts, state.RouteEntry{
		Kind:      state.HostRoute,
		Dest:      dest,
		Gateway:   gateway,
		Interface: iface,
		Metric:    metric,
	})
	if ok {
		t.changed()
	}
}

func (t *RoutingTable) AddNetworkRouteTo(network netip.Prefix, gateway netip.Addr, iface int, metric uint32) {
	var ok bool
	network = network.Masked()
	t.networks, ok = insertUnique(t.networks, state.RouteEntry{
		Kind:      state.NetworkRoute,
		Dest:      network.Addr(),
		Network:   network,
		Gateway:   gateway,
		Interface: iface,
		Metric:    metric,
	})
	if ok {
		t.changed()
	}
}

func (t *RoutingTable) AddASExternalRouteTo(network netip.Prefix, gateway netip.Addr, iface int, metric uint32) {
	var ok bool
	network = network.Masked()
	t.externals, ok = insertUnique(t.externals, state.RouteEntry{
		Kind:      state.ExternalRoute,
		Dest:      network.Addr(),
		Network:   network,
		Gateway:   gateway,
		Interface: iface,
		Metric:    metric,
	})
	if ok {
		t.changed()
	}
}

// install adds an entry produced by the SPF, dispatching on its kind
func (t *RoutingTable) install(e state.RouteEntry) {
	switch e.Kind {
	case state.HostRoute:
		t.AddHostRouteTo(e.Dest, e.Gateway, e.Interface, e.Metric)
	case state.NetworkRoute:
		t.AddNetworkRouteTo(e.Network, e.Gateway, e.Interface, e.Metric)
	case state.ExternalRoute:
		t.AddASExternalRouteTo(e.Network, e.Gateway, e.Interface, e.Metric)
	}
}

func (t *RoutingTable) GetNRoutes() int {
	return len(t.hosts) + len(t.networks) + len(t.externals)
}

// GetRoute returns the route at a flat index across host, network and
// external routes.
func (t *RoutingTable) GetRoute(index int) state.RouteEntry {
	list, i := t.locate(index)
	return (*list)[i]
}

// RemoveRoute deletes the route at index, shifting later routes down by one
func (t *RoutingTable) RemoveRoute(index int) {
	list, i := t.locate(index)
	*list = slices.Delete(*list, i, i+1)
	t.changed()
}

func (t *RoutingTable) locate(index int) (*[]state.RouteEntry, int) {
	if index < 0 || index >= t.GetNRoutes() {
		panic(fmt.Sprintf("route index %d out of range [0, %d)", index, t.GetNRoutes()))
	}
	if index < len(t.hosts) {
		return &t.hosts, index
	}
	index -= len(t.hosts)
	if index < len(t.networks) {
		return &t.networks, index
	}
	return &t.externals, index - len(t.networks)
}

// Routes returns a copy of every route in enumeration order
func (t *RoutingTable) Routes() []state.RouteEntry {
	out := make([]state.RouteEntry, 0, t.GetNRoutes())
	out = append(out, t.hosts...)
	out = append(out, t.networks...)
	return append(out, t.externals...)
}

// DeleteRoutes empties the table
func (t *RoutingTable) DeleteRoutes() {
	t.hosts = nil
	t.networks = nil
	t.externals = nil
	t.changed()
}

func (t *RoutingTable) index() *bart.Table[[]int] {
	if t.netIndex != nil {
		return t.netIndex
	}
	idx := &bart.Table[[]int]{}
	for i, e := range t.networks {
		ids, _ := idx.Get(e.Network)
		idx.Insert(e.Network, append(ids, i))
	}
	t.netIndex = idx
	return idx
}

func interfaceMatches(e state.RouteEntry, oif int) bool {
	return oif < 0 || e.Interface == oif
}

// LookupGlobal resolves dst. Host routes win over network routes, network
// routes are matched on the longest prefix, and external routes are only
// consulted when nothing else matched. oif restricts the outgoing interface,
// pass state.NoInterface for no restriction.
func (t *RoutingTable) LookupGlobal(dst netip.Addr, oif int) *state.Route {
	perf.Lookups.Add(1)
	key := lookupKey{dst: dst, oif: oif}
	if t.cache != nil {
		if item := t.cache.Get(key); item != nil {
			r := item.Value()
			return &r
		}
	}

	var cands []state.RouteEntry
	for _, e := range t.hosts {
		if e.Dest == dst && interfaceMatches(e, oif) {
			cands = append(cands, e)
		}
	}

	if len(cands) == 0 && len(t.networks) > 0 {
		longest := -1
		for pfx, ids := range t.index().Supernets(netip.PrefixFrom(dst, dst.BitLen())) {
			if pfx.Bits() <= longest {
				continue
			}
			var matched []state.RouteEntry
			for _, i := range ids {
				if interfaceMatches(t.networks[i], oif) {
					matched = append(matched, t.networks[i])
				}
			}
			if len(matched) > 0 {
				longest = pfx.Bits()
				cands = matched
			}
		}
	}

	if len(cands) == 0 {
		for _, e := range t.externals {
			if e.Matches(dst) && interfaceMatches(e, oif) {
				cands = append(cands, e)
				break
			}
		}
	}

	if len(cands) == 0 {
		return nil
	}
	pick := cands[0]
	if t.cfg.RandomEcmp && len(cands) > 1 {
		pick = cands[t.rng.IntN(len(cands))]
	}
	r := t.toRoute(dst, pick)
	if t.cache != nil {
		t.cache.Set(key, r, ttlcache.DefaultTTL)
	}
	return &r
}

func (t *RoutingTable) toRoute(dst netip.Addr, e state.RouteEntry) state.Route {
	r := state.Route{
		Destination: dst,
		Gateway:     e.Gateway,
		Interface:   e.Interface,
	}
	if !e.IsGateway() {
		if dst.Is4() {
			r.Gateway = netip.IPv4Unspecified()
		} else {
			r.Gateway = netip.IPv6Unspecified()
		}
	}
	if src, ok := topo.PrimaryAddress(t.view, t.node, e.Interface); ok {
		r.Source = src.Addr()
	}
	return r
}

func (t *RoutingTable) String() string {
	sb := strings.Builder{}
	for i, e := range t.Routes() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.String())
	}
	return sb.String()
}
