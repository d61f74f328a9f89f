//go:build integration

package integration

import (
	"fmt"
	"log/slog"
	"maps"
	"net/netip"
	"slices"

	"github.com/encodeous/gospf/core"
	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
)

// VirtualHarness describes a topology in terms of the on-disk format and
// runs global routing over it.
type VirtualHarness struct {
	File    topo.File
	Net     *topo.Network
	Manager *core.RouteManager
	nextSeg int
}

func (vh *VirtualHarness) node(name string) *topo.NodeCfg {
	idx := slices.IndexFunc(vh.File.Nodes, func(n topo.NodeCfg) bool {
		return n.Name == name
	})
	if idx == -1 {
		vh.File.Nodes = append(vh.File.Nodes, topo.NodeCfg{Name: name})
		idx = len(vh.File.Nodes) - 1
	}
	return &vh.File.Nodes[idx]
}

// NewRouter declares a node running a router agent, advertising inject
func (vh *VirtualHarness) NewRouter(name string, inject ...string) {
	n := vh.node(name)
	for _, p := range inject {
		n.Inject = append(n.Inject, netip.MustParsePrefix(p))
	}
}

// NewHost declares a node without a router agent
func (vh *VirtualHarness) NewHost(name string) {
	vh.node(name).Host = true
}

func (vh *VirtualHarness) segment() string {
	vh.nextSeg++
	return fmt.Sprintf("seg%d", vh.nextSeg)
}

// Link connects a and b over a point-to-point link and returns the segment name
func (vh *VirtualHarness) Link(a, aAddr, b, bAddr string, metric uint16) string {
	seg := vh.segment()
	for _, e := range [][2]string{{a, aAddr}, {b, bAddr}} {
		n := vh.node(e[0])
		n.Devices = append(n.Devices, topo.DeviceCfg{
			Name:    seg,
			Kind:    "p2p",
			Segment: seg,
			Address: []netip.Prefix{netip.MustParsePrefix(e[1])},
			Metric:  metric,
		})
	}
	return seg
}

// Lan puts every node=address pair on one broadcast segment
func (vh *VirtualHarness) Lan(members map[string]string) string {
	seg := vh.segment()
	for _, name := range slices.Sorted(maps.Keys(members)) {
		n := vh.node(name)
		n.Devices = append(n.Devices, topo.DeviceCfg{
			Name:    seg,
			Kind:    "broadcast",
			Segment: seg,
			Address: []netip.Prefix{netip.MustParsePrefix(members[name])},
		})
	}
	return seg
}

// Start builds the topology and populates every routing table
func (vh *VirtualHarness) Start() error {
	vh.File.Routing = state.DefaultRoutingCfg()
	if err := state.RoutingConfigValidator(&vh.File.Routing); err != nil {
		return err
	}
	n, err := vh.File.Build()
	if err != nil {
		return err
	}
	logger, err := core.NewLogger(slog.LevelDebug, "harness", "")
	if err != nil {
		return err
	}
	m, err := core.NewFromFile(&vh.File, n, logger)
	if err != nil {
		return err
	}
	vh.Net = n
	vh.Manager = m
	return nil
}

// Gateway returns the next hop node uses toward dst, invalid if unroutable
func (vh *VirtualHarness) Gateway(node, dst string) netip.Addr {
	r := vh.Manager.Agent(node).RoutingTable().LookupGlobal(netip.MustParseAddr(dst), state.NoInterface)
	if r == nil {
		return netip.Addr{}
	}
	return r.Gateway
}

// Path returns the nodes visited from src to dst
func (vh *VirtualHarness) Path(src, dst string) ([]string, error) {
	hops, err := vh.Manager.TraceRoute(src, netip.MustParseAddr(dst))
	out := make([]string, 0, len(hops))
	for _, h := range hops {
		out = append(out, h.Node)
	}
	return out, err
}

// SetLink brings the interface of node on seg up or down
func (vh *VirtualHarness) SetLink(node, seg string, up bool) error {
	dev, ok := vh.Net.DeviceByName(node, seg)
	if !ok {
		return fmt.Errorf("%s has no device %s", node, seg)
	}
	i, ok := vh.Net.InterfaceFor(node, dev)
	if !ok {
		return fmt.Errorf("%s device %s has no interface", node, seg)
	}
	return vh.Net.SetInterfaceUp(node, i, up)
}
