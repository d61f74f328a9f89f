package core

import (
	"fmt"
	"io"
	"net/netip"
	"strconv"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
	"github.com/olekukonko/tablewriter"
)

// Hop is one step of a traced path
type Hop struct {
	Node      string
	Interface int
	Gateway   netip.Addr
	Metric    uint32 // cumulative
}

// TraceRoute follows the installed routing tables from src toward dst. The
// last hop is the node owning dst, or the last node with a route.
func (m *RouteManager) TraceRoute(src string, dst netip.Addr) ([]Hop, error) {
	cur, err := m.agentOf(src)
	if err != nil {
		return nil, err
	}
	node := cur.node
	var hops []Hop
	var metric uint32
	for range state.MaxTraceHops {
		if ownsAddress(m.view, node, dst) {
			return append(hops, Hop{Node: node, Interface: state.NoInterface, Metric: metric}), nil
		}
		a := m.agents[node]
		if a == nil {
			return hops, fmt.Errorf("%w: %s does not route toward %s", state.ErrNoRoute, node, dst)
		}
		r := a.table.LookupGlobal(dst, state.NoInterface)
		if r == nil {
			return hops, fmt.Errorf("%w: %s has no route to %s", state.ErrNoRoute, node, dst)
		}
		metric += uint32(m.view.Metric(node, r.Interface))
		hops = append(hops, Hop{Node: node, Interface: r.Interface, Gateway: r.Gateway, Metric: metric})

		next := dst
		if !r.Gateway.IsUnspecified() {
			next = r.Gateway
		}
		nn, ok := neighborOwning(m.view, node, r.Interface, next)
		if !ok {
			return hops, fmt.Errorf("%w: %s not found behind %s interface %d", state.ErrNoRoute, next, node, r.Interface)
		}
		node = nn
	}
	return hops, fmt.Errorf("trace to %s exceeded %d hops, forwarding loop", dst, state.MaxTraceHops)
}

// PrintRoute renders the path from src to dst hop by hop
func (m *RouteManager) PrintRoute(w io.Writer, src string, dst netip.Addr) error {
	hops, err := m.TraceRoute(src, dst)
	rows := make([][]string, 0, len(hops))
	for i, h := range hops {
		iface, gw := "-", "-"
		if h.Interface != state.NoInterface {
			iface = m.view.DeviceName(m.view.InterfaceDevice(h.Node, h.Interface))
			gw = "on-link"
			if h.Gateway.IsValid() && !h.Gateway.IsUnspecified() {
				gw = h.Gateway.String()
			}
		}
		rows = append(rows, []string{strconv.Itoa(i), h.Node, iface, gw, strconv.FormatUint(uint64(h.Metric), 10)})
	}
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"HOP", "NODE", "OUT", "GATEWAY", "METRIC"})
	table.AppendBulk(rows)
	table.Render()
	return err
}

func ownsAddress(v topo.View, node string, addr netip.Addr) bool {
	_, ok := topo.InterfaceWithAddress(v, node, addr)
	return ok
}

// neighborOwning finds the node owning addr on the l2 domain behind the
// interface of node.
func neighborOwning(v topo.View, node string, iface int, addr netip.Addr) (string, bool) {
	devs, err := FindAllNonBridgedDevicesOnLink(v, v.InterfaceDevice(node, iface))
	if err != nil {
		return "", false
	}
	for _, d := range devs {
		n := v.DeviceNode(d)
		if n == node {
			continue
		}
		i, ok := v.InterfaceFor(n, d)
		if !ok {
			continue
		}
		for _, p := range v.Addresses(n, i) {
			if p.Addr() == addr {
				return n, true
			}
		}
	}
	return "", false
}
