package core

import (
	"fmt"
	"net/netip"
	"slices"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
)

// l2Walk is the explicit state of one l2 domain enumeration
type l2Walk struct {
	view     topo.View
	segments map[topo.SegmentID]struct{}
	bridges  map[topo.DeviceID]struct{}
	queue    []topo.SegmentID
	found    []topo.DeviceID
}

// FindAllNonBridgedDevicesOnLink enumerates every device that can carry a
// network-layer interface on the l2 domain of dev: non-bridged devices on
// every reachable segment plus the bridging devices themselves. Bridges are
// crossed through all of their ports. A segment reached a second time through
// a bridge means the domain contains a forwarding loop.
func FindAllNonBridgedDevicesOnLink(v topo.View, dev topo.DeviceID) ([]topo.DeviceID, error) {
	w := &l2Walk{
		view:     v,
		segments: make(map[topo.SegmentID]struct{}),
		bridges:  make(map[topo.DeviceID]struct{}),
	}
	start := dev
	if br, ok := v.BridgeOf(dev); ok {
		start = br
	}
	if v.DeviceKind(start) == topo.Bridge {
		if err := w.expandBridge(start, state.Pair[topo.SegmentID, bool]{}); err != nil {
			return nil, err
		}
	} else {
		seg, ok := v.Segment(start)
		if !ok {
			return []topo.DeviceID{start}, nil
		}
		w.segments[seg] = struct{}{}
		w.queue = append(w.queue, seg)
	}

	for len(w.queue) > 0 {
		seg := w.queue[0]
		w.queue = w.queue[1:]
		for _, d := range v.SegmentDevices(seg) {
			br, bridged := v.BridgeOf(d)
			if !bridged {
				w.found = append(w.found, d)
				continue
			}
			if _, seen := w.bridges[br]; seen {
				continue
			}
			if err := w.expandBridge(br, state.Pair[topo.SegmentID, bool]{V1: seg, V2: true}); err != nil {
				return nil, err
			}
		}
	}
	return w.found, nil
}

// expandBridge queues the segments of every port of br except the one the
// walk arrived through.
func (w *l2Walk) expandBridge(br topo.DeviceID, from state.Pair[topo.SegmentID, bool]) error {
	w.bridges[br] = struct{}{}
	w.found = append(w.found, br)
	skipFrom := from.V2
	for _, port := range w.view.BridgePorts(br) {
		seg, ok := w.view.Segment(port)
		if !ok {
			continue
		}
		if skipFrom && seg == from.V1 {
			skipFrom = false
			continue
		}
		if _, seen := w.segments[seg]; seen {
			return fmt.Errorf("%w: bridge %s on %s reaches a segment twice",
				state.ErrL2Loop, w.view.DeviceName(br), w.view.DeviceNode(br))
		}
		w.segments[seg] = struct{}{}
		w.queue = append(w.queue, seg)
	}
	return nil
}

// participant is a router reachable on an l2 domain
type participant struct {
	node  string
	dev   topo.DeviceID
	iface int
	addr  netip.Prefix
}

// participants filters the devices of a domain down to the ones owned by a
// router agent with an up, forwarding, addressed interface.
func participants(v topo.View, agents AgentLookup, devs []topo.DeviceID) []participant {
	out := make([]participant, 0, len(devs))
	for _, d := range devs {
		n := v.DeviceNode(d)
		if agents.Agent(n) == nil {
			continue
		}
		i, ok := v.InterfaceFor(n, d)
		if !ok || !v.InterfaceUp(n, i) || !v.Forwarding(n, i) {
			continue
		}
		addr, ok := topo.PrimaryAddress(v, n, i)
		if !ok {
			continue
		}
		out = append(out, participant{node: n, dev: d, iface: i, addr: addr})
	}
	return out
}

// electDesignatedRouter picks the participant with the numerically smallest
// address. Equal addresses mean the topology is inconsistent.
func electDesignatedRouter(parts []participant) (netip.Addr, error) {
	if len(parts) == 0 {
		return netip.Addr{}, nil
	}
	addrs := make([]netip.Addr, 0, len(parts))
	for _, p := range parts {
		addrs = append(addrs, p.addr.Addr())
	}
	slices.SortFunc(addrs, netip.Addr.Compare)
	for i := 1; i < len(addrs); i++ {
		if addrs[i] == addrs[i-1] {
			return netip.Addr{}, fmt.Errorf("%w: %s", state.ErrDuplicateAddress, addrs[i])
		}
	}
	return addrs[0], nil
}
