package core

import (
	"net/netip"

	"github.com/encodeous/gospf/state"
)

// Header carries the fields of a packet that routing decisions look at
type Header struct {
	Source      netip.Addr
	Destination netip.Addr
}

type (
	UnicastForwardCallback func(route state.Route, hdr Header)
	LocalDeliverCallback   func(hdr Header, iif int)
	ErrorCallback          func(hdr Header, err error)
)

// RouteOutput resolves a route for locally originated traffic. Multicast is
// left to another routing layer.
func (t *RoutingTable) RouteOutput(hdr Header, oif int) (*state.Route, error) {
	if hdr.Destination.IsMulticast() {
		return nil, state.ErrNotHandled
	}
	r := t.LookupGlobal(hdr.Destination, oif)
	if r == nil {
		return nil, state.ErrNoRoute
	}
	if !hdr.Source.IsValid() {
		return r, nil
	}
	// an explicit source keeps its own address
	r.Source = hdr.Source
	return r, nil
}

// RouteInput handles a packet received on iif. It returns false when the
// packet was not handled by global routing.
func (t *RoutingTable) RouteInput(hdr Header, iif int, ucb UnicastForwardCallback, lcb LocalDeliverCallback, ecb ErrorCallback) bool {
	if hdr.Destination.IsMulticast() {
		return false
	}
	if t.isLocal(hdr.Destination) {
		lcb(hdr, iif)
		return true
	}
	if !t.view.Forwarding(t.node, iif) {
		t.log.Debug("dropping packet, forwarding disabled", "iif", iif, "dst", hdr.Destination)
		ecb(hdr, state.ErrForwardingDisabled)
		return true
	}
	r := t.LookupGlobal(hdr.Destination, state.NoInterface)
	if r == nil {
		ecb(hdr, state.ErrNoRoute)
		return false
	}
	ucb(*r, hdr)
	return true
}

// isLocal reports whether dst is one of this node's addresses or a broadcast
// address of one of its subnets.
func (t *RoutingTable) isLocal(dst netip.Addr) bool {
	if dst == netip.AddrFrom4([4]byte{255, 255, 255, 255}) {
		return true
	}
	for _, i := range t.view.Interfaces(t.node) {
		for _, p := range t.view.Addresses(t.node, i) {
			if p.Addr() == dst {
				return true
			}
			if dst.Is4() && p.Addr().Is4() && p.Bits() < 31 && broadcastOf(p) == dst {
				return true
			}
		}
	}
	return false
}

func broadcastOf(p netip.Prefix) netip.Addr {
	b := p.Masked().Addr().As4()
	host := uint32(1)<<(32-p.Bits()) - 1
	for i := 0; i < 4; i++ {
		b[3-i] |= byte(host >> (8 * i))
	}
	return netip.AddrFrom4(b)
}
