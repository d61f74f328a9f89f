package state

import (
	"fmt"
	"net/netip"
)

type RouteKind uint8

const (
	HostRoute RouteKind = iota
	NetworkRoute
	ExternalRoute
)

func (k RouteKind) String() string {
	switch k {
	case HostRoute:
		return "host"
	case NetworkRoute:
		return "net"
	case ExternalRoute:
		return "ext"
	default:
		return "?"
	}
}

// RouteEntry is one routing table entry. Host routes leave Network unset,
// network and external routes always carry it. A zero Gateway means the
// destination is on-link.
type RouteEntry struct {
	Kind      RouteKind
	Dest      netip.Addr
	Network   netip.Prefix
	Gateway   netip.Addr
	Interface int
	Metric    uint32 // cumulative path cost, informational only
}

func (e RouteEntry) IsHost() bool {
	return e.Kind == HostRoute
}

func (e RouteEntry) IsGateway() bool {
	return e.Gateway.IsValid() && !e.Gateway.IsUnspecified()
}

// Same reports whether two entries describe the same route, ignoring metric
func (e RouteEntry) Same(o RouteEntry) bool {
	return e.Kind == o.Kind &&
		e.Dest == o.Dest &&
		e.Network == o.Network &&
		e.Gateway == o.Gateway &&
		e.Interface == o.Interface
}

// Matches reports whether dst falls under this entry
func (e RouteEntry) Matches(dst netip.Addr) bool {
	if e.Kind == HostRoute {
		return e.Dest == dst
	}
	return e.Network.Masked().Contains(dst)
}

func (e RouteEntry) String() string {
	dst := e.Dest.String()
	if e.Kind != HostRoute {
		dst = e.Network.Masked().String()
	}
	gw := "on-link"
	if e.IsGateway() {
		gw = "via " + e.Gateway.String()
	}
	return fmt.Sprintf("%s %s %s if %d metric %d", e.Kind, dst, gw, e.Interface, e.Metric)
}

// Route is the result of a lookup, handed to the forwarding layer
type Route struct {
	Destination netip.Addr
	Gateway     netip.Addr
	Source      netip.Addr
	Interface   int
}

func (r Route) String() string {
	return fmt.Sprintf("%s via %s src %s if %d", r.Destination, r.Gateway, r.Source, r.Interface)
}
