package topo

import "net/netip"

type DeviceKind uint8

const (
	Loopback DeviceKind = iota
	PointToPoint
	Broadcast
	// Bridge aggregates several broadcast segments into one l2 domain
	Bridge
)

func (k DeviceKind) String() string {
	switch k {
	case Loopback:
		return "loopback"
	case PointToPoint:
		return "p2p"
	case Broadcast:
		return "broadcast"
	case Bridge:
		return "bridge"
	default:
		return "unknown"
	}
}

type DeviceID int
type SegmentID int

// View is the read-only topology consumed by the routing core. Devices and
// segments are handles; interfaces are indexed per node.
type View interface {
	Nodes() []string
	Devices(node string) []DeviceID
	DeviceNode(dev DeviceID) string
	DeviceName(dev DeviceID) string
	DeviceKind(dev DeviceID) DeviceKind
	// Segment returns the channel a device is attached to
	Segment(dev DeviceID) (SegmentID, bool)
	SegmentDevices(seg SegmentID) []DeviceID
	// BridgeOf returns the bridging device a port sits under
	BridgeOf(dev DeviceID) (DeviceID, bool)
	BridgePorts(bridge DeviceID) []DeviceID

	// InterfaceFor returns the network-layer interface bound to dev
	InterfaceFor(node string, dev DeviceID) (int, bool)
	Interfaces(node string) []int
	InterfaceDevice(node string, iface int) DeviceID
	InterfaceUp(node string, iface int) bool
	Forwarding(node string, iface int) bool
	Addresses(node string, iface int) []netip.Prefix
	Metric(node string, iface int) uint16
}

// PrimaryAddress returns the first globally usable address of an interface,
// falling back to a link-local one.
func PrimaryAddress(v View, node string, iface int) (netip.Prefix, bool) {
	addrs := v.Addresses(node, iface)
	for _, a := range addrs {
		if !a.Addr().IsLinkLocalUnicast() {
			return a, true
		}
	}
	if len(addrs) > 0 {
		return addrs[0], true
	}
	return netip.Prefix{}, false
}

// LinkLocalAddress returns the first link-local address of an interface
func LinkLocalAddress(v View, node string, iface int) (netip.Addr, bool) {
	for _, a := range v.Addresses(node, iface) {
		if a.Addr().IsLinkLocalUnicast() {
			return a.Addr(), true
		}
	}
	return netip.Addr{}, false
}

// LinkLocalOnly reports whether an interface only carries link-local addresses
func LinkLocalOnly(v View, node string, iface int) bool {
	addrs := v.Addresses(node, iface)
	if len(addrs) == 0 {
		return false
	}
	for _, a := range addrs {
		if !a.Addr().IsLinkLocalUnicast() {
			return false
		}
	}
	return true
}

// InterfaceWithAddress finds the interface of node that owns addr
func InterfaceWithAddress(v View, node string, addr netip.Addr) (int, bool) {
	for _, i := range v.Interfaces(node) {
		for _, a := range v.Addresses(node, i) {
			if a.Addr() == addr {
				return i, true
			}
		}
	}
	return 0, false
}
