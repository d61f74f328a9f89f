package topo

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"
)

type EventKind uint8

const (
	InterfaceUp EventKind = iota
	InterfaceDown
	AddressAdded
	AddressRemoved
	LinkDetached
)

func (k EventKind) String() string {
	switch k {
	case InterfaceUp:
		return "interface-up"
	case InterfaceDown:
		return "interface-down"
	case AddressAdded:
		return "address-added"
	case AddressRemoved:
		return "address-removed"
	case LinkDetached:
		return "link-detached"
	default:
		return "unknown"
	}
}

// Event describes a topology change
type Event struct {
	Kind      EventKind
	Node      string
	Interface int
	Device    DeviceID
	Address   netip.Prefix
}

type iface struct {
	dev        DeviceID
	up         bool
	forwarding bool
	metric     uint16
	addrs      []netip.Prefix
}

type node struct {
	name    string
	devices []DeviceID
	ifaces  []*iface
}

type device struct {
	name   string
	node   string
	kind   DeviceKind
	seg    SegmentID
	bridge DeviceID
	ports  []DeviceID
}

type segment struct {
	name    string
	devices []DeviceID
}

const none = -1

// Network is an in-memory topology. It implements View and lets callers
// mutate the topology, notifying listeners of every change. Like the rest of
// the routing core it must only be used from a single goroutine.
type Network struct {
	nodes     []*node
	byName    map[string]*node
	devices   []*device
	segments  []*segment
	segByName map[string]SegmentID
	listeners []func(Event) error
}

func NewNetwork() *Network {
	return &Network{
		byName:    make(map[string]*node),
		segByName: make(map[string]SegmentID),
	}
}

// AddNode creates a node with a loopback device bound to interface 0
func (n *Network) AddNode(name string) error {
	if _, ok := n.byName[name]; ok {
		return fmt.Errorf("duplicate node: %s", name)
	}
	nd := &node{name: name}
	n.nodes = append(n.nodes, nd)
	n.byName[name] = nd
	lo, err := n.AddDevice(name, "lo", Loopback)
	if err != nil {
		return err
	}
	_, err = n.AddInterface(name, lo, 0, netip.MustParsePrefix("127.0.0.1/8"))
	return err
}

func (n *Network) AddDevice(nodeName, name string, kind DeviceKind) (DeviceID, error) {
	nd, ok := n.byName[nodeName]
	if !ok {
		return none, fmt.Errorf("node %s not defined", nodeName)
	}
	for _, d := range nd.devices {
		if n.devices[d].name == name {
			return none, fmt.Errorf("duplicate device %s on node %s", name, nodeName)
		}
	}
	id := DeviceID(len(n.devices))
	n.devices = append(n.devices, &device{
		name:   name,
		node:   nodeName,
		kind:   kind,
		seg:    none,
		bridge: none,
	})
	nd.devices = append(nd.devices, id)
	return id, nil
}

// DeviceByName resolves a device of a node
func (n *Network) DeviceByName(nodeName, name string) (DeviceID, bool) {
	nd, ok := n.byName[nodeName]
	if !ok {
		return none, false
	}
	idx := slices.IndexFunc(nd.devices, func(d DeviceID) bool {
		return n.devices[d].name == name
	})
	if idx == -1 {
		return none, false
	}
	return nd.devices[idx], true
}

// Attach puts a device on the named segment, creating the segment on first use
func (n *Network) Attach(dev DeviceID, segName string) error {
	d := n.devices[dev]
	if d.kind == Loopback || d.kind == Bridge {
		return fmt.Errorf("%s device %s cannot be attached to a segment", d.kind, d.name)
	}
	if d.seg != none {
		return fmt.Errorf("device %s on %s is already attached", d.name, d.node)
	}
	seg, ok := n.segByName[segName]
	if !ok {
		seg = SegmentID(len(n.segments))
		n.segments = append(n.segments, &segment{name: segName})
		n.segByName[segName] = seg
	}
	s := n.segments[seg]
	if d.kind == PointToPoint && len(s.devices) >= 2 {
		return fmt.Errorf("point-to-point segment %s already has two ends", segName)
	}
	s.devices = append(s.devices, dev)
	d.seg = seg
	return nil
}

// AddBridge creates a bridging device on a node aggregating the given ports
func (n *Network) AddBridge(nodeName, name string, ports ...DeviceID) (DeviceID, error) {
	br, err := n.AddDevice(nodeName, name, Bridge)
	if err != nil {
		return none, err
	}
	for _, p := range ports {
		d := n.devices[p]
		if d.node != nodeName {
			return none, fmt.Errorf("bridge port %s is not on node %s", d.name, nodeName)
		}
		if d.bridge != none {
			return none, fmt.Errorf("device %s is already bridged", d.name)
		}
		if d.kind != Broadcast && d.kind != PointToPoint {
			return none, fmt.Errorf("%s device %s cannot be a bridge port", d.kind, d.name)
		}
		d.bridge = br
	}
	n.devices[br].ports = slices.Clone(ports)
	return br, nil
}

// AddInterface binds a network-layer interface to dev. The interface starts up
// with forwarding enabled.
func (n *Network) AddInterface(nodeName string, dev DeviceID, metric uint16, addrs ...netip.Prefix) (int, error) {
	nd, ok := n.byName[nodeName]
	if !ok {
		return none, fmt.Errorf("node %s not defined", nodeName)
	}
	if n.devices[dev].node != nodeName {
		return none, fmt.Errorf("device %s does not belong to %s", n.devices[dev].name, nodeName)
	}
	if _, ok := n.InterfaceFor(nodeName, dev); ok {
		return none, fmt.Errorf("device %s on %s already has an interface", n.devices[dev].name, nodeName)
	}
	nd.ifaces = append(nd.ifaces, &iface{
		dev:        dev,
		up:         true,
		forwarding: true,
		metric:     metric,
		addrs:      slices.Clone(addrs),
	})
	return len(nd.ifaces) - 1, nil
}

func (n *Network) SegmentByName(name string) (SegmentID, bool) {
	s, ok := n.segByName[name]
	return s, ok
}

// OnChange registers a listener invoked after every mutation
func (n *Network) OnChange(fn func(Event) error) {
	n.listeners = append(n.listeners, fn)
}

func (n *Network) notify(ev Event) error {
	var errs []error
	for _, l := range n.listeners {
		errs = append(errs, l(ev))
	}
	return errors.Join(errs...)
}

func (n *Network) iface(nodeName string, i int) (*iface, error) {
	nd, ok := n.byName[nodeName]
	if !ok {
		return nil, fmt.Errorf("node %s not defined", nodeName)
	}
	if i < 0 || i >= len(nd.ifaces) {
		return nil, fmt.Errorf("node %s has no interface %d", nodeName, i)
	}
	return nd.ifaces[i], nil
}

func (n *Network) SetInterfaceUp(nodeName string, i int, up bool) error {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return err
	}
	if itf.up == up {
		return nil
	}
	itf.up = up
	kind := InterfaceDown
	if up {
		kind = InterfaceUp
	}
	return n.notify(Event{Kind: kind, Node: nodeName, Interface: i, Device: itf.dev})
}

// SetForwarding toggles forwarding, it does not emit an event
func (n *Network) SetForwarding(nodeName string, i int, fwd bool) error {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return err
	}
	itf.forwarding = fwd
	return nil
}

func (n *Network) SetMetric(nodeName string, i int, metric uint16) error {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return err
	}
	itf.metric = metric
	return nil
}

func (n *Network) AddAddress(nodeName string, i int, addr netip.Prefix) error {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return err
	}
	if slices.Contains(itf.addrs, addr) {
		return nil
	}
	itf.addrs = append(itf.addrs, addr)
	return n.notify(Event{Kind: AddressAdded, Node: nodeName, Interface: i, Device: itf.dev, Address: addr})
}

func (n *Network) RemoveAddress(nodeName string, i int, addr netip.Prefix) error {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return err
	}
	idx := slices.Index(itf.addrs, addr)
	if idx == -1 {
		return nil
	}
	itf.addrs = slices.Delete(itf.addrs, idx, idx+1)
	return n.notify(Event{Kind: AddressRemoved, Node: nodeName, Interface: i, Device: itf.dev, Address: addr})
}

// Detach unplugs a device from its segment
func (n *Network) Detach(dev DeviceID) error {
	d := n.devices[dev]
	if d.seg == none {
		return nil
	}
	s := n.segments[d.seg]
	s.devices = slices.DeleteFunc(s.devices, func(x DeviceID) bool { return x == dev })
	d.seg = none
	i, _ := n.InterfaceFor(d.node, dev)
	return n.notify(Event{Kind: LinkDetached, Node: d.node, Interface: i, Device: dev})
}

// View implementation

func (n *Network) Nodes() []string {
	out := make([]string, 0, len(n.nodes))
	for _, nd := range n.nodes {
		out = append(out, nd.name)
	}
	return out
}

func (n *Network) Devices(nodeName string) []DeviceID {
	nd, ok := n.byName[nodeName]
	if !ok {
		return nil
	}
	return slices.Clone(nd.devices)
}

func (n *Network) DeviceNode(dev DeviceID) string {
	return n.devices[dev].node
}

func (n *Network) DeviceName(dev DeviceID) string {
	return n.devices[dev].name
}

func (n *Network) DeviceKind(dev DeviceID) DeviceKind {
	return n.devices[dev].kind
}

func (n *Network) Segment(dev DeviceID) (SegmentID, bool) {
	s := n.devices[dev].seg
	return s, s != none
}

func (n *Network) SegmentDevices(seg SegmentID) []DeviceID {
	return slices.Clone(n.segments[seg].devices)
}

func (n *Network) BridgeOf(dev DeviceID) (DeviceID, bool) {
	b := n.devices[dev].bridge
	return b, b != none
}

func (n *Network) BridgePorts(bridge DeviceID) []DeviceID {
	return slices.Clone(n.devices[bridge].ports)
}

func (n *Network) InterfaceFor(nodeName string, dev DeviceID) (int, bool) {
	nd, ok := n.byName[nodeName]
	if !ok {
		return none, false
	}
	idx := slices.IndexFunc(nd.ifaces, func(i *iface) bool {
		return i.dev == dev
	})
	return idx, idx != -1
}

func (n *Network) Interfaces(nodeName string) []int {
	nd, ok := n.byName[nodeName]
	if !ok {
		return nil
	}
	out := make([]int, len(nd.ifaces))
	for i := range nd.ifaces {
		out[i] = i
	}
	return out
}

func (n *Network) InterfaceDevice(nodeName string, i int) DeviceID {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return none
	}
	return itf.dev
}

func (n *Network) InterfaceUp(nodeName string, i int) bool {
	itf, err := n.iface(nodeName, i)
	return err == nil && itf.up
}

func (n *Network) Forwarding(nodeName string, i int) bool {
	itf, err := n.iface(nodeName, i)
	return err == nil && itf.forwarding
}

func (n *Network) Addresses(nodeName string, i int) []netip.Prefix {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return nil
	}
	return slices.Clone(itf.addrs)
}

func (n *Network) Metric(nodeName string, i int) uint16 {
	itf, err := n.iface(nodeName, i)
	if err != nil {
		return 0
	}
	return itf.metric
}
