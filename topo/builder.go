package topo

import (
	"fmt"
	"net/netip"
)

// Endpoint describes one end of a link when building a topology by hand.
// An empty Address leaves the device without a network-layer interface.
type Endpoint struct {
	Node    string
	Device  string
	Address string
	Metric  uint16
}

func (n *Network) ensureNode(name string) error {
	if _, ok := n.byName[name]; ok {
		return nil
	}
	return n.AddNode(name)
}

func (n *Network) endpoint(seg string, kind DeviceKind, ep Endpoint) (DeviceID, error) {
	if err := n.ensureNode(ep.Node); err != nil {
		return none, err
	}
	name := ep.Device
	if name == "" {
		name = fmt.Sprintf("%s-%s", seg, ep.Node)
	}
	dev, err := n.AddDevice(ep.Node, name, kind)
	if err != nil {
		return none, err
	}
	if err = n.Attach(dev, seg); err != nil {
		return none, err
	}
	if ep.Address == "" {
		return dev, nil
	}
	addrs := make([]netip.Prefix, 0, 1)
	p, err := netip.ParsePrefix(ep.Address)
	if err != nil {
		return none, err
	}
	addrs = append(addrs, p)
	metric := ep.Metric
	if metric == 0 {
		metric = 1
	}
	_, err = n.AddInterface(ep.Node, dev, metric, addrs...)
	return dev, err
}

// ConnectP2P creates a point-to-point segment between two endpoints, adding
// the nodes on first use.
func (n *Network) ConnectP2P(seg string, a, b Endpoint) (DeviceID, DeviceID, error) {
	da, err := n.endpoint(seg, PointToPoint, a)
	if err != nil {
		return none, none, err
	}
	db, err := n.endpoint(seg, PointToPoint, b)
	if err != nil {
		return none, none, err
	}
	return da, db, nil
}

// ConnectBroadcast creates a shared segment with every endpoint attached
func (n *Network) ConnectBroadcast(seg string, eps ...Endpoint) ([]DeviceID, error) {
	devs := make([]DeviceID, 0, len(eps))
	for _, ep := range eps {
		d, err := n.endpoint(seg, Broadcast, ep)
		if err != nil {
			return nil, err
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// MustConnectP2P is ConnectP2P for test fixtures
func (n *Network) MustConnectP2P(seg string, a, b Endpoint) (DeviceID, DeviceID) {
	da, db, err := n.ConnectP2P(seg, a, b)
	if err != nil {
		panic(err)
	}
	return da, db
}

// MustConnectBroadcast is ConnectBroadcast for test fixtures
func (n *Network) MustConnectBroadcast(seg string, eps ...Endpoint) []DeviceID {
	devs, err := n.ConnectBroadcast(seg, eps...)
	if err != nil {
		panic(err)
	}
	return devs
}
