package topo

import (
	"fmt"
	"net/netip"
	"os"

	"github.com/encodeous/gospf/state"
	"github.com/goccy/go-yaml"
)

// File is the on-disk topology description
type File struct {
	Routing state.RoutingCfg `yaml:"routing,omitempty"`
	Nodes   []NodeCfg        `yaml:"nodes"`
}

type NodeCfg struct {
	Name string
	// Host nodes do not run a router agent and never appear in the lsdb
	Host    bool           `yaml:"host,omitempty"`
	Inject  []netip.Prefix `yaml:",omitempty"` // external routes advertised by this router
	Devices []DeviceCfg
}

type DeviceCfg struct {
	Name      string
	Kind      string         // p2p, broadcast or bridge
	Segment   string         `yaml:",omitempty"`
	Address   []netip.Prefix `yaml:",omitempty"`
	Metric    uint16         `yaml:",omitempty"`
	Ports     []string       `yaml:",omitempty"` // bridge only
	Down      bool           `yaml:"down,omitempty"`
	NoForward bool           `yaml:"no_forward,omitempty"`
}

func parseKind(s string) (DeviceKind, error) {
	switch s {
	case "p2p", "point-to-point":
		return PointToPoint, nil
	case "broadcast", "csma", "":
		return Broadcast, nil
	case "bridge":
		return Bridge, nil
	default:
		return 0, fmt.Errorf("unknown device kind %q", s)
	}
}

// Parse decodes a topology file, filling routing defaults
func Parse(data []byte) (*File, error) {
	f := File{Routing: state.DefaultRoutingCfg()}
	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, err
	}
	if f.Routing.DefaultMetric == 0 {
		f.Routing.DefaultMetric = state.DefaultMetric
	}
	return &f, nil
}

// Load reads and validates a topology file and builds the network it describes
func Load(path string) (*File, *Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err = state.RoutingConfigValidator(&f.Routing); err != nil {
		return nil, nil, err
	}
	n, err := f.Build()
	if err != nil {
		return nil, nil, err
	}
	return f, n, nil
}

// Build materializes the topology. Bridges are created after every other
// device so ports can be declared in any order.
func (f *File) Build() (*Network, error) {
	n := NewNetwork()
	for _, nc := range f.Nodes {
		if err := state.NameValidator(nc.Name); err != nil {
			return nil, err
		}
		if err := n.AddNode(nc.Name); err != nil {
			return nil, err
		}
	}
	for _, nc := range f.Nodes {
		for _, dc := range nc.Devices {
			kind, err := parseKind(dc.Kind)
			if err != nil {
				return nil, fmt.Errorf("node %s device %s: %w", nc.Name, dc.Name, err)
			}
			if kind == Bridge {
				continue
			}
			dev, err := n.AddDevice(nc.Name, dc.Name, kind)
			if err != nil {
				return nil, err
			}
			if dc.Segment != "" {
				if err = n.Attach(dev, dc.Segment); err != nil {
					return nil, err
				}
			}
		}
		for _, dc := range nc.Devices {
			if dc.Kind != "bridge" {
				continue
			}
			ports := make([]DeviceID, 0, len(dc.Ports))
			for _, p := range dc.Ports {
				pd, ok := n.DeviceByName(nc.Name, p)
				if !ok {
					return nil, fmt.Errorf("bridge %s on %s: port %s not defined", dc.Name, nc.Name, p)
				}
				ports = append(ports, pd)
			}
			if _, err := n.AddBridge(nc.Name, dc.Name, ports...); err != nil {
				return nil, err
			}
		}
		for _, dc := range nc.Devices {
			if len(dc.Address) == 0 {
				continue
			}
			dev, _ := n.DeviceByName(nc.Name, dc.Name)
			metric := dc.Metric
			if metric == 0 {
				metric = f.Routing.DefaultMetric
			}
			i, err := n.AddInterface(nc.Name, dev, metric, dc.Address...)
			if err != nil {
				return nil, err
			}
			if dc.Down {
				if err = n.SetInterfaceUp(nc.Name, i, false); err != nil {
					return nil, err
				}
			}
			if dc.NoForward {
				if err = n.SetForwarding(nc.Name, i, false); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, s := range n.segments {
		if len(s.devices) == 0 {
			continue
		}
		if n.devices[s.devices[0]].kind == PointToPoint && len(s.devices) != 2 {
			return nil, fmt.Errorf("point-to-point segment %s must have exactly two ends, has %d", s.name, len(s.devices))
		}
	}
	return n, nil
}

// Routers lists the nodes that run a router agent
func (f *File) Routers() []NodeCfg {
	out := make([]NodeCfg, 0, len(f.Nodes))
	for _, nc := range f.Nodes {
		if !nc.Host {
			out = append(out, nc)
		}
	}
	return out
}
