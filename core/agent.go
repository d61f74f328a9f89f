package core

import (
	"fmt"
	"log/slog"
	"net/netip"
	"slices"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
)

// AgentLookup resolves the router agent of a node, nil if the node does not
// participate in global routing.
type AgentLookup interface {
	Agent(node string) *RouterAgent
}

// RouterAgent is one router's view of its local topology. It turns the
// devices of its node into LSAs and holds the external routes injected by
// the operator.
type RouterAgent struct {
	id       state.RouterID
	node     string
	view     topo.View
	agents   AgentLookup
	table    *RoutingTable
	lsas     []state.LSA
	injected []netip.Prefix
	log      *slog.Logger
}

func (a *RouterAgent) RouterID() state.RouterID {
	return a.id
}

func (a *RouterAgent) Node() string {
	return a.node
}

func (a *RouterAgent) RoutingTable() *RoutingTable {
	return a.table
}

// designated remembers a segment this router was elected designated router of
type designated struct {
	addr  netip.Prefix
	parts []participant
}

// DiscoverLSAs rebuilds the LSAs of this router from the current topology and
// returns how many it now holds.
func (a *RouterAgent) DiscoverLSAs() (int, error) {
	a.lsas = nil
	rlsa := state.LSA{
		Type:              state.RouterLSA,
		LinkStateID:       a.id.Addr(),
		AdvertisingRouter: a.id,
		Node:              a.node,
	}
	var drs []designated

	for _, dev := range a.view.Devices(a.node) {
		kind := a.view.DeviceKind(dev)
		if kind == topo.Loopback {
			continue
		}
		if _, bridged := a.view.BridgeOf(dev); bridged {
			if i, ok := a.view.InterfaceFor(a.node, dev); ok && len(a.view.Addresses(a.node, i)) > 0 {
				return 0, fmt.Errorf("%w: %s on %s", state.ErrBridgedPortAddressed, a.view.DeviceName(dev), a.node)
			}
			continue
		}
		i, ok := a.view.InterfaceFor(a.node, dev)
		if !ok {
			continue
		}
		if !a.view.InterfaceUp(a.node, i) || !a.view.Forwarding(a.node, i) {
			a.log.Debug("skipping interface", "dev", a.view.DeviceName(dev), "iface", i)
			continue
		}
		if _, ok = topo.PrimaryAddress(a.view, a.node, i); !ok {
			continue
		}

		switch kind {
		case topo.PointToPoint:
			recs, err := a.processPointToPoint(dev, i)
			if err != nil {
				return 0, err
			}
			rlsa.Links = append(rlsa.Links, recs...)
		case topo.Broadcast, topo.Bridge:
			rec, dr, err := a.processBroadcast(dev, i)
			if err != nil {
				return 0, err
			}
			rlsa.Links = append(rlsa.Links, rec)
			if dr != nil {
				drs = append(drs, *dr)
			}
		}
	}
	a.lsas = append(a.lsas, rlsa)

	for _, dr := range drs {
		attached := make([]netip.Addr, 0, len(dr.parts))
		for _, p := range dr.parts {
			attached = append(attached, p.addr.Addr())
		}
		slices.SortFunc(attached, netip.Addr.Compare)
		a.lsas = append(a.lsas, state.LSA{
			Type:              state.NetworkLSA,
			LinkStateID:       dr.addr.Addr(),
			AdvertisingRouter: a.id,
			Network:           dr.addr.Masked(),
			AttachedRouters:   attached,
			Node:              a.node,
		})
	}

	for _, p := range a.injected {
		a.lsas = append(a.lsas, state.LSA{
			Type:              state.ASExternalLSA,
			LinkStateID:       p.Masked().Addr(),
			AdvertisingRouter: a.id,
			Network:           p.Masked(),
			Node:              a.node,
		})
	}

	a.log.Debug("discovered lsas", "count", len(a.lsas), "links", len(rlsa.Links))
	return len(a.lsas), nil
}

func (a *RouterAgent) processPointToPoint(dev topo.DeviceID, i int) ([]state.LinkRecord, error) {
	local, _ := topo.PrimaryAddress(a.view, a.node, i)
	metric := a.view.Metric(a.node, i)

	seg, ok := a.view.Segment(dev)
	if !ok {
		return nil, nil
	}
	devs := a.view.SegmentDevices(seg)
	idx := slices.IndexFunc(devs, func(d topo.DeviceID) bool { return d != dev })
	if idx == -1 {
		return nil, nil
	}
	rdev := devs[idx]
	rnode := a.view.DeviceNode(rdev)
	remote := a.agents.Agent(rnode)
	if remote == nil {
		a.log.Debug("point-to-point peer does not run global routing", "peer", rnode)
		return nil, nil
	}
	ri, ok := a.view.InterfaceFor(rnode, rdev)
	if !ok {
		return nil, fmt.Errorf("%w: %s device %s", state.ErrMissingInterface, rnode, a.view.DeviceName(rdev))
	}
	raddr, ok := topo.PrimaryAddress(a.view, rnode, ri)
	if !ok {
		return nil, fmt.Errorf("%w: %s interface %d has no address", state.ErrMissingInterface, rnode, ri)
	}

	recs := make([]state.LinkRecord, 0, 2)
	if a.view.InterfaceUp(rnode, ri) {
		rec := state.LinkRecord{
			Type:     state.PointToPoint,
			LinkID:   remote.id.Addr(),
			LinkData: local.Addr(),
			Metric:   metric,
		}
		if ll, ok := topo.LinkLocalAddress(a.view, a.node, i); ok {
			rec.LinkLocalData = ll
		}
		recs = append(recs, rec)
	}
	// a link-local only peer is an intermediate router, not a leaf
	if !topo.LinkLocalOnly(a.view, rnode, ri) {
		recs = append(recs, state.LinkRecord{
			Type:     state.StubNetwork,
			LinkID:   raddr.Addr(),
			LinkData: state.MaskAddr(local.Bits(), local.Addr()),
			Metric:   metric,
		})
	}
	return recs, nil
}

// processBroadcast produces one record for the whole l2 domain of dev. A
// non-nil designated is returned when this router represents the domain.
func (a *RouterAgent) processBroadcast(dev topo.DeviceID, i int) (state.LinkRecord, *designated, error) {
	local, _ := topo.PrimaryAddress(a.view, a.node, i)
	metric := a.view.Metric(a.node, i)

	devs, err := FindAllNonBridgedDevicesOnLink(a.view, dev)
	if err != nil {
		return state.LinkRecord{}, nil, err
	}
	parts := participants(a.view, a.agents, devs)
	transit := slices.ContainsFunc(parts, func(p participant) bool {
		return p.node != a.node
	})
	if !transit {
		return state.LinkRecord{
			Type:     state.StubNetwork,
			LinkID:   local.Masked().Addr(),
			LinkData: state.MaskAddr(local.Bits(), local.Addr()),
			Metric:   metric,
		}, nil, nil
	}

	dr, err := electDesignatedRouter(parts)
	if err != nil {
		return state.LinkRecord{}, nil, err
	}
	rec := state.LinkRecord{
		Type:     state.TransitNetwork,
		LinkID:   dr,
		LinkData: local.Addr(),
		Metric:   metric,
	}
	if dr != local.Addr() {
		return rec, nil, nil
	}
	a.log.Debug("elected designated router", "dev", a.view.DeviceName(dev), "addr", dr)
	return rec, &designated{addr: local, parts: parts}, nil
}

// GetNLSAs returns how many LSAs the last discovery produced
func (a *RouterAgent) GetNLSAs() int {
	return len(a.lsas)
}

// GetLSA copies the LSA at index into out, which must be empty
func (a *RouterAgent) GetLSA(index int, out *state.LSA) {
	if index < 0 || index >= len(a.lsas) {
		panic(fmt.Sprintf("GetLSA: index %d out of range [0, %d)", index, len(a.lsas)))
	}
	if !out.IsEmpty() {
		panic("GetLSA: output lsa must be empty")
	}
	*out = a.lsas[index].Clone()
}

// InjectRoute advertises a network this router can reach outside the
// computed topology. It takes effect on the next discovery.
func (a *RouterAgent) InjectRoute(network netip.Prefix) {
	network = network.Masked()
	if slices.Contains(a.injected, network) {
		return
	}
	a.injected = append(a.injected, network)
}

// WithdrawRoute removes an injected route, reporting whether it existed
func (a *RouterAgent) WithdrawRoute(network netip.Prefix) bool {
	idx := slices.Index(a.injected, network.Masked())
	if idx == -1 {
		return false
	}
	a.injected = slices.Delete(a.injected, idx, idx+1)
	return true
}

// InjectedRoutes returns a copy of the external routes this router advertises
func (a *RouterAgent) InjectedRoutes() []netip.Prefix {
	return slices.Clone(a.injected)
}

func (a *RouterAgent) GetNInjectedRoutes() int {
	return len(a.injected)
}

func (a *RouterAgent) GetInjectedRoute(index int) netip.Prefix {
	return a.injected[index]
}

func (a *RouterAgent) RemoveInjectedRoute(index int) {
	if index < 0 || index >= len(a.injected) {
		panic(fmt.Sprintf("RemoveInjectedRoute: index %d out of range [0, %d)", index, len(a.injected)))
	}
	a.injected = slices.Delete(a.injected, index, index+1)
}
