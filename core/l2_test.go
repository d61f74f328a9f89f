package core

import (
	"net/netip"
	"testing"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bridged builds r1 -- s1 -- [sw: p1 p2] -- s2 -- r2, the switch has no address
func bridged(t *testing.T) (*topo.Network, topo.DeviceID) {
	n := topo.NewNetwork()
	n.MustConnectBroadcast("s1", ep("r1", "10.0.0.1/24"), topo.Endpoint{Node: "sw", Device: "p1"})
	n.MustConnectBroadcast("s2", ep("r2", "10.0.0.2/24"), topo.Endpoint{Node: "sw", Device: "p2"})
	p1, _ := n.DeviceByName("sw", "p1")
	p2, _ := n.DeviceByName("sw", "p2")
	br, err := n.AddBridge("sw", "br0", p1, p2)
	require.NoError(t, err)
	return n, br
}

func TestFindDevicesAcrossBridge(t *testing.T) {
	n, br := bridged(t)
	r1, _ := n.DeviceByName("r1", "s1-r1")
	r2, _ := n.DeviceByName("r2", "s2-r2")

	devs, err := FindAllNonBridgedDevicesOnLink(n, r1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []topo.DeviceID{r1, br, r2}, devs)

	// starting from a bridge port yields the same domain
	p2, _ := n.DeviceByName("sw", "p2")
	devs, err = FindAllNonBridgedDevicesOnLink(n, p2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []topo.DeviceID{r1, br, r2}, devs)
}

func TestFindDevicesDetached(t *testing.T) {
	n := topo.NewNetwork()
	require.NoError(t, n.AddNode("a"))
	d, err := n.AddDevice("a", "eth0", topo.Broadcast)
	require.NoError(t, err)
	devs, err := FindAllNonBridgedDevicesOnLink(n, d)
	require.NoError(t, err)
	assert.Equal(t, []topo.DeviceID{d}, devs)
}

func TestBridgedDomainElectsOneDR(t *testing.T) {
	n, _ := bridged(t)
	m := newManager(t, n, state.DefaultRoutingCfg(), "r1", "r2", "sw")
	require.NoError(t, m.PopulateRoutingTables())

	for _, node := range []string{"r1", "r2"} {
		links := lsasOf(m.Agent(node))[0].Links
		require.Len(t, links, 1)
		assert.Equal(t, state.TransitNetwork, links[0].Type)
		assert.Equal(t, addr("10.0.0.1"), links[0].LinkID)
	}
	// the switch has no addressed interface, it only carries a router lsa
	assert.Equal(t, 1, m.Agent("sw").GetNLSAs())

	r := m.Agent("r2").RoutingTable().LookupGlobal(addr("10.0.0.1"), state.NoInterface)
	require.NotNil(t, r)
	assert.Equal(t, netip.IPv4Unspecified(), r.Gateway)
}

func TestAddressedBridgeJoinsDomain(t *testing.T) {
	n, br := bridged(t)
	_, err := n.AddInterface("sw", br, 1, pfx("10.0.0.254/24"))
	require.NoError(t, err)
	m := newManager(t, n, state.DefaultRoutingCfg(), "r1", "r2", "sw")
	require.NoError(t, m.BuildGlobalRoutingDatabase())

	nl := m.Database().NetworkLSA(addr("10.0.0.1"))
	require.NotNil(t, nl)
	assert.Equal(t, []netip.Addr{addr("10.0.0.1"), addr("10.0.0.2"), addr("10.0.0.254")}, nl.AttachedRouters)

	links := lsasOf(m.Agent("sw"))[0].Links
	require.Len(t, links, 1)
	assert.Equal(t, state.TransitNetwork, links[0].Type)
	assert.Equal(t, addr("10.0.0.254"), links[0].LinkData)
}

func TestBridgedPortWithAddress(t *testing.T) {
	n, _ := bridged(t)
	p1, _ := n.DeviceByName("sw", "p1")
	_, err := n.AddInterface("sw", p1, 1, pfx("10.0.0.200/24"))
	require.NoError(t, err)
	m := newManager(t, n, state.DefaultRoutingCfg(), "r1", "r2", "sw")
	err = m.BuildGlobalRoutingDatabase()
	assert.ErrorIs(t, err, state.ErrBridgedPortAddressed)
}

func TestL2Loop(t *testing.T) {
	n := topo.NewNetwork()
	n.MustConnectBroadcast("s1", ep("r1", "10.0.0.1/24"),
		topo.Endpoint{Node: "sw1", Device: "p1"}, topo.Endpoint{Node: "sw2", Device: "p1"})
	n.MustConnectBroadcast("s2", ep("r2", "10.0.0.2/24"),
		topo.Endpoint{Node: "sw1", Device: "p2"}, topo.Endpoint{Node: "sw2", Device: "p2"})
	for _, sw := range []string{"sw1", "sw2"} {
		p1, _ := n.DeviceByName(sw, "p1")
		p2, _ := n.DeviceByName(sw, "p2")
		_, err := n.AddBridge(sw, "br0", p1, p2)
		require.NoError(t, err)
	}
	r1, _ := n.DeviceByName("r1", "s1-r1")
	_, err := FindAllNonBridgedDevicesOnLink(n, r1)
	assert.ErrorIs(t, err, state.ErrL2Loop)

	m := newManager(t, n, state.DefaultRoutingCfg(), "r1", "r2")
	assert.ErrorIs(t, m.PopulateRoutingTables(), state.ErrL2Loop)
}

func TestElectDesignatedRouter(t *testing.T) {
	parts := []participant{
		{node: "c", addr: pfx("10.0.0.3/24")},
		{node: "a", addr: pfx("10.0.0.10/24")},
		{node: "b", addr: pfx("10.0.0.2/24")},
	}
	dr, err := electDesignatedRouter(parts)
	require.NoError(t, err)
	assert.Equal(t, addr("10.0.0.2"), dr)

	// enumeration order does not matter
	parts[0], parts[2] = parts[2], parts[0]
	dr, err = electDesignatedRouter(parts)
	require.NoError(t, err)
	assert.Equal(t, addr("10.0.0.2"), dr)

	dr, err = electDesignatedRouter(nil)
	require.NoError(t, err)
	assert.False(t, dr.IsValid())
}
