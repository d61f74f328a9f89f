package core

import (
	"log/slog"
	"net/netip"
	"testing"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var equateNet = cmpopts.EquateComparable(netip.Addr{}, netip.Prefix{})

func testLogger(t *testing.T) *slog.Logger {
	l, err := NewLogger(slog.LevelDebug, t.Name(), "")
	require.NoError(t, err)
	return l
}

func newManager(t *testing.T, n *topo.Network, cfg state.RoutingCfg, routers ...string) *RouteManager {
	m := NewRouteManager(n, cfg, testLogger(t))
	for _, r := range routers {
		_, err := m.AddRouter(r)
		require.NoError(t, err)
	}
	return m
}

func ep(node, addr string) topo.Endpoint {
	return topo.Endpoint{Node: node, Address: addr}
}

func addr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func pfx(s string) netip.Prefix {
	return netip.MustParsePrefix(s)
}

// chain builds a -- b -- c over two point-to-point links of metric 1
//
//	a 10.0.1.1/30 -- 10.0.1.2/30 b 10.0.2.1/30 -- 10.0.2.2/30 c
func chain() *topo.Network {
	n := topo.NewNetwork()
	n.MustConnectP2P("ab", ep("a", "10.0.1.1/30"), ep("b", "10.0.1.2/30"))
	n.MustConnectP2P("bc", ep("b", "10.0.2.1/30"), ep("c", "10.0.2.2/30"))
	return n
}

// square builds two equal cost paths from a to d
//
//	   b
//	  / \
//	a     d -- dlan (10.9.0.0/24, host h)
//	  \ /
//	   c
func square() *topo.Network {
	n := topo.NewNetwork()
	n.MustConnectP2P("ab", ep("a", "10.0.1.1/30"), ep("b", "10.0.1.2/30"))
	n.MustConnectP2P("ac", ep("a", "10.0.2.1/30"), ep("c", "10.0.2.2/30"))
	n.MustConnectP2P("bd", ep("b", "10.0.3.1/30"), ep("d", "10.0.3.2/30"))
	n.MustConnectP2P("cd", ep("c", "10.0.4.1/30"), ep("d", "10.0.4.2/30"))
	n.MustConnectBroadcast("dlan", ep("d", "10.9.0.1/24"), ep("h", "10.9.0.10/24"))
	return n
}

// lan puts three routers on one broadcast segment
func lan() *topo.Network {
	n := topo.NewNetwork()
	n.MustConnectBroadcast("lan",
		ep("r3", "10.0.0.3/24"),
		ep("r1", "10.0.0.1/24"),
		ep("r2", "10.0.0.2/24"),
	)
	return n
}

func lsasOf(a *RouterAgent) []state.LSA {
	out := make([]state.LSA, 0, a.GetNLSAs())
	for i := range a.GetNLSAs() {
		var l state.LSA
		a.GetLSA(i, &l)
		out = append(out, l)
	}
	return out
}

// routesTo returns the entries of table whose destination is dst
func routesTo(t *RoutingTable, dst netip.Prefix) []state.RouteEntry {
	var out []state.RouteEntry
	for _, e := range t.Routes() {
		if e.IsHost() && dst.Bits() == dst.Addr().BitLen() && e.Dest == dst.Addr() {
			out = append(out, e)
		} else if !e.IsHost() && e.Network == dst {
			out = append(out, e)
		}
	}
	return out
}
