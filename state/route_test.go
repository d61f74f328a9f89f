package state

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteEntry(t *testing.T) {
	host := RouteEntry{Kind: HostRoute, Dest: netip.MustParseAddr("10.0.0.5"), Gateway: netip.MustParseAddr("10.1.0.1"), Interface: 1, Metric: 3}
	net := RouteEntry{Kind: NetworkRoute, Network: netip.MustParsePrefix("10.0.0.0/24"), Dest: netip.MustParseAddr("10.0.0.0"), Interface: 2}

	assert.True(t, host.IsHost())
	assert.True(t, host.IsGateway())
	assert.False(t, net.IsGateway())
	assert.True(t, host.Matches(netip.MustParseAddr("10.0.0.5")))
	assert.False(t, host.Matches(netip.MustParseAddr("10.0.0.6")))
	assert.True(t, net.Matches(netip.MustParseAddr("10.0.0.6")))

	other := host
	other.Metric = 10
	assert.True(t, host.Same(other))
	other.Interface = 2
	assert.False(t, host.Same(other))

	assert.Equal(t, "host 10.0.0.5 via 10.1.0.1 if 1 metric 3", host.String())
	assert.Equal(t, "net 10.0.0.0/24 on-link if 2 metric 0", net.String())
}

func TestCoalescePrefix(t *testing.T) {
	in := []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/25"),
		netip.MustParsePrefix("10.0.0.128/25"),
		netip.MustParsePrefix("10.0.0.7/32"),
		netip.MustParsePrefix("2001:db8::/64"),
	}
	assert.ElementsMatch(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/24"),
		netip.MustParsePrefix("2001:db8::/64"),
	}, CoalescePrefix(in))
}
