//go:build integration

package integration

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	vh := &VirtualHarness{}
	vh.NewRouter("node1")
	vh.NewRouter("node2")
	vh.NewRouter("node3")
	vh.Link("node1", "10.0.0.1/30", "node2", "10.0.0.2/30", 1)
	vh.Link("node2", "10.0.0.5/30", "node3", "10.0.0.6/30", 1)
	require.NoError(t, vh.Start())
	assert.Equal(t, netip.MustParseAddr("10.0.0.2"), vh.Gateway("node1", "10.0.0.6"))
}

func TestRing(t *testing.T) {
	defer goleak.VerifyNone(t)
	// a - b - c - d - e - a, a -> c is two hops either way round
	vh := &VirtualHarness{}
	for _, n := range []string{"a", "b", "c", "d", "e"} {
		vh.NewRouter(n)
	}
	vh.Link("a", "10.0.1.1/30", "b", "10.0.1.2/30", 1)
	vh.Link("b", "10.0.2.1/30", "c", "10.0.2.2/30", 1)
	vh.Link("c", "10.0.3.1/30", "d", "10.0.3.2/30", 1)
	vh.Link("d", "10.0.4.1/30", "e", "10.0.4.2/30", 1)
	vh.Link("e", "10.0.5.1/30", "a", "10.0.5.2/30", 1)
	require.NoError(t, vh.Start())

	path, err := vh.Path("a", "10.0.2.2")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, path)

	path, err = vh.Path("a", "10.0.4.1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "e", "d"}, path)
}

func TestLanWithHosts(t *testing.T) {
	vh := &VirtualHarness{}
	vh.NewRouter("r1", "0.0.0.0/0")
	vh.NewRouter("r2")
	vh.NewHost("h1")
	vh.Lan(map[string]string{"r1": "10.1.0.1/24", "r2": "10.1.0.2/24", "h1": "10.1.0.100/24"})
	vh.Link("r2", "10.2.0.1/30", "r3", "10.2.0.2/30", 1)
	vh.NewRouter("r3")
	require.NoError(t, vh.Start())

	// the host is reached on-link from the segment it shares with r1
	path, err := vh.Path("r3", "10.1.0.100")
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2", "h1"}, path)

	// the default route injected by r1 is used for everything else
	assert.Equal(t, netip.MustParseAddr("10.2.0.1"), vh.Gateway("r3", "8.8.8.8"))
	assert.Equal(t, netip.MustParseAddr("10.1.0.1"), vh.Gateway("r2", "8.8.8.8"))
	assert.Nil(t, vh.Manager.Agent("h1"))
}
