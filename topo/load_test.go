package topo

import (
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
routing:
  lookup_cache_ttl: 30s
  ecmp_seed: 7
nodes:
  - name: a
    inject: [192.168.1.0/24]
    devices:
      - {name: eth0, kind: p2p, segment: ab, address: [10.0.1.1/30], metric: 4}
  - name: b
    devices:
      - {name: eth0, kind: p2p, segment: ab, address: [10.0.1.2/30]}
      - {name: p0, kind: broadcast, segment: lan1}
      - {name: p1, kind: broadcast, segment: lan2}
      - {name: br0, kind: bridge, ports: [p0, p1], address: [10.2.0.1/24]}
  - name: h
    host: true
    devices:
      - {name: eth0, segment: lan1, address: [10.2.0.10/24], down: true, no_forward: true}
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, f.Routing.LookupCacheTTL)
	assert.Equal(t, uint64(7), f.Routing.EcmpSeed)
	assert.Equal(t, uint16(1), f.Routing.DefaultMetric)
	require.Len(t, f.Nodes, 3)
	assert.Equal(t, []netip.Prefix{netip.MustParsePrefix("192.168.1.0/24")}, f.Nodes[0].Inject)

	routers := f.Routers()
	require.Len(t, routers, 2)
	assert.Equal(t, "b", routers[1].Name)
}

func TestBuild(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)
	n, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "h"}, n.Nodes())
	eth0, ok := n.DeviceByName("a", "eth0")
	require.True(t, ok)
	i, ok := n.InterfaceFor("a", eth0)
	require.True(t, ok)
	assert.Equal(t, uint16(4), n.Metric("a", i))

	br, ok := n.DeviceByName("b", "br0")
	require.True(t, ok)
	assert.Equal(t, Bridge, n.DeviceKind(br))
	assert.Len(t, n.BridgePorts(br), 2)
	p0, _ := n.DeviceByName("b", "p0")
	owner, ok := n.BridgeOf(p0)
	require.True(t, ok)
	assert.Equal(t, br, owner)
	bi, ok := n.InterfaceFor("b", br)
	require.True(t, ok)
	assert.Equal(t, uint16(1), n.Metric("b", bi))

	h, _ := n.DeviceByName("h", "eth0")
	hi, ok := n.InterfaceFor("h", h)
	require.True(t, ok)
	assert.False(t, n.InterfaceUp("h", hi))
	assert.False(t, n.Forwarding("h", hi))
	assert.Equal(t, Broadcast, n.DeviceKind(h))
}

func TestBuildErrors(t *testing.T) {
	bad := map[string]string{
		"kind":    "nodes: [{name: a, devices: [{name: x, kind: tunnel}]}]",
		"port":    "nodes: [{name: a, devices: [{name: br, kind: bridge, ports: [nope]}]}]",
		"name":    "nodes: [{name: A}]",
		"p2p end": "nodes: [{name: a, devices: [{name: x, kind: p2p, segment: s}]}]",
	}
	for what, doc := range bad {
		f, err := Parse([]byte(doc))
		require.NoError(t, err, what)
		_, err = f.Build()
		assert.Error(t, err, what)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0600))
	f, n, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Nodes, 3)
	assert.Len(t, n.Nodes(), 3)

	require.NoError(t, os.WriteFile(path, []byte("routing: {random_ecmp: true, lookup_cache_ttl: 1s}\n"), 0600))
	_, _, err = Load(path)
	assert.Error(t, err)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
