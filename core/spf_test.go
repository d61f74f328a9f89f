package core

import (
	"container/heap"
	"testing"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p2p(to state.RouterID, local string, metric uint16) state.LinkRecord {
	return state.LinkRecord{Type: state.PointToPoint, LinkID: to.Addr(), LinkData: addr(local), Metric: metric}
}

func TestSpfRequiresBackLink(t *testing.T) {
	n := chain()
	db := NewLsdb()
	db.Insert(state.LSA{Type: state.RouterLSA, LinkStateID: state.RouterID(1).Addr(), AdvertisingRouter: 1,
		Links: []state.LinkRecord{p2p(2, "10.0.1.1", 1)}})
	// b only advertises c, so a cannot use the a-b edge
	db.Insert(state.LSA{Type: state.RouterLSA, LinkStateID: state.RouterID(2).Addr(), AdvertisingRouter: 2,
		Links: []state.LinkRecord{p2p(3, "10.0.2.1", 1)}})
	db.Insert(state.LSA{Type: state.RouterLSA, LinkStateID: state.RouterID(3).Addr(), AdvertisingRouter: 3,
		Links: []state.LinkRecord{p2p(2, "10.0.2.2", 1)}})

	run := runSPF(db, n, "a", 1)
	require.NotNil(t, run)
	_, ok := run.distance(2)
	assert.False(t, ok)
	assert.Empty(t, run.routes())

	run = runSPF(db, n, "b", 2)
	require.NotNil(t, run)
	d, ok := run.distance(3)
	require.True(t, ok)
	assert.Equal(t, uint32(1), d)
}

func TestSpfMissingRoot(t *testing.T) {
	assert.Nil(t, runSPF(NewLsdb(), topo.NewNetwork(), "a", 1))
}

func TestSpfDistances(t *testing.T) {
	n := square()
	require.NoError(t, n.SetMetric("a", 2, 5))
	m := newManager(t, n, state.DefaultRoutingCfg(), "a", "b", "c", "d")
	require.NoError(t, m.BuildGlobalRoutingDatabase())

	run := runSPF(m.Database(), n, "a", m.Agent("a").RouterID())
	require.NotNil(t, run)
	for node, want := range map[string]uint32{"a": 0, "b": 1, "d": 2, "c": 3} {
		d, ok := run.distance(m.Agent(node).RouterID())
		require.True(t, ok, node)
		assert.Equal(t, want, d, node)
	}
	// the tree is settled in order of distance
	for i := 1; i < len(run.tree); i++ {
		assert.LessOrEqual(t, run.tree[i-1].dist, run.tree[i].dist)
	}
	for _, v := range run.tree {
		assert.Equal(t, state.InSpfTree, v.lsa.Status)
	}
}

func TestCandidateQueueOrder(t *testing.T) {
	q := candidateQueue{}
	push := func(typ vertexType, id string, dist uint32) {
		heap.Push(&q, &vertex{key: vertexKey{typ: typ, id: addr(id)}, dist: dist})
	}
	push(vertexRouter, "0.0.0.2", 1)
	push(vertexRouter, "0.0.0.1", 1)
	push(vertexNetwork, "10.0.0.9", 1)
	push(vertexRouter, "0.0.0.3", 0)

	var got []string
	for q.Len() > 0 {
		got = append(got, heap.Pop(&q).(*vertex).key.id.String())
	}
	assert.Equal(t, []string{"0.0.0.3", "10.0.0.9", "0.0.0.1", "0.0.0.2"}, got)
}

func TestRouteSetKeepsCheapest(t *testing.T) {
	rs := newRouteSet()
	k := candKey{kind: state.NetworkRoute, net: pfx("10.0.0.0/24")}
	viaB := exitDir{V1: addr("10.0.1.2"), V2: 1}
	viaC := exitDir{V1: addr("10.0.2.2"), V2: 2}

	rs.offer(k, 5, []exitDir{viaB})
	rs.offer(k, 3, []exitDir{viaC})
	rs.offer(k, 3, []exitDir{viaB, viaC})
	rs.offer(k, 4, []exitDir{{V1: addr("10.0.3.2"), V2: 3}})
	rs.offer(k, 1, nil)

	require.Len(t, rs.order, 1)
	c := rs.cands[k]
	assert.Equal(t, uint32(3), c.metric)
	assert.Equal(t, []exitDir{viaC, viaB}, c.exits)
}

func TestLsdbIndexes(t *testing.T) {
	m := newManager(t, lan(), state.DefaultRoutingCfg(), "r1", "r2", "r3")
	m.Agent("r3").InjectRoute(pfx("0.0.0.0/0"))
	require.NoError(t, m.BuildGlobalRoutingDatabase())
	db := m.Database()

	assert.Equal(t, 5, db.Len())
	assert.Equal(t, []state.RouterID{1, 2, 3}, db.Routers())
	require.NotNil(t, db.NetworkLSA(addr("10.0.0.1")))
	assert.Nil(t, db.NetworkLSA(addr("10.0.0.2")))
	assert.Equal(t, m.Agent("r2").RouterID(), db.RouterLSAByLinkData(addr("10.0.0.2")).AdvertisingRouter)
	require.Len(t, db.Externals(), 1)
	assert.Len(t, db.Advertised(m.Agent("r1").RouterID()), 2)
	assert.Contains(t, db.String(), "as-external")
}
