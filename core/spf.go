package core

import (
	"cmp"
	"container/heap"
	"net/netip"
	"slices"

	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
)

type vertexType uint8

// networks sort before routers so transit vertices are settled first at equal distance
const (
	vertexNetwork vertexType = iota
	vertexRouter
)

type vertexKey struct {
	typ vertexType
	id  netip.Addr
}

// exitDir is a (gateway, outgoing interface) pair at the root. An invalid
// gateway means the destination is on-link.
type exitDir = state.Pair[netip.Addr, int]

type vertex struct {
	key   vertexKey
	lsa   *state.LSA
	dist  uint32
	exits []exitDir
	index int
}

func (v *vertex) addExits(exits []exitDir) {
	for _, e := range exits {
		if !slices.Contains(v.exits, e) {
			v.exits = append(v.exits, e)
		}
	}
}

// candidateQueue is a min-heap on distance
type candidateQueue []*vertex

func (q candidateQueue) Len() int { return len(q) }

func (q candidateQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	if q[i].key.typ != q[j].key.typ {
		return q[i].key.typ < q[j].key.typ
	}
	return q[i].key.id.Less(q[j].key.id)
}

func (q candidateQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *candidateQueue) Push(x any) {
	v := x.(*vertex)
	v.index = len(*q)
	*q = append(*q, v)
}

func (q *candidateQueue) Pop() any {
	old := *q
	n := len(old)
	v := old[n-1]
	old[n-1] = nil
	v.index = -1
	*q = old[:n-1]
	return v
}

// spfRun is the working state of one shortest path computation
type spfRun struct {
	db       *Lsdb
	view     topo.View
	rootNode string
	root     *vertex
	vertices map[vertexKey]*vertex
	tree     []*vertex
	queue    candidateQueue
}

func routerKey(id state.RouterID) vertexKey {
	return vertexKey{typ: vertexRouter, id: id.Addr()}
}

// runSPF builds the shortest path tree rooted at the router LSA of root
func runSPF(db *Lsdb, view topo.View, rootNode string, root state.RouterID) *spfRun {
	rlsa := db.RouterLSA(root)
	if rlsa == nil {
		return nil
	}
	db.resetStatus()
	s := &spfRun{
		db:       db,
		view:     view,
		rootNode: rootNode,
		vertices: make(map[vertexKey]*vertex),
	}
	s.root = &vertex{key: routerKey(root), lsa: rlsa, index: -1}
	s.vertices[s.root.key] = s.root
	rlsa.Status = state.InSpfTree
	s.tree = append(s.tree, s.root)

	v := s.root
	for {
		s.next(v)
		if s.queue.Len() == 0 {
			break
		}
		v = heap.Pop(&s.queue).(*vertex)
		v.lsa.Status = state.InSpfTree
		s.tree = append(s.tree, v)
	}
	return s
}

// next relaxes every edge out of v
func (s *spfRun) next(v *vertex) {
	switch v.key.typ {
	case vertexRouter:
		for _, l := range v.lsa.Links {
			switch l.Type {
			case state.PointToPoint:
				id, ok := state.RouterIDFromAddr(l.LinkID)
				if !ok {
					continue
				}
				w := s.db.RouterLSA(id)
				if w == nil || !hasPointToPointBack(w, v.lsa.AdvertisingRouter) {
					continue
				}
				s.relax(w, routerKey(id), v.dist+uint32(l.Metric), s.exitsVia(v, w, l))
			case state.TransitNetwork:
				w := s.db.NetworkLSA(l.LinkID)
				if w == nil || !slices.Contains(w.AttachedRouters, l.LinkData) {
					continue
				}
				s.relax(w, vertexKey{typ: vertexNetwork, id: l.LinkID}, v.dist+uint32(l.Metric), s.exitsVia(v, w, l))
			}
		}
	case vertexNetwork:
		for _, addr := range v.lsa.AttachedRouters {
			w := s.db.RouterLSAByLinkData(addr)
			if w == nil || !hasTransitInto(w, v.lsa.LinkStateID) {
				continue
			}
			s.relax(w, routerKey(w.AdvertisingRouter), v.dist, s.exitsThroughNetwork(v, addr))
		}
	}
}

func hasPointToPointBack(w *state.LSA, to state.RouterID) bool {
	return slices.ContainsFunc(w.Links, func(l state.LinkRecord) bool {
		return l.Type == state.PointToPoint && l.LinkID == to.Addr()
	})
}

func hasTransitInto(w *state.LSA, dr netip.Addr) bool {
	return slices.ContainsFunc(w.Links, func(l state.LinkRecord) bool {
		return l.Type == state.TransitNetwork && l.LinkID == dr
	})
}

func (s *spfRun) relax(w *state.LSA, key vertexKey, dist uint32, exits []exitDir) {
	if w.Status == state.InSpfTree || len(exits) == 0 {
		return
	}
	switch w.Status {
	case state.NotExplored:
		wv := &vertex{key: key, lsa: w, dist: dist}
		wv.addExits(exits)
		s.vertices[key] = wv
		w.Status = state.Candidate
		heap.Push(&s.queue, wv)
	case state.Candidate:
		wv := s.vertices[key]
		switch {
		case dist < wv.dist:
			wv.dist = dist
			wv.exits = nil
			wv.addExits(exits)
			heap.Fix(&s.queue, wv.index)
		case dist == wv.dist:
			wv.addExits(exits)
		}
	}
}

// exitsVia computes the root exit directions of w reached from router v over l
func (s *spfRun) exitsVia(v *vertex, w *state.LSA, l state.LinkRecord) []exitDir {
	if v != s.root {
		return v.exits
	}
	out, ok := topo.InterfaceWithAddress(s.view, s.rootNode, l.LinkData)
	if !ok {
		return nil
	}
	if l.Type == state.TransitNetwork {
		return []exitDir{{V2: out}}
	}
	gw, ok := s.peerAddress(w, out)
	if !ok {
		return nil
	}
	return []exitDir{{V1: gw, V2: out}}
}

// peerAddress finds the address of router w on the point-to-point link that
// leaves the root through interface out.
func (s *spfRun) peerAddress(w *state.LSA, out int) (netip.Addr, bool) {
	rootAddr := s.root.lsa.AdvertisingRouter.Addr()
	var fallback netip.Addr
	for _, l := range w.Links {
		if l.Type != state.PointToPoint || l.LinkID != rootAddr {
			continue
		}
		if !fallback.IsValid() {
			fallback = l.LinkData
		}
		for _, p := range s.view.Addresses(s.rootNode, out) {
			if p.Masked().Contains(l.LinkData) {
				return l.LinkData, true
			}
		}
	}
	return fallback, fallback.IsValid()
}

// exitsThroughNetwork computes the exits of a router reached across network
// v. On a network attached to the root the router itself becomes the gateway.
func (s *spfRun) exitsThroughNetwork(v *vertex, addr netip.Addr) []exitDir {
	out := make([]exitDir, 0, len(v.exits))
	for _, e := range v.exits {
		if e.V1.IsValid() {
			out = append(out, e)
		} else {
			out = append(out, exitDir{V1: addr, V2: e.V2})
		}
	}
	return out
}

type candKey struct {
	kind state.RouteKind
	dest netip.Addr
	net  netip.Prefix
}

type routeCand struct {
	candKey
	metric uint32
	exits  []exitDir
}

// routeSet keeps, per destination, only the cheapest candidates
type routeSet struct {
	order []candKey
	cands map[candKey]*routeCand
}

func newRouteSet() *routeSet {
	return &routeSet{cands: make(map[candKey]*routeCand)}
}

func (rs *routeSet) offer(key candKey, metric uint32, exits []exitDir) {
	if len(exits) == 0 {
		return
	}
	c, ok := rs.cands[key]
	if !ok {
		rs.order = append(rs.order, key)
		rs.cands[key] = &routeCand{candKey: key, metric: metric, exits: slices.Clone(exits)}
		return
	}
	switch cmp.Compare(metric, c.metric) {
	case -1:
		c.metric = metric
		c.exits = slices.Clone(exits)
	case 0:
		for _, e := range exits {
			if !slices.Contains(c.exits, e) {
				c.exits = append(c.exits, e)
			}
		}
	}
}

// routes turns the shortest path tree into routing table entries
func (s *spfRun) routes() []state.RouteEntry {
	rs := newRouteSet()

	for _, l := range s.root.lsa.Links {
		if l.Type != state.StubNetwork {
			continue
		}
		pfx := l.StubPrefix()
		for _, i := range s.view.Interfaces(s.rootNode) {
			if slices.ContainsFunc(s.view.Addresses(s.rootNode, i), func(p netip.Prefix) bool {
				return p.Masked() == pfx
			}) {
				rs.offer(candKey{kind: state.NetworkRoute, net: pfx}, uint32(l.Metric), []exitDir{{V2: i}})
				break
			}
		}
	}

	for _, v := range s.tree[1:] {
		switch v.key.typ {
		case vertexRouter:
			for _, l := range v.lsa.Links {
				switch l.Type {
				case state.PointToPoint:
					rs.offer(candKey{kind: state.HostRoute, dest: l.LinkData}, v.dist, v.exits)
				case state.StubNetwork:
					rs.offer(candKey{kind: state.NetworkRoute, net: l.StubPrefix()}, v.dist+uint32(l.Metric), v.exits)
				}
			}
		case vertexNetwork:
			rs.offer(candKey{kind: state.NetworkRoute, net: v.lsa.Network.Masked()}, v.dist, v.exits)
		}
	}

	for _, ext := range s.db.Externals() {
		if ext.AdvertisingRouter == s.root.lsa.AdvertisingRouter {
			continue
		}
		v, ok := s.vertices[routerKey(ext.AdvertisingRouter)]
		if !ok || v.lsa.Status != state.InSpfTree {
			continue
		}
		rs.offer(candKey{kind: state.ExternalRoute, net: ext.Network.Masked()}, v.dist, v.exits)
	}

	out := make([]state.RouteEntry, 0, len(rs.order))
	for _, k := range rs.order {
		c := rs.cands[k]
		for _, e := range c.exits {
			entry := state.RouteEntry{
				Kind:      k.kind,
				Dest:      k.dest,
				Network:   k.net,
				Gateway:   e.V1,
				Interface: e.V2,
				Metric:    c.metric,
			}
			if k.kind != state.HostRoute {
				entry.Dest = k.net.Addr()
			}
			out = append(out, entry)
		}
	}
	return out
}

// distance returns the cost from the root to a router, false if unreachable
func (s *spfRun) distance(id state.RouterID) (uint32, bool) {
	v, ok := s.vertices[routerKey(id)]
	if !ok {
		return 0, false
	}
	return v.dist, true
}
