package core

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"net/netip"
	"slices"
	"time"

	"github.com/encodeous/gospf/perf"
	"github.com/encodeous/gospf/state"
	"github.com/encodeous/gospf/topo"
)

// RouteManager coordinates global routing for one topology: it owns the
// router agents, assembles the link-state database and installs the SPF
// result into every agent's routing table. It must only be used from a
// single goroutine.
type RouteManager struct {
	view   topo.View
	cfg    state.RoutingCfg
	log    *slog.Logger
	rng    *rand.Rand
	nextID state.RouterID
	agents map[string]*RouterAgent
	db     *Lsdb
}

func NewRouteManager(view topo.View, cfg state.RoutingCfg, logger *slog.Logger) *RouteManager {
	seed := cfg.EcmpSeed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RouteManager{
		view:   view,
		cfg:    cfg,
		log:    logger,
		rng:    rand.New(rand.NewPCG(seed, seed)),
		nextID: 1,
		agents: make(map[string]*RouterAgent),
		db:     NewLsdb(),
	}
}

// AllocateRouterId returns a fresh router id, ids are strictly increasing
func (m *RouteManager) AllocateRouterId() state.RouterID {
	id := m.nextID
	m.nextID++
	return id
}

// ResetRouterId rewinds the id allocator. Only for isolating independent
// test runs, agents created before the reset keep their ids.
func (m *RouteManager) ResetRouterId() {
	m.nextID = 1
}

// AddRouter starts global routing on a node of the topology
func (m *RouteManager) AddRouter(node string) (*RouterAgent, error) {
	if !slices.Contains(m.view.Nodes(), node) {
		return nil, fmt.Errorf("%w: %s is not in the topology", state.ErrUnknownNode, node)
	}
	if _, ok := m.agents[node]; ok {
		return nil, fmt.Errorf("node %s already runs a router agent", node)
	}
	a := &RouterAgent{
		id:     m.AllocateRouterId(),
		node:   node,
		view:   m.view,
		agents: m,
	}
	a.log = m.log.With("node", node, "router", a.id.String())
	a.table = NewRoutingTable(node, m.view, &m.cfg, m.rng, a.log)
	m.agents[node] = a
	a.log.Debug("router agent started")
	return a, nil
}

// Agent returns the router agent of node, nil when the node does not
// participate in global routing.
func (m *RouteManager) Agent(node string) *RouterAgent {
	return m.agents[node]
}

// Agents lists every agent in router id order
func (m *RouteManager) Agents() []*RouterAgent {
	return slices.SortedFunc(maps.Values(m.agents), func(a, b *RouterAgent) int {
		return cmp.Compare(a.id, b.id)
	})
}

// RouteCounts lists how many routes every agent holds, by node name
func (m *RouteManager) RouteCounts() []state.Pair[string, int] {
	out := make([]state.Pair[string, int], 0, len(m.agents))
	for node, a := range m.agents {
		out = append(out, state.Pair[string, int]{V1: node, V2: a.table.GetNRoutes()})
	}
	state.SortPairs(out)
	return out
}

// Database returns the link-state database of the last build
func (m *RouteManager) Database() *Lsdb {
	return m.db
}

func (m *RouteManager) agentOf(node string) (*RouterAgent, error) {
	a := m.agents[node]
	if a == nil {
		return nil, fmt.Errorf("%w: %s", state.ErrUnknownNode, node)
	}
	return a, nil
}

// BuildGlobalRoutingDatabase rediscovers the LSAs of every agent and
// replaces the database with them. A topology violation aborts the build and
// leaves the previous database in place.
func (m *RouteManager) BuildGlobalRoutingDatabase() error {
	db := NewLsdb()
	for _, a := range m.Agents() {
		n, err := a.DiscoverLSAs()
		if err != nil {
			return fmt.Errorf("discovering lsas of %s: %w", a.node, err)
		}
		for i := range n {
			var lsa state.LSA
			a.GetLSA(i, &lsa)
			db.Insert(lsa)
		}
	}
	m.db = db
	m.log.Debug("built global routing database", "lsas", db.Len(), "routers", len(db.Routers()))
	return nil
}

// InitializeRoutes runs the SPF rooted at every agent and installs the
// resulting routes. It works on whatever the last build produced.
func (m *RouteManager) InitializeRoutes() error {
	if m.db.Len() == 0 {
		m.log.Warn("initializing routes from an empty link-state database")
		return nil
	}
	total := 0
	for _, a := range m.Agents() {
		start := time.Now()
		run := runSPF(m.db, m.view, a.node, a.id)
		if run == nil {
			a.log.Warn("router has no lsa in the database, skipping spf")
			continue
		}
		routes := run.routes()
		for _, r := range routes {
			a.table.install(r)
		}
		perf.SpfLatency.Add(float64(time.Since(start).Microseconds()))
		perf.SpfRuns.Add(1)
		perf.RoutesInstalled.Add(float64(len(routes)))
		total += len(routes)
		a.log.Debug("installed routes", "count", len(routes), "reachable", len(run.tree)-1)
	}
	m.log.Info("routing tables initialized", "routers", len(m.agents), "routes", total)
	return nil
}

// DeleteGlobalRoutes empties every routing table. Injected routes stay with
// their agents.
func (m *RouteManager) DeleteGlobalRoutes() {
	for _, a := range m.agents {
		a.table.DeleteRoutes()
	}
}

// PopulateRoutingTables builds the database and installs routes from it
func (m *RouteManager) PopulateRoutingTables() error {
	if err := m.BuildGlobalRoutingDatabase(); err != nil {
		return err
	}
	return m.InitializeRoutes()
}

// RecomputeRoutingTables rebuilds every table from the current topology
func (m *RouteManager) RecomputeRoutingTables() error {
	m.DeleteGlobalRoutes()
	return m.PopulateRoutingTables()
}

// InjectRoute makes node advertise network as an external route. It is
// picked up by the next populate or recompute.
func (m *RouteManager) InjectRoute(node string, network netip.Prefix) error {
	a, err := m.agentOf(node)
	if err != nil {
		return err
	}
	a.InjectRoute(network)
	return nil
}

// WithdrawRoute stops node from advertising network, reporting whether it
// was advertised.
func (m *RouteManager) WithdrawRoute(node string, network netip.Prefix) (bool, error) {
	a, err := m.agentOf(node)
	if err != nil {
		return false, err
	}
	return a.WithdrawRoute(network), nil
}

// Watch recomputes every table when the topology changes, if enabled in the
// routing configuration.
func (m *RouteManager) Watch(n *topo.Network) {
	n.OnChange(func(ev topo.Event) error {
		if !m.cfg.RespondToInterfaceEvents {
			return nil
		}
		m.log.Debug("topology changed, recomputing", "event", ev.Kind.String(), "node", ev.Node, "iface", ev.Interface)
		return m.RecomputeRoutingTables()
	})
}
