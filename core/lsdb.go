package core

import (
	"cmp"
	"maps"
	"net/netip"
	"slices"
	"strings"

	"github.com/encodeous/gospf/state"
)

// Lsdb is the global link-state database assembled from every router agent.
// It owns its LSAs; the indexes point into the per-router lists.
type Lsdb struct {
	byRouter   map[state.RouterID][]*state.LSA
	routers    map[state.RouterID]*state.LSA
	networks   map[netip.Addr]*state.LSA
	byLinkData map[netip.Addr]*state.LSA
	externals  []*state.LSA
}

func NewLsdb() *Lsdb {
	return &Lsdb{
		byRouter:   make(map[state.RouterID][]*state.LSA),
		routers:    make(map[state.RouterID]*state.LSA),
		networks:   make(map[netip.Addr]*state.LSA),
		byLinkData: make(map[netip.Addr]*state.LSA),
	}
}

func (d *Lsdb) Insert(lsa state.LSA) {
	l := &lsa
	d.byRouter[l.AdvertisingRouter] = append(d.byRouter[l.AdvertisingRouter], l)
	switch l.Type {
	case state.RouterLSA:
		d.routers[l.AdvertisingRouter] = l
		for _, link := range l.Links {
			if link.Type == state.TransitNetwork {
				d.byLinkData[link.LinkData] = l
			}
		}
	case state.NetworkLSA:
		d.networks[l.LinkStateID] = l
	case state.ASExternalLSA:
		d.externals = append(d.externals, l)
	}
}

// RouterLSA returns the router LSA of id, nil if the router never advertised
func (d *Lsdb) RouterLSA(id state.RouterID) *state.LSA {
	return d.routers[id]
}

// NetworkLSA returns the network LSA whose designated router address is addr
func (d *Lsdb) NetworkLSA(addr netip.Addr) *state.LSA {
	return d.networks[addr]
}

// RouterLSAByLinkData finds the router that owns addr on a transit network
func (d *Lsdb) RouterLSAByLinkData(addr netip.Addr) *state.LSA {
	return d.byLinkData[addr]
}

func (d *Lsdb) Externals() []*state.LSA {
	return d.externals
}

// Advertised returns every LSA of a router
func (d *Lsdb) Advertised(id state.RouterID) []*state.LSA {
	return d.byRouter[id]
}

// Routers lists the advertising routers in ascending id order
func (d *Lsdb) Routers() []state.RouterID {
	return slices.Sorted(maps.Keys(d.byRouter))
}

func (d *Lsdb) Len() int {
	n := 0
	for _, l := range d.byRouter {
		n += len(l)
	}
	return n
}

// resetStatus marks every LSA unexplored before an SPF run
func (d *Lsdb) resetStatus() {
	for _, lsas := range d.byRouter {
		for _, l := range lsas {
			l.Status = state.NotExplored
		}
	}
}

func (d *Lsdb) String() string {
	out := make([]string, 0, d.Len())
	for _, id := range d.Routers() {
		lsas := slices.Clone(d.byRouter[id])
		slices.SortStableFunc(lsas, func(a, b *state.LSA) int {
			return cmp.Compare(a.Type, b.Type)
		})
		for _, l := range lsas {
			out = append(out, l.String())
		}
	}
	return strings.Join(out, "\n")
}
