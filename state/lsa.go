package state

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"slices"
	"strings"
)

// RouterID identifies a router in the link-state database. It is allocated
// once per RouterAgent and never changes.
type RouterID uint32

// Addr returns the router id in its dotted-quad form, the form carried in
// point-to-point link records.
func (id RouterID) Addr() netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(id))
	return netip.AddrFrom4(b)
}

func (id RouterID) String() string {
	return id.Addr().String()
}

// RouterIDFromAddr is the inverse of RouterID.Addr
func RouterIDFromAddr(addr netip.Addr) (RouterID, bool) {
	if !addr.Is4() {
		return 0, false
	}
	b := addr.As4()
	return RouterID(binary.BigEndian.Uint32(b[:])), true
}

type LinkType uint8

const (
	LinkUnknown LinkType = iota
	PointToPoint
	TransitNetwork
	StubNetwork
)

func (t LinkType) String() string {
	switch t {
	case PointToPoint:
		return "p2p"
	case TransitNetwork:
		return "transit"
	case StubNetwork:
		return "stub"
	default:
		return "unknown"
	}
}

// LinkRecord is one edge out of a router.
//
// The meaning of LinkID and LinkData depends on Type:
//
//	PointToPoint:   LinkID = neighbour router id, LinkData = local address
//	TransitNetwork: LinkID = designated router address, LinkData = local address
//	StubNetwork:    LinkID = network (or remote) address, LinkData = network mask
type LinkRecord struct {
	Type     LinkType
	LinkID   netip.Addr
	LinkData netip.Addr
	// LinkLocalData is only set on IPv6 links
	LinkLocalData netip.Addr
	Metric        uint16
}

// StubPrefix returns the network described by a stub record
func (l LinkRecord) StubPrefix() netip.Prefix {
	return netip.PrefixFrom(l.LinkID, MaskBits(l.LinkData)).Masked()
}

func (l LinkRecord) String() string {
	s := fmt.Sprintf("%s id=%s data=%s metric=%d", l.Type, l.LinkID, l.LinkData, l.Metric)
	if l.LinkLocalData.IsValid() {
		s += fmt.Sprintf(" ll=%s", l.LinkLocalData)
	}
	return s
}

type LSType uint8

const (
	LSUnknown LSType = iota
	RouterLSA
	NetworkLSA
	ASExternalLSA
)

func (t LSType) String() string {
	switch t {
	case RouterLSA:
		return "router"
	case NetworkLSA:
		return "network"
	case ASExternalLSA:
		return "as-external"
	default:
		return "unknown"
	}
}

type SPFStatus uint8

const (
	NotExplored SPFStatus = iota
	Candidate
	InSpfTree
)

// LSA is a link state advertisement. Router LSAs carry Links, network LSAs
// carry AttachedRouters and Network, AS-external LSAs carry Network.
type LSA struct {
	Type              LSType
	LinkStateID       netip.Addr
	AdvertisingRouter RouterID
	Links             []LinkRecord
	Network           netip.Prefix
	AttachedRouters   []netip.Addr
	Status            SPFStatus
	// Node is the name of the originating node, used for printing
	Node string
}

func (l *LSA) IsEmpty() bool {
	return l.Type == LSUnknown &&
		!l.LinkStateID.IsValid() &&
		l.AdvertisingRouter == 0 &&
		len(l.Links) == 0 &&
		len(l.AttachedRouters) == 0 &&
		!l.Network.IsValid() &&
		l.Node == ""
}

// Clone returns a deep copy of the lsa
func (l *LSA) Clone() LSA {
	c := *l
	c.Links = slices.Clone(l.Links)
	c.AttachedRouters = slices.Clone(l.AttachedRouters)
	return c
}

func (l *LSA) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s lsa id=%s adv=%s", l.Type, l.LinkStateID, l.AdvertisingRouter))
	if l.Node != "" {
		sb.WriteString(fmt.Sprintf(" node=%s", l.Node))
	}
	switch l.Type {
	case RouterLSA:
		for _, link := range l.Links {
			sb.WriteString("\n  ")
			sb.WriteString(link.String())
		}
	case NetworkLSA:
		sb.WriteString(fmt.Sprintf(" net=%s", l.Network))
		for _, r := range l.AttachedRouters {
			sb.WriteString(fmt.Sprintf("\n  attached %s", r))
		}
	case ASExternalLSA:
		sb.WriteString(fmt.Sprintf(" net=%s", l.Network))
	}
	return sb.String()
}

// MaskAddr returns the netmask of a prefix length expressed as an address of
// the same family as like.
func MaskAddr(bits int, like netip.Addr) netip.Addr {
	if like.Is4() {
		var b [4]byte
		fillMask(b[:], bits)
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	fillMask(b[:], bits)
	return netip.AddrFrom16(b)
}

func fillMask(b []byte, bits int) {
	for i := range b {
		switch {
		case bits >= 8:
			b[i] = 0xff
			bits -= 8
		case bits > 0:
			b[i] = ^byte(0xff >> bits)
			bits = 0
		}
	}
}

// MaskBits counts the leading one bits of a netmask address
func MaskBits(mask netip.Addr) int {
	n := 0
	for _, b := range mask.AsSlice() {
		for i := 7; i >= 0; i-- {
			if b&(1<<i) == 0 {
				return n
			}
			n++
		}
	}
	return n
}
