package software

import (
	"fmt"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/sim"
)

// Packet is one unit of network traffic moving hop by hop along a
// precomputed path, decoded at each hop capable of running a decoder
// process before continuing (spec.md §4.6).
type Packet struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	Path       []sim.NetworkNodeRef
	dstHost    sim.NetworkNodeRef
	currentHop sim.NetworkNodeRef
	nextHop    sim.NetworkNodeRef

	SizeBytes   float64
	PriorityVal int

	decoded        bool
	inTransmission bool
}

// NewPacket builds a packet along path (path[0] is the source,
// path[len-1] the destination), sized sizeBytes.
func NewPacket(s *sim.Simulation, path []sim.NetworkNodeRef, sizeBytes float64, priority int, label string) *Packet {
	id := s.NextID()
	p := &Packet{
		id:          id,
		sim:         s,
		Path:        path,
		dstHost:     path[len(path)-1],
		currentHop:  path[0],
		SizeBytes:   sizeBytes,
		PriorityVal: priority,
	}
	p.Entity = entity.New(s.Clock, "packet", fmt.Sprintf("%d", id), label, nil)
	return p
}

// EntityID implements sim.Identifiable/sim.PacketRef.
func (p *Packet) EntityID() int { return p.id }

// Priority implements sim.PacketRef.
func (p *Packet) Priority() int { return p.PriorityVal }

// Decoded implements sim.PacketRef.
func (p *Packet) Decoded() bool { return p.decoded }

// InTransmission implements sim.PacketRef.
func (p *Packet) InTransmission() bool { return p.inTransmission }

// MarkInTransmission implements sim.PacketRef, called by the NIC
// scheduler once it commits to transmitting this packet across a link.
func (p *Packet) MarkInTransmission(now float64) { p.inTransmission = true }

// Size implements sim.PacketRef.
func (p *Packet) Size() float64 { return p.SizeBytes }

// CurrentHop implements sim.PacketRef.
func (p *Packet) CurrentHop() sim.NetworkNodeRef { return p.currentHop }

// NextHop implements sim.PacketRef.
func (p *Packet) NextHop() sim.NetworkNodeRef { return p.nextHop }

// Arrive implements sim.PacketRef: called by a NetworkNodeRef once it
// has reserved RAM for this packet. Clears in-flight flags, advances
// current/next hop along Path, and either spawns a decoder (on a node
// capable of running one) or, at a CPU-less gateway, resolves the
// packet immediately if it has reached its destination (spec.md §4.6).
func (p *Packet) Arrive(hop sim.NetworkNodeRef, now float64) {
	p.decoded = false
	p.inTransmission = false
	p.currentHop = hop

	if hop.EntityID() != p.dstHost.EntityID() {
		p.nextHop = p.nextInPath(hop)
	} else {
		p.nextHop = nil
	}

	if dn, ok := hop.(sim.DecodingNode); ok {
		host, _ := hop.(sim.HostRef)
		proc := NewDecoder(p.sim, host, dn.Dispatcher(), p, fmt.Sprintf("%s-decoder", p.Entity.Label))
		proc.Create(now)
		return
	}
	if hop.EntityID() == p.dstHost.EntityID() {
		p.Success(now)
	}
}

func (p *Packet) nextInPath(hop sim.NetworkNodeRef) sim.NetworkNodeRef {
	for i, node := range p.Path {
		if node.EntityID() == hop.EntityID() && i+1 < len(p.Path) {
			return p.Path[i+1]
		}
	}
	return nil
}

// MarkDecoded implements sim.PacketRef: called by a Decoder process on
// success.
func (p *Packet) MarkDecoded(now float64) {
	p.decoded = true
	if p.currentHop != nil && p.currentHop.EntityID() == p.dstHost.EntityID() {
		p.Success(now)
	}
}

// Fail implements sim.PacketRef.
func (p *Packet) Fail(now float64) { p.Entity.Fail(now) }
