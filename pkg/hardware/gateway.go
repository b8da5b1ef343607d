package hardware

import (
	"fmt"
	"math"
	"net"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/resource"
	"github.com/cuemby/vsim/pkg/sim"
)

// Gateway is an edge node with infinite RAM and no CPU: packets that
// reach their destination at a gateway succeed immediately, with no
// decoding delay (spec.md §4.8, grounded on the original's gateway
// having `cpu = None`).
type Gateway struct {
	*entity.Entity
	id  int
	sim *sim.Simulation
	nic *NIC
	RAM *resource.Resource
}

// NewGateway builds a gateway, created immediately like the original
// (gateways have no precursor gating).
func NewGateway(s *sim.Simulation, label string) *Gateway {
	id := s.NextID()
	g := &Gateway{id: id, sim: s, RAM: resource.New(math.Inf(1))}
	g.Entity = entity.New(s.Clock, "gateway", fmt.Sprintf("%d", id), label, nil)
	g.nic = NewNIC(s, id, g)
	g.Entity.Hooks = entity.Hooks{
		OnCreate: func(now float64) {
			s.Network.AddNode(g)
			g.nic.PowerOn(now)
		},
	}
	return g
}

// EntityID implements sim.Identifiable.
func (g *Gateway) EntityID() int { return g.id }

// ID implements pkg/network.Node.
func (g *Gateway) ID() int64 { return int64(g.id) }

// Label shadows the embedded Entity field to satisfy pkg/network.Node.
func (g *Gateway) Label() string { return g.Entity.Label }

// Kind implements pkg/network.Node.
func (g *Gateway) Kind() network.Kind { return network.KindGateway }

// AddPort implements pkg/network.Node.
func (g *Gateway) AddPort(endpoint network.Node, bandwidthMiBs float64, ip net.IP, at float64) {
	peer, ok := endpoint.(sim.NetworkNodeRef)
	if !ok {
		return
	}
	ipStr := ""
	if ip != nil {
		ipStr = ip.String()
	}
	g.nic.AddPort(peer, bandwidthMiBs, ipStr, at)
}

// NIC implements sim.NetworkNodeRef.
func (g *Gateway) NIC() sim.NICRef { return g.nic }

// ReceivePacket implements sim.NetworkNodeRef. A gateway has no CPU to
// decode on, so a packet that has reached the gateway that is its final
// destination succeeds immediately instead of spawning a decoder.
func (g *Gateway) ReceivePacket(p sim.PacketRef, now float64) {
	holder := fmt.Sprintf("pkt-%d-gw", p.EntityID())
	if !g.RAM.Get(holder, p.Size(), now) {
		return
	}
	g.nic.Enqueue(p)
	p.Arrive(g, now)
}
