package hardware

import (
	"fmt"
	"math"

	"github.com/cuemby/vsim/pkg/resource"
	"github.com/cuemby/vsim/pkg/sim"
)

// Port is one NIC's link to a single endpoint, with its own bandwidth
// reservoir (spec.md §4.6).
type Port struct {
	nic      *NIC
	endpoint sim.NetworkNodeRef
	Bandwidth *resource.Resource
	IP        string
	label     string
}

// Endpoint returns the node at the other end of this port's link.
func (p *Port) Endpoint() sim.NetworkNodeRef { return p.endpoint }

// BandwidthFree is the port's currently unreserved bandwidth, in bytes/s.
func (p *Port) BandwidthFree() float64 { return p.Bandwidth.Amount() }

// BandwidthCapacity is the port's link speed, in bytes/s.
func (p *Port) BandwidthCapacity() float64 { return p.Bandwidth.Capacity }

// Usage returns the port's time-integrated bandwidth usage.
func (p *Port) Usage(now, duration float64) float64 { return p.Bandwidth.Usage(now, duration) }

// Utilization returns the port's bandwidth utilization.
func (p *Port) Utilization(now, duration float64) float64 {
	return p.Bandwidth.Utilization(now, duration)
}

// Transmit reserves the packet's size from this port's bandwidth and
// releases it transmissionTime later (spec.md §4.6 egress leg).
func (p *Port) Transmit(pkt sim.PacketRef, transmissionTime, now float64) {
	holder := fmt.Sprintf("pkt-%d-tx", pkt.EntityID())
	p.Bandwidth.Get(holder, pkt.Size(), now)
	p.nic.sim.Clock.Schedule(now+transmissionTime, 0, fmt.Sprintf("port-%s-tx-%d", p.label, pkt.EntityID()), p.nic.owner(), func(t float64) {
		p.Bandwidth.Put(holder, pkt.Size(), t)
		p.nic.removeFromQueue(pkt)
	})
}

// Receive reserves the packet's size from this port's bandwidth and
// hands it to the endpoint host transmissionTime later (ingress leg).
func (p *Port) Receive(pkt sim.PacketRef, transmissionTime, now float64) {
	holder := fmt.Sprintf("pkt-%d-rx", pkt.EntityID())
	p.Bandwidth.Get(holder, pkt.Size(), now)
	p.nic.sim.Clock.Schedule(now+transmissionTime, 0, fmt.Sprintf("port-%s-rx-%d", p.label, pkt.EntityID()), p.nic.owner(), func(t float64) {
		p.Bandwidth.Put(holder, pkt.Size(), t)
		p.nic.host.ReceivePacket(pkt, t)
	})
}

// NIC is a hardware entity's network interface: a set of ports plus the
// per-cycle scheduler that picks decoded, not-yet-in-flight packets off
// the queue and transmits them across the matching port pair.
type NIC struct {
	host        sim.NetworkNodeRef
	sim         *sim.Simulation
	ports       []*Port
	packetQueue []sim.PacketRef
	powered     bool
	hostID      int
}

func (n *NIC) owner() string { return fmt.Sprintf("nic-%d", n.hostID) }

func (n *NIC) removeFromQueue(pkt sim.PacketRef) {
	for i, q := range n.packetQueue {
		if q.EntityID() == pkt.EntityID() {
			n.packetQueue = append(n.packetQueue[:i], n.packetQueue[i+1:]...)
			return
		}
	}
}

// Ports returns every port on this NIC, in the order they were added.
func (n *NIC) Ports() []sim.PortRef {
	out := make([]sim.PortRef, len(n.ports))
	for i, p := range n.ports {
		out[i] = p
	}
	return out
}

// Enqueue adds a freshly-arrived or freshly-decoded packet to the
// transmit queue.
func (n *NIC) Enqueue(pkt sim.PacketRef) { n.packetQueue = append(n.packetQueue, pkt) }

// findPort locates the port on this NIC whose endpoint is the given node.
func (n *NIC) findPort(endpoint sim.NetworkNodeRef) *Port {
	for _, p := range n.ports {
		if p.endpoint != nil && p.endpoint.EntityID() == endpoint.EntityID() {
			return p
		}
	}
	return nil
}

// EgressUsage sums the usage of every port on this NIC.
func (n *NIC) EgressUsage(now, duration float64) float64 {
	total := 0.0
	for _, p := range n.ports {
		total += p.Usage(now, duration)
	}
	return total
}

// EgressUtilization averages the utilization of every port on this NIC.
func (n *NIC) EgressUtilization(now, duration float64) float64 {
	if len(n.ports) == 0 {
		return 0
	}
	total := 0.0
	for _, p := range n.ports {
		total += p.Utilization(now, duration)
	}
	return total / float64(len(n.ports))
}

// IngressUsage and IngressUtilization report the same per-port bandwidth
// accounting as their Egress counterparts: a port's reservoir is shared
// by both the Transmit and Receive legs, so this NIC's links do not
// track direction separately. Kept as a distinct name only to match the
// two-field telemetry shape monitors expect (spec.md §4.10).
func (n *NIC) IngressUsage(now, duration float64) float64 { return n.EgressUsage(now, duration) }

func (n *NIC) IngressUtilization(now, duration float64) float64 {
	return n.EgressUtilization(now, duration)
}

func minBandwidth(a, b sim.PortRef) float64 {
	return math.Min(a.BandwidthFree(), b.BandwidthFree())
}

// NewNIC builds an unpowered NIC with no ports.
func NewNIC(s *sim.Simulation, hostID int, host sim.NetworkNodeRef) *NIC {
	return &NIC{host: host, sim: s, hostID: hostID}
}

// AddPort appends a new port to this NIC, with bandwidthMiBs converted
// to bytes/s.
func (n *NIC) AddPort(endpoint sim.NetworkNodeRef, bandwidthMiBs float64, ip string, at float64) *Port {
	p := &Port{
		nic:       n,
		endpoint:  endpoint,
		Bandwidth: resource.New(bandwidthMiBs * 1024 * 1024),
		IP:        ip,
		label:     fmt.Sprintf("%d-%d", n.hostID, len(n.ports)),
	}
	n.ports = append(n.ports, p)
	return p
}

// RemovePort drops the port connecting to endpoint, if any.
func (n *NIC) RemovePort(endpoint sim.NetworkNodeRef) {
	for i, p := range n.ports {
		if p.endpoint != nil && p.endpoint.EntityID() == endpoint.EntityID() {
			n.ports = append(n.ports[:i], n.ports[i+1:]...)
			return
		}
	}
}

// PowerOn starts the per-cycle transmit scheduler: every min time unit,
// pick decoded packets not already in flight, find the matching port
// pair toward their next hop, and transmit if enough bandwidth is free
// (spec.md §4.6).
func (n *NIC) PowerOn(now float64) {
	if n.powered {
		return
	}
	n.powered = true
	n.sim.Clock.ScheduleContinuous(now, 0, n.sim.MinTimeUnit(), math.Inf(1), "transmit", n.owner(), func(t float64) {
		n.schedulePackets(t)
	})
}

// PowerOff cancels the transmit scheduler.
func (n *NIC) PowerOff(now float64) {
	if !n.powered {
		return
	}
	n.powered = false
	n.sim.Clock.CancelOwner(n.owner())
}

func (n *NIC) schedulePackets(now float64) {
	sim.SortByPriority(n.packetQueue, func(p sim.PacketRef) int { return p.Priority() })
	for _, pkt := range n.packetQueue {
		if !pkt.Decoded() || pkt.InTransmission() {
			continue
		}
		nextHop := pkt.NextHop()
		if nextHop == nil {
			continue
		}
		srcPort := n.findPort(nextHop)
		if srcPort == nil {
			continue
		}
		dstPort := nextHop.NIC().Ports()
		var matched sim.PortRef
		for _, dp := range dstPort {
			if dp.Endpoint().EntityID() == n.host.EntityID() {
				matched = dp
				break
			}
		}
		if matched == nil {
			continue
		}
		available := minBandwidth(srcPort, matched)
		if available <= pkt.Size() {
			continue
		}
		pkt.MarkInTransmission(now)
		linkSpeed := math.Min(srcPort.BandwidthCapacity(), matched.BandwidthCapacity())
		transmissionTime := pkt.Size() / linkSpeed
		srcPort.Transmit(pkt, transmissionTime, now)
		matched.Receive(pkt, transmissionTime, now)
	}
}
