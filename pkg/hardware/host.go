package hardware

import (
	"fmt"
	"net"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/resource"
	"github.com/cuemby/vsim/pkg/sim"
)

// Host is a physical or virtual machine: CPU, RAM, ROM, and a NIC, able
// to host containers and volumes (spec.md §3/§4.3).
type Host struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	CPU         *CPU
	RAM         *resource.Resource
	ROM         *resource.Resource
	nic         *NIC
	Architecture string
}

// NewHost builds an unpowered, uncreated host. Call Create/PowerOn to
// bring it up.
func NewHost(s *sim.Simulation, label string, ipc, frequency float64, numCores int, mode DispatchMode, ramGiB, romGiB float64, architecture string, precursors []*entity.Entity) *Host {
	id := s.NextID()
	h := &Host{
		id:           id,
		sim:          s,
		RAM:          resource.New(ramGiB * 1024 * 1024 * 1024),
		ROM:          resource.New(romGiB * 1024 * 1024 * 1024),
		Architecture: architecture,
	}
	h.Entity = entity.New(s.Clock, "host", fmt.Sprintf("%d", id), label, precursors)
	h.CPU = NewCPU(s, id, ipc, frequency, numCores, mode, h.RAM)
	h.nic = NewNIC(s, id, h)
	h.Entity.Hooks = entity.Hooks{
		OnCreate: func(now float64) {
			s.Network.AddNode(h)
			s.Hosts.Add(h)
		},
		OnPowerOn: func(now float64) {
			h.CPU.PowerOn(now)
			h.nic.PowerOn(now)
			h.nic.AddPort(h, 10000, "127.0.0.1", now)
		},
		OnPowerOff: func(now float64) {
			h.CPU.PowerOff(now)
			h.nic.PowerOff(now)
		},
		OnTerminate: func(now float64) {
			s.Network.RemoveNode(h)
			s.Hosts.Remove(id)
		},
	}
	return h
}

// EntityID implements sim.Identifiable.
func (h *Host) EntityID() int { return h.id }

// ID implements pkg/network's graph.Node.
func (h *Host) ID() int64 { return int64(h.id) }

// Label returns the host's short name, shadowing the embedded Entity's
// Label field so Host satisfies pkg/network.Node.
func (h *Host) Label() string { return h.Entity.Label }

// Kind implements pkg/network.Node.
func (h *Host) Kind() network.Kind { return network.KindHost }

// AddPort implements pkg/network.Node by wiring a port on this host's
// NIC toward endpoint.
func (h *Host) AddPort(endpoint network.Node, bandwidthMiBs float64, ip net.IP, at float64) {
	peer, ok := endpoint.(sim.NetworkNodeRef)
	if !ok {
		return
	}
	ipStr := ""
	if ip != nil {
		ipStr = ip.String()
	}
	h.nic.AddPort(peer, bandwidthMiBs, ipStr, at)
}

// NIC returns this host's network interface.
func (h *Host) NIC() sim.NICRef { return h.nic }

// PoweredOn reports whether the host is currently powered on.
func (h *Host) PoweredOn() bool { return h.HasState(entity.PoweredOn) }

// CPUReservoirFree is the host's remaining milli-CPU admission headroom.
func (h *Host) CPUReservoirFree() float64 { return h.CPU.ReservoirFree() }

// RAMReservoirFree is the host's unreserved RAM, in bytes.
func (h *Host) RAMReservoirFree() float64 { return h.RAM.Amount() }

// ROMReservoirFree is the host's unreserved ROM, in bytes.
func (h *Host) ROMReservoirFree() float64 { return h.ROM.Amount() }

// AllocateContainer reserves the container's requested CPU/RAM/ROM from
// this host's reservoirs, rolling back on partial failure (spec.md
// §4.9's scheduler precondition).
func (h *Host) AllocateContainer(c sim.ContainerRef, now float64) error {
	holder := fmt.Sprintf("container-%d", c.EntityID())
	if !h.CPU.Reservoir.Get(holder, c.RequestCPU(), now) {
		return fmt.Errorf("host %s: insufficient CPU reservoir for container %d", h.Entity.Label, c.EntityID())
	}
	if !h.RAM.Get(holder, c.RequestRAM(), now) {
		h.CPU.Reservoir.Put(holder, c.RequestCPU(), now)
		return fmt.Errorf("host %s: insufficient RAM for container %d", h.Entity.Label, c.EntityID())
	}
	if !h.ROM.Get(holder, c.RequestROM(), now) {
		h.CPU.Reservoir.Put(holder, c.RequestCPU(), now)
		h.RAM.Put(holder, c.RequestRAM(), now)
		return fmt.Errorf("host %s: insufficient ROM for container %d", h.Entity.Label, c.EntityID())
	}
	return nil
}

// AllocateVolume reserves the volume's requested ROM from this host.
func (h *Host) AllocateVolume(v sim.VolumeRef, now float64) error {
	holder := fmt.Sprintf("volume-%d", v.EntityID())
	if !h.ROM.Get(holder, v.RequestROM(), now) {
		return fmt.Errorf("host %s: insufficient ROM for volume %d", h.Entity.Label, v.EntityID())
	}
	return nil
}

// ReceivePacket implements sim.NetworkNodeRef: reserve RAM for the
// packet and hand off to it to decide whether it decodes here or has
// reached its destination, or drop it if the host's RAM is exhausted.
func (h *Host) ReceivePacket(p sim.PacketRef, now float64) {
	holder := fmt.Sprintf("pkt-%d-host", p.EntityID())
	if !h.RAM.Get(holder, p.Size(), now) {
		return
	}
	h.nic.Enqueue(p)
	p.Arrive(h, now)
}

// Dispatcher implements sim.DecodingNode and sim.HostRef.
func (h *Host) Dispatcher() sim.CPURef { return h.CPU }

// CPUFrequency implements sim.HostRef.
func (h *Host) CPUFrequency() (ipc, frequency float64) { return h.CPU.IPC, h.CPU.Frequency }

// CPUUsage/Utilization and RAM/ROM usage accessors, used by monitors
// (spec.md §4.10).
func (h *Host) CPUUsage(now, duration float64) float64 {
	total := 0.0
	for _, core := range h.CPU.Cores {
		total += core.ComputationalPower.Usage(now, duration)
	}
	return total
}

func (h *Host) RAMUsage(now, duration float64) float64 { return h.RAM.Usage(now, duration) }
func (h *Host) ROMUsage(now, duration float64) float64 { return h.ROM.Usage(now, duration) }

// CPUUtilization averages each core's computational-power utilization
// over the trailing window (now-duration, now].
func (h *Host) CPUUtilization(now, duration float64) float64 {
	if len(h.CPU.Cores) == 0 {
		return 0
	}
	total := 0.0
	for _, core := range h.CPU.Cores {
		total += core.ComputationalPower.Utilization(now, duration)
	}
	return total / float64(len(h.CPU.Cores))
}

func (h *Host) RAMUtilization(now, duration float64) float64 { return h.RAM.Utilization(now, duration) }
func (h *Host) ROMUtilization(now, duration float64) float64 { return h.ROM.Utilization(now, duration) }

// EgressUtilization and IngressUtilization delegate to the host's NIC,
// used by monitors (spec.md §4.10).
func (h *Host) EgressUtilization(now, duration float64) float64 {
	return h.nic.EgressUtilization(now, duration)
}

func (h *Host) IngressUtilization(now, duration float64) float64 {
	return h.nic.IngressUtilization(now, duration)
}
