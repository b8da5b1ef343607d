package sim

// ProcessRef is the CPU-dispatch-facing surface of a software process
// (generic/ContainerProcess/Daemon/Decoder). Defined here so pkg/hardware's
// CPU dispatch loop (C4, spec.md §4.4) never needs to import pkg/software;
// pkg/software's process variants implement it.
type ProcessRef interface {
	Identifiable
	Priority() int
	ContainerID() (int, bool)
	UnscheduledInstructions() []InstructionRef
	Host() HostRef
}

// InstructionRef is the CPU-dispatch-facing surface of one instruction.
type InstructionRef interface {
	Identifiable
	Length() float64
	Dispatch(now float64) // called once RAM is reserved and usage accounted; marks it scheduled/in a core
}

// CPURef is the surface pkg/software needs back from a host's CPU to
// enqueue processes without importing pkg/hardware.
type CPURef interface {
	Enqueue(p ProcessRef)
	ReservoirFree() float64
}

// NetworkNodeRef is the packet-routing-facing surface of a hardware node
// (Host/Gateway/Switch/Router): whatever a packet needs to find its next
// port. Defined here so pkg/software's Packet never imports pkg/hardware.
type NetworkNodeRef interface {
	Identifiable
	Label() string
	NIC() NICRef
	ReceivePacket(p PacketRef, now float64)
}

// DecodingNode is implemented by nodes capable of running a decoder
// process on arrival (Host, Switch, Router; not Gateway, which has no
// CPU). Packet.Arrive type-switches on this to decide whether a packet
// decodes in place or, at a CPU-less gateway, succeeds immediately.
type DecodingNode interface {
	NetworkNodeRef
	Dispatcher() CPURef
}

// NICRef is the packet-scheduling-facing surface of a hardware NIC.
type NICRef interface {
	Ports() []PortRef
}

// PortRef is one NIC port: a bandwidth-bounded link endpoint.
type PortRef interface {
	Endpoint() NetworkNodeRef
	BandwidthFree() float64
	BandwidthCapacity() float64
	Transmit(p PacketRef, transmissionTime, now float64)
	Receive(p PacketRef, transmissionTime, now float64)
}

// PacketRef is the NIC-dispatch-facing surface of a software packet.
type PacketRef interface {
	Identifiable
	Priority() int
	Decoded() bool
	InTransmission() bool
	MarkInTransmission(now float64)
	Size() float64
	CurrentHop() NetworkNodeRef
	NextHop() NetworkNodeRef
	// Arrive is called by a NetworkNodeRef once it has reserved RAM for
	// this packet: it clears the in-transit state flags, advances
	// current/next hop, and either spawns a decoder (DecodingNode) or,
	// at the final hop, resolves the packet (spec.md §4.6/§4.8).
	Arrive(hop NetworkNodeRef, now float64)
	// MarkDecoded is called by a Decoder process on success: it flags
	// the packet ready for the NIC's transmit scheduler and, if this
	// hop is the packet's destination, resolves it.
	MarkDecoded(now float64)
	// Fail resolves the packet as failed, called when its decoder fails.
	Fail(now float64)
}

// ContainerLimits is implemented by pkg/software.Container and consumed
// by the CPU dispatch loop to enforce I3 (spec.md §3): cpu_usage/
// ram_usage vs cpu_limit/ram_limit, failing the container on breach.
type ContainerLimits interface {
	Identifiable
	CPULimit() float64
	RAMLimit() float64
	CPUUsage() float64
	RAMUsage() float64
	AddCPUUsage(delta float64)
	AddRAMUsage(delta float64)
	Fail(now float64)
}
