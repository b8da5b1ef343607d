package software

import (
	"fmt"
	"math"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/sim"
)

// Endpoint is one side of an API call: either a User (no container, a
// pure network node) or a Microservice (backed by a container on a
// host, able to run a process). APICall branches on whether each side
// IsUser, matching the original's four src/dst isinstance combinations
// (spec.md §4.7).
type Endpoint interface {
	IsUser() bool
	NetworkNode() sim.NetworkNodeRef
	// Container returns the backing host/container/CPU for a
	// microservice endpoint. Only valid when IsUser() is false.
	Container() (host sim.HostRef, cpu sim.CPURef, container sim.ContainerLimits)
}

// APICall decomposes into source/destination/ack process and packet
// phases on initiate, succeeding when every phase succeeds and failing
// when any one fails (spec.md §4.7).
type APICall struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	Src, Dst    Endpoint
	PriorityVal int

	SrcProcessLength int
	DstProcessLength int
	AckProcessLength int
	NumSrcPackets    int
	SrcPacketSize    float64
	NumRetPackets    int
	RetPacketSize    float64
	NumAckPackets    int
	AckPacketSize    float64

	processes []*Process
	packets   []*Packet
}

// NewAPICall builds an uncreated, uninitiated API call between src and
// dst. num_src_packets <= 0 when the source is a user terminates the
// call immediately on initiate, matching the original's validation.
func NewAPICall(s *sim.Simulation, src, dst Endpoint, priority int, srcLen, dstLen, ackLen int, numSrc int, srcSize float64, numRet int, retSize float64, numAck int, ackSize float64, label string, precursors []*entity.Entity) *APICall {
	id := s.NextID()
	a := &APICall{
		id:               id,
		sim:              s,
		Src:              src,
		Dst:              dst,
		PriorityVal:      priority,
		SrcProcessLength: srcLen,
		DstProcessLength: dstLen,
		AckProcessLength: ackLen,
		NumSrcPackets:    numSrc,
		SrcPacketSize:    srcSize,
		NumRetPackets:    numRet,
		RetPacketSize:    retSize,
		NumAckPackets:    numAck,
		AckPacketSize:    ackSize,
	}
	a.Entity = entity.New(s.Clock, "apicall", fmt.Sprintf("%d", id), label, precursors)
	a.Entity.Hooks = entity.Hooks{
		OnInitiate:  a.onInitiate,
		OnTerminate: a.onTerminate,
		OnDestroy:   a.onTerminate,
	}
	s.APICalls.Add(a)
	return a
}

// EntityID implements sim.Identifiable.
func (a *APICall) EntityID() int { return a.id }

// Uninitiated implements sim.APICallRef.
func (a *APICall) Uninitiated() bool { return !a.HasState(entity.Initiated) }

// EndpointsReady implements sim.APICallRef: both ends must resolve to a
// routable network node (a user always is; a microservice must have an
// initiated container with a host).
func (a *APICall) EndpointsReady() bool {
	return a.Src.NetworkNode() != nil && a.Dst.NetworkNode() != nil
}

// Initiate implements sim.APICallRef, invoked by the API-call initiator
// (C7) once EndpointsReady.
func (a *APICall) Initiate(now float64) { a.Entity.Initiate(now) }

func (a *APICall) path(src, dst sim.NetworkNodeRef) []sim.NetworkNodeRef {
	srcNode, ok1 := src.(network.Node)
	dstNode, ok2 := dst.(network.Node)
	if !ok1 || !ok2 {
		return []sim.NetworkNodeRef{src, dst}
	}
	nodes, err := a.sim.Network.Route(srcNode, dstNode)
	if err != nil {
		log.Logger.Error().Err(err).Msg("apicall: no route between endpoints")
		return nil
	}
	out := make([]sim.NetworkNodeRef, 0, len(nodes))
	for _, n := range nodes {
		if ref, ok := n.(sim.NetworkNodeRef); ok {
			out = append(out, ref)
		}
	}
	return out
}

func (a *APICall) sendPacket(now float64, src, dst sim.NetworkNodeRef, size float64, label string) *Packet {
	path := a.path(src, dst)
	if path == nil {
		return nil
	}
	p := NewPacket(a.sim, path, size, a.PriorityVal, label)
	a.packets = append(a.packets, p)
	p.Create(now)
	return p
}

func (a *APICall) spawnProcess(now float64, host sim.HostRef, cpu sim.CPURef, container sim.ContainerLimits, length int, label string, precursors []*entity.Entity) *Process {
	p := NewContainerProcess(a.sim, host, cpu, container, length, a.PriorityVal, ArchX86, label, precursors)
	a.processes = append(a.processes, p)
	p.Create(now)
	return p
}

func (a *APICall) onInitiate(now float64) {
	srcUser, dstUser := a.Src.IsUser(), a.Dst.IsUser()

	switch {
	case srcUser && dstUser:
		if a.NumSrcPackets <= 0 {
			log.Logger.Error().Str("apicall", a.Entity.Label).Msg("invalid api call: no source packets between two users")
			a.Terminate(now)
			return
		}
		a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.SrcPacketSize, fmt.Sprintf("%s-src", a.Entity.Label))
		for i := 0; i < a.NumRetPackets; i++ {
			a.sendPacket(now, a.Dst.NetworkNode(), a.Src.NetworkNode(), a.RetPacketSize, fmt.Sprintf("%s-ret-%d", a.Entity.Label, i))
		}
		for i := 0; i < a.NumAckPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.AckPacketSize, fmt.Sprintf("%s-ack-%d", a.Entity.Label, i))
		}

	case srcUser && !dstUser:
		if a.NumSrcPackets <= 0 {
			log.Logger.Error().Str("apicall", a.Entity.Label).Msg("invalid api call configuration")
			a.Terminate(now)
			return
		}
		dstHost, dstCPU, dstContainer := a.Dst.Container()
		for i := 0; i < a.NumSrcPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.SrcPacketSize, fmt.Sprintf("%s-src-%d", a.Entity.Label, i))
		}
		a.spawnProcess(now, dstHost, dstCPU, dstContainer, a.DstProcessLength, fmt.Sprintf("%s-dst", a.Entity.Label), nil)
		for i := 0; i < a.NumRetPackets; i++ {
			a.sendPacket(now, a.Dst.NetworkNode(), a.Src.NetworkNode(), a.RetPacketSize, fmt.Sprintf("%s-ret-%d", a.Entity.Label, i))
		}
		for i := 0; i < a.NumAckPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.AckPacketSize, fmt.Sprintf("%s-ack-%d", a.Entity.Label, i))
		}

	case !srcUser && dstUser:
		srcHost, srcCPU, srcContainer := a.Src.Container()
		a.spawnProcess(now, srcHost, srcCPU, srcContainer, a.SrcProcessLength, fmt.Sprintf("%s-src", a.Entity.Label), nil)
		for i := 0; i < a.NumSrcPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.SrcPacketSize, fmt.Sprintf("%s-src-%d", a.Entity.Label, i))
		}
		for i := 0; i < a.NumRetPackets; i++ {
			a.sendPacket(now, a.Dst.NetworkNode(), a.Src.NetworkNode(), a.RetPacketSize, fmt.Sprintf("%s-ret-%d", a.Entity.Label, i))
		}
		a.spawnProcess(now, srcHost, srcCPU, srcContainer, a.AckProcessLength, fmt.Sprintf("%s-ack", a.Entity.Label), nil)
		for i := 0; i < a.NumAckPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.AckPacketSize, fmt.Sprintf("%s-ack-%d", a.Entity.Label, i))
		}

	default:
		srcHost, srcCPU, srcContainer := a.Src.Container()
		dstHost, dstCPU, dstContainer := a.Dst.Container()
		a.spawnProcess(now, srcHost, srcCPU, srcContainer, a.SrcProcessLength, fmt.Sprintf("%s-src", a.Entity.Label), nil)
		for i := 0; i < a.NumSrcPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.SrcPacketSize, fmt.Sprintf("%s-src-%d", a.Entity.Label, i))
		}
		a.spawnProcess(now, dstHost, dstCPU, dstContainer, a.DstProcessLength, fmt.Sprintf("%s-dst", a.Entity.Label), nil)
		for i := 0; i < a.NumRetPackets; i++ {
			a.sendPacket(now, a.Dst.NetworkNode(), a.Src.NetworkNode(), a.RetPacketSize, fmt.Sprintf("%s-ret-%d", a.Entity.Label, i))
		}
		a.spawnProcess(now, srcHost, srcCPU, srcContainer, a.AckProcessLength, fmt.Sprintf("%s-ack", a.Entity.Label), nil)
		for i := 0; i < a.NumAckPackets; i++ {
			a.sendPacket(now, a.Src.NetworkNode(), a.Dst.NetworkNode(), a.AckPacketSize, fmt.Sprintf("%s-ack-%d", a.Entity.Label, i))
		}
	}

	owner := a.Entity.ID
	a.sim.Clock.ScheduleContinuous(now, clock.PriorityDefault, a.sim.MinTimeUnit(), math.Inf(1), fmt.Sprintf("%s-monitor", a.Entity.Label), owner, func(t float64) {
		for _, p := range a.processes {
			if p.HasState(entity.Fail) {
				a.Fail(t)
				return
			}
		}
		for _, p := range a.packets {
			if p.HasState(entity.Fail) {
				a.Fail(t)
				return
			}
		}
		for _, p := range a.processes {
			if !p.HasState(entity.Success) {
				return
			}
		}
		for _, p := range a.packets {
			if !p.HasState(entity.Success) {
				return
			}
		}
		a.Success(t)
	})

	log.WithEntity("apicall", a.Entity.ID, a.Entity.Label).Info().Msg("api call initiated")
}

func (a *APICall) onTerminate(now float64) {
	for _, p := range a.processes {
		p.Fail(now)
	}
}
