package software

import (
	"fmt"
	"math"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/sim"
)

// Kind distinguishes the four process variants the original expressed
// as a class hierarchy (vProcess/vContainerProcess/vDeamon/vDecoder);
// here they are one type dispatched on Kind, matching the tagged-variant
// convention already used by pkg/entity (SPEC_FULL.md §9).
type Kind int

const (
	KindGeneric Kind = iota
	KindContainer
	KindDaemon
	KindDecoder
)

// Process is a schedulable unit of CPU work (spec.md §4.4/§4.5).
type Process struct {
	*entity.Entity
	id           int
	sim          *sim.Simulation
	Kind         Kind
	LengthInstr  int
	PriorityVal  int
	Architecture Architecture

	container sim.ContainerLimits
	containerID int
	host        sim.HostRef
	cpu         sim.CPURef

	packet sim.PacketRef // decoder only

	instructions []*Instruction
}

// NewProcess builds a generic process not attached to any container
// (spec.md §4.5).
func NewProcess(s *sim.Simulation, host sim.HostRef, cpu sim.CPURef, length, priority int, arch Architecture, label string, precursors []*entity.Entity) *Process {
	return newProcess(s, KindGeneric, host, cpu, nil, 0, length, priority, arch, label, precursors)
}

// NewContainerProcess builds a process that runs inside a container and
// counts toward its CPU/RAM usage (spec.md §4.5).
func NewContainerProcess(s *sim.Simulation, host sim.HostRef, cpu sim.CPURef, container sim.ContainerLimits, length, priority int, arch Architecture, label string, precursors []*entity.Entity) *Process {
	return newProcess(s, KindContainer, host, cpu, container, container.EntityID(), length, priority, arch, label, precursors)
}

// NewDaemon builds a long-running container process that, on failure,
// fails its container in turn (spec.md §4.5).
func NewDaemon(s *sim.Simulation, host sim.HostRef, cpu sim.CPURef, container sim.ContainerLimits, length, priority int, arch Architecture, label string, precursors []*entity.Entity) *Process {
	return newProcess(s, KindDaemon, host, cpu, container, container.EntityID(), length, priority, arch, label, precursors)
}

// NewDecoder builds the process that simulates a host's packet-decoding
// delay: one instruction per byte of the packet, matching the original
// (spec.md §4.6).
func NewDecoder(s *sim.Simulation, host sim.HostRef, cpu sim.CPURef, pkt sim.PacketRef, label string) *Process {
	p := newProcess(s, KindDecoder, host, cpu, nil, 0, int(pkt.Size()), 0, ArchX86, label, nil)
	p.packet = pkt
	return p
}

func newProcess(s *sim.Simulation, kind Kind, host sim.HostRef, cpu sim.CPURef, container sim.ContainerLimits, containerID int, length, priority int, arch Architecture, label string, precursors []*entity.Entity) *Process {
	id := s.NextID()
	p := &Process{
		id:           id,
		sim:          s,
		Kind:         kind,
		LengthInstr:  length,
		PriorityVal:  priority,
		Architecture: arch,
		container:    container,
		containerID:  containerID,
		host:         host,
		cpu:          cpu,
	}
	p.Entity = entity.New(s.Clock, "process", fmt.Sprintf("%d", id), label, precursors)
	p.Entity.Hooks = entity.Hooks{
		OnCreate:    func(now float64) { p.Initiate(now) },
		OnInitiate:  p.onInitiate,
		OnSuccess:   p.onSuccess,
		OnFail:      p.onFail,
		OnTerminate: p.onTerminate,
	}
	return p
}

func (p *Process) onInitiate(now float64) {
	if (p.Kind == KindContainer || p.Kind == KindDaemon) && p.container == nil {
		panic(fmt.Sprintf("process %d: container process initiated without a container", p.id))
	}
	for i := 0; i < p.LengthInstr; i++ {
		NewInstruction(p.sim, p)
	}
	p.cpu.Enqueue(p)

	owner := p.Entity.ID
	p.sim.Clock.ScheduleContinuous(now, clock.PriorityDefault, p.sim.MinTimeUnit(), math.Inf(1), "monitor", owner, func(t float64) {
		if p.Kind == KindDaemon {
			return
		}
		for _, inst := range p.instructions {
			if !inst.Terminated() {
				return
			}
		}
		p.Success(t)
	})
}

func (p *Process) onSuccess(now float64) {
	log.WithEntity("process", p.Entity.ID, p.Entity.Label).Info().Msg("process succeeded")
	if p.Kind == KindDecoder && p.packet != nil {
		p.packet.MarkDecoded(now)
	}
}

func (p *Process) onFail(now float64) {
	log.WithEntity("process", p.Entity.ID, p.Entity.Label).Info().Msg("process failed")
	if p.Kind == KindDaemon && p.container != nil {
		p.container.Fail(now)
	}
	if p.Kind == KindDecoder && p.packet != nil {
		p.packet.Fail(now)
	}
}

func (p *Process) onTerminate(now float64) {
	for _, inst := range p.instructions {
		inst.Terminate(now)
	}
}

// EntityID implements sim.Identifiable/sim.ProcessRef.
func (p *Process) EntityID() int { return p.id }

// Priority implements sim.ProcessRef.
func (p *Process) Priority() int { return p.PriorityVal }

// ContainerID implements sim.ProcessRef.
func (p *Process) ContainerID() (int, bool) {
	if p.container == nil {
		return 0, false
	}
	return p.containerID, true
}

// UnscheduledInstructions implements sim.ProcessRef: every instruction
// not yet dispatched to a core and not yet terminated.
func (p *Process) UnscheduledInstructions() []sim.InstructionRef {
	out := make([]sim.InstructionRef, 0, len(p.instructions))
	for _, inst := range p.instructions {
		if !inst.Scheduled() && !inst.Terminated() {
			out = append(out, inst)
		}
	}
	return out
}

// Host implements sim.ProcessRef.
func (p *Process) Host() sim.HostRef { return p.host }
