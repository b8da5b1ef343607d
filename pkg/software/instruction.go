// Package software implements the software model (C5): processes,
// instructions, containers, volumes, packets, API calls, and
// microservices, layered on pkg/hardware and pkg/sim (spec.md §3/§4.5-
// §4.7).
package software

import (
	"fmt"

	"github.com/cuemby/vsim/pkg/sim"
)

// Architecture names an instruction-width family, matching the host it
// runs on (spec.md §3).
type Architecture string

const (
	ArchX86 Architecture = "x86"
	ArchARM Architecture = "arm"
)

// Instruction is one unit of CPU work belonging to a Process. Its length
// is randomized bytes scaled the same way as the original: x86 draws
// 1-16 random bytes, ARM always 4, each byte worth 100000 simulated RAM
// bytes (spec.md §4.4).
type Instruction struct {
	id         int
	process    *Process
	lengthBytes float64
	scheduled  bool
	terminated bool
}

// NewInstruction builds one instruction for proc, owned by the given
// simulation for ID allocation and RNG draws.
func NewInstruction(s *sim.Simulation, proc *Process) *Instruction {
	var n int
	switch proc.Architecture {
	case ArchARM:
		n = 4
	default:
		n = 1 + intn(s, 16)
	}
	inst := &Instruction{id: s.NextID(), process: proc, lengthBytes: float64(n) * 100000}
	proc.instructions = append(proc.instructions, inst)
	return inst
}

func intn(s *sim.Simulation, n int) int {
	if n <= 0 {
		return 0
	}
	return s.RNG.Intn(n)
}

// EntityID implements sim.Identifiable.
func (i *Instruction) EntityID() int { return i.id }

// Length is the number of simulated RAM bytes this instruction occupies
// while scheduled (spec.md §4.4).
func (i *Instruction) Length() float64 { return i.lengthBytes }

// Dispatch marks the instruction as scheduled onto a core. Called by
// the CPU dispatch loop once its RAM/compute reservations succeed.
func (i *Instruction) Dispatch(now float64) { i.scheduled = true }

// Scheduled reports whether this instruction currently occupies a core.
func (i *Instruction) Scheduled() bool { return i.scheduled }

// Terminated reports whether this instruction has retired.
func (i *Instruction) Terminated() bool { return i.terminated }

// Terminate retires the instruction, invoked by the owning core's
// retirement clock (spec.md §4.4's per-core clock).
func (i *Instruction) Terminate(now float64) {
	i.terminated = true
	i.scheduled = false
}

func (i *Instruction) String() string { return fmt.Sprintf("Instruction-%d", i.id) }
