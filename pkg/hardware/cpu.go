// Package hardware implements the hardware model (C4): CPU cores and
// dispatch, NICs and ports, and the Host/Switch/Gateway/Router node
// kinds that make up the topology.
package hardware

import (
	"fmt"
	"math"

	"github.com/cuemby/vsim/pkg/resource"
	"github.com/cuemby/vsim/pkg/sim"
)

// DispatchMode selects the CPU's per-tick instruction placement
// strategy (spec.md §4.4).
type DispatchMode int

const (
	// ModeRoundRobin assigns one instruction per core per pass before
	// moving to the next core.
	ModeRoundRobin DispatchMode = 1
	// ModePack assigns as many instructions as fit on one core before
	// moving to the next.
	ModePack DispatchMode = 2
)

// coreEntry is one instruction held by a core, plus the bookkeeping
// needed to restore container usage and notify the software layer when
// it retires.
type coreEntry struct {
	inst      sim.InstructionRef
	container sim.ContainerLimits // nil when the owning process has no container
	onRetire  func(now float64)
}

// CPUCore is one of a CPU's schedulable cores.
type CPUCore struct {
	ipc, frequency     float64
	ComputationalPower *resource.Resource
	hostRAM            *resource.Resource
	queue              []coreEntry
}

func newCPUCore(ipc, frequency float64, hostRAM *resource.Resource) *CPUCore {
	return &CPUCore{
		ipc:                ipc,
		frequency:          frequency,
		ComputationalPower: resource.New(ipc * frequency),
		hostRAM:            hostRAM,
	}
}

// FreePower is the core's remaining per-tick instruction-slot capacity.
func (c *CPUCore) FreePower() float64 { return c.ComputationalPower.Amount() }

// cache reserves one unit of computational power and instruction.Length()
// bytes of host RAM, failing atomically (neither reservation sticks) if
// either is unavailable (spec.md §4.4 step 5(a)).
func (c *CPUCore) cache(e coreEntry, now float64) bool {
	holder := fmt.Sprintf("inst-%d", e.inst.EntityID())
	if !c.ComputationalPower.Get(holder, 1, now) {
		return false
	}
	if !c.hostRAM.Get(holder, e.inst.Length(), now) {
		c.ComputationalPower.Put(holder, 1, now)
		return false
	}
	c.queue = append(c.queue, e)
	return true
}

func (c *CPUCore) retireHead(now float64) {
	if len(c.queue) == 0 {
		return
	}
	e := c.queue[0]
	c.queue = c.queue[1:]
	holder := fmt.Sprintf("inst-%d", e.inst.EntityID())
	c.ComputationalPower.Put(holder, 1, now)
	c.hostRAM.Put(holder, e.inst.Length(), now)
	if e.container != nil {
		e.container.AddCPUUsage(-(1000.0 / (c.ipc * c.frequency)))
		e.container.AddRAMUsage(-e.inst.Length())
	}
	if e.onRetire != nil {
		e.onRetire(now)
	}
}

// CPU is a host's CPU: a reservoir for admission control and a set of
// cores dispatching instructions every cycle (spec.md §4.4).
type CPU struct {
	IPC, Frequency float64
	NumCores       int
	Mode           DispatchMode
	Cores          []*CPUCore
	ProcessQueue   []sim.ProcessRef
	Reservoir      *resource.Resource
	hostRAM        *resource.Resource

	sim     *sim.Simulation
	hostID  int
	powered bool
}

// NewCPU builds a CPU with numCores cores, each capacity ipc*frequency,
// and a milli-CPU reservoir of 1000*numCores (spec.md §3). hostRAM is the
// host's RAM resource; every dispatched instruction reserves Length()
// bytes from it for the duration it occupies a core (spec.md §4.4 5(a)).
func NewCPU(s *sim.Simulation, hostID int, ipc, frequency float64, numCores int, mode DispatchMode, hostRAM *resource.Resource) *CPU {
	cpu := &CPU{
		IPC:       ipc,
		Frequency: frequency,
		NumCores:  numCores,
		Mode:      mode,
		Reservoir: resource.New(1000 * float64(numCores)),
		hostRAM:   hostRAM,
		sim:       s,
		hostID:    hostID,
	}
	for i := 0; i < numCores; i++ {
		cpu.Cores = append(cpu.Cores, newCPUCore(ipc, frequency, hostRAM))
	}
	return cpu
}

// InstructionCycle is 1/(ipc*frequency) virtual seconds.
func (c *CPU) InstructionCycle() float64 { return 1.0 / (c.IPC * c.Frequency) }

// Enqueue adds a process to the dispatch queue (sim.CPURef).
func (c *CPU) Enqueue(p sim.ProcessRef) { c.ProcessQueue = append(c.ProcessQueue, p) }

// ReservoirFree reports remaining milli-CPU admission headroom.
func (c *CPU) ReservoirFree() float64 { return c.Reservoir.Amount() }

func (c *CPU) dispatchOwner(suffix string) string { return fmt.Sprintf("cpu-%d-%s", c.hostID, suffix) }

// PowerOn starts the per-cycle dispatch loop and each core's independent
// retirement clock, offset by one cycle from the dispatch loop per
// spec.md §4.4 ("also period = instruction cycle, offset by one cycle").
func (c *CPU) PowerOn(now float64) {
	if c.powered {
		return
	}
	c.powered = true
	cycle := c.InstructionCycle()
	c.sim.Clock.ScheduleContinuous(now, 0, cycle, math.Inf(1), "dispatch", c.dispatchOwner("dispatch"), func(t float64) {
		c.schedule(t)
	})
	for i := range c.Cores {
		cIdx := i
		c.sim.Clock.ScheduleContinuous(now+cycle, 0, cycle, math.Inf(1), "retire", c.dispatchOwner(fmt.Sprintf("core-%d", cIdx)), func(t float64) {
			c.Cores[cIdx].retireHead(t)
		})
	}
}

// PowerOff cancels the dispatch loop and every core clock, fails the
// container of every queued process that runs in one, and empties the
// process queue.
func (c *CPU) PowerOff(now float64) {
	if !c.powered {
		return
	}
	c.powered = false
	c.sim.Clock.CancelOwner(c.dispatchOwner("dispatch"))
	for i := range c.Cores {
		c.sim.Clock.CancelOwner(c.dispatchOwner(fmt.Sprintf("core-%d", i)))
	}
	for _, p := range c.ProcessQueue {
		if containerID, ok := p.ContainerID(); ok {
			if ref, ok := c.sim.Containers.Get(containerID); ok {
				if cl, ok := ref.(sim.ContainerLimits); ok {
					cl.Fail(now)
				}
			}
		}
	}
	c.ProcessQueue = nil
}

// schedule is the dispatch algorithm from spec.md §4.4, run once per
// instruction cycle.
func (c *CPU) schedule(now float64) {
	sim.SortByPriority(c.ProcessQueue, func(p sim.ProcessRef) int { return p.Priority() })

	remaining := c.ProcessQueue[:0:0]
	for _, p := range c.ProcessQueue {
		unscheduled := p.UnscheduledInstructions()
		if len(unscheduled) == 0 {
			continue
		}
		remaining = append(remaining, p)

		containerID, hasContainer := p.ContainerID()
		var limits sim.ContainerLimits
		capacity := math.Inf(1)
		if hasContainer {
			if ref, ok := c.sim.Containers.Get(containerID); ok {
				if cl, ok := ref.(sim.ContainerLimits); ok {
					limits = cl
					free := limits.CPULimit() - limits.CPUUsage()
					capacity = (free / 1000.0) * c.IPC * c.Frequency
				}
			}
		}
		schedulable := int(math.Min(float64(len(unscheduled)), capacity))
		if schedulable <= 0 {
			continue
		}

		if ok := c.dispatchProcess(unscheduled, schedulable, limits, now); !ok && limits != nil {
			limits.Fail(now)
		}
	}
	c.ProcessQueue = remaining
}

func (c *CPU) dispatchProcess(unscheduled []sim.InstructionRef, schedulable int, limits sim.ContainerLimits, now float64) bool {
	idx := 0
	switch c.Mode {
	case ModePack:
		for idx < schedulable {
			core := c.mostFreeCore()
			if core == nil {
				break
			}
			n := int(math.Min(float64(schedulable-idx), core.FreePower()))
			for i := 0; i < n; i++ {
				if !c.dispatchOne(core, unscheduled[idx], limits, now) {
					return false
				}
				idx++
			}
		}
	default: // ModeRoundRobin
		for idx < schedulable {
			core := c.mostFreeCore()
			if core == nil {
				break
			}
			if !c.dispatchOne(core, unscheduled[idx], limits, now) {
				return false
			}
			idx++
		}
	}
	return true
}

func (c *CPU) dispatchOne(core *CPUCore, inst sim.InstructionRef, limits sim.ContainerLimits, now float64) bool {
	if limits != nil {
		limits.AddCPUUsage(1000.0 / (c.IPC * c.Frequency))
		limits.AddRAMUsage(inst.Length())
		if limits.CPUUsage() > limits.CPULimit() || limits.RAMUsage() > limits.RAMLimit() {
			return false
		}
	}
	if !core.cache(coreEntry{inst: inst, container: limits}, now) {
		return false
	}
	inst.Dispatch(now)
	return true
}

func (c *CPU) mostFreeCore() *CPUCore {
	var best *CPUCore
	for _, core := range c.Cores {
		if core.FreePower() <= 0 {
			continue
		}
		if best == nil || core.FreePower() > best.FreePower() {
			best = core
		}
	}
	return best
}
