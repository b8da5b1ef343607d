package software

import (
	"fmt"
	"math"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/sim"
)

// Container is a scheduled unit of CPU/RAM/ROM reservation running a
// daemon process and zero or more on-demand container processes
// (spec.md §3/§4.5).
type Container struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	RequestedCPU float64 // milli-CPU
	RequestedRAM float64 // bytes
	ImageSize    float64 // bytes, requested ROM
	CPULimitVal  float64
	RAMLimitVal  float64
	PriorityVal  int
	Daemon       bool

	host sim.HostRef

	daemonProcess *Process
	processQueue  []*Process
	volumeDescs   []VolumeDescription
	volumes       []*Volume

	cpuUsage float64
	ramUsage float64
}

// VolumeDescription requests one volume to be created alongside its
// container, matching the original's (size, path, label) tuples.
type VolumeDescription struct {
	SizeBytes float64
	Path      string
	Label     string
}

// NewContainer builds an uncreated, unscheduled container. cpuLimit/
// ramLimit of +Inf mean "no limit", matching the original's None.
func NewContainer(s *sim.Simulation, requestedCPU, requestedRAM, imageSize, cpuLimit, ramLimit float64, priority int, daemon bool, volumes []VolumeDescription, label string, precursors []*entity.Entity) *Container {
	id := s.NextID()
	c := &Container{
		id:           id,
		sim:          s,
		RequestedCPU: requestedCPU,
		RequestedRAM: requestedRAM,
		ImageSize:    imageSize,
		CPULimitVal:  cpuLimit,
		RAMLimitVal:  ramLimit,
		PriorityVal:  priority,
		Daemon:       daemon,
		volumeDescs:  volumes,
	}
	if c.CPULimitVal <= 0 {
		c.CPULimitVal = math.Inf(1)
	}
	if c.RAMLimitVal <= 0 {
		c.RAMLimitVal = math.Inf(1)
	}
	c.Entity = entity.New(s.Clock, "container", fmt.Sprintf("%d", id), label, precursors)
	c.Entity.Hooks = entity.Hooks{
		OnCreate:    c.onCreate,
		OnInitiate:  c.onInitiate,
		OnTerminate: c.onTerminate,
		OnDestroy:   c.onDestroy,
	}
	s.Containers.Add(c)
	return c
}

func (c *Container) onCreate(now float64) {
	for _, d := range c.volumeDescs {
		v := NewVolume(c.sim, d.SizeBytes, d.Path, c.PriorityVal, d.Label, nil)
		c.volumes = append(c.volumes, v)
		v.Create(now)
	}
}

// SetHost assigns the host this container was placed on by the
// scheduler (spec.md §4.9), prior to Initiate.
func (c *Container) SetHost(h sim.HostRef) { c.host = h }

// Host returns the host this container runs on, or nil if unscheduled.
func (c *Container) Host() sim.HostRef { return c.host }

func (c *Container) onInitiate(now float64) {
	if c.host == nil {
		panic(fmt.Sprintf("container %d: initiated without a host", c.id))
	}
	if c.Daemon {
		ipc, frequency := c.host.CPUFrequency()
		length := int(math.Round((c.RequestedCPU / 1000) * ipc * frequency))
		c.daemonProcess = NewDaemon(c.sim, c.host, c.host.Dispatcher(), c, length, clockPriorityLifecycle, ArchX86, c.Entity.Label, nil)
		c.processQueue = append(c.processQueue, c.daemonProcess)
		c.daemonProcess.Create(now)
	}
	log.WithEntity("container", c.Entity.ID, c.Entity.Label).Info().Msg("container initiated")
}

// clockPriorityLifecycle mirrors the original's daemon process priority
// of -1 so the daemon is always scheduled ahead of on-demand processes
// sharing the same container (spec.md §9's daemon-length note).
const clockPriorityLifecycle = -1

func (c *Container) onTerminate(now float64) {
	for _, p := range c.processQueue {
		p.Fail(now)
	}
	for _, v := range c.volumes {
		v.Terminate(now)
	}
}

func (c *Container) onDestroy(now float64) {
	for _, v := range c.volumes {
		v.Destroy(now)
	}
}

// AddVolume attaches a volume to this container.
func (c *Container) AddVolume(v *Volume) { c.volumes = append(c.volumes, v) }

// Volumes returns the container's attached volumes.
func (c *Container) Volumes() []*Volume { return c.volumes }

// EnqueueProcess registers an on-demand process started inside this
// container.
func (c *Container) EnqueueProcess(p *Process) { c.processQueue = append(c.processQueue, p) }

// NumProcesses returns the number of processes currently queued on this
// container, including the daemon process (spec.md §4.10's per-container
// sample field).
func (c *Container) NumProcesses() int { return len(c.processQueue) }

// EntityID implements sim.Identifiable.
func (c *Container) EntityID() int { return c.id }

// Label returns the container's short name, shadowing the embedded
// Entity's Label field so Container satisfies monitor.ContainerTarget.
func (c *Container) Label() string { return c.Entity.Label }

// Priority implements sim.ContainerRef.
func (c *Container) Priority() int { return c.PriorityVal }

// Scheduled reports whether the container has been placed on a host.
func (c *Container) Scheduled() bool { return c.host != nil }

// Initiated reports whether the container has finished its creation
// handshake and is running.
func (c *Container) Initiated() bool { return c.HasState(entity.Initiated) }

// VolumesScheduled reports whether every attached volume has a host.
func (c *Container) VolumesScheduled() bool {
	for _, v := range c.volumes {
		if !v.Scheduled() {
			return false
		}
	}
	return true
}

// RequestCPU implements sim.ContainerRef.
func (c *Container) RequestCPU() float64 { return c.RequestedCPU }

// RequestRAM implements sim.ContainerRef.
func (c *Container) RequestRAM() float64 { return c.RequestedRAM }

// RequestROM implements sim.ContainerRef.
func (c *Container) RequestROM() float64 { return c.ImageSize }

// CPULimit implements sim.ContainerLimits.
func (c *Container) CPULimit() float64 { return c.CPULimitVal }

// RAMLimit implements sim.ContainerLimits.
func (c *Container) RAMLimit() float64 { return c.RAMLimitVal }

// CPUUsage implements sim.ContainerLimits.
func (c *Container) CPUUsage() float64 { return c.cpuUsage }

// RAMUsage implements sim.ContainerLimits.
func (c *Container) RAMUsage() float64 { return c.ramUsage }

// AddCPUUsage implements sim.ContainerLimits, called by the CPU
// dispatch loop on dispatch (positive delta) and retirement (negative).
func (c *Container) AddCPUUsage(delta float64) { c.cpuUsage += delta }

// AddRAMUsage implements sim.ContainerLimits.
func (c *Container) AddRAMUsage(delta float64) { c.ramUsage += delta }

// CPUUtilization is cpu_usage/cpu_limit, matching the original (an
// unlimited container's utilization is always 0, since it divides by
// +Inf).
func (c *Container) CPUUtilization() float64 { return c.cpuUsage / c.CPULimitVal }

// RAMUtilization is ram_usage/ram_limit.
func (c *Container) RAMUtilization() float64 { return c.ramUsage / c.RAMLimitVal }
