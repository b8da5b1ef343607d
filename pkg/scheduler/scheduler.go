// Package scheduler places containers and volumes onto hosts and
// initiates API calls once their endpoints are ready, each running as a
// continuous clock event at the scheduler priority so every placement
// pass runs after every entity's own lifecycle events at the same
// instant (spec.md §4.9).
package scheduler

import (
	"math"
	"sort"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/metrics"
	"github.com/cuemby/vsim/pkg/sim"
)

// HostSelector picks a host for a container or volume, or nil if none
// currently fits (spec.md §4.9's default/best-fit/worst-fit policies).
type HostSelector interface {
	sim.Policy
	SelectForContainer(hosts []sim.HostRef, c sim.ContainerRef) sim.HostRef
	SelectForVolume(hosts []sim.HostRef, v sim.VolumeRef) sim.HostRef
}

func fitsContainer(h sim.HostRef, c sim.ContainerRef) bool {
	return h.PoweredOn() &&
		h.RAMReservoirFree() >= c.RequestRAM() &&
		h.CPUReservoirFree() >= c.RequestCPU() &&
		h.ROMReservoirFree() >= c.RequestROM()
}

func fitsVolume(h sim.HostRef, v sim.VolumeRef) bool {
	return h.PoweredOn() && h.ROMReservoirFree() >= v.RequestROM()
}

// DefaultPolicy returns the first host with room, in registry order.
type DefaultPolicy struct{}

func (DefaultPolicy) Name() string { return "default" }

func (DefaultPolicy) SelectForContainer(hosts []sim.HostRef, c sim.ContainerRef) sim.HostRef {
	for _, h := range hosts {
		if fitsContainer(h, c) {
			return h
		}
	}
	return nil
}

func (DefaultPolicy) SelectForVolume(hosts []sim.HostRef, v sim.VolumeRef) sim.HostRef {
	for _, h := range hosts {
		if fitsVolume(h, v) {
			return h
		}
	}
	return nil
}

// BestfitPolicy prefers the host with the least free CPU/RAM/ROM that
// still fits, packing load onto already-busy hosts (spec.md §4.9's
// cascading ROM→RAM→CPU sort, ascending).
type BestfitPolicy struct{}

func (BestfitPolicy) Name() string { return "bestfit" }

func (BestfitPolicy) SelectForContainer(hosts []sim.HostRef, c sim.ContainerRef) sim.HostRef {
	sorted := sortHosts(hosts, false)
	for _, h := range sorted {
		if fitsContainer(h, c) {
			return h
		}
	}
	return nil
}

func (BestfitPolicy) SelectForVolume(hosts []sim.HostRef, v sim.VolumeRef) sim.HostRef {
	sorted := sortByROM(hosts, false)
	for _, h := range sorted {
		if fitsVolume(h, v) {
			return h
		}
	}
	return nil
}

// WorstfitPolicy prefers the host with the most free CPU/RAM/ROM,
// spreading load across hosts (spec.md §4.9's cascading sort,
// descending).
type WorstfitPolicy struct{}

func (WorstfitPolicy) Name() string { return "worstfit" }

func (WorstfitPolicy) SelectForContainer(hosts []sim.HostRef, c sim.ContainerRef) sim.HostRef {
	sorted := sortHosts(hosts, true)
	for _, h := range sorted {
		if fitsContainer(h, c) {
			return h
		}
	}
	return nil
}

func (WorstfitPolicy) SelectForVolume(hosts []sim.HostRef, v sim.VolumeRef) sim.HostRef {
	sorted := sortByROM(hosts, true)
	for _, h := range sorted {
		if fitsVolume(h, v) {
			return h
		}
	}
	return nil
}

// sortHosts replicates the original's three successive in-place sorts
// (ROM, then RAM, then CPU) which together behave as a stable
// CPU-primary, RAM-secondary, ROM-tertiary ordering.
func sortHosts(hosts []sim.HostRef, reverse bool) []sim.HostRef {
	out := append([]sim.HostRef(nil), hosts...)
	less := func(a, b float64) bool { return a < b }
	if reverse {
		less = func(a, b float64) bool { return a > b }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].ROMReservoirFree(), out[j].ROMReservoirFree()) })
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].RAMReservoirFree(), out[j].RAMReservoirFree()) })
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].CPUReservoirFree(), out[j].CPUReservoirFree()) })
	return out
}

func sortByROM(hosts []sim.HostRef, reverse bool) []sim.HostRef {
	out := append([]sim.HostRef(nil), hosts...)
	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return out[i].ROMReservoirFree() > out[j].ROMReservoirFree()
		}
		return out[i].ROMReservoirFree() < out[j].ROMReservoirFree()
	})
	return out
}

// ContainerScheduler places every unscheduled, volume-ready container
// onto a host, sorted by priority (spec.md §4.9).
type ContainerScheduler struct {
	sim      *sim.Simulation
	selector HostSelector
}

// NewContainerScheduler builds a scheduler that uses selector to pick a
// host for each pending container.
func NewContainerScheduler(s *sim.Simulation, selector HostSelector) *ContainerScheduler {
	return &ContainerScheduler{sim: s, selector: selector}
}

// Start registers the continuous placement pass on the simulation
// clock, running every min_time_unit at the scheduler priority (after
// every ordinary entity event at the same instant).
func (cs *ContainerScheduler) Start(at float64) {
	cs.sim.Clock.ScheduleContinuous(at, clock.PriorityScheduler, cs.sim.MinTimeUnit(), math.Inf(1), "scheduling-containers", "container-scheduler", cs.pass)
}

func (cs *ContainerScheduler) pass(now float64) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.SchedulingLatency)

	containers := cs.sim.Containers.All()
	sim.SortByPriority(containers, func(c sim.ContainerRef) int { return c.Priority() })

	pending := 0
	for _, c := range containers {
		if c.Scheduled() {
			continue
		}
		pending++
		if !c.VolumesScheduled() {
			continue
		}
		host := cs.selector.SelectForContainer(cs.sim.AllHosts(), c)
		if host == nil {
			log.Logger.Debug().Int("container_id", c.EntityID()).Msg("container cannot be scheduled")
			continue
		}
		if err := host.AllocateContainer(c, now); err != nil {
			log.Logger.Debug().Err(err).Msg("container allocation failed")
			continue
		}
		if setter, ok := c.(interface{ SetHost(sim.HostRef) }); ok {
			setter.SetHost(host)
		}
		if initiator, ok := c.(interface{ Initiate(now float64) }); ok {
			initiator.Initiate(now)
		}
		metrics.ContainersScheduled.Inc()
	}
	metrics.ContainersPending.Set(float64(pending))
}

// VolumeScheduler places every unscheduled volume onto a host (spec.md
// §4.9).
type VolumeScheduler struct {
	sim      *sim.Simulation
	selector HostSelector
}

// NewVolumeScheduler builds a scheduler that uses selector to pick a
// host for each pending volume.
func NewVolumeScheduler(s *sim.Simulation, selector HostSelector) *VolumeScheduler {
	return &VolumeScheduler{sim: s, selector: selector}
}

// Start registers the continuous placement pass.
func (vs *VolumeScheduler) Start(at float64) {
	vs.sim.Clock.ScheduleContinuous(at, clock.PriorityScheduler, vs.sim.MinTimeUnit(), math.Inf(1), "scheduling-volumes", "volume-scheduler", vs.pass)
}

func (vs *VolumeScheduler) pass(now float64) {
	for _, v := range vs.sim.Volumes.All() {
		if v.Scheduled() {
			continue
		}
		host := vs.selector.SelectForVolume(vs.sim.AllHosts(), v)
		if host == nil {
			log.Logger.Debug().Int("volume_id", v.EntityID()).Msg("volume cannot be scheduled")
			continue
		}
		if err := host.AllocateVolume(v, now); err != nil {
			log.Logger.Debug().Err(err).Msg("volume allocation failed")
			continue
		}
		if setter, ok := v.(interface{ SetHost(sim.HostRef) }); ok {
			setter.SetHost(host)
		}
		metrics.VolumesScheduled.Inc()
	}
}

// APICallInitiator initiates every API call once both of its endpoints
// resolve to a routable network node (spec.md §4.7/§4.9).
type APICallInitiator struct {
	sim *sim.Simulation
}

// NewAPICallInitiator builds an initiator over s.
func NewAPICallInitiator(s *sim.Simulation) *APICallInitiator {
	return &APICallInitiator{sim: s}
}

// Start registers the continuous initiation pass.
func (ai *APICallInitiator) Start(at float64) {
	ai.sim.Clock.ScheduleContinuous(at, clock.PriorityScheduler, ai.sim.MinTimeUnit(), math.Inf(1), "initiating-api-calls", "apicall-initiator", ai.pass)
}

func (ai *APICallInitiator) pass(now float64) {
	for _, a := range ai.sim.APICalls.All() {
		if !a.Uninitiated() {
			continue
		}
		if !a.EndpointsReady() {
			continue
		}
		a.Initiate(now)
		metrics.APICallsInitiated.Inc()
	}
}
