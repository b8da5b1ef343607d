package software

import (
	"fmt"
	"math"
	"sort"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/sim"
)

const mib = 1024 * 1024

// LoadBalancer picks one container instance of a microservice to
// receive the next request (spec.md §4.5's horizontal-scaling group).
type LoadBalancer interface {
	GetContainer(ms *Microservice) *Container
}

// RandomLoadBalancer picks uniformly among initiated instances.
type RandomLoadBalancer struct{ sim *sim.Simulation }

func NewRandomLoadBalancer(s *sim.Simulation) *RandomLoadBalancer { return &RandomLoadBalancer{sim: s} }

func (r *RandomLoadBalancer) GetContainer(ms *Microservice) *Container {
	candidates := ms.initiatedContainers()
	if len(candidates) == 0 {
		return nil
	}
	c := candidates[r.sim.RNG.Intn(len(candidates))]
	log.Logger.Info().Str("microservice", ms.Entity.Label).Msg("load balancer selected a container")
	return c
}

// BestfitLoadBalancer picks the instance with the highest CPU/RAM usage,
// packing load onto already-busy instances.
type BestfitLoadBalancer struct{}

func NewBestfitLoadBalancer() *BestfitLoadBalancer { return &BestfitLoadBalancer{} }

func (b *BestfitLoadBalancer) GetContainer(ms *Microservice) *Container {
	candidates := ms.initiatedContainers()
	if len(candidates) == 0 {
		return nil
	}
	sortByUsage(candidates)
	return candidates[len(candidates)-1]
}

// WorstfitLoadBalancer picks the instance with the lowest CPU/RAM usage,
// spreading load across instances.
type WorstfitLoadBalancer struct{}

func NewWorstfitLoadBalancer() *WorstfitLoadBalancer { return &WorstfitLoadBalancer{} }

func (w *WorstfitLoadBalancer) GetContainer(ms *Microservice) *Container {
	candidates := ms.initiatedContainers()
	if len(candidates) == 0 {
		return nil
	}
	sortByUsage(candidates)
	return candidates[0]
}

func sortByUsage(containers []*Container) {
	sort.Slice(containers, func(i, j int) bool {
		if containers[i].RAMUsage() != containers[j].RAMUsage() {
			return containers[i].RAMUsage() < containers[j].RAMUsage()
		}
		return containers[i].CPUUsage() < containers[j].CPUUsage()
	})
}

// Microservice is a horizontally- and vertically-scaled group of
// identical containers behind a load balancer, autoscaling on CPU/RAM
// utilization thresholds (spec.md §4.5).
type Microservice struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	RequestedCPU float64 // milli-CPU per instance
	RequestedRAM float64 // MiB per instance
	ImageSize    float64 // MiB per instance
	CPULimitVal  float64
	RAMLimitVal  float64
	VolumeDescs  []VolumeDescription
	PriorityVal  int
	Daemon       bool

	MinInstances int
	MaxInstances int

	CPUUpperThreshold float64
	CPULowerThreshold float64
	RAMUpperThreshold float64
	RAMLowerThreshold float64

	LB LoadBalancer

	scheduleContainer func(c *Container, now float64)

	containers []*Container
	scaling    bool
}

// MicroserviceConfig bundles Microservice's construction-time knobs.
type MicroserviceConfig struct {
	RequestedCPU, RequestedRAM, ImageSize float64
	CPULimit, RAMLimit                    float64
	Volumes                               []VolumeDescription
	Priority                              int
	Daemon                                bool
	MinInstances, MaxInstances            int
	LoadBalancer                          LoadBalancer
	CPUUpperThreshold, CPULowerThreshold   float64
	RAMUpperThreshold, RAMLowerThreshold   float64
}

// NewMicroservice builds an uncreated microservice. scheduleContainer is
// called once per new container instance so the caller can hand it to
// the container scheduler (pkg/scheduler) without this package importing
// it.
func NewMicroservice(s *sim.Simulation, cfg MicroserviceConfig, scheduleContainer func(c *Container, now float64), label string, precursors []*entity.Entity) *Microservice {
	id := s.NextID()
	if cfg.MinInstances <= 0 {
		cfg.MinInstances = 1
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = 3
	}
	if cfg.LoadBalancer == nil {
		cfg.LoadBalancer = NewBestfitLoadBalancer()
	}
	m := &Microservice{
		id:                id,
		sim:               s,
		RequestedCPU:      cfg.RequestedCPU,
		RequestedRAM:      cfg.RequestedRAM,
		ImageSize:         cfg.ImageSize,
		CPULimitVal:       cfg.CPULimit,
		RAMLimitVal:       cfg.RAMLimit,
		VolumeDescs:       cfg.Volumes,
		PriorityVal:       cfg.Priority,
		Daemon:            cfg.Daemon,
		MinInstances:      cfg.MinInstances,
		MaxInstances:      cfg.MaxInstances,
		LB:                cfg.LoadBalancer,
		CPUUpperThreshold: orDefault(cfg.CPUUpperThreshold, 0.8),
		CPULowerThreshold: orDefault(cfg.CPULowerThreshold, 0.2),
		RAMUpperThreshold: orDefault(cfg.RAMUpperThreshold, 0.8),
		RAMLowerThreshold: orDefault(cfg.RAMLowerThreshold, 0.2),
		scheduleContainer: scheduleContainer,
	}
	m.Entity = entity.New(s.Clock, "microservice", fmt.Sprintf("%d", id), label, precursors)
	m.Entity.Hooks = entity.Hooks{
		OnCreate:    m.onCreate,
		OnTerminate: m.onTerminate,
	}
	s.Microservices.Add(m)
	return m
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func (m *Microservice) newContainerInstance(now float64) *Container {
	ramBytes := m.RequestedRAM * mib
	imageBytes := m.ImageSize * mib
	c := NewContainer(m.sim, m.RequestedCPU, ramBytes, imageBytes, m.CPULimitVal, m.RAMLimitVal*mib, m.PriorityVal, m.Daemon, m.VolumeDescs, fmt.Sprintf("%s-%d", m.Entity.Label, len(m.containers)), nil)
	m.containers = append(m.containers, c)
	if m.scheduleContainer != nil {
		m.scheduleContainer(c, now)
	}
	c.Create(now)
	return c
}

func (m *Microservice) onCreate(now float64) {
	for i := 0; i < m.MinInstances; i++ {
		m.newContainerInstance(now)
	}

	owner := m.Entity.ID
	m.sim.Clock.ScheduleContinuous(now, clock.PriorityDefault, m.sim.MinTimeUnit(), math.Inf(1), fmt.Sprintf("%s-evaluator", m.Entity.Label), owner, m.evaluate)
}

func (m *Microservice) evaluate(now float64) {
	initiated := m.initiatedContainers()

	if len(initiated) < m.MinInstances {
		if m.Ready() {
			m.Entity.SetState(entity.Ready, false)
		}
		missing := m.MinInstances - len(initiated)
		for i := 0; i < missing; i++ {
			m.newContainerInstance(now)
		}
		if missing > 0 {
			log.Logger.Info().Str("microservice", m.Entity.Label).Int("recreating", missing).Msg("microservice is not ready, recreating instances")
		}
		return
	}
	if !m.Ready() {
		m.Entity.SetState(entity.Ready, true)
		log.Logger.Info().Str("microservice", m.Entity.Label).Msg("microservice is ready")
	}

	if len(initiated) != len(m.containers) {
		return
	}

	if len(m.containers) < m.MaxInstances && m.scaleUpTriggered() {
		m.HorizontalScaleUp(1, now)
		return
	}
	if len(m.containers) > m.MinInstances && m.scaleDownTriggered() {
		m.HorizontalScaleDown(1, now)
		return
	}
}

func (m *Microservice) scaleUpTriggered() bool {
	return m.CPUUtilization() >= m.CPUUpperThreshold || m.RAMUtilization() >= m.RAMUpperThreshold
}

func (m *Microservice) scaleDownTriggered() bool {
	return m.CPUUtilization() <= m.CPULowerThreshold && m.RAMUtilization() <= m.RAMLowerThreshold
}

// HorizontalScaleUp adds numInstances container instances, matching the
// original's instant event at priority -1 and the `scaling` mutex flag
// that drops overlapping scale requests.
func (m *Microservice) HorizontalScaleUp(numInstances int, at float64) {
	if m.scaling {
		return
	}
	m.scaling = true
	m.sim.Clock.Schedule(at, clock.PriorityLifecycle, fmt.Sprintf("%s-scale-up", m.Entity.Label), m.Entity.ID, func(now float64) {
		for i := 0; i < numInstances; i++ {
			m.newContainerInstance(now)
		}
		m.scaling = false
	})
}

// HorizontalScaleDown terminates up to numInstances instances, never
// below MinInstances.
func (m *Microservice) HorizontalScaleDown(numInstances int, at float64) {
	if m.scaling {
		return
	}
	m.scaling = true
	m.sim.Clock.Schedule(at, clock.PriorityLifecycle, fmt.Sprintf("%s-scale-down", m.Entity.Label), m.Entity.ID, func(now float64) {
		n := numInstances
		if room := len(m.containers) - m.MinInstances; room < n {
			n = room
		}
		for i := 0; i < n; i++ {
			m.containers[i].Terminate(now)
		}
		m.scaling = false
	})
}

// VerticalScale replaces every current instance with one built from the
// new resource shape, matching the original's terminate-then-recreate
// semantics (spec.md §4.5's vertical-scale supplement).
func (m *Microservice) VerticalScale(at float64, cpu, ram, imageSize, cpuLimit, ramLimit float64, priority int, daemon bool) {
	m.sim.Clock.Schedule(at, clock.PriorityLifecycle, fmt.Sprintf("%s-vertical-scale", m.Entity.Label), m.Entity.ID, func(now float64) {
		m.RequestedCPU = cpu
		m.RequestedRAM = ram
		m.ImageSize = imageSize
		m.CPULimitVal = cpuLimit
		m.RAMLimitVal = ramLimit
		m.PriorityVal = priority
		m.Daemon = daemon

		count := len(m.containers)
		old := m.containers
		m.containers = nil
		for _, c := range old {
			c.Terminate(now)
		}
		for i := 0; i < count; i++ {
			m.newContainerInstance(now)
		}
	})
}

func (m *Microservice) onTerminate(now float64) {
	for _, c := range m.containers {
		c.Terminate(now)
	}
}

func (m *Microservice) initiatedContainers() []*Container {
	out := make([]*Container, 0, len(m.containers))
	for _, c := range m.containers {
		if c.Initiated() {
			out = append(out, c)
		}
	}
	return out
}

// EntityID implements sim.Identifiable.
func (m *Microservice) EntityID() int { return m.id }

// Label implements sim.MicroserviceRef.
func (m *Microservice) Label() string { return m.Entity.Label }

// Ready implements sim.MicroserviceRef.
func (m *Microservice) Ready() bool { return m.HasState(entity.Ready) }

// GetContainer picks a container via the configured load balancer.
func (m *Microservice) GetContainer() *Container {
	if m.LB == nil {
		return nil
	}
	return m.LB.GetContainer(m)
}

// Containers returns every instance, scheduled or not.
func (m *Microservice) Containers() []*Container { return m.containers }

// NumActiveContainers is the count of initiated instances, used by
// monitors (spec.md §4.10's microservice sample field).
func (m *Microservice) NumActiveContainers() int { return len(m.initiatedContainers()) }

// CPUUsage sums the CPU usage of initiated instances.
func (m *Microservice) CPUUsage() float64 {
	total := 0.0
	for _, c := range m.initiatedContainers() {
		total += c.CPUUsage()
	}
	return total
}

// CPUUtilization sums the CPU utilization of initiated instances and
// divides it by the number of all instances, initiated or not.
func (m *Microservice) CPUUtilization() float64 {
	initiated := m.initiatedContainers()
	if len(initiated) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range initiated {
		total += c.CPUUtilization()
	}
	return total / float64(len(m.containers))
}

// RAMUsage sums the RAM usage of initiated instances.
func (m *Microservice) RAMUsage() float64 {
	total := 0.0
	for _, c := range m.initiatedContainers() {
		total += c.RAMUsage()
	}
	return total
}

// RAMUtilization sums the RAM utilization of initiated instances and
// divides it by the number of all instances, initiated or not.
func (m *Microservice) RAMUtilization() float64 {
	initiated := m.initiatedContainers()
	if len(initiated) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range initiated {
		total += c.RAMUtilization()
	}
	return total / float64(len(m.containers))
}

// IsUser implements Endpoint: a microservice is never a user.
func (m *Microservice) IsUser() bool { return false }

// NetworkNode implements Endpoint: routes to the selected container's
// host.
func (m *Microservice) NetworkNode() sim.NetworkNodeRef {
	c := m.GetContainer()
	if c == nil || c.Host() == nil {
		return nil
	}
	node, _ := c.Host().(sim.NetworkNodeRef)
	return node
}

// Container implements Endpoint.
func (m *Microservice) Container() (sim.HostRef, sim.CPURef, sim.ContainerLimits) {
	c := m.GetContainer()
	if c == nil || c.Host() == nil {
		return nil, nil, nil
	}
	return c.Host(), c.Host().Dispatcher(), c
}
