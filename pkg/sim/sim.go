// Package sim is the simulation façade: the explicit context carrying
// the clock, topology graph, RNG, and the arena registries that replace
// direct cyclic references between hardware and software entities.
// Every constructor and event in pkg/hardware and pkg/software takes a
// *Simulation instead of reaching for a global singleton.
package sim

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/rng"
)

// HostRef is the scheduler-facing surface of a hardware host. Defined
// here (not in pkg/hardware) so pkg/scheduler can depend on sim alone;
// pkg/hardware.Host implements it.
type HostRef interface {
	Identifiable
	Label() string
	PoweredOn() bool
	CPUReservoirFree() float64
	RAMReservoirFree() float64
	ROMReservoirFree() float64
	// CPUFrequency returns the host CPU's IPC and clock frequency, used
	// to compute a daemon container's instruction-length budget (spec.md
	// §4.5's deamon_length formula).
	CPUFrequency() (ipc, frequency float64)
	AllocateContainer(c ContainerRef, now float64) error
	AllocateVolume(v VolumeRef, now float64) error
	Dispatcher() CPURef
}

// ContainerRef is the scheduler-facing surface of a software container.
type ContainerRef interface {
	Identifiable
	Priority() int
	Scheduled() bool
	VolumesScheduled() bool
	RequestCPU() float64
	RequestRAM() float64
	RequestROM() float64
}

// VolumeRef is the scheduler-facing surface of a software volume.
type VolumeRef interface {
	Identifiable
	Priority() int
	Scheduled() bool
	RequestROM() float64
}

// APICallRef is the scheduler-facing surface of an API call awaiting
// initiation by the API-call initiator.
type APICallRef interface {
	Identifiable
	Uninitiated() bool
	EndpointsReady() bool
	Initiate(now float64)
}

// Simulation is the shared context. Zero value is not usable; build with
// New.
type Simulation struct {
	Clock   *clock.Clock
	Network *network.Graph
	RNG     *rng.Source

	// RunID uniquely identifies this simulation run; `vsim run` and
	// `vsim serve` log it when they start.
	RunID string

	Hosts         *Registry[HostRef]
	Containers    *Registry[ContainerRef]
	Volumes       *Registry[VolumeRef]
	Microservices *Registry[MicroserviceRef]
	APICalls      *Registry[APICallRef]

	ContainerScheduler Policy
	VolumeScheduler    Policy

	nextID int
}

// MicroserviceRef is the evaluator-facing surface of an autoscaling
// group, used by monitors and the control-plane API for status queries.
type MicroserviceRef interface {
	Identifiable
	Label() string
	Ready() bool
}

// Policy is implemented by the container/volume placement policies
// (default/best-fit/worst-fit); see pkg/scheduler.
type Policy interface {
	Name() string
}

// Config bundles the façade's construction-time knobs (spec.md §6).
type Config struct {
	Resolution int
	Seed       int64
}

// New builds a Simulation with its own clock, topology, and RNG.
func New(cfg Config) *Simulation {
	if cfg.Resolution <= 0 {
		cfg.Resolution = 4
	}
	return &Simulation{
		Clock:         clock.New(cfg.Resolution),
		Network:       network.New(),
		RNG:           rng.New(cfg.Seed),
		RunID:         uuid.NewString(),
		Hosts:         NewRegistry[HostRef](),
		Containers:    NewRegistry[ContainerRef](),
		Volumes:       NewRegistry[VolumeRef](),
		Microservices: NewRegistry[MicroserviceRef](),
		APICalls:      NewRegistry[APICallRef](),
	}
}

// Now returns the current virtual time.
func (s *Simulation) Now() float64 { return s.Clock.Now() }

// MinTimeUnit is 10^-resolution, per spec.md §4.1.
func (s *Simulation) MinTimeUnit() float64 { return s.Clock.MinTimeUnit() }

// NextID allocates the next arena ID. Every hardware/software entity
// constructor calls this exactly once to obtain its identity.
func (s *Simulation) NextID() int {
	s.nextID++
	return s.nextID
}

// Simulate advances the clock to the given horizon (spec.md §4.1 /
// §6's programmatic driver). State violations surface as a panic that is
// recovered here and returned as an error carrying the virtual time, so
// the run stops, matching SPEC_FULL.md §7's "state violations abort the
// simulation" rule.
func (s *Simulation) Simulate(until float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Logger.Error().Interface("panic", r).Msg("simulation aborted: state violation")
			err = fmt.Errorf("sim: state violation at t=%.*f: %v", s.Clock.Resolution(), s.Clock.Now(), r)
		}
	}()
	s.Clock.Simulate(until)
	return nil
}

// InstantEvent is the §6 driver helper for scheduling arbitrary one-off
// work (e.g. creating a microservice or API call at a future time)
// outside of any single entity's own lifecycle.
func (s *Simulation) InstantEvent(at float64, label string, action clock.Action) {
	s.Clock.Schedule(at, clock.PriorityDefault, label, "sim", action)
}

// AllHosts returns every registered host, used by the façade's `hosts`
// property (spec.md §6).
func (s *Simulation) AllHosts() []HostRef { return s.Hosts.All() }
