// Package monitor implements periodic telemetry sampling over hosts,
// containers, and microservices: a continuous clock event that calls an
// entity-kind-specific observer and hands each resulting Sample to a
// sink (spec.md §4.10).
package monitor

import (
	"fmt"
	"math"
	"sync"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/sim"
)

// Sample is a read-only snapshot of one entity's telemetry fields at a
// point in virtual time — the contract between the kernel and any sink
// (pkg/storage, pkg/api, or a plain log line).
type Sample struct {
	At     float64
	Kind   string
	Label  string
	Fields map[string]float64
}

// Observer produces zero or more Samples from its targets at the
// current tick. Each of host_monitor.go/container_monitor.go/
// microservice_monitor.go implements one.
type Observer interface {
	Observe(now, samplePeriod float64) []Sample
}

// Sink receives every Sample a monitor produces.
type Sink func(Sample)

// Monitor runs an Observer every samplePeriod (virtual seconds),
// starting at the time passed to Start, and forwards each Sample to Sink.
type Monitor struct {
	sim          *sim.Simulation
	label        string
	samplePeriod float64
	observer     Observer
	sink         Sink
}

// New builds a monitor. samplePeriod <= 0 defaults to 0.1, matching the
// original's default sampling interval.
func New(s *sim.Simulation, label string, samplePeriod float64, observer Observer, sink Sink) *Monitor {
	if samplePeriod <= 0 {
		samplePeriod = 0.1
	}
	return &Monitor{sim: s, label: label, samplePeriod: samplePeriod, observer: observer, sink: sink}
}

// Start registers the continuous observation event at `at`, re-firing
// every SamplePeriod() until the simulation ends.
func (m *Monitor) Start(at float64) {
	m.sim.Clock.ScheduleContinuous(at, clock.PriorityDefault, m.samplePeriod, math.Inf(1), fmt.Sprintf("%s-observer", m.label), m.label, func(now float64) {
		for _, s := range m.observer.Observe(now, m.samplePeriod) {
			if m.sink != nil {
				m.sink(s)
			}
		}
	})
}

// SamplePeriod returns the monitor's configured sampling interval.
func (m *Monitor) SamplePeriod() float64 { return m.samplePeriod }

// Ring is a fixed-capacity, append-only-with-eviction buffer of the most
// recent Samples, the in-memory half of a snapshot monitor (spec.md
// §4.10). Safe for concurrent use: pkg/api's control-plane server reads
// it from a different goroutine than the simulation's own loop.
type Ring struct {
	mu       sync.RWMutex
	capacity int
	items    []Sample
	next     int
	full     bool
}

// NewRing builds a ring buffer holding up to capacity samples.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Ring{capacity: capacity, items: make([]Sample, capacity)}
}

// Append adds s, evicting the oldest sample once the ring is full.
func (r *Ring) Append(s Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.next] = s
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}
}

// Snapshot returns every buffered sample in insertion order.
func (r *Ring) Snapshot() []Sample {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.full {
		out := make([]Sample, r.next)
		copy(out, r.items[:r.next])
		return out
	}
	out := make([]Sample, r.capacity)
	copy(out, r.items[r.next:])
	copy(out[r.capacity-r.next:], r.items[:r.next])
	return out
}

// Sink returns a Sink that appends every Sample to this ring, suitable
// for passing directly to New.
func (r *Ring) Sink() Sink { return r.Append }
