package monitor

import (
	"testing"

	"github.com/cuemby/vsim/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHost struct {
	label     string
	poweredOn bool
}

func (h *fakeHost) Label() string                                    { return h.label }
func (h *fakeHost) PoweredOn() bool                                  { return h.poweredOn }
func (h *fakeHost) CPUUtilization(now, duration float64) float64     { return 0.5 }
func (h *fakeHost) RAMUtilization(now, duration float64) float64     { return 0.25 }
func (h *fakeHost) ROMUtilization(now, duration float64) float64     { return 0.1 }
func (h *fakeHost) EgressUtilization(now, duration float64) float64  { return 0.4 }
func (h *fakeHost) IngressUtilization(now, duration float64) float64 { return 0.3 }

type fakeContainer struct {
	label     string
	initiated bool
	cpuUsage  float64
	ramUsage  float64
	procs     int
}

func (c *fakeContainer) Label() string       { return c.label }
func (c *fakeContainer) Initiated() bool     { return c.initiated }
func (c *fakeContainer) CPUUsage() float64   { return c.cpuUsage }
func (c *fakeContainer) CPULimit() float64   { return 100 }
func (c *fakeContainer) RAMUsage() float64   { return c.ramUsage }
func (c *fakeContainer) RAMLimit() float64   { return 100 }
func (c *fakeContainer) NumProcesses() int   { return c.procs }

type fakeMicroservice struct {
	label      string
	cpuUtil    float64
	ramUtil    float64
	numActive  int
}

func (m *fakeMicroservice) Label() string             { return m.label }
func (m *fakeMicroservice) CPUUtilization() float64   { return m.cpuUtil }
func (m *fakeMicroservice) RAMUtilization() float64   { return m.ramUtil }
func (m *fakeMicroservice) NumActiveContainers() int  { return m.numActive }

func TestHostObserverSkipsPoweredOffHosts(t *testing.T) {
	on := &fakeHost{label: "h1", poweredOn: true}
	off := &fakeHost{label: "h2", poweredOn: false}
	o := NewHostObserver([]HostTarget{on, off})

	samples := o.Observe(1.0, 0.1)

	require.Len(t, samples, 1)
	assert.Equal(t, "h1", samples[0].Label)
	assert.Equal(t, "host", samples[0].Kind)
	assert.Equal(t, 0.5, samples[0].Fields["cpu_utilization"])
}

func TestContainerObserverSkipsUninitiated(t *testing.T) {
	ready := &fakeContainer{label: "c1", initiated: true, cpuUsage: 50, ramUsage: 25, procs: 3}
	notReady := &fakeContainer{label: "c2", initiated: false}
	o := NewContainerObserver([]ContainerTarget{ready, notReady})

	samples := o.Observe(2.0, 0.1)

	require.Len(t, samples, 1)
	assert.Equal(t, "c1", samples[0].Label)
	assert.Equal(t, 50.0, samples[0].Fields["cpu_usage_percent"])
	assert.Equal(t, 3.0, samples[0].Fields["num_of_process"])
}

func TestMicroserviceObserverSamplesEveryTarget(t *testing.T) {
	m := &fakeMicroservice{label: "m1", cpuUtil: 0.6, ramUtil: 0.4, numActive: 2}
	o := NewMicroserviceObserver([]MicroserviceTarget{m})

	samples := o.Observe(3.0, 0.1)

	require.Len(t, samples, 1)
	assert.Equal(t, "microservice", samples[0].Kind)
	assert.Equal(t, 2.0, samples[0].Fields["num_containers"])
}

func TestRingEvictsOldestPastCapacity(t *testing.T) {
	r := NewRing(2)
	r.Append(Sample{At: 1, Label: "a"})
	r.Append(Sample{At: 2, Label: "b"})
	r.Append(Sample{At: 3, Label: "c"})

	got := r.Snapshot()

	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Label)
	assert.Equal(t, "c", got[1].Label)
}

func TestRingSnapshotBeforeFull(t *testing.T) {
	r := NewRing(5)
	r.Append(Sample{At: 1, Label: "a"})
	r.Append(Sample{At: 2, Label: "b"})

	got := r.Snapshot()

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Label)
	assert.Equal(t, "b", got[1].Label)
}

func TestMonitorStartDispatchesToSink(t *testing.T) {
	s := sim.New(sim.Config{Resolution: 4})
	host := &fakeHost{label: "h1", poweredOn: true}
	var got []Sample
	m := New(s, "host-monitor", 1.0, NewHostObserver([]HostTarget{host}), func(sample Sample) {
		got = append(got, sample)
	})
	m.Start(0)

	require.NoError(t, s.Simulate(2.5))

	assert.Len(t, got, 3, "fires at t=0, 1, 2 within [0, 2.5]")
}
