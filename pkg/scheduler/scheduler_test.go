package scheduler

import (
	"errors"
	"math"
	"testing"

	"github.com/cuemby/vsim/pkg/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost is a minimal sim.HostRef test double; it never spawns real
// hardware so policy selection can be tested in isolation.
type fakeHost struct {
	id                        int
	poweredOn                 bool
	cpuFree, ramFree, romFree float64
	allocateErr               error
	allocatedContainers       []sim.ContainerRef
	allocatedVolumes          []sim.VolumeRef
}

func (h *fakeHost) EntityID() int             { return h.id }
func (h *fakeHost) Label() string             { return "host" }
func (h *fakeHost) PoweredOn() bool           { return h.poweredOn }
func (h *fakeHost) CPUReservoirFree() float64 { return h.cpuFree }
func (h *fakeHost) RAMReservoirFree() float64 { return h.ramFree }
func (h *fakeHost) ROMReservoirFree() float64 { return h.romFree }
func (h *fakeHost) CPUFrequency() (float64, float64) { return 1, 1 }
func (h *fakeHost) Dispatcher() sim.CPURef    { return nil }
func (h *fakeHost) AllocateContainer(c sim.ContainerRef, now float64) error {
	if h.allocateErr != nil {
		return h.allocateErr
	}
	h.cpuFree -= c.RequestCPU()
	h.ramFree -= c.RequestRAM()
	h.romFree -= c.RequestROM()
	h.allocatedContainers = append(h.allocatedContainers, c)
	return nil
}
func (h *fakeHost) AllocateVolume(v sim.VolumeRef, now float64) error {
	if h.allocateErr != nil {
		return h.allocateErr
	}
	h.allocatedVolumes = append(h.allocatedVolumes, v)
	return nil
}

type fakeContainer struct {
	id               int
	priority         int
	scheduled        bool
	volumesScheduled bool
	cpu, ram, rom    float64
	host             sim.HostRef
	initiated        bool
}

func (c *fakeContainer) EntityID() int          { return c.id }
func (c *fakeContainer) Priority() int          { return c.priority }
func (c *fakeContainer) Scheduled() bool        { return c.scheduled }
func (c *fakeContainer) VolumesScheduled() bool { return c.volumesScheduled }
func (c *fakeContainer) RequestCPU() float64    { return c.cpu }
func (c *fakeContainer) RequestRAM() float64    { return c.ram }
func (c *fakeContainer) RequestROM() float64    { return c.rom }
func (c *fakeContainer) SetHost(h sim.HostRef)  { c.host = h; c.scheduled = true }
func (c *fakeContainer) Initiate(now float64)   { c.initiated = true }

type fakeVolume struct {
	id        int
	priority  int
	scheduled bool
	rom       float64
	host      sim.HostRef
}

func (v *fakeVolume) EntityID() int         { return v.id }
func (v *fakeVolume) Priority() int         { return v.priority }
func (v *fakeVolume) Scheduled() bool       { return v.scheduled }
func (v *fakeVolume) RequestROM() float64   { return v.rom }
func (v *fakeVolume) SetHost(h sim.HostRef) { v.host = h; v.scheduled = true }

type fakeAPICall struct {
	id          int
	uninitiated bool
	ready       bool
	initiated   bool
}

func (a *fakeAPICall) EntityID() int        { return a.id }
func (a *fakeAPICall) Uninitiated() bool    { return a.uninitiated }
func (a *fakeAPICall) EndpointsReady() bool { return a.ready }
func (a *fakeAPICall) Initiate(now float64) { a.initiated = true; a.uninitiated = false }

func newTestSim() *sim.Simulation { return sim.New(sim.Config{Resolution: 4}) }

func TestContainerSchedulerPlacesFittingContainer(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, cpuFree: 1000, ramFree: 1 << 30, romFree: 1 << 30}
	s.Hosts.Add(host)

	c := &fakeContainer{id: 1, volumesScheduled: true, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	s.Containers.Add(c)

	cs := NewContainerScheduler(s, DefaultPolicy{})
	cs.pass(0)

	require.True(t, c.scheduled)
	assert.Same(t, host, c.host)
	assert.True(t, c.initiated)
	assert.Len(t, host.allocatedContainers, 1)
}

func TestContainerSchedulerSkipsUnscheduledVolumes(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, cpuFree: 1000, ramFree: 1 << 30, romFree: 1 << 30}
	s.Hosts.Add(host)

	c := &fakeContainer{id: 1, volumesScheduled: false, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	s.Containers.Add(c)

	cs := NewContainerScheduler(s, DefaultPolicy{})
	cs.pass(0)

	assert.False(t, c.scheduled)
	assert.Empty(t, host.allocatedContainers)
}

func TestContainerSchedulerSkipsWhenNoHostFits(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, cpuFree: 10, ramFree: 10, romFree: 10}
	s.Hosts.Add(host)

	c := &fakeContainer{id: 1, volumesScheduled: true, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	s.Containers.Add(c)

	cs := NewContainerScheduler(s, DefaultPolicy{})
	cs.pass(0)

	assert.False(t, c.scheduled)
}

func TestContainerSchedulerRespectsPriorityOrderAgainstSingleSlotHost(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, cpuFree: 500, ramFree: 1 << 20, romFree: 1 << 20}
	s.Hosts.Add(host)

	low := &fakeContainer{id: 1, priority: 5, volumesScheduled: true, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	high := &fakeContainer{id: 2, priority: 1, volumesScheduled: true, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	s.Containers.Add(low)
	s.Containers.Add(high)

	cs := NewContainerScheduler(s, DefaultPolicy{})
	cs.pass(0)

	assert.True(t, high.scheduled, "lower priority value wins the only free host")
	assert.False(t, low.scheduled)
}

func TestContainerSchedulerSkipsOnAllocationError(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, cpuFree: 1000, ramFree: 1 << 30, romFree: 1 << 30, allocateErr: errors.New("boom")}
	s.Hosts.Add(host)

	c := &fakeContainer{id: 1, volumesScheduled: true, cpu: 500, ram: 1 << 20, rom: 1 << 20}
	s.Containers.Add(c)

	cs := NewContainerScheduler(s, DefaultPolicy{})
	cs.pass(0)

	assert.False(t, c.scheduled)
}

func TestVolumeSchedulerPlacesFittingVolume(t *testing.T) {
	s := newTestSim()
	host := &fakeHost{id: 1, poweredOn: true, romFree: 1 << 30}
	s.Hosts.Add(host)

	v := &fakeVolume{id: 1, rom: 1 << 20}
	s.Volumes.Add(v)

	vs := NewVolumeScheduler(s, DefaultPolicy{})
	vs.pass(0)

	require.True(t, v.scheduled)
	assert.Same(t, host, v.host)
	assert.Len(t, host.allocatedVolumes, 1)
}

func TestAPICallInitiatorFiresOnlyWhenEndpointsReady(t *testing.T) {
	s := newTestSim()
	notReady := &fakeAPICall{id: 1, uninitiated: true, ready: false}
	ready := &fakeAPICall{id: 2, uninitiated: true, ready: true}
	alreadyInitiated := &fakeAPICall{id: 3, uninitiated: false, ready: true}
	s.APICalls.Add(notReady)
	s.APICalls.Add(ready)
	s.APICalls.Add(alreadyInitiated)

	ai := NewAPICallInitiator(s)
	ai.pass(0)

	assert.False(t, notReady.initiated)
	assert.True(t, ready.initiated)
	assert.False(t, alreadyInitiated.initiated, "initiate is not re-fired once already resolved")
}

func TestFitsContainerRequiresPoweredOnAndRoom(t *testing.T) {
	c := &fakeContainer{cpu: 100, ram: 100, rom: 100}
	off := &fakeHost{poweredOn: false, cpuFree: math.Inf(1), ramFree: math.Inf(1), romFree: math.Inf(1)}
	on := &fakeHost{poweredOn: true, cpuFree: math.Inf(1), ramFree: math.Inf(1), romFree: math.Inf(1)}
	tight := &fakeHost{poweredOn: true, cpuFree: 50, ramFree: 100, romFree: 100}

	assert.False(t, fitsContainer(off, c))
	assert.True(t, fitsContainer(on, c))
	assert.False(t, fitsContainer(tight, c))
}
