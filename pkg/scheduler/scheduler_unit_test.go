package scheduler

import (
	"testing"

	"github.com/cuemby/vsim/pkg/sim"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicyPicksFirstFittingHost(t *testing.T) {
	busy := &fakeHost{id: 1, poweredOn: true, cpuFree: 100, ramFree: 100, romFree: 100}
	idle := &fakeHost{id: 2, poweredOn: true, cpuFree: 900, ramFree: 900, romFree: 900}
	c := &fakeContainer{cpu: 50, ram: 50, rom: 50}

	got := DefaultPolicy{}.SelectForContainer([]sim.HostRef{busy, idle}, c)

	assert.Same(t, busy, got, "default policy takes the first host in order, not the best fit")
}

func TestBestfitPolicyPacksOntoBusiestFittingHost(t *testing.T) {
	idle := &fakeHost{id: 1, poweredOn: true, cpuFree: 900, ramFree: 900, romFree: 900}
	busy := &fakeHost{id: 2, poweredOn: true, cpuFree: 200, ramFree: 200, romFree: 200}
	c := &fakeContainer{cpu: 100, ram: 100, rom: 100}

	got := BestfitPolicy{}.SelectForContainer([]sim.HostRef{idle, busy}, c)

	assert.Same(t, busy, got)
}

func TestBestfitPolicySkipsHostsThatDoNotFit(t *testing.T) {
	tooSmall := &fakeHost{id: 1, poweredOn: true, cpuFree: 10, ramFree: 10, romFree: 10}
	fits := &fakeHost{id: 2, poweredOn: true, cpuFree: 900, ramFree: 900, romFree: 900}
	c := &fakeContainer{cpu: 100, ram: 100, rom: 100}

	got := BestfitPolicy{}.SelectForContainer([]sim.HostRef{tooSmall, fits}, c)

	assert.Same(t, fits, got)
}

func TestWorstfitPolicySpreadsOntoIdlestFittingHost(t *testing.T) {
	idle := &fakeHost{id: 1, poweredOn: true, cpuFree: 900, ramFree: 900, romFree: 900}
	busy := &fakeHost{id: 2, poweredOn: true, cpuFree: 200, ramFree: 200, romFree: 200}
	c := &fakeContainer{cpu: 100, ram: 100, rom: 100}

	got := WorstfitPolicy{}.SelectForContainer([]sim.HostRef{busy, idle}, c)

	assert.Same(t, idle, got)
}

func TestPoliciesReturnNilWhenNoHostFits(t *testing.T) {
	tooSmall := &fakeHost{id: 1, poweredOn: true, cpuFree: 1, ramFree: 1, romFree: 1}
	c := &fakeContainer{cpu: 100, ram: 100, rom: 100}

	assert.Nil(t, DefaultPolicy{}.SelectForContainer([]sim.HostRef{tooSmall}, c))
	assert.Nil(t, BestfitPolicy{}.SelectForContainer([]sim.HostRef{tooSmall}, c))
	assert.Nil(t, WorstfitPolicy{}.SelectForContainer([]sim.HostRef{tooSmall}, c))
}

func TestVolumePoliciesOnlyConsiderROM(t *testing.T) {
	small := &fakeHost{id: 1, poweredOn: true, romFree: 10}
	large := &fakeHost{id: 2, poweredOn: true, romFree: 900}
	v := &fakeVolume{rom: 100}

	assert.Same(t, large, DefaultPolicy{}.SelectForVolume([]sim.HostRef{small, large}, v))
	assert.Same(t, large, BestfitPolicy{}.SelectForVolume([]sim.HostRef{large, small}, v))
}

func TestPolicyNames(t *testing.T) {
	assert.Equal(t, "default", DefaultPolicy{}.Name())
	assert.Equal(t, "bestfit", BestfitPolicy{}.Name())
	assert.Equal(t, "worstfit", WorstfitPolicy{}.Name())
}
