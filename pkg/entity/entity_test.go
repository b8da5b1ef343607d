package entity

import (
	"testing"

	"github.com/cuemby/vsim/pkg/clock"
	"github.com/stretchr/testify/require"
)

func TestCreateInitiateSuccessTerminatesAndDestroys(t *testing.T) {
	c := clock.New(4)
	e := New(c, "thing", "e1", "thing-1", nil)
	e.Hooks.OnCreate = func(now float64) { e.Initiate(now) }
	e.Create(0)
	e.Success(0.5)
	c.Simulate(10)

	require.True(t, e.HasState(Created))
	require.True(t, e.HasState(Initiated))
	require.True(t, e.HasState(Success))
	require.True(t, e.HasState(Terminated))
	require.True(t, e.HasState(Destroyed))
	require.False(t, e.HasState(Fail))
}

func TestSuccessAndFailMutuallyExclusive(t *testing.T) {
	c := clock.New(4)
	e := New(c, "thing", "e1", "thing-1", nil)
	e.Create(0)
	e.Initiate(0)
	e.Fail(0.1)
	e.Success(0.2) // should be ignored, fail already resolved the entity
	c.Simulate(10)

	require.True(t, e.HasState(Fail))
	require.False(t, e.HasState(Success))
}

func TestPrecursorGatesCreate(t *testing.T) {
	c := clock.New(4)
	pre := New(c, "thing", "p1", "pre", nil)
	dependent := New(c, "thing", "d1", "dep", []*Entity{pre})

	dependent.Create(0)
	c.Simulate(0.2)
	require.False(t, dependent.HasState(Created), "dependent must wait for precursor termination")

	pre.Create(0)
	pre.Initiate(0)
	pre.Success(0.05)
	c.Simulate(5)

	require.True(t, pre.HasState(Terminated))
	require.True(t, dependent.HasState(Created))
}

func TestPowerOnOffIdempotent(t *testing.T) {
	c := clock.New(4)
	e := New(c, "hw", "h1", "host-1", nil)
	onCount := 0
	e.Hooks.OnPowerOn = func(float64) { onCount++ }
	e.PowerOn(0)
	e.PowerOn(0) // warn-and-ignore, not a second transition
	c.Simulate(10)

	require.True(t, e.HasState(PoweredOn))
	require.Equal(t, 1, onCount)
}
