package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOrderingBySameInstantPriority(t *testing.T) {
	c := New(4)
	var order []string
	c.Schedule(1.0, PriorityDefault, "b", "e1", func(float64) { order = append(order, "b") })
	c.Schedule(1.0, PriorityLifecycle, "a", "e1", func(float64) { order = append(order, "a") })
	c.Schedule(0.5, PriorityDefault, "c", "e1", func(float64) { order = append(order, "c") })

	c.Simulate(10)
	require.Equal(t, []string{"c", "a", "b"}, order)
}

func TestMonotoneClock(t *testing.T) {
	c := New(4)
	var times []float64
	for i := 0; i < 5; i++ {
		at := float64(i) * 0.3
		c.Schedule(at, 0, "x", "e", func(now float64) { times = append(times, now) })
	}
	c.Simulate(100)
	for i := 1; i < len(times); i++ {
		require.GreaterOrEqual(t, times[i], times[i-1])
	}
}

func TestHorizonStopsBeforeLateEvent(t *testing.T) {
	c := New(4)
	fired := false
	c.Schedule(5.0, 0, "late", "e", func(float64) { fired = true })
	c.Simulate(1.0)
	require.False(t, fired)
	require.Equal(t, 1, c.Pending())
}

func TestCancelSkipsEvent(t *testing.T) {
	c := New(4)
	fired := false
	e := c.Schedule(1.0, 0, "x", "e", func(float64) { fired = true })
	e.Cancel()
	c.Simulate(10)
	require.False(t, fired)
}

func TestContinuousEventReenqueues(t *testing.T) {
	c := New(4)
	count := 0
	c.ScheduleContinuous(0, 0, 1.0, 3.0, "tick", "e", func(float64) { count++ })
	c.Simulate(10)
	require.Equal(t, 4, count) // at 0,1,2,3
}

func TestDedupFindsEarliestByLabel(t *testing.T) {
	c := New(4)
	c.Schedule(2.0, 0, "fail", "owner1", func(float64) {})
	c.Schedule(1.0, 0, "fail", "owner1", func(float64) {})
	found := c.FindByLabel("owner1", "fail")
	require.NotNil(t, found)
	require.Equal(t, 1.0, found.At)
}

func TestCancelOwner(t *testing.T) {
	c := New(4)
	fired := false
	c.Schedule(1.0, 0, "a", "owner1", func(float64) { fired = true })
	c.Schedule(2.0, 0, "b", "owner1", func(float64) { fired = true })
	c.CancelOwner("owner1")
	c.Simulate(10)
	require.False(t, fired)
}
