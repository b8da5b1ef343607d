package resource

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetPutConservesCapacity(t *testing.T) {
	r := New(100)
	require.True(t, r.Get("a", 40, 0))
	require.True(t, r.Get("b", 30, 1))
	require.Equal(t, 30.0, r.Amount())

	r.Put("a", 40, 2)
	require.Equal(t, 70.0, r.Amount())
}

func TestGetFailsWhenExhausted(t *testing.T) {
	r := New(10)
	require.True(t, r.Get("a", 10, 0))
	require.False(t, r.Get("b", 1, 0))
}

func TestPutClampsAtCapacity(t *testing.T) {
	r := New(10)
	r.Put("a", 100, 0)
	require.Equal(t, 10.0, r.Amount())
}

func TestInfiniteCapacityAlwaysSucceeds(t *testing.T) {
	r := New(math.Inf(1))
	require.True(t, r.Get("a", 1e18, 0))
	require.Equal(t, 0.0, r.Utilization(0, 1))
}

func TestUtilizationHalfOccupiedHalfDuration(t *testing.T) {
	r := New(100)
	r.Get("a", 50, 0)
	r.Put("a", 50, 5)
	// occupied 50 units for [0,5], 0 for [5,10]
	util := r.Utilization(10, 10)
	require.InDelta(t, 0.25, util, 1e-9)
}
