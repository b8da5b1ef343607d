package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/vsim/pkg/monitor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndSeriesOrdering(t *testing.T) {
	store := openTestStore(t)

	for _, at := range []float64{3, 1, 2} {
		require.NoError(t, store.AppendSample(monitor.Sample{
			At: at, Kind: "host", Label: "h1",
			Fields: map[string]float64{"cpu_utilization": at / 10},
		}))
	}

	series, err := store.Series("host", "h1")
	require.NoError(t, err)
	require.Len(t, series, 3)
	require.Equal(t, []float64{1, 2, 3}, []float64{series[0].At, series[1].At, series[2].At})
}

func TestSeriesUnknownReturnsEmpty(t *testing.T) {
	store := openTestStore(t)
	series, err := store.Series("host", "missing")
	require.NoError(t, err)
	require.Empty(t, series)
}

func TestTailReturnsMostRecentInOrder(t *testing.T) {
	store := openTestStore(t)
	for at := 0.0; at < 5; at++ {
		require.NoError(t, store.AppendSample(monitor.Sample{At: at, Kind: "container", Label: "c1"}))
	}

	tail, err := store.Tail("container", "c1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	require.Equal(t, 3.0, tail[0].At)
	require.Equal(t, 4.0, tail[1].At)
}

func TestSinkForwardsErrorsWithoutPanicking(t *testing.T) {
	store := openTestStore(t)
	store.Close() // force every write to fail

	var gotErr error
	sink := store.Sink(func(err error) { gotErr = err })
	require.NotPanics(t, func() {
		sink(monitor.Sample{At: 1, Kind: "host", Label: "h1"})
	})
	require.Error(t, gotErr)
}

func TestCheckpointRoundTrip(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.LatestCheckpoint()
	require.NoError(t, err)
	require.False(t, ok)

	cp := Checkpoint{WallClock: time.Now(), SimTime: 42, Hosts: 1, Containers: 2}
	require.NoError(t, store.PutCheckpoint(cp))

	got, ok, err := store.LatestCheckpoint()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 42.0, got.SimTime)
	require.Equal(t, 2, got.Containers)
}

func TestCheckpointerPersistsOnSchedule(t *testing.T) {
	store := openTestStore(t)
	calls := make(chan struct{}, 4)

	c, err := NewCheckpointer(store, "@every 50ms", func() Checkpoint {
		calls <- struct{}{}
		return Checkpoint{WallClock: time.Now(), SimTime: 7}
	})
	require.NoError(t, err)

	c.Start()
	defer c.Stop()

	select {
	case <-calls:
	case <-time.After(2 * time.Second):
		t.Fatal("checkpoint never ran")
	}

	require.Eventually(t, func() bool {
		cp, ok, err := store.LatestCheckpoint()
		return err == nil && ok && cp.SimTime == 7
	}, time.Second, 10*time.Millisecond)
}
