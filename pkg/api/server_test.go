package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/vsim/pkg/monitor"
	"github.com/cuemby/vsim/pkg/storage"
)

func TestServerHealthzOK(t *testing.T) {
	srv := NewServer(":0", nil, NewHub("*"), nil)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerSamplesWithoutStoreReturns503(t *testing.T) {
	srv := NewServer(":0", nil, NewHub("*"), nil)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/samples/host/h1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServerSamplesReturnsPersistedSeries(t *testing.T) {
	store, err := storage.Open(t.TempDir(), "")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.AppendSample(monitor.Sample{At: 1, Kind: "host", Label: "h1", Fields: map[string]float64{"cpu_utilization": 0.5}}))

	srv := NewServer(":0", store, NewHub("*"), nil)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/samples/host/h1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var samples []monitor.Sample
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&samples))
	require.Len(t, samples, 1)
	require.Equal(t, 1.0, samples[0].At)
}

func TestServerCheckpointNotFoundBeforeAnyWrite(t *testing.T) {
	store, err := storage.Open(t.TempDir(), "")
	require.NoError(t, err)
	defer store.Close()

	srv := NewServer(":0", store, NewHub("*"), nil)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/checkpoint")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerContainerLimitsRoute(t *testing.T) {
	limits := ContainerLimitsFunc(func(label string) (*specs.LinuxResources, bool) {
		if label != "c1" {
			return nil, false
		}
		period := uint64(100000)
		quota := int64(50000)
		return &specs.LinuxResources{CPU: &specs.LinuxCPU{Period: &period, Quota: &quota}}, true
	})
	srv := NewServer(":0", nil, NewHub("*"), limits)
	ts := httptest.NewServer(srv.router)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/containers/c1/limits")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/api/v1/containers/unknown/limits")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestHubStreamsBroadcastSamples(t *testing.T) {
	hub := NewHub("*")
	ts := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer ts.Close()

	wsURL := "ws" + ts.URL[len("http"):] + "/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server goroutine a moment to register the client before
	// broadcasting, since registration happens on a background upgrade.
	time.Sleep(20 * time.Millisecond)
	hub.broadcast(monitor.Sample{At: 3, Kind: "container", Label: "c1"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got monitor.Sample
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, 3.0, got.At)
	require.Equal(t, "c1", got.Label)
}
