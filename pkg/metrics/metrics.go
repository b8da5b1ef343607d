package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EntitiesTotal tracks the live population of each entity kind by
	// lifecycle state. No package in this module sets it.
	EntitiesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sim_entities_total",
			Help: "Number of entities by kind and lifecycle state.",
		},
		[]string{"kind", "state"},
	)

	// SchedulingLatency is the wall-clock duration of one placement pass,
	// not the simulated time it advances.
	SchedulingLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sim_scheduling_latency_seconds",
			Help:    "Wall-clock duration of a container/volume scheduling pass.",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ContainersScheduled and ContainersPending track placement outcomes.
	ContainersScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_containers_scheduled_total",
			Help: "Total number of containers placed on a host.",
		},
	)

	ContainersPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_containers_pending",
			Help: "Number of containers awaiting placement.",
		},
	)

	VolumesScheduled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_volumes_scheduled_total",
			Help: "Total number of volumes placed on a host.",
		},
	)

	// CPUUtilization reports per-host CPU utilization, one gauge value
	// per host label. No package in this module sets it.
	CPUUtilization = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sim_cpu_utilization",
			Help: "Host CPU utilization as of the last monitor sample.",
		},
		[]string{"host"},
	)

	// PacketTransmissionsTotal counts link-layer transmission outcomes.
	PacketTransmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sim_packet_transmissions_total",
			Help: "Total number of packet transmissions by result.",
		},
		[]string{"result"},
	)

	// ClockSeconds is the simulation's current virtual time. No package
	// in this module sets it.
	ClockSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sim_clock_seconds",
			Help: "Current simulated time in seconds.",
		},
	)

	// APICallsInitiated and APICallLatency cover the API-call traffic
	// generator's scheduling-adjacent work.
	APICallsInitiated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sim_apicalls_initiated_total",
			Help: "Total number of API calls initiated once their endpoints resolved.",
		},
	)

	APICallLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sim_apicall_latency_seconds",
			Help:    "Simulated duration of completed API calls, in simulated seconds.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
	)
)

func init() {
	prometheus.MustRegister(
		EntitiesTotal,
		SchedulingLatency,
		ContainersScheduled,
		ContainersPending,
		VolumesScheduled,
		CPUUtilization,
		PacketTransmissionsTotal,
		ClockSeconds,
		APICallsInitiated,
		APICallLatency,
	)
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing wall-clock operations (scheduling passes,
// API handler latency), distinct from the simulated time tracked by
// ClockSeconds.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
