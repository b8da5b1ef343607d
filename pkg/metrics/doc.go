/*
Package metrics provides Prometheus metrics collection and exposition for
the simulator.

Metrics are defined and registered using the Prometheus client library,
giving observability into entity population, placement behavior, and
simulated network/resource utilization as a run advances. Metrics are
exposed via an HTTP endpoint for scraping by Prometheus servers, alongside
a small health-check surface reused from the teacher for process-level
liveness/readiness.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Entities: population by kind/state         │          │
	│  │  Scheduler: latency, scheduled counts       │          │
	│  │  Network: CPU utilization, packet results   │          │
	│  │  Clock: current simulated time              │          │
	│  │  API calls: initiated, latency              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

sim_entities_total{kind, state}:
  - Type: Gauge
  - Description: Number of entities by kind (host, container, volume,
    microservice, apicall) and lifecycle state
  - Example: sim_entities_total{kind="container",state="initiated"} 42

sim_scheduling_latency_seconds:
  - Type: Histogram
  - Description: Wall-clock duration of a container/volume scheduling pass
  - Buckets: Default Prometheus buckets

sim_containers_scheduled_total:
  - Type: Counter
  - Description: Total containers placed on a host

sim_containers_pending:
  - Type: Gauge
  - Description: Containers awaiting placement as of the last pass

sim_volumes_scheduled_total:
  - Type: Counter
  - Description: Total volumes placed on a host

sim_cpu_utilization{host}:
  - Type: Gauge
  - Description: Host CPU utilization as of the last monitor sample

sim_packet_transmissions_total{result}:
  - Type: Counter
  - Description: Total packet transmissions by result (delivered, dropped,
    collided)

sim_clock_seconds:
  - Type: Gauge
  - Description: Current simulated time in seconds

sim_apicalls_initiated_total:
  - Type: Counter
  - Description: Total API calls initiated once both endpoints resolved

sim_apicall_latency_seconds:
  - Type: Histogram
  - Description: Simulated duration of completed API calls

# Usage

Updating gauges:

	import "github.com/cuemby/vsim/pkg/metrics"

	metrics.EntitiesTotal.WithLabelValues("container", "initiated").Set(42)
	metrics.ContainersPending.Set(3)

Recording histogram observations:

	metrics.SchedulingLatency.Observe(0.002)

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.SchedulingLatency)

Exposing the endpoint:

	http.Handle("/metrics", metrics.Handler())
	http.Handle("/health", metrics.HealthHandler())
	http.Handle("/ready", metrics.ReadyHandler())
	http.Handle("/live", metrics.LivenessHandler())

# Integration Points

  - pkg/scheduler: records scheduling latency, placement counters and
    initiated API calls
  - pkg/api: exposes /metrics, /healthz, /readyz, /livez
  - Prometheus: scrapes /metrics

No package in this module sets sim_entities_total, sim_cpu_utilization,
sim_packet_transmissions_total, sim_clock_seconds or
sim_apicall_latency_seconds; they are registered and exported as-is.

# Design Patterns

Package Init Registration:
  - All metrics registered in init()
  - MustRegister panics on duplicate registration

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels (kind, state,
    result, host label)
  - Avoid unbounded labels (entity IDs, timestamps)

Timer Pattern:
  - Create a Timer at operation start, defer ObserveDuration
  - Measures wall-clock time, never simulated time

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
*/
package metrics
