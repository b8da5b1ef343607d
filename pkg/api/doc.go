// Package api is the HTTP control plane `vsim serve` exposes
// (SPEC_FULL.md §6): a go-chi/chi/v5 router serving pkg/metrics'
// Prometheus and health endpoints, a REST view over pkg/storage's
// persisted samples and checkpoints, and a gorilla/websocket `/stream`
// endpoint broadcasting live pkg/monitor.Sample telemetry to connected
// clients as the simulation runs.
package api
