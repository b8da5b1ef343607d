// Package storage persists monitor.Sample telemetry and periodic
// simulation checkpoints to a bbolt file (go.etcd.io/bbolt), the same
// embedded-KV pattern the teacher's pkg/storage used for its resource
// store: one bucket per series, JSON-encoded values, opened once at
// process start.
//
// Store is the snapshot sink `vsim run --snapshot-db` and `vsim serve`
// wire into pkg/monitor (SPEC_FULL.md §6); Checkpointer drives periodic
// durable flushes of a progress summary on a robfig/cron/v3 schedule.
// Nothing restores a simulation from a checkpoint.
package storage
