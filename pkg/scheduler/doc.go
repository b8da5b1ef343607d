/*
Package scheduler places pending containers and volumes onto hosts and
initiates API calls once both of their endpoints have resolved to a
container, running each as its own continuous clock event.

# Architecture

Each of the three passes below runs as a clock.Continuous event at
clock.PriorityScheduler — the highest event priority in the simulation —
re-firing every clock.MinTimeUnit() so that, at any given instant, every
entity's own lifecycle and hardware-dispatch events have already run
before the corresponding scheduling decision is made:

	┌──────────────────────────────────────────────────────┐
	│              ContainerScheduler.pass                 │
	│         (every min_time_unit, priority=Scheduler)     │
	└──────────────────────┬────────────────────────────────┘
	                       │
	                       ▼
	┌──────────────────────────────────────────────────────┐
	│ 1. Sort pending containers by priority (ascending)   │
	│ 2. Skip already-scheduled containers                 │
	│ 3. Skip containers whose volumes aren't placed yet   │
	│ 4. Ask the active HostSelector for a candidate host  │
	│ 5. host.AllocateContainer + bind host + Initiate      │
	└────────────────────────────────────────────────────────┘

VolumeScheduler follows the same shape against the volume registry, and
APICallInitiator fires a call the instant both its endpoints resolve to
a routable network node.

# Policies

DefaultPolicy, BestfitPolicy and WorstfitPolicy each implement
HostSelector and decide which host wins when more than one has room:

  - Default picks the first host in registry order that fits.
  - Bestfit sorts hosts ascending by free CPU/RAM/ROM (in that order, each
    sort stable over the last) and picks the first that fits, packing
    load onto busier hosts.
  - Worstfit does the same sort descending, spreading load across the
    fleet.

A host "fits" a container when it is powered on and its free CPU, RAM
and ROM reservoirs all cover the container's request; a volume only
needs free ROM.

# Metrics

Scheduling outcomes are exported through pkg/metrics
(sim_containers_scheduled_total, sim_containers_pending,
sim_volumes_scheduled_total, sim_apicalls_initiated_total) alongside
sim_scheduling_latency_seconds, a histogram of real wall-clock
scheduling-pass duration, independent of simulated time.
*/
package scheduler
