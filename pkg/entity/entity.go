// Package entity implements the lifecycle engine shared by every
// hardware and software entity: the closed state-tag vocabulary, the
// create/initiate/success/fail/terminate/destroy/power_on/power_off
// transition API, precursor gating, and the dedup-by-label scheduling
// rule used throughout the simulation.
package entity

import (
	"github.com/cuemby/vsim/pkg/clock"
	"github.com/cuemby/vsim/pkg/log"
)

// State is one tag in an entity's multi-valued state set.
type State string

const (
	Created        State = "CREATED"
	Initiated      State = "INITIATED"
	Success        State = "SUCCESS"
	Fail           State = "FAIL"
	Terminated     State = "TERMINATED"
	Destroyed      State = "DESTROYED"
	PoweredOn      State = "POWER_ON"
	PoweredOff     State = "POWER_OFF"
	Scheduled      State = "SCHEDULED"
	Allocated      State = "ALLOCATED"
	Ready          State = "READY"
	Decoded        State = "DECODED"
	InTransmission State = "IN_TRANSMISSION"
)

// Hooks are the user-overridable callbacks invoked when a transition
// actually fires, after gating and dedup have been resolved. All are
// optional; a variant that does not care about a transition leaves the
// corresponding field nil. This is the Go stand-in for the polymorphic
// on_create/on_initiate/... overrides of the source's class hierarchy
// (SPEC_FULL.md §9, tagged-variant dispatch instead of virtual calls).
type Hooks struct {
	OnCreate    func(now float64)
	OnInitiate  func(now float64)
	OnSuccess   func(now float64)
	OnFail      func(now float64)
	OnTerminate func(now float64)
	OnDestroy   func(now float64)
	OnPowerOn   func(now float64)
	OnPowerOff  func(now float64)
}

// Entity is the embeddable base every hardware/software type carries.
// Concrete types embed Entity by value and supply Hooks at construction.
type Entity struct {
	ID    string
	Label string
	Kind  string // "host", "container", "packet", ... used in logging/telemetry

	states map[State]bool

	CreatedAt    float64
	TerminatedAt *float64

	Precursors []*Entity

	Hooks Hooks

	clk     *clock.Clock
	minUnit float64
}

// New constructs an Entity bound to clk. kind/label are descriptive only.
func New(clk *clock.Clock, kind, id, label string, precursors []*Entity) *Entity {
	return &Entity{
		ID:         id,
		Label:      label,
		Kind:       kind,
		states:     make(map[State]bool),
		Precursors: precursors,
		clk:        clk,
		minUnit:    clk.MinTimeUnit(),
	}
}

// HasState reports whether s is currently set.
func (e *Entity) HasState(s State) bool { return e.states[s] }

func (e *Entity) addState(s State) { e.states[s] = true }

// SetState toggles an auxiliary state tag (e.g. READY, SCHEDULED) that
// falls outside the create/initiate/success/fail/terminate/destroy
// transition chain. Callers outside this package use it for their own
// supplementary tags; the lifecycle transitions above never call it.
func (e *Entity) SetState(s State, present bool) { e.states[s] = present }

func warn(e *Entity, msg string) {
	log.WithEntity(e.Kind, e.ID, e.Label).Warn().Msg(msg)
}

// dedupSchedule enqueues action under label unless an earlier pending
// event with the same (owner, label) already exists, per the lifecycle
// engine's dedup rule (spec.md §4.2 step 2).
func (e *Entity) dedupSchedule(at float64, priority int, label string, action clock.Action) {
	if existing := e.clk.FindByLabel(e.ID, label); existing != nil {
		if existing.At <= e.clk.Round(at) {
			return
		}
		existing.Cancel()
	}
	e.clk.Schedule(at, priority, label, e.ID, action)
}

func (e *Entity) precursorsTerminated() bool {
	for _, p := range e.Precursors {
		if !p.HasState(Terminated) {
			return false
		}
	}
	return true
}

// Create schedules the CREATED transition at `at`. If precursors have
// not all reached TERMINATED, the check re-fires every min_time_unit
// until they have (the "re-check on each clock tick" design choice from
// spec.md §4.2).
func (e *Entity) Create(at float64) {
	if e.HasState(Created) {
		warn(e, "create: already created")
		return
	}
	var step clock.Action
	step = func(now float64) {
		if !e.precursorsTerminated() {
			e.clk.Schedule(now+e.minUnit, clock.PriorityLifecycle, "create", e.ID, step)
			return
		}
		e.addState(Created)
		e.CreatedAt = now
		if e.Hooks.OnCreate != nil {
			e.Hooks.OnCreate(now)
		}
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "create", step)
}

// Initiate schedules the INITIATED transition. Impossible if the entity
// has not been created or has already reached a terminal state.
func (e *Entity) Initiate(at float64) {
	if !e.HasState(Created) || e.HasState(Terminated) || e.HasState(Destroyed) {
		warn(e, "initiate: invalid current state")
		return
	}
	if e.HasState(Initiated) {
		warn(e, "initiate: already initiated")
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "initiate", func(now float64) {
		e.addState(Initiated)
		if e.Hooks.OnInitiate != nil {
			e.Hooks.OnInitiate(now)
		}
	})
}

// Success schedules the SUCCESS transition. Mutually exclusive with
// Fail: once either has fired, the other is a no-op (warn-and-return).
func (e *Entity) Success(at float64) {
	if e.HasState(Success) || e.HasState(Fail) {
		warn(e, "success: already resolved")
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "success", func(now float64) {
		if e.HasState(Success) || e.HasState(Fail) {
			return
		}
		e.addState(Success)
		if e.Hooks.OnSuccess != nil {
			e.Hooks.OnSuccess(now)
		}
		e.Terminate(now)
	})
}

// Fail schedules the FAIL transition and the failure cascade
// (fail -> on_fail hook -> destroy), per spec.md §4.2.
func (e *Entity) Fail(at float64) {
	if e.HasState(Success) || e.HasState(Fail) {
		warn(e, "fail: already resolved")
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "fail", func(now float64) {
		if e.HasState(Success) || e.HasState(Fail) {
			return
		}
		e.addState(Fail)
		if e.Hooks.OnFail != nil {
			e.Hooks.OnFail(now)
		}
		e.Terminate(now)
	})
}

// Terminate schedules the TERMINATED transition. After it fires, no
// further state mutation except resource release is permitted (I-2 in
// spec.md §3's Entity invariant).
func (e *Entity) Terminate(at float64) {
	if e.HasState(Terminated) {
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "terminate", func(now float64) {
		if e.HasState(Terminated) {
			return
		}
		e.addState(Terminated)
		t := now
		e.TerminatedAt = &t
		if e.Hooks.OnTerminate != nil {
			e.Hooks.OnTerminate(now)
		}
		e.clk.CancelOwner(e.ID)
		e.Destroy(now)
	})
}

// Destroy schedules the final DESTROYED transition.
func (e *Entity) Destroy(at float64) {
	if e.HasState(Destroyed) {
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "destroy", func(now float64) {
		if e.HasState(Destroyed) {
			return
		}
		e.addState(Destroyed)
		if e.Hooks.OnDestroy != nil {
			e.Hooks.OnDestroy(now)
		}
	})
}

// PowerOn schedules the POWER_ON transition for hardware entities.
func (e *Entity) PowerOn(at float64) {
	if e.HasState(PoweredOn) {
		warn(e, "power_on: already powered on")
		return
	}
	if e.HasState(Fail) || e.HasState(Terminated) {
		warn(e, "power_on: entity failed or terminated")
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "power_on", func(now float64) {
		if e.HasState(PoweredOn) || e.HasState(Fail) || e.HasState(Terminated) {
			return
		}
		e.states[PoweredOff] = false
		e.addState(PoweredOn)
		if e.Hooks.OnPowerOn != nil {
			e.Hooks.OnPowerOn(now)
		}
	})
}

// PowerOff schedules the POWER_OFF transition.
func (e *Entity) PowerOff(at float64) {
	if e.HasState(PoweredOff) || !e.HasState(PoweredOn) {
		warn(e, "power_off: already powered off")
		return
	}
	e.dedupSchedule(at, clock.PriorityLifecycle, "power_off", func(now float64) {
		if !e.HasState(PoweredOn) {
			return
		}
		e.states[PoweredOn] = false
		e.addState(PoweredOff)
		if e.Hooks.OnPowerOff != nil {
			e.Hooks.OnPowerOff(now)
		}
	})
}
