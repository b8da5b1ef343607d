package software

import (
	"fmt"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/sim"
)

// Volume is a unit of persistent storage reserved on a host's ROM, owned
// by a container (spec.md §3/§4.5).
type Volume struct {
	*entity.Entity
	id  int
	sim *sim.Simulation

	SizeBytes   float64
	Path        string
	PriorityVal int

	host sim.HostRef
}

// NewVolume builds an uncreated, unscheduled volume of sizeBytes.
func NewVolume(s *sim.Simulation, sizeBytes float64, path string, priority int, label string, precursors []*entity.Entity) *Volume {
	id := s.NextID()
	v := &Volume{
		id:          id,
		sim:         s,
		SizeBytes:   sizeBytes,
		Path:        path,
		PriorityVal: priority,
	}
	v.Entity = entity.New(s.Clock, "volume", fmt.Sprintf("%d", id), label, precursors)
	s.Volumes.Add(v)
	return v
}

// SetHost assigns the host this volume was placed on by the scheduler.
func (v *Volume) SetHost(h sim.HostRef) { v.host = h }

// Host returns the host this volume is stored on, or nil if unscheduled.
func (v *Volume) Host() sim.HostRef { return v.host }

// EntityID implements sim.Identifiable.
func (v *Volume) EntityID() int { return v.id }

// Priority implements sim.VolumeRef.
func (v *Volume) Priority() int { return v.PriorityVal }

// Scheduled implements sim.VolumeRef.
func (v *Volume) Scheduled() bool { return v.host != nil }

// RequestROM implements sim.VolumeRef.
func (v *Volume) RequestROM() float64 { return v.SizeBytes }
