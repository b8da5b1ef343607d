package hardware

import (
	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/sim"
)

// Switch is a Host that also owns an IP subnet handed out to the peers
// it links to (spec.md §4.8). It can still host containers/volumes like
// any other host; the subnet is its only distinguishing behavior.
type Switch struct {
	*Host
	Subnet string
}

// NewSwitch builds a switch and registers its subnet pool once created.
func NewSwitch(s *sim.Simulation, label string, ipc, frequency float64, numCores int, mode DispatchMode, ramGiB, romGiB float64, architecture, cidrBlock string, precursors []*entity.Entity) *Switch {
	h := NewHost(s, label, ipc, frequency, numCores, mode, ramGiB, romGiB, architecture, precursors)
	sw := &Switch{Host: h, Subnet: cidrBlock}
	baseCreate := h.Entity.Hooks.OnCreate
	h.Entity.Hooks.OnCreate = func(now float64) {
		baseCreate(now)
		if err := s.Network.SetSubnet(sw, cidrBlock); err != nil {
			log.Logger.Error().Err(err).Str("switch", label).Msg("failed to assign subnet")
		}
	}
	return sw
}

// Kind overrides Host.Kind to mark this node as a switch for link
// construction and IP allocation (pkg/network.AddLink).
func (sw *Switch) Kind() network.Kind { return network.KindSwitch }
