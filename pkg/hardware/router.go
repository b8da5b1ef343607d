package hardware

import (
	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/log"
	"github.com/cuemby/vsim/pkg/network"
	"github.com/cuemby/vsim/pkg/sim"
)

// Router is a Host that owns an IP subnet and sits between switches,
// forwarding packets without hosting containers in practice (spec.md
// §4.8); nothing stops the scheduler from placing a container on one,
// the same as the original's design.
type Router struct {
	*Host
	Subnet string
}

// NewRouter builds a router and registers its subnet pool once created.
func NewRouter(s *sim.Simulation, label string, ipc, frequency float64, numCores int, mode DispatchMode, ramGiB, romGiB float64, architecture, cidrBlock string, precursors []*entity.Entity) *Router {
	h := NewHost(s, label, ipc, frequency, numCores, mode, ramGiB, romGiB, architecture, precursors)
	r := &Router{Host: h, Subnet: cidrBlock}
	baseCreate := h.Entity.Hooks.OnCreate
	h.Entity.Hooks.OnCreate = func(now float64) {
		baseCreate(now)
		if err := s.Network.SetSubnet(r, cidrBlock); err != nil {
			log.Logger.Error().Err(err).Str("router", label).Msg("failed to assign subnet")
		}
	}
	return r
}

// Kind overrides Host.Kind to mark this node as a router.
func (r *Router) Kind() network.Kind { return network.KindRouter }
