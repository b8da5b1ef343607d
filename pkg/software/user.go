package software

import (
	"fmt"

	"github.com/cuemby/vsim/pkg/entity"
	"github.com/cuemby/vsim/pkg/sim"
)

// User is a network-only API call endpoint attached to a gateway: it has
// no container, so it can only be the network-node side of an Endpoint
// (spec.md §4.7).
type User struct {
	*entity.Entity
	id      int
	gateway sim.NetworkNodeRef
}

// NewUser attaches a user to gateway.
func NewUser(s *sim.Simulation, gateway sim.NetworkNodeRef, label string, precursors []*entity.Entity) *User {
	id := s.NextID()
	u := &User{id: id, gateway: gateway}
	u.Entity = entity.New(s.Clock, "user", fmt.Sprintf("%d", id), label, precursors)
	return u
}

// EntityID implements sim.Identifiable.
func (u *User) EntityID() int { return u.id }

// Gateway returns the network node this user connects through.
func (u *User) Gateway() sim.NetworkNodeRef { return u.gateway }

// IsUser implements Endpoint.
func (u *User) IsUser() bool { return true }

// NetworkNode implements Endpoint.
func (u *User) NetworkNode() sim.NetworkNodeRef { return u.gateway }

// Container implements Endpoint: a user never has one.
func (u *User) Container() (sim.HostRef, sim.CPURef, sim.ContainerLimits) { return nil, nil, nil }
