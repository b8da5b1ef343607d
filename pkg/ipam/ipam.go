// Package ipam hands out unique IPv4 addresses from a switch's subnet,
// backing the "draw a unique address from the peer's subnet pool" rule
// in SPEC_FULL.md §4.8. It replaces the original's flat pre-expanded
// address list with a real CIDR-aware pool.
package ipam

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

// Pool allocates host addresses out of one CIDR block in order,
// skipping the network and broadcast addresses.
type Pool struct {
	subnet *net.IPNet
	next   int
	count  int
}

// NewPool parses cidrBlock (e.g. "10.0.1.0/24") into an allocator.
func NewPool(cidrBlock string) (*Pool, error) {
	_, ipnet, err := net.ParseCIDR(cidrBlock)
	if err != nil {
		return nil, fmt.Errorf("ipam: invalid subnet %q: %w", cidrBlock, err)
	}
	ones, bits := ipnet.Mask.Size()
	usable := 1 << uint(bits-ones)
	if usable <= 2 {
		return nil, fmt.Errorf("ipam: subnet %q too small to allocate host addresses", cidrBlock)
	}
	return &Pool{subnet: ipnet, count: usable - 2, next: 1}, nil
}

// Allocate returns the next unused address in the subnet.
func (p *Pool) Allocate() (net.IP, error) {
	if p.next > p.count {
		return nil, fmt.Errorf("ipam: subnet %s exhausted", p.subnet)
	}
	ip, err := cidr.Host(p.subnet, p.next)
	if err != nil {
		return nil, fmt.Errorf("ipam: %w", err)
	}
	p.next++
	return ip, nil
}

// Subnet returns the pool's backing CIDR block.
func (p *Pool) Subnet() *net.IPNet { return p.subnet }

// Remaining reports how many addresses are still unallocated.
func (p *Pool) Remaining() int { return p.count - p.next + 1 }
