// Package network implements the topology graph (C6): a directed graph
// of hardware nodes, link construction with host-to-host rejection and
// subnet-backed IP allocation, and shortest-path routing.
package network

import (
	"fmt"
	"net"
	"sort"

	"github.com/cuemby/vsim/pkg/ipam"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
)

// Kind distinguishes the node roles that matter to link construction.
type Kind int

const (
	KindHost Kind = iota
	KindSwitch
	KindGateway
	KindRouter
)

// Node is the narrow surface the topology needs from a hardware entity.
// pkg/hardware's Host/Switch/Gateway/Router all implement it; network
// never imports pkg/hardware (network sits below hardware in the import
// graph), which is why this is an interface rather than a concrete type.
type Node interface {
	graph.Node
	Label() string
	Kind() Kind
	AddPort(endpoint Node, bandwidthMiBs float64, ip net.IP, at float64)
}

// Link records the bandwidth and endpoints of one topology edge, kept
// alongside the gonum graph since gonum edges carry no payload here.
type Link struct {
	From, To       Node
	BandwidthBytes float64
}

// Graph is the simulation's topology: a directed graph plus per-switch
// IP pools and the link metadata gonum's plain graph.Node/Edge types
// don't carry.
type Graph struct {
	g       *simple.DirectedGraph
	nodes   map[int64]Node
	links   map[[2]int64]Link
	pools   map[int64]*ipam.Pool // keyed by switch node ID
}

// New builds an empty topology.
func New() *Graph {
	return &Graph{
		g:     simple.NewDirectedGraph(),
		nodes: make(map[int64]Node),
		links: make(map[[2]int64]Link),
		pools: make(map[int64]*ipam.Pool),
	}
}

// AddNode registers n in the topology. Node IDs are assigned by the
// caller (pkg/sim's registries own ID allocation); AddNode only tracks
// insertion order via those IDs for the routing tie-break rule.
func (g *Graph) AddNode(n Node) {
	g.g.AddNode(n)
	g.nodes[n.ID()] = n
}

// RemoveNode removes n and every link touching it.
func (g *Graph) RemoveNode(n Node) {
	g.g.RemoveNode(n.ID())
	delete(g.nodes, n.ID())
}

// SetSubnet assigns a CIDR pool to a switch node, used by AddLink to
// draw addresses for its non-switch peers.
func (g *Graph) SetSubnet(sw Node, cidrBlock string) error {
	pool, err := ipam.NewPool(cidrBlock)
	if err != nil {
		return err
	}
	g.pools[sw.ID()] = pool
	return nil
}

// AddLink wires s and d with the given bandwidth (MiB/s, converted to
// bytes/s) in both directions. Hosts may never link directly to other
// hosts (spec.md §4.8 / S2). Each endpoint gets a NIC port; the
// non-switch endpoint of a switch link draws an address from the
// switch's subnet pool.
func (g *Graph) AddLink(s, d Node, bandwidthMiBs, at float64) error {
	if s.Kind() == KindHost && d.Kind() == KindHost {
		return fmt.Errorf("network: host-to-host links are not permitted (%s <-> %s)", s.Label(), d.Label())
	}
	bandwidthBytes := bandwidthMiBs * 1024 * 1024

	g.g.SetEdge(g.g.NewEdge(s, d))
	g.g.SetEdge(g.g.NewEdge(d, s))
	g.links[[2]int64{s.ID(), d.ID()}] = Link{From: s, To: d, BandwidthBytes: bandwidthBytes}
	g.links[[2]int64{d.ID(), s.ID()}] = Link{From: d, To: s, BandwidthBytes: bandwidthBytes}

	sIP, dIP, err := g.allocateLinkAddresses(s, d)
	if err != nil {
		return err
	}
	s.AddPort(d, bandwidthMiBs, sIP, at)
	d.AddPort(s, bandwidthMiBs, dIP, at)
	return nil
}

func (g *Graph) allocateLinkAddresses(s, d Node) (sIP, dIP net.IP, err error) {
	switch {
	case s.Kind() == KindSwitch && d.Kind() != KindSwitch:
		if pool, ok := g.pools[s.ID()]; ok {
			if dIP, err = pool.Allocate(); err != nil {
				return nil, nil, err
			}
		}
	case d.Kind() == KindSwitch && s.Kind() != KindSwitch:
		if pool, ok := g.pools[d.ID()]; ok {
			if sIP, err = pool.Allocate(); err != nil {
				return nil, nil, err
			}
		}
	}
	return sIP, dIP, nil
}

// RemoveLink tears down both directions of a link and their link
// metadata. Ports already added to the endpoints are left in place.
func (g *Graph) RemoveLink(s, d Node, at float64) {
	g.g.RemoveEdge(s.ID(), d.ID())
	g.g.RemoveEdge(d.ID(), s.ID())
	delete(g.links, [2]int64{s.ID(), d.ID()})
	delete(g.links, [2]int64{d.ID(), s.ID()})
}

// Link returns the link metadata from a to b, if one exists.
func (g *Graph) Link(a, b Node) (Link, bool) {
	l, ok := g.links[[2]int64{a.ID(), b.ID()}]
	return l, ok
}

// Route returns any shortest path (by hop count) from src to dst.
// Ties among equally-short paths are broken deterministically by always
// expanding a BFS frontier's neighbors in ascending node-ID order — this
// is the documented resolution of SPEC_FULL.md §4.8's open question,
// since the underlying graph library's own tie-break is unspecified.
func (g *Graph) Route(src, dst Node) ([]Node, error) {
	if src.ID() == dst.ID() {
		return []Node{src}, nil
	}
	prev := map[int64]int64{src.ID(): src.ID()}
	visited := map[int64]bool{src.ID(): true}
	queue := []int64{src.ID()}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		neighbors := neighborIDs(g.g.From(cur))
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })

		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = cur
			if next == dst.ID() {
				return g.reconstruct(prev, src.ID(), dst.ID()), nil
			}
			queue = append(queue, next)
		}
	}
	return nil, fmt.Errorf("network: no path from %s to %s", src.Label(), dst.Label())
}

func neighborIDs(it graph.Nodes) []int64 {
	var ids []int64
	for it.Next() {
		ids = append(ids, it.Node().ID())
	}
	return ids
}

func (g *Graph) reconstruct(prev map[int64]int64, srcID, dstID int64) []Node {
	var ids []int64
	for at := dstID; ; {
		ids = append(ids, at)
		if at == srcID {
			break
		}
		at = prev[at]
	}
	path := make([]Node, len(ids))
	for i, id := range ids {
		path[len(ids)-1-i] = g.nodes[id]
	}
	return path
}

// Nodes returns every node of the given kind, used by the façade's
// `hosts` property (spec.md §6).
func (g *Graph) Nodes(kind Kind) []Node {
	var out []Node
	for _, n := range g.nodes {
		if n.Kind() == kind {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
