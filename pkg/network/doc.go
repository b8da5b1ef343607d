/*
Package network implements the simulation's topology graph: a directed
graph of hardware nodes (hosts, switches, gateways, routers), link
construction with host-to-host rejection, subnet-backed IP allocation off
a switch's address pool, and deterministic shortest-path routing.

# Architecture

	┌────────────────────── TOPOLOGY GRAPH ─────────────────────┐
	│                                                             │
	│  ┌───────────────────────────────────────────┐            │
	│  │              Graph                         │            │
	│  │  - gonum simple.DirectedGraph (edges)      │            │
	│  │  - nodes: id -> Node                       │            │
	│  │  - links: (id,id) -> Link{bandwidth}       │            │
	│  │  - pools: switch id -> ipam.Pool           │            │
	│  └──────────────────┬──────────────────────────┘           │
	│                     │                                       │
	│  AddNode / AddLink / RemoveNode / RemoveLink / Route        │
	│                     │                                       │
	│  ┌──────────────────▼──────────────────────────┐           │
	│  │  AddLink(s, d, bandwidthMiBs, at)            │           │
	│  │   1. reject host-to-host links               │           │
	│  │   2. register both edge directions           │           │
	│  │   3. allocate an IP from the switch's pool   │           │
	│  │      for the non-switch endpoint             │           │
	│  │   4. s.AddPort / d.AddPort (NIC wiring)      │           │
	│  └───────────────────────────────────────────────┘          │
	└─────────────────────────────────────────────────────────────┘

Node is a narrow interface (Label, Kind, AddPort) rather than a concrete
type: pkg/hardware sits above pkg/network in the import graph, so
network never imports hardware — Host/Switch/Gateway/Router satisfy Node
structurally.

# Routing

Route performs a breadth-first search from src to dst, expanding each
frontier's neighbors in ascending node-ID order so that ties among
equally-short paths resolve deterministically — gonum's own shortest-path
helpers leave tie-breaking unspecified, so this package does its own BFS
instead of calling into gonum/graph/path.

# Usage

	g := network.New()
	g.AddNode(host1)
	g.AddNode(sw)
	g.SetSubnet(sw, "10.0.0.0/24")
	g.AddLink(host1, sw, 125, 0) // 125 MiB/s
	path, err := g.Route(host1, host2)

# See Also

  - pkg/ipam: the subnet pool implementation AddLink draws addresses from
  - pkg/hardware: the Host/Switch/Gateway/Router node implementations
*/
package network
