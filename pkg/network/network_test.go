package network

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeNode struct {
	id    int64
	label string
	kind  Kind
	ports []string
}

func (f *fakeNode) ID() int64    { return f.id }
func (f *fakeNode) Label() string { return f.label }
func (f *fakeNode) Kind() Kind    { return f.kind }
func (f *fakeNode) AddPort(endpoint Node, bandwidthMiBs float64, ip net.IP, at float64) {
	f.ports = append(f.ports, endpoint.Label())
}

func TestHostToHostLinkRejected(t *testing.T) {
	g := New()
	h1 := &fakeNode{id: 1, label: "h1", kind: KindHost}
	h2 := &fakeNode{id: 2, label: "h2", kind: KindHost}
	g.AddNode(h1)
	g.AddNode(h2)

	err := g.AddLink(h1, h2, 1, 0)
	require.Error(t, err)
	_, ok := g.Link(h1, h2)
	require.False(t, ok, "graph must remain unchanged after a rejected link")
}

func TestRouteShortestPathLowestIDTieBreak(t *testing.T) {
	g := New()
	sw := &fakeNode{id: 1, label: "sw", kind: KindSwitch}
	h1 := &fakeNode{id: 2, label: "h1", kind: KindHost}
	h2 := &fakeNode{id: 3, label: "h2", kind: KindHost}
	g.AddNode(sw)
	g.AddNode(h1)
	g.AddNode(h2)
	require.NoError(t, g.AddLink(sw, h1, 100, 0))
	require.NoError(t, g.AddLink(sw, h2, 100, 0))
	sw2 := &fakeNode{id: 4, label: "sw2", kind: KindSwitch}
	g.AddNode(sw2)
	require.NoError(t, g.AddLink(sw2, h1, 100, 0))
	require.NoError(t, g.AddLink(sw2, h2, 100, 0))

	path, err := g.Route(h1, h2)
	require.NoError(t, err)
	require.Len(t, path, 3)
	require.Equal(t, "h1", path[0].Label())
	require.Equal(t, "sw", path[1].Label())
	require.Equal(t, "h2", path[2].Label())
}

func TestRouteNoPath(t *testing.T) {
	g := New()
	a := &fakeNode{id: 1, label: "a", kind: KindHost}
	b := &fakeNode{id: 2, label: "b", kind: KindHost}
	g.AddNode(a)
	g.AddNode(b)

	_, err := g.Route(a, b)
	require.Error(t, err)
}
