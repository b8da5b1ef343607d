package ipam

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateSequentialAddresses(t *testing.T) {
	p, err := NewPool("10.0.1.0/30")
	require.NoError(t, err)

	ip1, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, "10.0.1.1", ip1.String())

	ip2, err := p.Allocate()
	require.NoError(t, err)
	require.Equal(t, "10.0.1.2", ip2.String())

	_, err = p.Allocate()
	require.Error(t, err, "subnet with only 2 usable hosts should be exhausted")
}

func TestRejectsTooSmallSubnet(t *testing.T) {
	_, err := NewPool("10.0.1.0/31")
	require.Error(t, err)
}
