package platformcompiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func noneTaken(uint32) bool { return false }

func TestAllocatePortDeterministic(t *testing.T) {
	p1, err := AllocatePort("api.example.com", noneTaken)
	require.NoError(t, err)
	p2, err := AllocatePort("api.example.com", noneTaken)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestAllocatePortWithinRange(t *testing.T) {
	p, err := AllocatePort("api.example.com", noneTaken)
	require.NoError(t, err)
	require.GreaterOrEqual(t, p, uint32(isolatedPortRangeStart))
	require.LessOrEqual(t, p, uint32(isolatedPortRangeEnd))
}

func TestAllocatePortDifferentDomainsUsuallyDiffer(t *testing.T) {
	p1, err := AllocatePort("api.example.com", noneTaken)
	require.NoError(t, err)
	p2, err := AllocatePort("billing.example.com", noneTaken)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
}

func TestAllocatePortProbesPastCollisions(t *testing.T) {
	p1, err := AllocatePort("api.example.com", noneTaken)
	require.NoError(t, err)

	taken := func(port uint32) bool { return port == p1 }
	p2, err := AllocatePort("api.example.com", taken)
	require.NoError(t, err)
	require.NotEqual(t, p1, p2)
}

func TestAllocatePortExhaustedRange(t *testing.T) {
	_, err := AllocatePort("api.example.com", func(uint32) bool { return true })
	require.Error(t, err)
}
