//go:build !profile

package prof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStub(t *testing.T) {
	s, err := Start(Config{CPUPath: "/nonexistent/cpu.prof"})
	require.NoError(t, err)
	assert.Empty(t, s.Addr())
	assert.NoError(t, s.Stop())
	assert.False(t, IsCPUActive())
	assert.False(t, Enabled)
	assert.Equal(t, "heap", ProfileHeap.String())
}
