package iouring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireStagingBuffersProducesUsableIovecs(t *testing.T) {
	iov := AcquireStagingBuffers(3, 128*1024)
	require.Len(t, iov, 3)

	for _, v := range iov {
		require.Equal(t, uint64(128*1024), v.Len)
		require.NotZero(t, v.Base, "iovec base must point at real pooled memory")
	}

	ReleaseStagingBuffers(iov)
}

func TestReleaseStagingBuffersAllowsReacquire(t *testing.T) {
	first := AcquireStagingBuffers(1, 256*1024)
	base := first[0].Base
	ReleaseStagingBuffers(first)

	second := AcquireStagingBuffers(1, 256*1024)
	defer ReleaseStagingBuffers(second)

	require.Equal(t, uint64(256*1024), second[0].Len)
	_ = base // pool reuse is best-effort (sync.Pool), not asserted on address
}
