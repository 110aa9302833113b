//go:build linux

package iouring

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/cvln/iouring/internal/uapi"
)

// requireRing sets up a real instance, skipping the test if this kernel
// or sandbox doesn't permit io_uring_setup (missing syscall, seccomp
// filter, or unprivileged_userns-style restriction).
func requireRing(t *testing.T, entries uint32) *Instance {
	t.Helper()
	inst, err := Setup(entries)
	if err != nil {
		t.Skipf("io_uring_setup unavailable in this environment: %v", err)
	}
	t.Cleanup(func() { _ = inst.Close() })
	return inst
}

func TestIntegrationNopRoundTrip(t *testing.T) {
	inst := requireRing(t, 8)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(123)

	_, err := inst.SubmitAndWait(1)
	require.NoError(t, err)

	cqe, err := inst.WaitCQE()
	require.NoError(t, err)
	require.Equal(t, uint64(123), cqe.UserData)
	require.GreaterOrEqual(t, cqe.Res, int32(0))
	inst.CQESeen(cqe)
}

func TestIntegrationGetProbe(t *testing.T) {
	probe, err := GetProbe()
	if err != nil {
		t.Skipf("io_uring_register(PROBE) unavailable in this environment: %v", err)
	}
	require.True(t, OpcodeSupported(probe, uapi.OpNop), "every kernel old enough to support io_uring supports IORING_OP_NOP")
}

func TestIntegrationRegisterEventfd(t *testing.T) {
	inst := requireRing(t, 8)

	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		t.Skipf("eventfd unavailable: %v", err)
	}
	defer unix.Close(fd)

	require.NoError(t, inst.RegisterEventfd(fd))
	require.NoError(t, inst.UnregisterEventfd())
}
