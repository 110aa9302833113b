package iouring

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvln/iouring/internal/uapi"
)

func TestWaitCQEReturnsImmediatelyWhenAlreadyReady(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(7)
	_, err := inst.Submit()
	require.NoError(t, err)

	cqe, err := inst.WaitCQE()
	require.NoError(t, err)
	require.Equal(t, uint64(7), cqe.UserData)
	inst.CQESeen(cqe)
}

func TestWaitCQENrAfterSubmit(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(99)

	_, err := inst.Submit()
	require.NoError(t, err)

	cqe, err := inst.WaitCQENr(1)
	require.NoError(t, err)
	require.Equal(t, uint64(99), cqe.UserData)
}

func TestPeekCQEReturnsEmptyErrorWhenEmpty(t *testing.T) {
	inst, _ := newTestInstance(t, 4)
	_, err := inst.PeekCQE()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeEmpty), "an empty ring is not a fired timeout")
}

// TestPeekCQESurfacesFiredTimeoutAsErrCodeTimeout exercises the "timeout
// fires" scenario: a sentinel CQE carrying a negative Res (-ETIME, as a
// real kernel reports when a timeout SQE's deadline actually elapses)
// must be consumed silently and reported as ErrCodeTimeout, distinct
// from the "ring is merely empty" case above.
func TestPeekCQESurfacesFiredTimeoutAsErrCodeTimeout(t *testing.T) {
	inst, fk := newTestInstance(t, 4)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(uapi.ReservedUserData)
	fk.SetNextError(syscall.ETIME)
	_, err := inst.Submit()
	require.NoError(t, err)

	_, err = inst.PeekCQE()
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeTimeout), "a fired timeout sentinel must map to ErrCodeTimeout, not ErrCodeEmpty or ErrCodeIOError")
	require.Equal(t, uint32(0), inst.CQReady(), "the sentinel must still be retired even though it carried an error")
}

func TestPeekCQESuppressesTimeoutSentinel(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(uapi.ReservedUserData)
	_, err := inst.Submit()
	require.NoError(t, err)

	_, err = inst.PeekCQE()
	require.Error(t, err, "a lone sentinel CQE must never be surfaced as a real completion")
	require.Equal(t, uint32(0), inst.CQReady(), "the sentinel must be retired, not left pending")
}

func TestPeekCQESkipsSentinelAndReturnsRealCQE(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	sentinel, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sentinel)
	sentinel.SetUserData(uapi.ReservedUserData)

	real, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(real)
	real.SetUserData(55)

	_, err := inst.Submit()
	require.NoError(t, err)

	cqe, err := inst.PeekCQE()
	require.NoError(t, err)
	require.Equal(t, uint64(55), cqe.UserData)
	inst.CQESeen(cqe)
}

func TestPeekBatchCQEFillsWithoutAdvancing(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	for i := uint64(0); i < 3; i++ {
		sqe, ok := inst.GetSQE()
		require.True(t, ok)
		PrepNop(sqe)
		sqe.SetUserData(i)
	}
	_, err := inst.Submit()
	require.NoError(t, err)

	batch := make([]*uapi.CQE, 2)
	count := inst.PeekBatchCQE(batch)
	require.Equal(t, uint32(2), count)
	require.Equal(t, uint32(3), inst.CQReady(), "PeekBatchCQE must not advance cq.head")

	inst.CQAdvance(count)
	require.Equal(t, uint32(1), inst.CQReady())
}

func TestIterateVisitsEveryReadyCQEInOrder(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	for i := uint64(0); i < 3; i++ {
		sqe, ok := inst.GetSQE()
		require.True(t, ok)
		PrepNop(sqe)
		sqe.SetUserData(i * 10)
	}
	_, err := inst.Submit()
	require.NoError(t, err)

	var seen []uint64
	count := inst.Iterate(func(cqe *uapi.CQE) {
		seen = append(seen, cqe.UserData)
	})
	require.Equal(t, uint32(3), count)
	require.Equal(t, []uint64{0, 10, 20}, seen)
	inst.CQAdvance(count)
	require.Equal(t, uint32(0), inst.CQReady())
}

func TestWaitCQETimeoutReturnsReadyCompletionWithoutInjectingTimeout(t *testing.T) {
	inst, _ := newTestInstance(t, 4)

	sqe, ok := inst.GetSQE()
	require.True(t, ok)
	PrepNop(sqe)
	sqe.SetUserData(3)
	_, err := inst.Submit()
	require.NoError(t, err)

	cqe, err := inst.WaitCQETimeout(1, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), cqe.UserData)
}
