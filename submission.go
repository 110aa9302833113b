package iouring

import (
	"time"

	"github.com/cvln/iouring/internal/barrier"
	"github.com/cvln/iouring/internal/uapi"
)

// GetSQE reserves the next free submission slot. If sqe_tail - sqe_head
// equals ring_entries, the ring is full from the user's side and ok is
// false; the caller must Submit and retry. The returned SQE is zeroed.
func (inst *Instance) GetSQE() (sqe *uapi.SQE, ok bool) {
	sq := &inst.mapping.SQ
	if sq.SqeTail-sq.SqeHead >= *sq.RingEntries {
		inst.metrics.RecordSQFull()
		inst.logger.Debug("sq full", "sqe_head", sq.SqeHead, "sqe_tail", sq.SqeTail)
		return nil, false
	}

	idx := sq.SqeTail & *sq.RingMask
	entry := &sq.SQEs[idx]
	entry.Reset()
	sq.SqeTail++
	return entry, true
}

// flushSQ publishes every reserved-but-unpublished SQE: it writes the
// array indirection for [sqe_head, sqe_tail), then advances sq.tail with
// a release store so the kernel observes SQE content before the tail
// move. Returns the number of entries flushed.
func (inst *Instance) flushSQ() uint32 {
	sq := &inst.mapping.SQ
	toSubmit := sq.SqeTail - sq.SqeHead
	if toSubmit == 0 {
		return 0
	}

	mask := *sq.RingMask
	tail := *sq.Tail
	for i := sq.SqeHead; i != sq.SqeTail; i++ {
		slot := i & mask
		sq.Array[tail&mask] = slot
		inst.metrics.RecordSubmit(sq.SQEs[slot].Opcode, 1)
		tail++
	}

	barrier.StoreRelease(sq.Tail, tail)
	sq.SqeHead = sq.SqeTail
	return toSubmit
}

// needsEnter decides whether Submit must invoke the enter syscall: always
// when kernel-polled SQ is disabled; when it is enabled, only if the
// "needs wakeup" bit is set in sq.flags, observed with an acquire load.
func (inst *Instance) needsEnter() (required bool, wakeup bool) {
	if inst.params.Flags&uapi.SetupSQPoll == 0 {
		return true, false
	}
	flags := barrier.LoadAcquire(inst.mapping.SQ.Flags)
	wakeup = flags&uapi.SQNeedWakeup != 0
	return wakeup, wakeup
}

// Submit flushes reserved SQEs to the kernel-visible tail and, if
// required, invokes the enter syscall with wait_nr=0. Returns the number
// of SQEs the kernel accepted (a partial submit is not an error).
func (inst *Instance) Submit() (uint32, error) {
	return inst.submitAndWait(0)
}

// SubmitAndWait is Submit but blocks in the kernel until waitNr CQEs are
// available (or an error occurs).
func (inst *Instance) SubmitAndWait(waitNr uint32) (uint32, error) {
	return inst.submitAndWait(waitNr)
}

func (inst *Instance) submitAndWait(waitNr uint32) (uint32, error) {
	flushed := inst.flushSQ()
	if flushed > 0 {
		inst.submittedAtNs.Store(time.Now().UnixNano())
	}

	required, wakeup := inst.needsEnter()
	if !required && waitNr == 0 {
		return flushed, nil
	}

	var flags uint32
	if wakeup {
		flags |= uapi.EnterSQWakeup
	}
	if waitNr > 0 {
		flags |= uapi.EnterGetEvents
	}

	submitted, err := inst.enter(inst.fd, flushed, waitNr, flags, nil)
	if err != nil {
		inst.logger.WithError(err).Error("io_uring_enter failed", "to_submit", flushed, "wait_nr", waitNr)
		return 0, WrapError("Submit", err)
	}
	return submitted, nil
}

// SQReady returns the number of SQEs reserved-but-not-yet-published.
func (inst *Instance) SQReady() uint32 {
	sq := &inst.mapping.SQ
	return sq.SqeTail - sq.SqeHead
}

// SQSpaceLeft returns how many more SQEs may be reserved before GetSQE
// would report the ring full.
func (inst *Instance) SQSpaceLeft() uint32 {
	sq := &inst.mapping.SQ
	return *sq.RingEntries - (sq.SqeTail - sq.SqeHead)
}
