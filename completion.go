package iouring

import (
	"errors"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cvln/iouring/internal/barrier"
	"github.com/cvln/iouring/internal/uapi"
)

// CQReady returns the number of published, unconsumed CQEs.
func (inst *Instance) CQReady() uint32 {
	cq := &inst.mapping.CQ
	tail := barrier.LoadAcquire(cq.Tail)
	return tail - *cq.Head
}

// Iterate calls fn once per published, unconsumed CQE, in order, without
// advancing cq.head. The caller advances (via CQAdvance or CQESeen) once
// it has finished processing the batch. fn must not retain the pointer
// past the call: the underlying slot is reused once head moves past it.
func (inst *Instance) Iterate(fn func(cqe *uapi.CQE)) (count uint32) {
	cq := &inst.mapping.CQ
	head := *cq.Head
	tail := barrier.LoadAcquire(cq.Tail)
	mask := *cq.RingMask
	for head != tail {
		fn(&cq.CQEs[head&mask])
		head++
		count++
	}
	return count
}

// PeekBatchCQE fills up to len(out) CQE pointers from the current
// snapshot without advancing cq.head; the caller advances after
// processing via CQAdvance.
func (inst *Instance) PeekBatchCQE(out []*uapi.CQE) (count uint32) {
	cq := &inst.mapping.CQ
	head := *cq.Head
	tail := barrier.LoadAcquire(cq.Tail)
	mask := *cq.RingMask
	for count < uint32(len(out)) && head != tail {
		out[count] = &cq.CQEs[head&mask]
		head++
		count++
	}
	return count
}

// CQAdvance retires count CQEs starting at the current head with a
// release store, so the kernel observes the CQE reads before the head
// move. Before moving head it records completion metrics for every
// retired entry that isn't the library's own timeout sentinel, using
// submittedAtNs as the latency baseline, and checks cq.Overflow for a
// new overflow event.
func (inst *Instance) CQAdvance(count uint32) {
	cq := &inst.mapping.CQ
	mask := *cq.RingMask
	head := *cq.Head

	submittedAt := inst.submittedAtNs.Load()
	now := time.Now().UnixNano()
	for i := uint32(0); i < count; i++ {
		cqe := &cq.CQEs[(head+i)&mask]
		if cqe.IsTimeoutSentinel() {
			continue
		}
		var latencyNs uint64
		if submittedAt > 0 && now > submittedAt {
			latencyNs = uint64(now - submittedAt)
		}
		inst.metrics.RecordCompletion(latencyNs, cqe.Res >= 0)
	}

	if overflow := *cq.Overflow; overflow != inst.lastCQOverflow {
		inst.metrics.RecordCQOverflow()
		inst.lastCQOverflow = overflow
	}

	barrier.StoreRelease(cq.Head, head+count)
}

// CQESeen retires a single CQE; equivalent to CQAdvance(1).
func (inst *Instance) CQESeen(cqe *uapi.CQE) {
	inst.CQAdvance(1)
}

// PeekCQE attempts one iteration without blocking. If the only visible
// CQE carries the library's reserved timeout sentinel, it is consumed
// silently (retired immediately) and never handed to the caller; a
// negative Res on that sentinel (-ETIME when the deadline actually
// elapsed) is surfaced as ErrCodeTimeout. An empty ring is reported
// separately as ErrCodeEmpty, distinct from an actual timeout firing.
func (inst *Instance) PeekCQE() (*uapi.CQE, error) {
	for {
		cq := &inst.mapping.CQ
		head := *cq.Head
		tail := barrier.LoadAcquire(cq.Tail)
		if head == tail {
			return nil, NewRingError("PeekCQE", inst.fd, ErrCodeEmpty, "no completion available")
		}

		cqe := &cq.CQEs[head&*cq.RingMask]
		if cqe.IsTimeoutSentinel() {
			res := cqe.Res
			if res < 0 {
				inst.logger.WithCQE(cqe).Debug("timeout sentinel fired")
			}
			inst.CQAdvance(1)
			if res < 0 {
				return nil, WrapError("PeekCQE", syscall.Errno(-res))
			}
			continue
		}
		return cqe, nil
	}
}

// WaitCQE blocks until at least one CQE is available, then returns it
// unconsumed (the caller must still call CQESeen/CQAdvance).
func (inst *Instance) WaitCQE() (*uapi.CQE, error) {
	return inst.WaitCQENr(1)
}

// WaitCQENr first peeks; if a non-sentinel CQE is already available it is
// returned immediately. Otherwise it invokes the enter syscall with
// wait_nr = waitNr and the get-events flag, retrying on EINTR, and peeks
// again once the kernel returns.
func (inst *Instance) WaitCQENr(waitNr uint32) (*uapi.CQE, error) {
	if inst.CQReady() > 0 {
		cqe, err := inst.PeekCQE()
		if err == nil {
			return cqe, nil
		}
		if !IsCode(err, ErrCodeEmpty) {
			return nil, err
		}
	}

	for {
		_, err := inst.enter(inst.fd, 0, waitNr, uapi.EnterGetEvents, nil)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			inst.logger.WithError(err).Error("io_uring_enter (wait) failed", "wait_nr", waitNr)
			return nil, WrapError("WaitCQE", err)
		}
		return inst.PeekCQE()
	}
}

// WaitCQEs blocks until waitNr CQEs are available or the timeout/signal
// mask dictates otherwise, matching io_uring_wait_cqes' signature.
// sigmask may be nil. With a nil timeout, sigmask is passed to the enter
// syscall; with a non-nil timeout the call goes through WaitCQETimeout and
// sigmask is not applied.
func (inst *Instance) WaitCQEs(waitNr uint32, timeout *time.Duration, sigmask *unix.Sigset_t) (*uapi.CQE, error) {
	if timeout == nil {
		return inst.waitCQEsSigmask(waitNr, sigmask)
	}
	return inst.WaitCQETimeout(waitNr, *timeout)
}

func (inst *Instance) waitCQEsSigmask(waitNr uint32, sigmask *unix.Sigset_t) (*uapi.CQE, error) {
	if inst.CQReady() > 0 {
		if cqe, err := inst.PeekCQE(); err == nil {
			return cqe, nil
		}
	}
	for {
		_, err := inst.enter(inst.fd, 0, waitNr, uapi.EnterGetEvents, sigmask)
		if err != nil {
			if errors.Is(err, syscall.EINTR) {
				continue
			}
			return nil, WrapError("WaitCQEs", err)
		}
		return inst.PeekCQE()
	}
}

// WaitCQETimeout implements wait-with-timeout by reserving an SQE for a
// relative timeout, stamping it with the reserved user-data sentinel so
// PeekCQE filters it out of the application's stream, publishing it, and
// calling WaitCQENr. Because this manipulates both the SQ and CQ sides,
// it must not run concurrently with an SQ producer on another goroutine
// even under the otherwise-lock-free SQ/CQ partitioning discipline.
func (inst *Instance) WaitCQETimeout(waitNr uint32, timeout time.Duration) (*uapi.CQE, error) {
	if inst.CQReady() > 0 {
		if cqe, err := inst.PeekCQE(); err == nil {
			return cqe, nil
		}
	}

	sqe, ok := inst.GetSQE()
	if !ok {
		if _, err := inst.Submit(); err != nil {
			return nil, err
		}
		sqe, ok = inst.GetSQE()
		if !ok {
			return nil, NewRingError("WaitCQETimeout", inst.fd, ErrCodeRingFull, "no SQE available for timeout")
		}
	}

	ts := &uapi.TimeSpec{
		Sec:  int64(timeout / time.Second),
		Nsec: int64(timeout % time.Second),
	}
	prepTimeout(sqe, ts, 0, 0)
	sqe.SetUserData(uapi.ReservedUserData)
	inst.logger.WithSQE(sqe).Debug("timeout sqe armed", "wait_nr", waitNr)

	if _, err := inst.Submit(); err != nil {
		return nil, err
	}
	return inst.WaitCQENr(waitNr)
}
