//go:build giouring

// Package giouringcheck cross-checks the pure-Go ring math in
// internal/ringmap against pawelgaczynski/giouring, a cgo-free but
// C-ABI-faithful binding that drives the kernel through its own
// independently written submission/completion bookkeeping. It exists
// only for integration tests built with -tags giouring; nothing in
// the public API depends on it.
package giouringcheck

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"github.com/pawelgaczynski/giouring"
)

// Ring wraps a giouring.Ring for the single round trip the cross-check
// tests need: submit a nop, wait for its completion, read back Res and
// UserData.
type Ring struct {
	ring *giouring.Ring
}

// New creates a ring with the given submission queue depth.
func New(entries uint32) (*Ring, error) {
	r, err := giouring.CreateRing(entries)
	if err != nil {
		return nil, fmt.Errorf("giouringcheck: create ring: %w", err)
	}
	return &Ring{ring: r}, nil
}

// Close tears down the ring's mappings and fd.
func (r *Ring) Close() {
	r.ring.QueueExit()
}

// NopRoundTrip submits a single nop carrying userData, waits for its
// completion with the given timeout, and returns the completion's Res
// and UserData as reported by giouring's own ring walk.
func (r *Ring) NopRoundTrip(userData uint64, timeout time.Duration) (res int32, gotUserData uint64, err error) {
	sqe := r.ring.GetSQE()
	if sqe == nil {
		return 0, 0, fmt.Errorf("giouringcheck: submission queue full")
	}
	sqe.PrepareNop()
	sqe.SetData(unsafe.Pointer(uintptr(userData)))

	if _, err := r.ring.Submit(); err != nil {
		return 0, 0, fmt.Errorf("giouringcheck: submit: %w", err)
	}

	ts := syscall.NsecToTimespec(timeout.Nanoseconds())
	if _, err := r.ring.WaitCQEs(1, &ts, nil); err != nil {
		return 0, 0, fmt.Errorf("giouringcheck: wait cqes: %w", err)
	}

	batch := make([]*giouring.CompletionQueueEvent, 1)
	n := r.ring.PeekBatchCQE(batch)
	if n == 0 {
		return 0, 0, fmt.Errorf("giouringcheck: no completion after wait")
	}
	cqe := batch[0]
	res, gotUserData = cqe.Res, cqe.UserData
	r.ring.CQAdvance(n)
	return res, gotUserData, nil
}
