// Package iouring is a user-space coordination layer around the two
// io_uring shared-memory rings: it sets up the mapped rings, exposes safe
// operations to reserve, fill, submit, observe, and retire entries,
// manages registered resources, and implements the acquire/release
// protocol that keeps producer/consumer indices consistent across the
// user/kernel boundary.
//
// An Instance partitions responsibility with the kernel: the SQ side is
// single-producer from the caller's perspective (one goroutine at a time
// calls GetSQE/Submit); the CQ side is single-consumer (one goroutine at
// a time iterates and advances). Two goroutines may partition SQ and CQ
// between them without further synchronization except that WaitCQETimeout
// manipulates both sides and must not run concurrently with the SQ
// producer on another goroutine.
package iouring

import (
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/cvln/iouring/internal/logging"
	"github.com/cvln/iouring/internal/ringmap"
	"github.com/cvln/iouring/internal/sys"
	"github.com/cvln/iouring/internal/uapi"
)

// EnterFunc abstracts the io_uring_enter(2) call so tests can substitute
// a FakeKernel's synchronous completion loop for the real syscall.
type EnterFunc func(fd int, toSubmit, minComplete, flags uint32, sigmask *unix.Sigset_t) (uint32, error)

func defaultEnter(fd int, toSubmit, minComplete, flags uint32, sigmask *unix.Sigset_t) (uint32, error) {
	return sys.Enter(fd, toSubmit, minComplete, flags, sigmask)
}

// Instance is a handle bundling the kernel file descriptor, setup flags,
// and the mapped SQ/CQ ring descriptors. Created by Setup/SetupParams,
// destroyed by Close; must not be copied while rings are mapped.
type Instance struct {
	fd      int
	params  uapi.Params
	mapping *ringmap.Mapping
	logger  *logging.Logger
	metrics *Metrics

	// submittedAtNs is the UnixNano timestamp of the last successful
	// flush to the kernel-visible tail; completion-side latency is
	// measured against it. Accessed from both the SQ-producer and
	// CQ-consumer goroutines under the two-goroutine partitioning this
	// package documents, hence atomic rather than a plain field.
	submittedAtNs atomic.Int64

	// lastCQOverflow is the last value observed in cq.Overflow; only
	// touched by the CQ-consumer goroutine, so it needs no atomic.
	lastCQOverflow uint32

	mmap   ringmap.MmapFunc
	munmap ringmap.MunmapFunc
	enter  EnterFunc
}

// Option configures the in/out params record passed to io_uring_setup.
type Option func(*uapi.Params)

// WithSQPoll enables kernel-side SQ polling pinned to the given CPU.
func WithSQPoll(cpu uint32) Option {
	return func(p *uapi.Params) {
		p.Flags |= uapi.SetupSQPoll | uapi.SetupSQAff
		p.SQThreadCPU = cpu
	}
}

// WithSQPollIdle sets the idle period (ms) before the polling thread
// sets the "needs wakeup" flag. Only meaningful with WithSQPoll.
func WithSQPollIdle(idleMs uint32) Option {
	return func(p *uapi.Params) { p.SQThreadIdle = idleMs }
}

// WithIOPoll enables kernel-side IO polling for pollable files.
func WithIOPoll() Option {
	return func(p *uapi.Params) { p.Flags |= uapi.SetupIOPoll }
}

// WithCQSize requests an explicit CQ entry count instead of the kernel
// default of 2x the SQ entry count.
func WithCQSize(entries uint32) Option {
	return func(p *uapi.Params) {
		p.Flags |= uapi.SetupCQSize
		p.CQEntries = entries
	}
}

// WithClamp allows the kernel to clamp an oversized entry count down to
// its maximum instead of failing setup.
func WithClamp() Option {
	return func(p *uapi.Params) { p.Flags |= uapi.SetupClamp }
}

// WithAttachWQ shares the async worker pool of another instance fd,
// avoiding a second pool when an application owns multiple rings.
func WithAttachWQ(fd int32) Option {
	return func(p *uapi.Params) {
		p.Flags |= uapi.SetupAttachWQ
		p.WQFd = uint32(fd)
	}
}

// Setup creates a new instance with the given entry count and options,
// using the default mmap/munmap backed by golang.org/x/sys/unix.
func Setup(entries uint32, opts ...Option) (*Instance, error) {
	var params uapi.Params
	for _, opt := range opts {
		opt(&params)
	}
	return SetupParams(entries, &params)
}

// SetupParams is Setup with a caller-owned params record, so in/out
// fields the kernel fills (Features, SQOffset, CQOffset, ...) are visible
// to the caller after return. On any failure the instance fd and any
// partial mapping are torn down before returning the error.
func SetupParams(entries uint32, params *uapi.Params) (*Instance, error) {
	logger := logging.Default()
	logger.Debug("io_uring_setup", "entries", entries, "flags", params.Flags)

	fd, err := sys.Setup(entries, params)
	if err != nil {
		logger.WithError(err).Error("io_uring_setup failed")
		return nil, WrapError("Setup", err)
	}

	inst := &Instance{
		fd:      fd,
		params:  *params,
		logger:  logger.WithRing(fd),
		metrics: NewMetrics(),
		mmap:    ringmap.DefaultMmap,
		munmap:  ringmap.DefaultMunmap,
		enter:   defaultEnter,
	}

	mapping, err := ringmap.New(fd, &inst.params, inst.mmap, inst.munmap)
	if err != nil {
		syscall.Close(fd)
		inst.logger.WithError(err).Error("ring mapping failed")
		return nil, WrapError("Setup", err)
	}
	inst.mapping = mapping

	*params = inst.params
	inst.logger.Info("instance ready", "sq_entries", inst.params.SQEntries, "cq_entries", inst.params.CQEntries)
	return inst, nil
}

// setupWithFakeKernel is used by tests to exercise the full Instance
// surface against a FakeKernel instead of a real kernel fd.
func setupWithFakeKernel(fk *FakeKernel, fd int) (*Instance, error) {
	params := *fk.Params()
	inst := &Instance{
		fd:      fd,
		params:  params,
		logger:  logging.Default().WithRing(fd),
		metrics: NewMetrics(),
		mmap:    fk.Mmap,
		munmap:  fk.Munmap,
		enter:   fk.Enter,
	}
	mapping, err := ringmap.New(fd, &inst.params, inst.mmap, inst.munmap)
	if err != nil {
		return nil, WrapError("Setup", err)
	}
	inst.mapping = mapping
	return inst, nil
}

// Close unmaps the rings and closes the instance fd. Safe to call on the
// nil *Instance a failed Setup returns (Setup has already torn down what
// it built); calling Close twice is not supported (it will attempt to
// close an already-closed fd).
func (inst *Instance) Close() error {
	if inst == nil {
		return nil
	}
	inst.metrics.Stop()
	var mapErr error
	if inst.mapping != nil {
		mapErr = inst.mapping.Close()
		inst.mapping = nil
	}
	closeErr := syscall.Close(inst.fd)
	inst.logger.Info("instance closed")
	if mapErr != nil {
		return WrapError("Close", mapErr)
	}
	if closeErr != nil {
		return WrapError("Close", closeErr)
	}
	return nil
}

// DontFork marks every mapped region MADV_DONTFORK so a forked child does
// not inherit (and then race on) this instance's ring state.
func (inst *Instance) DontFork() error {
	return inst.mapping.DontFork()
}

// FD returns the instance's kernel file descriptor.
func (inst *Instance) FD() int {
	return inst.fd
}

// Params returns the kernel-filled params record from setup, including
// reported Features and ring offsets.
func (inst *Instance) Params() uapi.Params {
	return inst.params
}

// Metrics returns the instance's metrics collector.
func (inst *Instance) Metrics() *Metrics {
	return inst.metrics
}
