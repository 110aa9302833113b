package iouring

import (
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/cvln/iouring/internal/uapi"
)

// FakeKernel stands in for a real io_uring instance fd in tests: it owns
// the backing memory for the SQ ring, CQ ring, and SQE array, and serves
// Mmap/Munmap calls against that memory instead of a real kernel mapping.
// It also runs a trivial completion loop so tests can exercise Submit and
// Wait without root privileges or a live kernel.
//
// Grounded the same way internal/ringmap.MmapFunc is used in production:
// the ring package never knows whether its mmap came from the kernel or
// from a FakeKernel.
type FakeKernel struct {
	mu sync.Mutex

	params     uapi.Params
	sqRegion   []byte
	cqRegion   []byte
	sqesRegion []byte

	closed       bool
	nextErrno    syscall.Errno // when nonzero, Serve reports -nextErrno on the next CQE instead of success
	nextErrnoSet bool
}

// NewFakeKernel allocates ring memory sized as if io_uring_setup had been
// called with the given entries count, laid out with the same offsets a
// real kernel reports (single-mmap is not modeled; SQ and CQ get separate
// regions, which is also a real and common kernel configuration).
func NewFakeKernel(entries uint32) *FakeKernel {
	sqeSize := uint32(unsafe.Sizeof(uapi.SQE{}))
	cqeSize := uint32(unsafe.Sizeof(uapi.CQE{}))

	k := &FakeKernel{}
	k.params.SQEntries = entries
	k.params.CQEntries = entries * 2
	k.params.Features = 0 // no FeatSingleMmap: exercise the two-region path

	k.params.SQOffset = uapi.SQOffsets{
		Head:        0,
		Tail:        4,
		RingMask:    8,
		RingEntries: 12,
		Flags:       16,
		Dropped:     20,
		Array:       24,
	}
	sqArrayEnd := k.params.SQOffset.Array + entries*4
	k.sqRegion = make([]byte, sqArrayEnd)

	k.params.CQOffset = uapi.CQOffsets{
		Head:        0,
		Tail:        4,
		RingMask:    8,
		RingEntries: 12,
		Overflow:    16,
		Cqes:        32,
		Flags:       20,
	}
	cqEnd := k.params.CQOffset.Cqes + k.params.CQEntries*cqeSize
	k.cqRegion = make([]byte, cqEnd)

	k.sqesRegion = make([]byte, entries*sqeSize)

	k.writeU32(k.sqRegion, k.params.SQOffset.RingMask, entries-1)
	k.writeU32(k.sqRegion, k.params.SQOffset.RingEntries, entries)
	k.writeU32(k.cqRegion, k.params.CQOffset.RingMask, k.params.CQEntries-1)
	k.writeU32(k.cqRegion, k.params.CQOffset.RingEntries, k.params.CQEntries)

	return k
}

// Params returns the uapi.Params a caller would pass to ringmap.New, as if
// they had just come back from io_uring_setup.
func (k *FakeKernel) Params() *uapi.Params {
	return &k.params
}

func (k *FakeKernel) writeU32(region []byte, offset, v uint32) {
	*(*uint32)(unsafe.Pointer(&region[offset])) = v
}

func (k *FakeKernel) readU32(region []byte, offset uint32) uint32 {
	return *(*uint32)(unsafe.Pointer(&region[offset]))
}

// Mmap implements ringmap.MmapFunc against this FakeKernel's regions,
// keyed on the same kernel-reported offsets production code uses.
func (k *FakeKernel) Mmap(fd int, offset int64, length int) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	switch uint64(offset) {
	case uapi.OffSQRing:
		return k.sqRegion[:length], nil
	case uapi.OffCQRing:
		return k.cqRegion[:length], nil
	case uapi.OffSQEs:
		return k.sqesRegion[:length], nil
	default:
		return nil, NewError("FakeKernel.Mmap", ErrCodeInvalidParameters, "unknown region offset")
	}
}

// Munmap is a no-op: FakeKernel owns its regions for its own lifetime.
func (k *FakeKernel) Munmap(b []byte) error {
	return nil
}

// Enter stands in for io_uring_enter(2): it ignores toSubmit/sigmask
// (Serve always drains every published SQE) and runs the completion loop
// synchronously, so SubmitAndWait returns as soon as Serve has produced
// whatever CQEs it is going to produce.
func (k *FakeKernel) Enter(fd int, toSubmit, minComplete, flags uint32, sigmask *unix.Sigset_t) (uint32, error) {
	served := k.Serve()
	return uint32(served), nil
}

// SetNextError makes the next Serve call report -errno as Res on the
// next CQE instead of success (e.g. syscall.ETIME for a fired timeout
// sentinel), then clears itself.
func (k *FakeKernel) SetNextError(errno syscall.Errno) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextErrno = errno
	k.nextErrnoSet = true
}

// Serve drains every SQE the caller has published since the last Serve
// call and appends one CQE per SQE, echoing UserData back with Res=0
// (or Res=-errno if SetNextError was armed). It is not a general-purpose
// io_uring emulator: NOPs, reads, and writes all complete the same way,
// which is enough to exercise submission/completion plumbing in tests
// without depending on real I/O semantics.
func (k *FakeKernel) Serve() (served int) {
	k.mu.Lock()
	defer k.mu.Unlock()

	sqHead := k.readU32(k.sqRegion, k.params.SQOffset.Head)
	sqTail := k.readU32(k.sqRegion, k.params.SQOffset.Tail)
	sqMask := k.readU32(k.sqRegion, k.params.SQOffset.RingMask)
	sqeSize := uint32(unsafe.Sizeof(uapi.SQE{}))

	cqTail := k.readU32(k.cqRegion, k.params.CQOffset.Tail)
	cqMask := k.readU32(k.cqRegion, k.params.CQOffset.RingMask)
	cqeSize := uint32(unsafe.Sizeof(uapi.CQE{}))

	for sqHead != sqTail {
		arrIdx := sqHead & sqMask
		sqeIdx := k.readU32(k.sqRegion, k.params.SQOffset.Array+arrIdx*4)

		sqeOff := sqeIdx * sqeSize
		sqe := (*uapi.SQE)(unsafe.Pointer(&k.sqesRegion[sqeOff]))

		cqIdx := cqTail & cqMask
		cqeOff := k.params.CQOffset.Cqes + cqIdx*cqeSize
		cqe := (*uapi.CQE)(unsafe.Pointer(&k.cqRegion[cqeOff]))
		cqe.UserData = sqe.UserData
		if k.nextErrnoSet {
			cqe.Res = -int32(k.nextErrno)
			k.nextErrnoSet = false
		} else {
			cqe.Res = 0
		}
		cqe.Flags = 0

		cqTail++
		sqHead++
		served++
	}

	k.writeU32(k.sqRegion, k.params.SQOffset.Head, sqHead)
	k.writeU32(k.cqRegion, k.params.CQOffset.Tail, cqTail)
	return served
}

// Close marks the FakeKernel closed; subsequent Mmap calls still succeed
// since the backing slices remain valid Go memory, matching how a real
// fd's mappings outlive close(2) until explicitly unmapped.
func (k *FakeKernel) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (k *FakeKernel) IsClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}
