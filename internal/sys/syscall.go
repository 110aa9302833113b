// Package sys invokes the three kernel entry points io_uring exposes:
// io_uring_setup(2), io_uring_enter(2), and io_uring_register(2). Nothing
// above this package knows the raw syscall numbers or argument shapes.
package sys

import (
	"errors"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/cvln/iouring/internal/uapi"
)

// Linux syscall numbers for io_uring; stable across architectures that
// support it (x86-64, arm64, riscv64).
const (
	nrIOURingSetup    = 425
	nrIOURingEnter    = 426
	nrIOURingRegister = 427
)

// Setup calls io_uring_setup(2). params is in/out: the caller's Flags (and
// SQPoll/CQSize-related fields) go in, the kernel's entry counts, feature
// bits, and ring offsets come back. Returns the new instance fd.
func Setup(entries uint32, params *uapi.Params) (int, error) {
	fd, _, errno := syscall.RawSyscall(
		nrIOURingSetup,
		uintptr(entries),
		uintptr(unsafe.Pointer(params)),
		0,
	)
	if errno != 0 {
		return -1, os.NewSyscallError("io_uring_setup", errno)
	}
	return int(fd), nil
}

// Enter calls io_uring_enter(2). toSubmit/minComplete/flags follow
// spec.md §4.2/§4.3: flags carries EnterGetEvents when waiting and
// EnterSQWakeup when the polled-SQ thread needs waking. sigmask is
// optional (nil disables it). EINTR is retried here. Returns the number
// of SQEs the kernel consumed, or the errno wrapped in an *os.SyscallError.
func Enter(fd int, toSubmit, minComplete, flags uint32, sigmask *unix.Sigset_t) (uint32, error) {
	for {
		n, _, errno := syscall.Syscall6(
			nrIOURingEnter,
			uintptr(fd),
			uintptr(toSubmit),
			uintptr(minComplete),
			uintptr(flags),
			uintptr(unsafe.Pointer(sigmask)),
			unsafe.Sizeof(unix.Sigset_t{}),
		)
		if errno != 0 {
			if errors.Is(errno, syscall.EINTR) {
				continue
			}
			return 0, os.NewSyscallError("io_uring_enter", errno)
		}
		return uint32(n), nil
	}
}

// Register calls io_uring_register(2) to install or remove a resource
// (fixed buffers, fixed files, eventfd, personality, probe).
func Register(fd int, op uapi.RegisterOp, arg unsafe.Pointer, nrArgs uint32) error {
	_, err := RegisterReturning(fd, op, arg, nrArgs)
	return err
}

// RegisterReturning is Register but also returns the syscall's non-error
// return value, used by RegisterPersonality: the kernel hands back the
// new personality id as the return value rather than an out-parameter.
func RegisterReturning(fd int, op uapi.RegisterOp, arg unsafe.Pointer, nrArgs uint32) (int, error) {
	for {
		n, _, errno := syscall.RawSyscall6(
			nrIOURingRegister,
			uintptr(fd),
			uintptr(op),
			uintptr(arg),
			uintptr(nrArgs),
			0, 0,
		)
		if errno != 0 {
			if errors.Is(errno, syscall.EINTR) {
				continue
			}
			return 0, os.NewSyscallError("io_uring_register", errno)
		}
		return int(n), nil
	}
}
