package iouring

import (
	"errors"
	"fmt"
	"syscall"
)

// Error represents a structured error from a ring operation, carrying the
// ring fd and opcode that failed alongside the mapped error category.
type Error struct {
	Op     string    // Operation that failed (e.g., "Setup", "Submit", "Register")
	RingFd int       // Ring file descriptor (-1 if not applicable)
	Opcode uint8     // SQE opcode involved (0 if not applicable)
	Code   ErrorCode // High-level error category
	Errno  syscall.Errno
	Msg    string
	Inner  error
}

func (e *Error) Error() string {
	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.RingFd >= 0 {
		parts = append(parts, fmt.Sprintf("fd=%d", e.RingFd))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}

	if len(parts) > 0 {
		return fmt.Sprintf("iouring: %s (%s)", msg, parts[0])
	}
	return fmt.Sprintf("iouring: %s", msg)
}

func (e *Error) Unwrap() error {
	return e.Inner
}

func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if te, ok := target.(*Error); ok {
		return e.Code == te.Code
	}
	return false
}

// ErrorCode represents a high-level error category independent of the
// underlying errno, so callers can branch on IsCode without pattern
// matching on kernel-specific numbers.
type ErrorCode string

const (
	ErrCodeNotSupported      ErrorCode = "opcode not supported by kernel"
	ErrCodeRingFull          ErrorCode = "submission queue full"
	ErrCodeInvalidParameters ErrorCode = "invalid parameters"
	ErrCodeKernelNotSupported ErrorCode = "kernel does not support io_uring"
	ErrCodePermissionDenied  ErrorCode = "permission denied"
	ErrCodeInsufficientMemory ErrorCode = "insufficient memory"
	ErrCodeIOError           ErrorCode = "I/O error"
	ErrCodeTimeout           ErrorCode = "timeout"
	ErrCodeClosed            ErrorCode = "ring closed"
	ErrCodeEmpty             ErrorCode = "no completion available"
)

// NewError creates a new structured error not tied to a particular ring.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, RingFd: -1, Code: code, Msg: msg}
}

// NewErrorWithErrno creates a new structured error carrying a kernel errno.
func NewErrorWithErrno(op string, code ErrorCode, errno syscall.Errno) *Error {
	return &Error{Op: op, RingFd: -1, Code: code, Errno: errno, Msg: errno.Error()}
}

// NewRingError creates a new ring-scoped structured error.
func NewRingError(op string, ringFd int, code ErrorCode, msg string) *Error {
	return &Error{Op: op, RingFd: ringFd, Code: code, Msg: msg}
}

// WrapError wraps an existing error with operation context, mapping
// syscall.Errno values to an ErrorCode when possible.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}

	if ue, ok := inner.(*Error); ok {
		return &Error{
			Op:     op,
			RingFd: ue.RingFd,
			Opcode: ue.Opcode,
			Code:   ue.Code,
			Errno:  ue.Errno,
			Msg:    ue.Msg,
			Inner:  ue.Inner,
		}
	}

	// Syscall results reach here either as a bare syscall.Errno or wrapped
	// in an *os.SyscallError (os.NewSyscallError, used throughout
	// internal/sys); errors.As sees through both.
	var errno syscall.Errno
	if errors.As(inner, &errno) {
		return &Error{
			Op:     op,
			RingFd: -1,
			Code:   mapErrnoToCode(errno),
			Errno:  errno,
			Msg:    errno.Error(),
			Inner:  inner,
		}
	}

	return &Error{Op: op, RingFd: -1, Code: ErrCodeIOError, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.EINVAL, syscall.E2BIG:
		return ErrCodeInvalidParameters
	case syscall.ENOSYS, syscall.EOPNOTSUPP:
		return ErrCodeKernelNotSupported
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ENOMEM, syscall.ENOSPC:
		return ErrCodeInsufficientMemory
	case syscall.ETIMEDOUT, syscall.ETIME:
		return ErrCodeTimeout
	case syscall.EBUSY, syscall.EAGAIN:
		return ErrCodeRingFull
	default:
		return ErrCodeIOError
	}
}

// IsCode checks if an error matches a specific error code.
func IsCode(err error, code ErrorCode) bool {
	var ringErr *Error
	if errors.As(err, &ringErr) {
		return ringErr.Code == code
	}
	return false
}

// IsErrno checks if an error matches a specific errno.
func IsErrno(err error, errno syscall.Errno) bool {
	var ringErr *Error
	if errors.As(err, &ringErr) {
		return ringErr.Errno == errno
	}
	return false
}
