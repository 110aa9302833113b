package iouring

import (
	"unsafe"

	"github.com/cvln/iouring/internal/queue"
	"github.com/cvln/iouring/internal/sys"
	"github.com/cvln/iouring/internal/uapi"
)

// RegisterBuffers installs iov as the instance's fixed buffer table for
// IORING_OP_READ_FIXED/WRITE_FIXED; buffer index i in PrepReadFixed and
// PrepWriteFixed refers to iov[i].
func (inst *Instance) RegisterBuffers(iov []uapi.Iovec) error {
	if len(iov) == 0 {
		return NewRingError("RegisterBuffers", inst.fd, ErrCodeInvalidParameters, "empty buffer set")
	}
	err := sys.Register(inst.fd, uapi.RegisterBuffers, unsafe.Pointer(&iov[0]), uint32(len(iov)))
	if err != nil {
		return WrapError("RegisterBuffers", err)
	}
	return nil
}

// UnregisterBuffers removes the instance's fixed buffer table.
func (inst *Instance) UnregisterBuffers() error {
	if err := sys.Register(inst.fd, uapi.UnregisterBuffers, nil, 0); err != nil {
		return WrapError("UnregisterBuffers", err)
	}
	return nil
}

// RegisterFiles installs fds as the instance's fixed file table;
// SQE.SetFlags(uapi.SQEFixedFile) plus an SQE's Fd naming a table index
// then refers to one of these.
func (inst *Instance) RegisterFiles(fds []int32) error {
	if len(fds) == 0 {
		return NewRingError("RegisterFiles", inst.fd, ErrCodeInvalidParameters, "empty file set")
	}
	err := sys.Register(inst.fd, uapi.RegisterFiles, unsafe.Pointer(&fds[0]), uint32(len(fds)))
	if err != nil {
		return WrapError("RegisterFiles", err)
	}
	return nil
}

// UnregisterFiles removes the instance's fixed file table.
func (inst *Instance) UnregisterFiles() error {
	if err := sys.Register(inst.fd, uapi.UnregisterFiles, nil, 0); err != nil {
		return WrapError("UnregisterFiles", err)
	}
	return nil
}

// RegisterFilesUpdate replaces fds in the fixed file table starting at
// offset, without touching the rest of the table.
func (inst *Instance) RegisterFilesUpdate(offset uint32, fds []int32) error {
	if len(fds) == 0 {
		return NewRingError("RegisterFilesUpdate", inst.fd, ErrCodeInvalidParameters, "empty update set")
	}
	update := uapi.FilesUpdate{
		Offset: offset,
		Fds:    uint64(uintptr(unsafe.Pointer(&fds[0]))),
	}
	err := sys.Register(inst.fd, uapi.RegisterFilesUpdate, unsafe.Pointer(&update), uint32(len(fds)))
	if err != nil {
		return WrapError("RegisterFilesUpdate", err)
	}
	return nil
}

// RegisterEventfd arms fd to be signaled once per completion posted to
// this instance's CQ.
func (inst *Instance) RegisterEventfd(fd int) error {
	eventFd := int32(fd)
	err := sys.Register(inst.fd, uapi.RegisterEventFD, unsafe.Pointer(&eventFd), 1)
	if err != nil {
		return WrapError("RegisterEventfd", err)
	}
	return nil
}

// RegisterEventfdAsync is RegisterEventfd but only signals fd for
// completions that ran asynchronously (off the submitting thread),
// avoiding redundant wakeups for inline completions.
func (inst *Instance) RegisterEventfdAsync(fd int) error {
	eventFd := int32(fd)
	err := sys.Register(inst.fd, uapi.RegisterEventFDAsync, unsafe.Pointer(&eventFd), 1)
	if err != nil {
		return WrapError("RegisterEventfdAsync", err)
	}
	return nil
}

// UnregisterEventfd detaches any eventfd previously registered.
func (inst *Instance) UnregisterEventfd() error {
	if err := sys.Register(inst.fd, uapi.UnregisterEventFD, nil, 0); err != nil {
		return WrapError("UnregisterEventfd", err)
	}
	return nil
}

// RegisterPersonality installs the calling thread's current credentials
// as a personality the kernel will apply to SQEs that set Personality to
// the returned id.
func (inst *Instance) RegisterPersonality() (id int, err error) {
	n, regErr := sys.RegisterReturning(inst.fd, uapi.RegisterPersonality, nil, 0)
	if regErr != nil {
		return 0, WrapError("RegisterPersonality", regErr)
	}
	return n, nil
}

// UnregisterPersonality removes a previously registered personality id.
func (inst *Instance) UnregisterPersonality(id int) error {
	err := sys.Register(inst.fd, uapi.UnregisterPersonality, nil, uint32(id))
	if err != nil {
		return WrapError("UnregisterPersonality", err)
	}
	return nil
}

// RegisterProbe fills probe via IORING_REGISTER_PROBE, reporting which
// opcodes this kernel supports.
func (inst *Instance) RegisterProbe(probe *uapi.Probe) error {
	err := sys.Register(inst.fd, uapi.RegisterProbe, unsafe.Pointer(probe), uapi.ProbeOpMax)
	if err != nil {
		return WrapError("RegisterProbe", err)
	}
	return nil
}

// AcquireStagingBuffers allocates n pooled buffers of size bytes each
// from internal/queue's size-bucketed pool and returns them as an iovec
// table ready to hand to RegisterBuffers, for callers that don't want to
// manage their own fixed-buffer memory.
func AcquireStagingBuffers(n int, size uint32) []uapi.Iovec {
	iov := make([]uapi.Iovec, n)
	for i := range iov {
		buf := queue.GetBuffer(size)
		iov[i] = uapi.Iovec{Base: uintptr(unsafe.Pointer(&buf[0])), Len: uint64(len(buf))}
	}
	return iov
}

// ReleaseStagingBuffers returns buffers obtained via AcquireStagingBuffers
// to the pool. Only buffers whose size equals one of the pool's bucket
// sizes (128KB, 256KB, 512KB, 1MB) go back to the pool; other sizes are
// not pooled. Call only after UnregisterBuffers (or the owning
// instance's Close), once the kernel no longer holds pointers into this
// memory.
func ReleaseStagingBuffers(iov []uapi.Iovec) {
	for _, v := range iov {
		buf := unsafe.Slice((*byte)(unsafe.Pointer(v.Base)), v.Len)
		queue.PutBuffer(buf)
	}
}
