package uapi

import "unsafe"

// SQE is the 64-byte submission queue entry, laid out to match the
// kernel's struct io_uring_sqe exactly. It is never copied field-by-field
// across the user/kernel boundary: a slice of these is addressed directly
// inside the mmap'd SQE array by internal/ringmap.
type SQE struct {
	Opcode      uint8
	Flags       uint8
	IoPrio      uint16
	Fd          int32
	Off         uint64 // offset, or accept's addrlen-pointer slot, etc.
	Addr        uint64 // buffer/struct pointer encoded as an integer
	Len         uint32
	OpcodeFlags uint32 // union: rw_flags / fsync_flags / poll_flags / ...
	UserData    uint64
	BufIndex    uint16 // union: buf_index / buf_group
	Personality uint16
	SpliceFdIn  int32 // union: splice_fd_in / file_index
	Addr3       uint64
	_           uint64 // padding to 64 bytes
}

// Compile-time size check: must match the kernel's io_uring_sqe exactly.
var _ [64]byte = [unsafe.Sizeof(SQE{})]byte{}

// Reset clears every field so a reused slot carries no stale opcode flags.
// This is the uniform preparation step described in spec.md §4.4: the
// caller fills opcode/fd/addr/len/off, then only the one flag field that
// applies to the opcode.
func (s *SQE) Reset() {
	*s = SQE{}
}

// SetUserData stores the opaque 64-bit token returned verbatim on the CQE.
func (s *SQE) SetUserData(ud uint64) { s.UserData = ud }

// SetFlags ORs one or more IOSQE_* bits into the per-entry flags field.
func (s *SQE) SetFlags(flags uint8) { s.Flags |= flags }

// CQE is the 16-byte completion queue entry, matching io_uring_cqe.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// Compile-time size check.
var _ [16]byte = [unsafe.Sizeof(CQE{})]byte{}

// IsTimeoutSentinel reports whether this CQE is a library-injected timeout
// completion that must never be surfaced to the caller.
func (c *CQE) IsTimeoutSentinel() bool {
	return c.UserData == ReservedUserData
}

// SQOffsets mirrors struct io_sqring_offsets: where each SQ field lives
// inside the mapped SQ region, as reported by the kernel at setup time.
type SQOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Flags       uint32
	Dropped     uint32
	Array       uint32
	Resv1       uint32
	Resv2       uint64
}

// CQOffsets mirrors struct io_cqring_offsets.
type CQOffsets struct {
	Head        uint32
	Tail        uint32
	RingMask    uint32
	RingEntries uint32
	Overflow    uint32
	Cqes        uint32
	Flags       uint32
	Resv1       uint32
	Resv2       uint64
}

// Params is the in/out record passed to io_uring_setup(2): the caller
// fills Flags (and, for SetupSQPoll, SQThreadCPU/SQThreadIdle; for
// SetupCQSize, CQEntries); the kernel fills SQEntries, Features, and both
// offset blocks.
type Params struct {
	SQEntries    uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	Features     uint32
	WQFd         uint32
	Resv         [3]uint32
	SQOffset     SQOffsets
	CQOffset     CQOffsets
}

// Compile-time size check: io_uring_params is 120 bytes.
var _ [120]byte = [unsafe.Sizeof(Params{})]byte{}

// Iovec describes one fixed-buffer registration entry. Layout matches
// struct iovec (and, for IORING_REGISTER_BUFFERS, struct io_uring's
// expectation of an array of these).
type Iovec struct {
	Base uintptr
	Len  uint64
}

// ProbeOp is one entry of the kernel's supported-opcode table.
type ProbeOp struct {
	Op    uint8
	Resv  uint8
	Flags uint16 // bit 0 (ProbeOpSupported) set iff the op is supported
	Resv2 uint32
}

const ProbeOpSupported uint16 = 1 << 0

// Probe mirrors struct io_uring_probe: a header plus a flexible array of
// ProbeOp entries, the array sized to ProbeOpMax by the caller.
type Probe struct {
	LastOp uint8
	OpsLen uint8
	Resv   uint16
	Resv2  [3]uint32
	Ops    [ProbeOpMax]ProbeOp
}

// FilesUpdate mirrors struct io_uring_files_update: an offset into the
// registered file table plus a pointer to the replacement fd array.
type FilesUpdate struct {
	Offset uint32
	Resv   uint32
	Fds    uint64 // *int32 array, encoded as an integer
}

// TimeSpec mirrors the kernel's __kernel_timespec, used by timeout,
// timeout_remove, and link_timeout SQEs.
type TimeSpec struct {
	Sec  int64
	Nsec int64
}

// Msghdr mirrors struct user_msghdr for sendmsg/recvmsg preparation.
type Msghdr struct {
	Name       uintptr
	NameLen    uint32
	_          uint32
	Iov        uintptr
	IovLen     uint64
	Control    uintptr
	ControlLen uint64
	Flags      int32
	_          int32
}

// OpenHow mirrors struct open_how, used by PrepOpenat2.
type OpenHow struct {
	Flags   uint64
	Mode    uint64
	Resolve uint64
}

// Statx mirrors enough of struct statx to size the statx buffer for
// PrepStatx callers; the kernel fills it, this library never interprets it.
type Statx struct {
	Mask           uint32
	Blksize        uint32
	Attributes     uint64
	Nlink          uint32
	UID            uint32
	GID            uint32
	Mode           uint16
	_              uint16
	Ino            uint64
	Size           uint64
	Blocks         uint64
	AttributesMask uint64
	_              [112]byte
}

// EpollEvent mirrors struct epoll_event for PrepEpollCtl.
type EpollEvent struct {
	Events uint32
	Data   uint64
}
