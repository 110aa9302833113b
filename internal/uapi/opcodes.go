// Package uapi holds the wire-level definitions shared with the kernel:
// the SQE/CQE layouts, the io_uring_params record, ring offsets, and the
// opcode/flag constants from linux/io_uring.h. Nothing in this package
// talks to the kernel directly; internal/sys and internal/ringmap do.
package uapi

// Opcode identifies the operation an SQE requests (IORING_OP_*).
type Opcode uint8

const (
	OpNop Opcode = iota
	OpReadv
	OpWritev
	OpFsync
	OpReadFixed
	OpWriteFixed
	OpPollAdd
	OpPollRemove
	OpSyncFileRange
	OpSendmsg
	OpRecvmsg
	OpTimeout
	OpTimeoutRemove
	OpAccept
	OpAsyncCancel
	OpLinkTimeout
	OpConnect
	OpFallocate
	OpOpenat
	OpClose
	OpFilesUpdate
	OpStatx
	OpRead
	OpWrite
	OpFadvise
	OpMadvise
	OpSend
	OpRecv
	OpOpenat2
	OpEpollCtl
	OpSplice
	OpProvideBuffers
	OpRemoveBuffers
	OpTee
	OpShutdown
)

// ProbeOpMax bounds the probe table; generous relative to the opcode set
// above so a newer kernel's higher opcodes still report as "not probed"
// rather than being truncated.
const ProbeOpMax = 256

// RegisterOp identifies an io_uring_register(2) sub-operation
// (IORING_REGISTER_*).
type RegisterOp uint32

const (
	RegisterBuffers RegisterOp = iota
	UnregisterBuffers
	RegisterFiles
	UnregisterFiles
	RegisterEventFD
	UnregisterEventFD
	RegisterFilesUpdate
	RegisterEventFDAsync
	RegisterProbe
	RegisterPersonality
	UnregisterPersonality
)

// Setup flags (IORING_SETUP_*), passed into io_uring_setup's params.Flags.
const (
	SetupIOPoll     uint32 = 1 << 0
	SetupSQPoll     uint32 = 1 << 1
	SetupSQAff      uint32 = 1 << 2
	SetupCQSize     uint32 = 1 << 3
	SetupClamp      uint32 = 1 << 4
	SetupAttachWQ   uint32 = 1 << 5
	SetupRDisabled  uint32 = 1 << 6
)

// Feature flags (IORING_FEAT_*) reported back by the kernel in params.Features.
const (
	FeatSingleMmap     uint32 = 1 << 0
	FeatNoDrop         uint32 = 1 << 1
	FeatSubmitStable   uint32 = 1 << 2
	FeatRWCurPos       uint32 = 1 << 3
	FeatCurPersonality uint32 = 1 << 4
	FeatFastPoll       uint32 = 1 << 5
	FeatPoll32Bits     uint32 = 1 << 6
	FeatSQPollNonfixed uint32 = 1 << 7
	FeatExtArg         uint32 = 1 << 8
)

// SQ ring flags (IORING_SQ_*), read out of the mapped sq.flags word.
const (
	SQNeedWakeup  uint32 = 1 << 0
	SQCQOverflow  uint32 = 1 << 1
)

// enter(2) flags (IORING_ENTER_*).
const (
	EnterGetEvents uint32 = 1 << 0
	EnterSQWakeup  uint32 = 1 << 1
	EnterExtArg    uint32 = 1 << 3
)

// Per-SQE flags (IOSQE_*), set via SQE.SetFlags.
const (
	SQEFixedFile   uint8 = 1 << 0
	SQEIODrain     uint8 = 1 << 1
	SQEIOLink      uint8 = 1 << 2
	SQEIOHardlink  uint8 = 1 << 3
	SQEAsync       uint8 = 1 << 4
	SQEBufferSelect uint8 = 1 << 5
)

// fsync flags (IORING_FSYNC_DATASYNC).
const FsyncDatasync uint32 = 1 << 0

// timeout flags (IORING_TIMEOUT_ABS and friends).
const (
	TimeoutAbs uint32 = 1 << 0
)

// accept flags.
const AcceptMultishot uint32 = 1 << 0

// splice flags; high bit selects "fd_in is a registered (fixed) file"
// semantics in the real kernel ABI (SPLICE_F_FD_IN_FIXED), kept here for
// completeness.
const SpliceFFDInFixed uint32 = 1 << 31

// The three syscall offsets used by mmap(2) against the instance fd.
const (
	OffSQRing uint64 = 0
	OffCQRing uint64 = 0x8000000
	OffSQEs   uint64 = 0x10000000
)

// ReservedUserData is the sentinel tagging library-injected timeout SQEs.
// Application code must never use this value as its own user-data token.
const ReservedUserData uint64 = ^uint64(0)
