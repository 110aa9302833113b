package iouring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/cvln/iouring/internal/uapi"
)

func TestPrepNop(t *testing.T) {
	var sqe uapi.SQE
	PrepNop(&sqe)
	require.Equal(t, uint8(uapi.OpNop), sqe.Opcode)
}

func TestPrepReadWrite(t *testing.T) {
	var sqe uapi.SQE
	buf := make([]byte, 64)
	PrepRead(&sqe, 5, buf, 128)
	// Taken before any require call: buf may live on this goroutine's
	// stack, which can move when a later call grows it.
	wantAddr := uint64(uintptr(unsafe.Pointer(&buf[0])))

	require.Equal(t, uint8(uapi.OpRead), sqe.Opcode)
	require.Equal(t, int32(5), sqe.Fd)
	require.Equal(t, uint32(64), sqe.Len)
	require.Equal(t, uint64(128), sqe.Off)
	require.Equal(t, wantAddr, sqe.Addr)

	var wsqe uapi.SQE
	PrepWrite(&wsqe, 5, buf, 256)
	require.Equal(t, uint8(uapi.OpWrite), wsqe.Opcode)
	require.Equal(t, uint64(256), wsqe.Off)
}

func TestPrepReadFixedSetsBufIndex(t *testing.T) {
	var sqe uapi.SQE
	buf := make([]byte, 32)
	PrepReadFixed(&sqe, 5, buf, 0, 3)
	require.Equal(t, uint8(uapi.OpReadFixed), sqe.Opcode)
	require.Equal(t, uint16(3), sqe.BufIndex)
}

func TestPrepFsyncFlags(t *testing.T) {
	var sqe uapi.SQE
	PrepFsync(&sqe, 7, uapi.FsyncDatasync)
	require.Equal(t, uint8(uapi.OpFsync), sqe.Opcode)
	require.Equal(t, uapi.FsyncDatasync, sqe.OpcodeFlags)
}

func TestPrepPollAddAndRemove(t *testing.T) {
	var add uapi.SQE
	PrepPollAdd(&add, 9, 0x1) // POLLIN
	require.Equal(t, uint8(uapi.OpPollAdd), add.Opcode)
	require.Equal(t, uint32(0x1), add.OpcodeFlags)

	var remove uapi.SQE
	PrepPollRemove(&remove, 0xabc)
	require.Equal(t, uint8(uapi.OpPollRemove), remove.Opcode)
	require.Equal(t, uint64(0xabc), remove.Addr)
}

func TestPrepTimeoutAndRemove(t *testing.T) {
	var sqe uapi.SQE
	ts := &uapi.TimeSpec{Sec: 1}
	PrepTimeout(&sqe, ts, 0, uapi.TimeoutAbs)
	wantAddr := uint64(uintptr(unsafe.Pointer(ts))) // before the stack can move
	require.Equal(t, uint8(uapi.OpTimeout), sqe.Opcode)
	require.Equal(t, uapi.TimeoutAbs, sqe.OpcodeFlags)
	require.Equal(t, wantAddr, sqe.Addr)

	var remove uapi.SQE
	PrepTimeoutRemove(&remove, 0xdead, 0)
	require.Equal(t, uint8(uapi.OpTimeoutRemove), remove.Opcode)
	require.Equal(t, uint64(0xdead), remove.Addr)
}

func TestPrepAcceptAndConnect(t *testing.T) {
	var sockaddr [16]byte
	var addrLen uint32 = 16

	var accept uapi.SQE
	PrepAccept(&accept, 4, unsafe.Pointer(&sockaddr[0]), &addrLen, uapi.AcceptMultishot)
	require.Equal(t, uint8(uapi.OpAccept), accept.Opcode)
	require.Equal(t, uapi.AcceptMultishot, accept.OpcodeFlags)

	var connect uapi.SQE
	PrepConnect(&connect, 4, unsafe.Pointer(&sockaddr[0]), 16)
	require.Equal(t, uint8(uapi.OpConnect), connect.Opcode)
	require.Equal(t, uint64(16), connect.Off)
}

func TestPrepCancelAndFilesUpdate(t *testing.T) {
	var cancel uapi.SQE
	PrepCancel(&cancel, 0x1234, 0)
	require.Equal(t, uint8(uapi.OpAsyncCancel), cancel.Opcode)
	require.Equal(t, uint64(0x1234), cancel.Addr)

	var update uapi.SQE
	fds := []int32{1, 2, 3}
	PrepFilesUpdate(&update, fds, 5)
	require.Equal(t, uint8(uapi.OpFilesUpdate), update.Opcode)
	require.Equal(t, uint32(3), update.Len)
	require.Equal(t, uint64(5), update.Off)
}

func TestPrepOpenatClose(t *testing.T) {
	path := []byte("/tmp/x\x00")
	var openat uapi.SQE
	PrepOpenat(&openat, -1, &path[0], 0, 0o644)
	require.Equal(t, uint8(uapi.OpOpenat), openat.Opcode)

	var close uapi.SQE
	PrepClose(&close, 42)
	require.Equal(t, uint8(uapi.OpClose), close.Opcode)
	require.Equal(t, int32(42), close.Fd)
}

func TestPrepProvideAndRemoveBuffers(t *testing.T) {
	buf := make([]byte, 4096)
	var provide uapi.SQE
	PrepProvideBuffers(&provide, unsafe.Pointer(&buf[0]), 4096, 1, 7, 0)
	require.Equal(t, uint8(uapi.OpProvideBuffers), provide.Opcode)
	require.Equal(t, uint16(7), provide.BufIndex)

	var remove uapi.SQE
	PrepRemoveBuffers(&remove, 1, 7)
	require.Equal(t, uint8(uapi.OpRemoveBuffers), remove.Opcode)
	require.Equal(t, uint16(7), remove.BufIndex)
}
