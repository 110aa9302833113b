package iouring

import (
	"unsafe"

	"github.com/cvln/iouring/internal/uapi"
)

// prepRW is the uniform preparation step every wrapper below builds on:
// it sets the common opcode/fd/addr/length/offset fields and leaves the
// per-opcode flag field (OpcodeFlags, BufIndex, SpliceFdIn) for the
// caller to fill in afterward. The SQE arrives already zeroed by GetSQE.
func prepRW(sqe *uapi.SQE, op uapi.Opcode, fd int32, addr uint64, length uint32, offset uint64) {
	sqe.Opcode = uint8(op)
	sqe.Fd = fd
	sqe.Addr = addr
	sqe.Len = length
	sqe.Off = offset
}

func ptrToU64(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p))
}

// PrepNop prepares a no-op SQE; it carries no payload beyond the opcode.
func PrepNop(sqe *uapi.SQE) {
	prepRW(sqe, uapi.OpNop, -1, 0, 0, 0)
}

// PrepReadv prepares a vectored read from fd at the given offset.
func PrepReadv(sqe *uapi.SQE, fd int, iov []uapi.Iovec, offset uint64) {
	prepRW(sqe, uapi.OpReadv, int32(fd), ptrToU64(unsafe.Pointer(&iov[0])), uint32(len(iov)), offset)
}

// PrepWritev prepares a vectored write to fd at the given offset.
func PrepWritev(sqe *uapi.SQE, fd int, iov []uapi.Iovec, offset uint64) {
	prepRW(sqe, uapi.OpWritev, int32(fd), ptrToU64(unsafe.Pointer(&iov[0])), uint32(len(iov)), offset)
}

// PrepRead prepares an unregistered buffer read from fd at the given offset.
func PrepRead(sqe *uapi.SQE, fd int, buf []byte, offset uint64) {
	var base unsafe.Pointer
	if len(buf) > 0 {
		base = unsafe.Pointer(&buf[0])
	}
	prepRW(sqe, uapi.OpRead, int32(fd), ptrToU64(base), uint32(len(buf)), offset)
}

// PrepWrite prepares an unregistered buffer write to fd at the given offset.
func PrepWrite(sqe *uapi.SQE, fd int, buf []byte, offset uint64) {
	var base unsafe.Pointer
	if len(buf) > 0 {
		base = unsafe.Pointer(&buf[0])
	}
	prepRW(sqe, uapi.OpWrite, int32(fd), ptrToU64(base), uint32(len(buf)), offset)
}

// PrepReadFixed prepares a read into a buffer registered at bufIndex via
// RegisterBuffers.
func PrepReadFixed(sqe *uapi.SQE, fd int, buf []byte, offset uint64, bufIndex uint16) {
	PrepRead(sqe, fd, buf, offset)
	sqe.Opcode = uint8(uapi.OpReadFixed)
	sqe.BufIndex = bufIndex
}

// PrepWriteFixed prepares a write from a buffer registered at bufIndex.
func PrepWriteFixed(sqe *uapi.SQE, fd int, buf []byte, offset uint64, bufIndex uint16) {
	PrepWrite(sqe, fd, buf, offset)
	sqe.Opcode = uint8(uapi.OpWriteFixed)
	sqe.BufIndex = bufIndex
}

// PrepFsync prepares an fsync/fdatasync; pass uapi.FsyncDatasync in flags
// to request fdatasync semantics.
func PrepFsync(sqe *uapi.SQE, fd int, flags uint32) {
	prepRW(sqe, uapi.OpFsync, int32(fd), 0, 0, 0)
	sqe.OpcodeFlags = flags
}

// PrepPollAdd prepares a poll request for fd against the given poll mask
// (POLLIN, POLLOUT, ...).
func PrepPollAdd(sqe *uapi.SQE, fd int, pollMask uint16) {
	prepRW(sqe, uapi.OpPollAdd, int32(fd), 0, 0, 0)
	sqe.OpcodeFlags = uint32(pollMask)
}

// PrepPollRemove prepares cancellation of a pending poll request, keyed
// by the user-data token of the original poll_add SQE.
func PrepPollRemove(sqe *uapi.SQE, targetUserData uint64) {
	prepRW(sqe, uapi.OpPollRemove, -1, targetUserData, 0, 0)
}

// PrepTimeout prepares a timeout completing after ts elapses (relative
// by default; pass uapi.TimeoutAbs in flags for an absolute deadline).
// count is the number of other completions that satisfy the wait early
// (0 means only the timeout itself completes it).
func PrepTimeout(sqe *uapi.SQE, ts *uapi.TimeSpec, count uint32, flags uint32) {
	prepTimeout(sqe, ts, count, flags)
}

func prepTimeout(sqe *uapi.SQE, ts *uapi.TimeSpec, count uint32, flags uint32) {
	prepRW(sqe, uapi.OpTimeout, -1, ptrToU64(unsafe.Pointer(ts)), 1, uint64(count))
	sqe.OpcodeFlags = flags
}

// PrepTimeoutRemove prepares cancellation of a pending timeout, keyed by
// the user-data token of the original timeout SQE.
func PrepTimeoutRemove(sqe *uapi.SQE, targetUserData uint64, flags uint32) {
	prepRW(sqe, uapi.OpTimeoutRemove, -1, targetUserData, 0, 0)
	sqe.OpcodeFlags = flags
}

// PrepLinkTimeout prepares a timeout linked to the preceding SQE via
// IOSQE_IO_LINK; it bounds how long that SQE is allowed to run.
func PrepLinkTimeout(sqe *uapi.SQE, ts *uapi.TimeSpec, flags uint32) {
	prepRW(sqe, uapi.OpLinkTimeout, -1, ptrToU64(unsafe.Pointer(ts)), 0, 0)
	sqe.OpcodeFlags = flags
}

// PrepAccept prepares an accept4-style call; addrLen must point at the
// caller-owned socklen_t tracking sockaddr's capacity.
func PrepAccept(sqe *uapi.SQE, fd int, sockaddr unsafe.Pointer, addrLen *uint32, flags uint32) {
	prepRW(sqe, uapi.OpAccept, int32(fd), ptrToU64(sockaddr), 0, ptrToU64(unsafe.Pointer(addrLen)))
	sqe.OpcodeFlags = flags
}

// PrepConnect prepares a connect(2) call against the given sockaddr.
func PrepConnect(sqe *uapi.SQE, fd int, sockaddr unsafe.Pointer, addrLen uint32) {
	prepRW(sqe, uapi.OpConnect, int32(fd), ptrToU64(sockaddr), 0, uint64(addrLen))
}

// PrepSendmsg prepares a sendmsg(2) call.
func PrepSendmsg(sqe *uapi.SQE, fd int, msg *uapi.Msghdr, flags uint32) {
	prepRW(sqe, uapi.OpSendmsg, int32(fd), ptrToU64(unsafe.Pointer(msg)), 1, 0)
	sqe.OpcodeFlags = flags
}

// PrepRecvmsg prepares a recvmsg(2) call.
func PrepRecvmsg(sqe *uapi.SQE, fd int, msg *uapi.Msghdr, flags uint32) {
	prepRW(sqe, uapi.OpRecvmsg, int32(fd), ptrToU64(unsafe.Pointer(msg)), 1, 0)
	sqe.OpcodeFlags = flags
}

// PrepSend prepares a send(2) call over an unregistered buffer.
func PrepSend(sqe *uapi.SQE, sockfd int, buf []byte, flags uint32) {
	var base unsafe.Pointer
	if len(buf) > 0 {
		base = unsafe.Pointer(&buf[0])
	}
	prepRW(sqe, uapi.OpSend, int32(sockfd), ptrToU64(base), uint32(len(buf)), 0)
	sqe.OpcodeFlags = flags
}

// PrepRecv prepares a recv(2) call into an unregistered buffer.
func PrepRecv(sqe *uapi.SQE, sockfd int, buf []byte, flags uint32) {
	var base unsafe.Pointer
	if len(buf) > 0 {
		base = unsafe.Pointer(&buf[0])
	}
	prepRW(sqe, uapi.OpRecv, int32(sockfd), ptrToU64(base), uint32(len(buf)), 0)
	sqe.OpcodeFlags = flags
}

// PrepCancel prepares cancellation of a pending operation, keyed by its
// user-data token.
func PrepCancel(sqe *uapi.SQE, targetUserData uint64, flags uint32) {
	prepRW(sqe, uapi.OpAsyncCancel, -1, targetUserData, 0, 0)
	sqe.OpcodeFlags = flags
}

// PrepFilesUpdate prepares an incremental update of the registered fixed
// file table: fds replaces the table starting at offset.
func PrepFilesUpdate(sqe *uapi.SQE, fds []int32, offset uint32) {
	var base unsafe.Pointer
	if len(fds) > 0 {
		base = unsafe.Pointer(&fds[0])
	}
	prepRW(sqe, uapi.OpFilesUpdate, -1, ptrToU64(base), uint32(len(fds)), uint64(offset))
}

// PrepFallocate prepares an fallocate(2) call.
func PrepFallocate(sqe *uapi.SQE, fd int, mode uint32, offset uint64, length uint64) {
	prepRW(sqe, uapi.OpFallocate, int32(fd), length, mode, offset)
}

// PrepOpenat prepares an openat(2) call against a path the caller keeps
// alive until the SQE is consumed.
func PrepOpenat(sqe *uapi.SQE, dfd int, path *byte, flags uint32, mode uint32) {
	prepRW(sqe, uapi.OpOpenat, int32(dfd), ptrToU64(unsafe.Pointer(path)), mode, 0)
	sqe.OpcodeFlags = flags
}

// PrepOpenat2 prepares an openat2(2) call using the extended open_how
// struct.
func PrepOpenat2(sqe *uapi.SQE, dfd int, path *byte, how *uapi.OpenHow) {
	prepRW(sqe, uapi.OpOpenat2, int32(dfd), ptrToU64(unsafe.Pointer(path)), uint32(unsafe.Sizeof(*how)), ptrToU64(unsafe.Pointer(how)))
}

// PrepClose prepares a close(2) call on fd.
func PrepClose(sqe *uapi.SQE, fd int) {
	prepRW(sqe, uapi.OpClose, int32(fd), 0, 0, 0)
}

// PrepStatx prepares a statx(2) call; buf receives the kernel's result.
func PrepStatx(sqe *uapi.SQE, dfd int, path *byte, flags uint32, mask uint32, buf *uapi.Statx) {
	prepRW(sqe, uapi.OpStatx, int32(dfd), ptrToU64(unsafe.Pointer(path)), mask, ptrToU64(unsafe.Pointer(buf)))
	sqe.OpcodeFlags = flags
}

// PrepFadvise prepares an fadvise(2) call.
func PrepFadvise(sqe *uapi.SQE, fd int, offset uint64, length uint32, advice uint32) {
	prepRW(sqe, uapi.OpFadvise, int32(fd), 0, length, offset)
	sqe.OpcodeFlags = advice
}

// PrepMadvise prepares an madvise(2) call over the region [addr, addr+length).
func PrepMadvise(sqe *uapi.SQE, addr unsafe.Pointer, length uint32, advice uint32) {
	prepRW(sqe, uapi.OpMadvise, -1, ptrToU64(addr), length, 0)
	sqe.OpcodeFlags = advice
}

// PrepSplice prepares a splice(2) call between fdIn and fdOut.
func PrepSplice(sqe *uapi.SQE, fdOut int, offOut int64, fdIn int, offIn int64, length uint32, flags uint32) {
	prepRW(sqe, uapi.OpSplice, int32(fdOut), 0, length, uint64(offOut))
	sqe.SpliceFdIn = int32(fdIn)
	sqe.Addr3 = uint64(offIn)
	sqe.OpcodeFlags = flags
}

// PrepEpollCtl prepares an epoll_ctl(2) call registering fd against epfd.
func PrepEpollCtl(sqe *uapi.SQE, epfd int, fd int, op uint32, event *uapi.EpollEvent) {
	prepRW(sqe, uapi.OpEpollCtl, int32(epfd), ptrToU64(unsafe.Pointer(event)), op, uint64(fd))
}

// PrepProvideBuffers prepares registration of count buffers of length
// bufLen starting at addr, assigned buffer ids starting at startBid
// within group bgid, for later buffer-select consumption.
func PrepProvideBuffers(sqe *uapi.SQE, addr unsafe.Pointer, bufLen int, count int, bgid uint16, startBid int) {
	prepRW(sqe, uapi.OpProvideBuffers, int32(count), ptrToU64(addr), uint32(bufLen), uint64(startBid))
	sqe.BufIndex = bgid
}

// PrepRemoveBuffers prepares removal of up to count buffers from group bgid.
func PrepRemoveBuffers(sqe *uapi.SQE, count int, bgid uint16) {
	prepRW(sqe, uapi.OpRemoveBuffers, int32(count), 0, 0, 0)
	sqe.BufIndex = bgid
}
