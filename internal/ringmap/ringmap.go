// Package ringmap memory-maps the SQ ring, CQ ring, and SQE array into
// process space and computes pointers into them from the kernel-reported
// offsets in uapi.Params. It never hard-codes a field's position — every
// pointer is derived from params.SQOffset/params.CQOffset, per spec.md §6.
package ringmap

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/cvln/iouring/internal/uapi"
)

// MmapFunc abstracts the mmap(2) call so tests can substitute a plain
// in-process arena for the real kernel-backed mapping; DefaultMmap
// wraps golang.org/x/sys/unix for production use.
type MmapFunc func(fd int, offset int64, length int) ([]byte, error)

// MunmapFunc is the matching teardown half of MmapFunc.
type MunmapFunc func(b []byte) error

// SQRing is the user-space view of the submission ring, per spec.md §3.
type SQRing struct {
	Head        *uint32
	Tail        *uint32
	RingMask    *uint32
	RingEntries *uint32
	Flags       *uint32
	Dropped     *uint32
	Array       []uint32
	SQEs        []uapi.SQE

	// Private cursors: sqe_head (oldest reserved-but-unpublished) and
	// sqe_tail (next free slot). Never read or written by the kernel.
	SqeHead uint32
	SqeTail uint32
}

// CQRing is the user-space view of the completion ring.
type CQRing struct {
	Head        *uint32
	Tail        *uint32
	RingMask    *uint32
	RingEntries *uint32
	Overflow    *uint32
	Flags       *uint32
	CQEs        []uapi.CQE
}

// Mapping owns the three (or two, under single-mmap) mapped regions for
// one instance and the SQ/CQ pointer structures derived from them.
type Mapping struct {
	munmap MunmapFunc

	sqRegion   []byte
	cqRegion   []byte // nil when coalesced into sqRegion (single-mmap)
	sqesRegion []byte

	SQ SQRing
	CQ CQRing
}

// New memory-maps the three regions described by params (already filled
// in by io_uring_setup) and computes every pointer spec.md §3 names. On
// any failure it unmaps whatever it already mapped before returning.
func New(fd int, params *uapi.Params, mmap MmapFunc, munmap MunmapFunc) (*Mapping, error) {
	m := &Mapping{munmap: munmap}

	sqSize := int(params.SQOffset.Array + params.SQEntries*4)
	cqeSize := uint32(unsafe.Sizeof(uapi.CQE{}))
	cqSize := int(params.CQOffset.Cqes + params.CQEntries*cqeSize)

	singleMmap := params.Features&uapi.FeatSingleMmap != 0
	if singleMmap && cqSize > sqSize {
		sqSize = cqSize
	} else if singleMmap {
		cqSize = sqSize
	}

	sqRegion, err := mmap(fd, int64(uapi.OffSQRing), sqSize)
	if err != nil {
		return nil, fmt.Errorf("mmap sq ring: %w", err)
	}
	m.sqRegion = sqRegion

	var cqRegion []byte
	if singleMmap {
		cqRegion = sqRegion
	} else {
		cqRegion, err = mmap(fd, int64(uapi.OffCQRing), cqSize)
		if err != nil {
			m.Close()
			return nil, fmt.Errorf("mmap cq ring: %w", err)
		}
		m.cqRegion = cqRegion
	}

	sqeSize := uint32(unsafe.Sizeof(uapi.SQE{}))
	sqesRegion, err := mmap(fd, int64(uapi.OffSQEs), int(params.SQEntries*sqeSize))
	if err != nil {
		m.Close()
		return nil, fmt.Errorf("mmap sqe array: %w", err)
	}
	m.sqesRegion = sqesRegion

	m.SQ = sqRingFromRegion(sqRegion, &params.SQOffset, params.SQEntries)
	m.SQ.SQEs = sqeSliceFromRegion(sqesRegion, params.SQEntries)
	m.CQ = cqRingFromRegion(cqRegion, &params.CQOffset, params.CQEntries)

	return m, nil
}

// Close unmaps every region this Mapping owns. Safe to call on a Mapping
// that failed partway through construction, and safe to call more than
// once (each region is unmapped at most once, then nilled).
func (m *Mapping) Close() error {
	var firstErr error
	unmapOnce := func(region *[]byte) {
		if *region == nil {
			return
		}
		if err := m.munmap(*region); err != nil && firstErr == nil {
			firstErr = err
		}
		*region = nil
	}

	unmapOnce(&m.sqesRegion)
	if m.cqRegion != nil {
		unmapOnce(&m.cqRegion)
	} else {
		// single-mmap: cqRegion aliases sqRegion and was never mapped
		// separately, so only unmap sqRegion below.
	}
	unmapOnce(&m.sqRegion)
	return firstErr
}

func ptrAt(region []byte, offset uint32) uintptr {
	return uintptr(unsafe.Pointer(&region[0])) + uintptr(offset)
}

func sqRingFromRegion(region []byte, off *uapi.SQOffsets, entries uint32) SQRing {
	return SQRing{
		Head:        (*uint32)(unsafe.Pointer(ptrAt(region, off.Head))),
		Tail:        (*uint32)(unsafe.Pointer(ptrAt(region, off.Tail))),
		RingMask:    (*uint32)(unsafe.Pointer(ptrAt(region, off.RingMask))),
		RingEntries: (*uint32)(unsafe.Pointer(ptrAt(region, off.RingEntries))),
		Flags:       (*uint32)(unsafe.Pointer(ptrAt(region, off.Flags))),
		Dropped:     (*uint32)(unsafe.Pointer(ptrAt(region, off.Dropped))),
		Array:       u32SliceFromRegion(region, off.Array, entries),
	}
}

func cqRingFromRegion(region []byte, off *uapi.CQOffsets, entries uint32) CQRing {
	cqeSize := uint32(unsafe.Sizeof(uapi.CQE{}))
	base := ptrAt(region, off.Cqes)
	var cqes []uapi.CQE
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&cqes))
	hdr.Data = base
	hdr.Len = int(entries)
	hdr.Cap = int(entries)
	_ = cqeSize
	return CQRing{
		Head:        (*uint32)(unsafe.Pointer(ptrAt(region, off.Head))),
		Tail:        (*uint32)(unsafe.Pointer(ptrAt(region, off.Tail))),
		RingMask:    (*uint32)(unsafe.Pointer(ptrAt(region, off.RingMask))),
		RingEntries: (*uint32)(unsafe.Pointer(ptrAt(region, off.RingEntries))),
		Overflow:    (*uint32)(unsafe.Pointer(ptrAt(region, off.Overflow))),
		Flags:       (*uint32)(unsafe.Pointer(ptrAt(region, off.Flags))),
		CQEs:        cqes,
	}
}

func u32SliceFromRegion(region []byte, offset, entries uint32) []uint32 {
	var s []uint32
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	hdr.Data = ptrAt(region, offset)
	hdr.Len = int(entries)
	hdr.Cap = int(entries)
	return s
}

func sqeSliceFromRegion(region []byte, entries uint32) []uapi.SQE {
	var s []uapi.SQE
	hdr := (*reflect.SliceHeader)(unsafe.Pointer(&s))
	hdr.Data = uintptr(unsafe.Pointer(&region[0]))
	hdr.Len = int(entries)
	hdr.Cap = int(entries)
	return s
}
