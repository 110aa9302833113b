// Package barrier provides the acquire/release load-store primitives that
// keep the shared SQ/CQ indices consistent across the user/kernel
// boundary. The kernel is not a Go goroutine, so these operate on raw
// pointers into mmap'd memory rather than on atomic.Value-wrapped fields.
package barrier

import "sync/atomic"

// fenceWord is used purely for its side effect: atomic.AddUint32 on
// x86-64 and arm64 compiles to an instruction with full fence semantics,
// giving Sfence/Mfence a fence with no real contention.
var fenceWord uint32

// Sfence issues a store-fence: prior writes are visible before it returns.
func Sfence() {
	atomic.AddUint32(&fenceWord, 0)
}

// Mfence issues a full fence.
func Mfence() {
	atomic.AddUint32(&fenceWord, 0)
}

// LoadAcquire reads a shared ring index with acquire semantics: no read
// that follows in program order may be hoisted above it, so content the
// other side published before updating this index is visible afterward.
func LoadAcquire(p *uint32) uint32 {
	return atomic.LoadUint32(p)
}

// StoreRelease writes a shared ring index with release semantics: no
// write that precedes it in program order may sink below it, so content
// this side wrote is visible to the other side once it observes the
// new value.
func StoreRelease(p *uint32, v uint32) {
	atomic.StoreUint32(p, v)
}
