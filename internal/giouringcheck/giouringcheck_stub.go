//go:build !giouring

// Package giouringcheck cross-checks the pure-Go ring math in
// internal/ringmap against pawelgaczynski/giouring. The real
// implementation only builds with -tags giouring; this stub keeps the
// package importable otherwise and reports that the check was skipped.
package giouringcheck

import (
	"fmt"
	"time"
)

// Ring is unavailable without the giouring build tag.
type Ring struct{}

// New always fails without the giouring build tag.
func New(entries uint32) (*Ring, error) {
	return nil, fmt.Errorf("giouringcheck: built without -tags giouring")
}

// Close is a no-op on the stub.
func (r *Ring) Close() {}

// NopRoundTrip is unreachable on the stub; New always errors first.
func (r *Ring) NopRoundTrip(userData uint64, timeout time.Duration) (res int32, gotUserData uint64, err error) {
	return 0, 0, fmt.Errorf("giouringcheck: built without -tags giouring")
}
