package iouring

import "github.com/cvln/iouring/internal/constants"

// Re-export sizing defaults for public API
const (
	DefaultEntries            = constants.DefaultEntries
	MaxEntries                = constants.MaxEntries
	MaxCQEntries              = constants.MaxCQEntries
	DefaultProbeBufferEntries = constants.DefaultProbeBufferEntries
)
