// Package constants holds ring-sizing defaults shared across the library.
package constants

const (
	// DefaultEntries is used by callers that don't size their own ring.
	DefaultEntries = 256

	// MaxEntries bounds how large a single ring may request without
	// SetupClamp; mirrors IORING_MAX_ENTRIES on current kernels.
	MaxEntries = 1 << 15

	// MaxCQEntries bounds CQSize requests without SetupClamp.
	MaxCQEntries = 2 * MaxEntries

	// DefaultProbeBufferEntries is the number of opcode slots in the
	// probe table GetProbe/GetProbeRing fill; that table is sized by
	// uapi.ProbeOpMax, which has the same value.
	DefaultProbeBufferEntries = 256
)