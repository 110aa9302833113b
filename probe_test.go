package iouring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cvln/iouring/internal/uapi"
)

func TestOpcodeSupportedRespectsLastOp(t *testing.T) {
	probe := &uapi.Probe{LastOp: uint8(uapi.OpWrite)}
	probe.Ops[uapi.OpNop].Flags = uapi.ProbeOpSupported
	probe.Ops[uapi.OpRead].Flags = 0

	require.True(t, OpcodeSupported(probe, uapi.OpNop))
	require.False(t, OpcodeSupported(probe, uapi.OpRead), "stored but unset supported bit means unsupported")
	require.False(t, OpcodeSupported(probe, uapi.OpSplice), "opcode beyond LastOp is always unsupported")
}
