package iouring

import "github.com/cvln/iouring/internal/uapi"

// GetProbeRing fills and returns a probe of the opcodes inst's kernel
// supports, reusing the already-open instance.
func GetProbeRing(inst *Instance) (*uapi.Probe, error) {
	probe := &uapi.Probe{}
	if err := inst.RegisterProbe(probe); err != nil {
		return nil, err
	}
	return probe, nil
}

// GetProbe opens a small self-contained instance purely to query opcode
// support, then tears it down; use this when the caller doesn't already
// have an Instance open.
func GetProbe() (*uapi.Probe, error) {
	inst, err := Setup(2)
	if err != nil {
		return nil, err
	}
	defer inst.Close()
	return GetProbeRing(inst)
}

// OpcodeSupported answers from a previously filled probe: false if op
// exceeds the kernel's reported LastOp, else the stored supported bit.
func OpcodeSupported(probe *uapi.Probe, op uapi.Opcode) bool {
	if uint8(op) > probe.LastOp {
		return false
	}
	return probe.Ops[op].Flags&uapi.ProbeOpSupported != 0
}
