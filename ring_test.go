package iouring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestInstance(t *testing.T, entries uint32) (*Instance, *FakeKernel) {
	t.Helper()
	fk := NewFakeKernel(entries)
	inst, err := setupWithFakeKernel(fk, 3)
	require.NoError(t, err)
	return inst, fk
}

func TestSetupWithFakeKernel(t *testing.T) {
	inst, _ := newTestInstance(t, 8)
	require.Equal(t, uint32(8), inst.Params().SQEntries)
	require.Equal(t, uint32(16), inst.Params().CQEntries)
}

func TestInstanceFD(t *testing.T) {
	inst, _ := newTestInstance(t, 8)
	require.Equal(t, 3, inst.FD())
}

func TestInstanceMetricsNotNil(t *testing.T) {
	inst, _ := newTestInstance(t, 8)
	require.NotNil(t, inst.Metrics())
}
