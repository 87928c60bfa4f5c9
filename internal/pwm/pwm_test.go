package pwm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRecordsCommands(t *testing.T) {
	f := NewFake(255)

	require.NoError(t, f.SetDuty(255))
	require.NoError(t, f.Enable())
	require.NoError(t, f.SetDuty(60))

	duty, err := f.Duty()
	require.NoError(t, err)
	assert.Equal(t, uint32(60), duty)
	assert.True(t, f.Enabled())

	require.NoError(t, f.Disable())
	assert.False(t, f.Enabled())
	duty, _ = f.Duty()
	assert.Zero(t, duty)

	assert.Equal(t, []Command{
		{Op: OpSetDuty, Duty: 255},
		{Op: OpEnable},
		{Op: OpSetDuty, Duty: 60},
		{Op: OpDisable},
	}, f.Commands())
}

func TestFakeRejectsDutyAboveMax(t *testing.T) {
	f := NewFake(100)

	err := f.SetDuty(101)
	assert.ErrorIs(t, err, ErrHardwareFault)

	duty, _ := f.Duty()
	assert.Zero(t, duty)
}

func TestFakeDisableIdempotent(t *testing.T) {
	f := NewFake(255)

	require.NoError(t, f.Disable())
	require.NoError(t, f.Disable())
	assert.False(t, f.Enabled())
}

func TestFakeInjectedErrors(t *testing.T) {
	f := NewFake(255)
	f.EnableError = ErrHardwareFault
	f.DisableError = errors.New("driver gone")

	assert.ErrorIs(t, f.Enable(), ErrHardwareFault)
	assert.Error(t, f.Disable())
	assert.Len(t, f.Commands(), 2, "failed commands are still recorded")

	f.Reset()
	assert.NoError(t, f.Enable())
	assert.Len(t, f.Commands(), 1)
}

func TestGuardForwards(t *testing.T) {
	f := NewFake(255)
	g := NewGuard(f)

	require.NoError(t, g.SetDuty(200))
	require.NoError(t, g.Enable())
	duty, err := g.Duty()
	require.NoError(t, err)
	assert.Equal(t, uint32(200), duty)
	require.NoError(t, g.Disable())
	assert.Equal(t, uint32(255), g.MaxDuty())
	assert.Len(t, f.Commands(), 3)
}

func TestGuardBusy(t *testing.T) {
	f := NewFake(255)
	g := NewGuard(f)

	g.mu.Lock()
	assert.ErrorIs(t, g.SetDuty(1), ErrAcquire)
	assert.ErrorIs(t, g.Enable(), ErrAcquire)
	assert.ErrorIs(t, g.Disable(), ErrAcquire)
	_, err := g.Duty()
	assert.ErrorIs(t, err, ErrAcquire)
	assert.Equal(t, uint32(255), g.MaxDuty(), "MaxDuty does not take the lock")
	g.mu.Unlock()

	assert.Empty(t, f.Commands(), "no command reaches the actuator while busy")
	assert.NoError(t, g.Enable(), "lock is released after a refused command")
}
