package internal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/contactor-driver/internal/contactor"
	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/indicator"
	"github.com/sweeney/contactor-driver/internal/pwm"
	"github.com/sweeney/contactor-driver/internal/status"
)

// TestIntegrationFullFlow drives the whole pipeline with fakes:
// sense lines → coordinator → guarded actuators, and
// coordinator → tracker → indicator worker → LED.
func TestIntegrationFullFlow(t *testing.T) {
	// A: released, asserted (debounced twice), held, released.
	senseA := gpio.NewFakeInput(false, true, true, true, true, false)
	// B: a bounce rejected by debounce, then quiet.
	senseB := gpio.NewFakeInput(false, true, false)
	rate := gpio.NewFakeInput(false, false, true, true, false)

	actA, actB := pwm.NewFake(255), pwm.NewFake(255)
	coord, err := contactor.New(contactor.Config{
		Mode:     contactor.ModeIndependent,
		Timing:   contactor.Timing{Debounce: 100 * time.Millisecond, Changeover: 200 * time.Millisecond},
		HoldRate: 60,
		Sleep:    func(time.Duration) {},
	}, []contactor.ChannelIO{
		{Name: "A", Actuator: pwm.NewGuard(actA), Sense: senseA},
		{Name: "B", Actuator: pwm.NewGuard(actB), Sense: senseB},
	}, nil, rate)
	require.NoError(t, err)

	tracker := status.NewTracker(time.Now(), status.Config{Mode: contactor.ModeIndependent})
	led := gpio.NewFakeOutput()
	ind := indicator.New(led, tracker, func(time.Duration) {})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ind.Run(ctx)

	type want struct {
		a, b contactor.State
		hold uint32
	}
	wants := []want{
		{contactor.StateIdle, contactor.StateIdle, 60},    // both released
		{contactor.StateHolding, contactor.StateIdle, 60}, // A energized, B bounce rejected
		{contactor.StateHolding, contactor.StateIdle, 61}, // rate rising
		{contactor.StateHolding, contactor.StateIdle, 62},
		{contactor.StateIdle, contactor.StateIdle, 62}, // A released
	}

	for i, w := range wants {
		require.NoError(t, coord.Tick(), "tick %d", i)
		tracker.Update(coord.HoldRate(), coord.MaxDuty(), coord.Status())

		snap := tracker.Snapshot()
		assert.Equal(t, w.a, snap.Channels[0].State, "tick %d: A", i)
		assert.Equal(t, w.b, snap.Channels[1].State, "tick %d: B", i)
		assert.Equal(t, w.hold, snap.HoldRate, "tick %d: hold", i)

		// One pass per tick; wait for it so every snapshot gets rendered.
		require.True(t, ind.Kick(), "tick %d: indicator idle", i)
		require.Eventually(t, func() bool { return ind.Passes() == uint64(i+1) && !ind.Busy() }, time.Second, time.Millisecond)
	}

	assert.Equal(t, []pwm.Command{
		{Op: pwm.OpSetDuty, Duty: 255},
		{Op: pwm.OpEnable},
		{Op: pwm.OpSetDuty, Duty: 60},
		{Op: pwm.OpSetDuty, Duty: 61},
		{Op: pwm.OpSetDuty, Duty: 62},
		{Op: pwm.OpDisable},
	}, actA.Commands())
	assert.Empty(t, actB.Commands(), "debounce rejected the bounce on B")

	counts := coord.Channels()[1].Status().Counts
	assert.Equal(t, 1, counts.Rejected)

	// Idle heartbeat (12 pulses) for ticks 0 and 4, one pulse for A active in 1..3.
	on := 0
	for _, l := range led.Levels() {
		if l {
			on++
		}
	}
	assert.Equal(t, 12+1+1+1+12, on)
}

// TestIntegrationGangedDualChannel verifies both contactors follow a single
// shared sense line and never activate alone.
func TestIntegrationGangedDualChannel(t *testing.T) {
	shared := gpio.NewFakeInput(true, true, true, false, false)
	actA, actB := pwm.NewFake(255), pwm.NewFake(255)

	var (
		mu          sync.Mutex
		transitions []contactor.Transition
	)
	coord, err := contactor.New(contactor.Config{
		Mode:     contactor.ModeGanged,
		Timing:   contactor.Timing{Debounce: 100 * time.Millisecond, Changeover: 200 * time.Millisecond},
		HoldRate: 60,
		Sleep:    func(time.Duration) {},
		Observer: func(tr contactor.Transition) {
			mu.Lock()
			transitions = append(transitions, tr)
			mu.Unlock()
		},
	}, []contactor.ChannelIO{
		{Name: "A", Actuator: pwm.NewGuard(actA)},
		{Name: "B", Actuator: pwm.NewGuard(actB)},
	}, shared, nil)
	require.NoError(t, err)

	for tick := 0; tick < 4; tick++ {
		require.NoError(t, coord.Tick())
		a, b := coord.Channels()[0].Active(), coord.Channels()[1].Active()
		assert.Equal(t, a, b, "tick %d: channels must move together", tick)
	}

	assert.Len(t, transitions, 8, "debouncing, energized, holding, idle for each channel")
	assert.Equal(t, actA.Commands(), actB.Commands())
}
