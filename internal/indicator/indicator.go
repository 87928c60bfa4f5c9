// Package indicator renders channel state on a status LED.
//
// A single long-lived worker goroutine renders one blink pattern per kick.
// Kicks are refused while a pass is in flight, so at most one pass ever runs
// and the control loop never waits on the LED.
package indicator

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/status"
)

// Source supplies the latest snapshot at the start of each pass.
type Source interface {
	Snapshot() status.Snapshot
}

// Indicator owns the status output pin.
type Indicator struct {
	out   gpio.Output
	src   Source
	sleep func(time.Duration)

	kick   chan struct{}
	busy   atomic.Bool
	passes atomic.Uint64
}

// New creates an Indicator. A nil sleep defaults to time.Sleep.
func New(out gpio.Output, src Source, sleep func(time.Duration)) *Indicator {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Indicator{
		out:   out,
		src:   src,
		sleep: sleep,
		kick:  make(chan struct{}, 1),
	}
}

// Kick requests a rendering pass. It never blocks and returns false if a
// pass is already pending or in flight.
func (ind *Indicator) Kick() bool {
	if !ind.busy.CompareAndSwap(false, true) {
		return false
	}
	ind.kick <- struct{}{}
	return true
}

// Busy reports whether a pass is pending or in flight.
func (ind *Indicator) Busy() bool {
	return ind.busy.Load()
}

// Passes returns the number of completed rendering passes.
func (ind *Indicator) Passes() uint64 {
	return ind.passes.Load()
}

// Run services kicks until ctx is done. A pass in flight always runs to
// completion before Run returns.
func (ind *Indicator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ind.kick:
			ind.render(Pattern(ind.src.Snapshot()))
			ind.passes.Add(1)
			ind.busy.Store(false)
		}
	}
}

func (ind *Indicator) render(steps []Step) {
	failed := false
	for _, s := range steps {
		if err := ind.out.Set(s.On); err != nil && !failed {
			log.Printf("indicator: set led: %v", err)
			failed = true
		}
		ind.sleep(s.Dur)
	}
}
