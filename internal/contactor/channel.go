package contactor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/pwm"
)

// Channel controls one contactor: it exclusively owns one actuator and, in
// independent mode, one sense line.
//
// A Channel is driven from one goroutine at a time. In ganged mode the
// Coordinator runs the changeover of both channels concurrently, but each
// Channel is still touched by a single goroutine.
type Channel struct {
	name     string
	act      pwm.Actuator
	sense    gpio.Input
	timing   Timing
	sleep    func(time.Duration)
	observer func(Transition)

	state  State
	duty   uint32
	counts Counts
}

func newChannel(name string, act pwm.Actuator, sense gpio.Input, timing Timing, sleep func(time.Duration), observer func(Transition)) *Channel {
	return &Channel{
		name:     name,
		act:      act,
		sense:    sense,
		timing:   timing,
		sleep:    sleep,
		observer: observer,
		state:    StateIdle,
	}
}

// Name returns the channel label used in log lines.
func (c *Channel) Name() string {
	return c.name
}

// State returns the current state.
func (c *Channel) State() State {
	return c.state
}

// Active reports whether the coil is being driven.
func (c *Channel) Active() bool {
	return c.state.Active()
}

// Status returns a value copy of the channel state.
func (c *Channel) Status() ChannelStatus {
	return ChannelStatus{Name: c.name, State: c.state, Duty: c.duty, Counts: c.counts}
}

// Poll runs one tick of the state machine against the channel's own sense
// line. Only activation-path failures are returned.
func (c *Channel) Poll(hold uint32) error {
	asserted, err := c.sense.Read()
	if err != nil {
		log.Printf("channel %s: sense read error: %v", c.name, err)
		return nil
	}

	switch c.state {
	case StateIdle:
		if !asserted {
			return nil
		}
		c.beginDebounce()
		c.sleep(c.timing.Debounce)
		if !c.confirm(c.sense) {
			c.reject()
			return nil
		}
		return c.activate(hold)

	case StateEnergized, StateHolding:
		if !asserted {
			c.deactivate()
			return nil
		}
		return c.hold(hold)
	}
	return nil
}

// confirm re-reads in after the debounce delay. A read error counts as not
// asserted.
func (c *Channel) confirm(in gpio.Input) bool {
	asserted, err := in.Read()
	if err != nil {
		log.Printf("channel %s: sense read error during debounce: %v", c.name, err)
		return false
	}
	return asserted
}

func (c *Channel) beginDebounce() {
	c.transition(StateDebouncing)
}

func (c *Channel) reject() {
	c.counts.Rejected++
	log.Printf("channel %s: debounce rejected", c.name)
	c.transition(StateIdle)
}

// activate runs the energize sequence: full duty, enable, changeover delay,
// then hold duty.
func (c *Channel) activate(hold uint32) error {
	c.transition(StateEnergized)

	max := c.act.MaxDuty()
	if err := c.act.SetDuty(max); err != nil {
		log.Printf("channel %s: set duty %d failed: %v", c.name, max, err)
		return fmt.Errorf("channel %s: energize: %w", c.name, err)
	}
	c.duty = max
	if err := c.act.Enable(); err != nil {
		log.Printf("channel %s: enable failed: %v", c.name, err)
		return fmt.Errorf("channel %s: enable: %w", c.name, err)
	}
	log.Printf("channel %s: duty %d/%d", c.name, max, max)

	c.sleep(c.timing.Changeover)

	hold = clampDuty(hold, max)
	if err := c.act.SetDuty(hold); err != nil {
		log.Printf("channel %s: set hold duty %d failed: %v", c.name, hold, err)
		return fmt.Errorf("channel %s: hold: %w", c.name, err)
	}
	c.duty = hold
	log.Printf("channel %s: duty %d/%d", c.name, hold, max)

	c.counts.Activations++
	c.transition(StateHolding)
	return nil
}

// hold re-applies the holding duty when the shared rate has moved.
func (c *Channel) hold(hold uint32) error {
	max := c.act.MaxDuty()
	hold = clampDuty(hold, max)

	cur, err := c.act.Duty()
	if err != nil {
		log.Printf("channel %s: read duty failed: %v", c.name, err)
		return fmt.Errorf("channel %s: read duty: %w", c.name, err)
	}
	if cur == hold {
		return nil
	}
	if err := c.act.SetDuty(hold); err != nil {
		log.Printf("channel %s: set hold duty %d failed: %v", c.name, hold, err)
		return fmt.Errorf("channel %s: hold: %w", c.name, err)
	}
	c.duty = hold
	log.Printf("channel %s: hold duty %d -> %d", c.name, cur, hold)
	return nil
}

// deactivate disables the actuator and always returns the channel to Idle.
// Failures are logged and swallowed so de-energizing never gets stuck.
func (c *Channel) deactivate() {
	if err := c.act.Disable(); err != nil {
		c.counts.Faults++
		if errors.Is(err, pwm.ErrAcquire) {
			log.Printf("channel %s: disable skipped: %v", c.name, err)
		} else {
			log.Printf("channel %s: disable failed: %v", c.name, err)
		}
	}
	c.duty = 0
	c.counts.Deactivations++
	c.transition(StateIdle)
}

func (c *Channel) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	log.Printf("channel %s: %s -> %s", c.name, from, to)
	if c.observer != nil {
		c.observer(Transition{Channel: c.name, From: from, To: to})
	}
}

func clampDuty(duty, max uint32) uint32 {
	if duty > max {
		return max
	}
	return duty
}
