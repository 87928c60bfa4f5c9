package contactor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sweeney/contactor-driver/internal/gpio"
	"github.com/sweeney/contactor-driver/internal/pwm"
)

// ChannelIO is the hardware owned by one channel.
type ChannelIO struct {
	Name     string
	Actuator pwm.Actuator
	// Sense is the channel's own sense line. Unused in ganged mode.
	Sense gpio.Input
}

// Config configures a Coordinator.
type Config struct {
	Mode   Mode
	Timing Timing
	// HoldRate is the initial holding duty.
	HoldRate uint32
	// Start is used for uptime in heartbeats.
	Start time.Time
	// Sleep blocks for the given duration. Defaults to time.Sleep.
	// Must be safe for concurrent use in ganged mode.
	Sleep func(time.Duration)
	// Observer, if set, is called on every state transition.
	// Must be safe for concurrent use in ganged mode.
	Observer func(Transition)
}

// Coordinator polls one or two channels on a shared cadence and owns the
// hold rate they share.
type Coordinator struct {
	mode     Mode
	timing   Timing
	sleep    func(time.Duration)
	channels []*Channel
	shared   gpio.Input // ganged sense line
	rate     gpio.Input // hold rate increase, may be nil
	hold     *HoldRate

	startTime     time.Time
	lastHeartbeat time.Time
}

// New builds a Coordinator over the given channels.
//
// shared is the single sense line in ganged mode and must be nil otherwise.
// rate is the auxiliary rate-increase input; nil keeps the hold rate fixed.
func New(cfg Config, io []ChannelIO, shared, rate gpio.Input) (*Coordinator, error) {
	if len(io) == 0 || len(io) > MaxChannels {
		return nil, fmt.Errorf("contactor: need 1..%d channels, got %d", MaxChannels, len(io))
	}
	switch cfg.Mode {
	case ModeIndependent:
		if shared != nil {
			return nil, errors.New("contactor: shared sense line given in independent mode")
		}
	case ModeGanged:
		if len(io) != MaxChannels {
			return nil, fmt.Errorf("contactor: ganged mode needs %d channels, got %d", MaxChannels, len(io))
		}
		if shared == nil {
			return nil, errors.New("contactor: ganged mode needs a shared sense line")
		}
	default:
		return nil, fmt.Errorf("contactor: unknown mode %q", cfg.Mode)
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	c := &Coordinator{
		mode:          cfg.Mode,
		timing:        cfg.Timing,
		sleep:         sleep,
		shared:        shared,
		rate:          rate,
		startTime:     cfg.Start,
		lastHeartbeat: cfg.Start,
	}

	var maxDuty uint32
	for i, ch := range io {
		if ch.Actuator == nil {
			return nil, fmt.Errorf("contactor: channel %s has no actuator", ch.Name)
		}
		if cfg.Mode == ModeIndependent && ch.Sense == nil {
			return nil, fmt.Errorf("contactor: channel %s has no sense line", ch.Name)
		}
		if m := ch.Actuator.MaxDuty(); i == 0 || m < maxDuty {
			maxDuty = m
		}
		c.channels = append(c.channels, newChannel(ch.Name, ch.Actuator, ch.Sense, cfg.Timing, sleep, cfg.Observer))
	}
	c.hold = NewHoldRate(cfg.HoldRate, maxDuty)
	return c, nil
}

// Tick runs one control-loop iteration: read the rate input, update the hold
// rate, then poll every channel. The returned error is an activation-path
// failure and should terminate the loop.
func (c *Coordinator) Tick() error {
	increase := false
	if c.rate != nil {
		v, err := c.rate.Read()
		if err != nil {
			log.Printf("rate input read error: %v", err)
		} else {
			increase = v
		}
	}
	hold := c.hold.Step(increase)

	if c.mode == ModeGanged {
		return c.pollGanged(hold)
	}
	for _, ch := range c.channels {
		if err := ch.Poll(hold); err != nil {
			return err
		}
	}
	return nil
}

// pollGanged drives both channels from the shared sense line so they
// energize and release on the same tick.
func (c *Coordinator) pollGanged(hold uint32) error {
	asserted, err := c.shared.Read()
	if err != nil {
		log.Printf("shared sense read error: %v", err)
		return nil
	}

	if !c.anyActive() {
		if !asserted {
			return nil
		}
		for _, ch := range c.channels {
			ch.beginDebounce()
		}
		c.sleep(c.timing.Debounce)
		if !c.channels[0].confirm(c.shared) {
			for _, ch := range c.channels {
				ch.reject()
			}
			return nil
		}

		// Each channel runs its own changeover delay.
		var g errgroup.Group
		for _, ch := range c.channels {
			ch := ch
			g.Go(func() error { return ch.activate(hold) })
		}
		return g.Wait()
	}

	if !asserted {
		for _, ch := range c.channels {
			ch.deactivate()
		}
		return nil
	}
	for _, ch := range c.channels {
		if err := ch.hold(hold); err != nil {
			return err
		}
	}
	return nil
}

func (c *Coordinator) anyActive() bool {
	for _, ch := range c.channels {
		if ch.Active() {
			return true
		}
	}
	return false
}

// Mode returns the configured mode.
func (c *Coordinator) Mode() Mode {
	return c.mode
}

// Channels returns the channels in poll order.
func (c *Coordinator) Channels() []*Channel {
	return c.channels
}

// HoldRate returns the current shared holding duty.
func (c *Coordinator) HoldRate() uint32 {
	return c.hold.Value()
}

// MaxDuty returns the ceiling the hold rate is clamped to.
func (c *Coordinator) MaxDuty() uint32 {
	return c.hold.Max()
}

// Status returns a value copy of every channel's state.
func (c *Coordinator) Status() []ChannelStatus {
	out := make([]ChannelStatus, len(c.channels))
	for i, ch := range c.channels {
		out[i] = ch.Status()
	}
	return out
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (c *Coordinator) CheckHeartbeat(now time.Time, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &Heartbeat{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		HoldRate:  c.hold.Value(),
		Channels:  c.Status(),
	}
}
