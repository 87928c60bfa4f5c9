package pwm

import (
	"fmt"
	"sync"
)

// Guard serializes commands to an Actuator.
//
// The lock is taken for a single command and released before returning; it
// is never held across a delay. A command issued while another one is in
// progress fails with ErrAcquire instead of waiting.
type Guard struct {
	mu  sync.Mutex
	act Actuator
}

// NewGuard wraps act.
func NewGuard(act Actuator) *Guard {
	return &Guard{act: act}
}

func (g *Guard) acquire(op string) error {
	if !g.mu.TryLock() {
		return fmt.Errorf("%s: %w", op, ErrAcquire)
	}
	return nil
}

// SetDuty forwards to the wrapped actuator.
func (g *Guard) SetDuty(duty uint32) error {
	if err := g.acquire("set duty"); err != nil {
		return err
	}
	defer g.mu.Unlock()
	return g.act.SetDuty(duty)
}

// Duty forwards to the wrapped actuator.
func (g *Guard) Duty() (uint32, error) {
	if err := g.acquire("read duty"); err != nil {
		return 0, err
	}
	defer g.mu.Unlock()
	return g.act.Duty()
}

// Enable forwards to the wrapped actuator.
func (g *Guard) Enable() error {
	if err := g.acquire("enable"); err != nil {
		return err
	}
	defer g.mu.Unlock()
	return g.act.Enable()
}

// Disable forwards to the wrapped actuator.
func (g *Guard) Disable() error {
	if err := g.acquire("disable"); err != nil {
		return err
	}
	defer g.mu.Unlock()
	return g.act.Disable()
}

// MaxDuty is a pure query and does not take the lock.
func (g *Guard) MaxDuty() uint32 {
	return g.act.MaxDuty()
}
