// Package pwm drives contactor coils through hardware PWM channels.
//
// Duty is an integer in [0, MaxDuty]; MaxDuty is the resolution of the
// actuator. Every command writes the hardware immediately.
package pwm

import (
	"errors"
	"fmt"
)

// ErrHardwareFault is returned when a duty or enable command is rejected,
// either by the precondition check or by the underlying driver.
var ErrHardwareFault = errors.New("pwm: hardware fault")

// ErrAcquire is returned when exclusive access to an actuator cannot be
// obtained for a command.
var ErrAcquire = errors.New("pwm: actuator busy")

// Defaults for the coil drivers.
const (
	DefaultFrequencyHz = 1000
	DefaultMaxDuty     = 255
)

// Actuator is one PWM output driving a contactor coil.
type Actuator interface {
	// SetDuty sets the duty level. duty must not exceed MaxDuty.
	SetDuty(duty uint32) error

	// Duty returns the last commanded duty level.
	Duty() (uint32, error)

	// Enable starts driving the output.
	Enable() error

	// Disable stops driving the output. Safe to call when already disabled.
	Disable() error

	// MaxDuty returns the resolution ceiling of the actuator.
	MaxDuty() uint32
}

func checkDuty(duty, max uint32) error {
	if duty > max {
		return fmt.Errorf("%w: duty %d exceeds max %d", ErrHardwareFault, duty, max)
	}
	return nil
}
