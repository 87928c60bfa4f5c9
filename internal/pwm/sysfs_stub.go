//go:build !linux

package pwm

import "errors"

// SysfsActuator is not available on non-Linux platforms.
type SysfsActuator struct{}

var errUnsupported = errors.New("pwm: sysfs not supported on this platform (requires Linux)")

// OpenSysfs returns an error on non-Linux platforms.
func OpenSysfs(chip, channel, frequencyHz int, maxDuty uint32) (*SysfsActuator, error) {
	return nil, errUnsupported
}

func (a *SysfsActuator) SetDuty(duty uint32) error { return errUnsupported }
func (a *SysfsActuator) Duty() (uint32, error)     { return 0, errUnsupported }
func (a *SysfsActuator) Enable() error             { return errUnsupported }
func (a *SysfsActuator) Disable() error            { return nil }
func (a *SysfsActuator) MaxDuty() uint32           { return 0 }
