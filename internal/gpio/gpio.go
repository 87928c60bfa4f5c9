// Package gpio provides digital sense inputs and the status output pin.
// The real implementation uses the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

import (
	"fmt"
	"strings"
)

// Input reads one digital sense line.
type Input interface {
	// Read returns the polarity-corrected level of the line:
	// true means asserted, regardless of electrical level or pull.
	Read() (bool, error)

	// Close releases the line.
	Close() error
}

// Output drives one digital output line.
type Output interface {
	// Set drives the line to its active (true) or inactive (false) level.
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// Pull is the bias applied to an input line.
type Pull string

const (
	PullNone Pull = "none"
	PullUp   Pull = "up"
	PullDown Pull = "down"
)

// ParsePull converts a flag value into a Pull.
func ParsePull(s string) (Pull, error) {
	switch p := Pull(strings.ToLower(strings.TrimSpace(s))); p {
	case PullNone, PullUp, PullDown:
		return p, nil
	default:
		return "", fmt.Errorf("gpio: unknown pull mode %q", s)
	}
}

// InputConfig describes how a sense line is requested.
type InputConfig struct {
	Pin       int  // BCM offset on the chip
	Pull      Pull // bias resistor
	ActiveLow bool // asserted when the line reads electrically low
}

// Defaults (BCM numbering)
const (
	DefaultChip   = "gpiochip0"
	DefaultPinA   = 26 // Channel A sense
	DefaultPinB   = 16 // Channel B sense
	DefaultPinAux = 20 // Hold rate increase
	DefaultPinLED = 21 // Status indicator
)
