//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// RequestInput is not implemented on non-Linux platforms.
func (c *Chip) RequestInput(cfg InputConfig) (*RealInput, error) {
	return nil, errUnsupported
}

// RequestOutput is not implemented on non-Linux platforms.
func (c *Chip) RequestOutput(pin int) (*RealOutput, error) {
	return nil, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error {
	return nil
}

// RealInput is not available on non-Linux platforms.
type RealInput struct{}

func (r *RealInput) Read() (bool, error) { return false, errUnsupported }
func (r *RealInput) Close() error        { return nil }

// RealOutput is not available on non-Linux platforms.
type RealOutput struct{}

func (o *RealOutput) Set(on bool) error { return errUnsupported }
func (o *RealOutput) Close() error      { return nil }
