//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "contactor-driver"

// Chip hands out lines from one Linux GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip (e.g. "gpiochip0").
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &Chip{chip: chip}, nil
}

// RequestInput requests a sense line with the configured bias and polarity.
// Polarity is applied by the kernel, so Read reports the logical level.
func (c *Chip) RequestInput(cfg InputConfig) (*RealInput, error) {
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput}
	switch cfg.Pull {
	case PullUp:
		opts = append(opts, gpiocdev.WithPullUp)
	case PullDown:
		opts = append(opts, gpiocdev.WithPullDown)
	default:
		opts = append(opts, gpiocdev.WithBiasDisabled)
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := c.chip.RequestLine(cfg.Pin, opts...)
	if err != nil {
		return nil, fmt.Errorf("request input pin %d: %w", cfg.Pin, err)
	}
	return &RealInput{pin: cfg.Pin, line: line}, nil
}

// RequestOutput requests an output line, initially inactive.
func (c *Chip) RequestOutput(pin int) (*RealOutput, error) {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", pin, err)
	}
	return &RealOutput{pin: pin, line: line}, nil
}

// Close releases the chip. Lines must be closed separately.
func (c *Chip) Close() error {
	if c.chip == nil {
		return nil
	}
	err := c.chip.Close()
	c.chip = nil
	if err != nil {
		return fmt.Errorf("close chip: %w", err)
	}
	return nil
}

// RealInput is a sense line backed by the GPIO character device.
type RealInput struct {
	pin  int
	line *gpiocdev.Line
}

// Read returns the logical level of the line.
func (r *RealInput) Read() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read pin %d: %w", r.pin, err)
	}
	return v == 1, nil
}

// Close releases the line.
// Reconfigures it to input with pull-down (matching Pi boot defaults) first so
// external hardware does not see a floating pin during a reboot.
func (r *RealInput) Close() error {
	if r.line == nil {
		return nil
	}
	var errs []error
	if err := r.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", r.pin, err))
	}
	if err := r.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", r.pin, err))
	}
	r.line = nil
	return errors.Join(errs...)
}

// outputLine is the part of *gpiocdev.Line an output uses.
type outputLine interface {
	SetValue(value int) error
	Close() error
}

// RealOutput is an output line backed by the GPIO character device.
type RealOutput struct {
	pin  int
	line outputLine
}

// Set drives the line.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", o.pin, err)
	}
	return nil
}

// Close turns the output off and releases the line.
func (o *RealOutput) Close() error {
	if o.line == nil {
		return nil
	}
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear pin %d: %w", o.pin, err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close pin %d: %w", o.pin, err))
	}
	o.line = nil
	return errors.Join(errs...)
}
