package pwm

import "sync"

// Op names a recorded actuator command.
type Op string

const (
	OpSetDuty Op = "set_duty"
	OpEnable  Op = "enable"
	OpDisable Op = "disable"
)

// Command is one recorded actuator command.
type Command struct {
	Op   Op
	Duty uint32 // only for OpSetDuty
}

// Fake is an in-memory Actuator that records every command.
// Failed commands are recorded too, so tests can assert an attempt was made.
type Fake struct {
	Max uint32

	// Errors to return from the corresponding command, if set.
	SetDutyError error
	EnableError  error
	DisableError error

	mu       sync.Mutex
	duty     uint32
	enabled  bool
	commands []Command
}

// NewFake creates a Fake with the given resolution.
func NewFake(max uint32) *Fake {
	return &Fake{Max: max}
}

// SetDuty records the command and applies it unless it fails.
func (f *Fake) SetDuty(duty uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, Command{Op: OpSetDuty, Duty: duty})
	if err := checkDuty(duty, f.Max); err != nil {
		return err
	}
	if f.SetDutyError != nil {
		return f.SetDutyError
	}
	f.duty = duty
	return nil
}

// Duty returns the last applied duty.
func (f *Fake) Duty() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duty, nil
}

// Enable records the command and applies it unless it fails.
func (f *Fake) Enable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, Command{Op: OpEnable})
	if f.EnableError != nil {
		return f.EnableError
	}
	f.enabled = true
	return nil
}

// Disable records the command and applies it unless it fails.
// Disabling drops the duty to zero, as the hardware driver does.
func (f *Fake) Disable() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, Command{Op: OpDisable})
	if f.DisableError != nil {
		return f.DisableError
	}
	f.enabled = false
	f.duty = 0
	return nil
}

// MaxDuty returns Max.
func (f *Fake) MaxDuty() uint32 {
	return f.Max
}

// Enabled reports whether the output is currently driven.
func (f *Fake) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// Commands returns a copy of every recorded command, oldest first.
func (f *Fake) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.commands))
	copy(out, f.commands)
	return out
}

// Reset clears recorded commands and injected errors.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = nil
	f.SetDutyError = nil
	f.EnableError = nil
	f.DisableError = nil
}
