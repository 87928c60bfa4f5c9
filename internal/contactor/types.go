// Package contactor implements the contactor control state machine: debounced
// sense sampling, the energize-then-hold duty profile, and the coordinator
// that polls one or two channels sharing an adaptive hold rate.
//
// Delays are blocking and go through an injected sleep function so tests can
// run on a virtual clock.
package contactor

import (
	"fmt"
	"strings"
	"time"
)

// State is the state of one contactor channel.
type State string

const (
	StateIdle       State = "IDLE"
	StateDebouncing State = "DEBOUNCING"
	StateEnergized  State = "ENERGIZED"
	StateHolding    State = "HOLDING"
)

// Active reports whether the coil is being driven in this state.
func (s State) Active() bool {
	return s == StateEnergized || s == StateHolding
}

// MaxChannels is the number of channels a Coordinator can run.
const MaxChannels = 2

// Default timing.
const (
	DefaultDebounce   = 100 * time.Millisecond
	DefaultChangeover = 200 * time.Millisecond
	DefaultHoldRate   = 60
)

// Timing holds the fixed delays of the energize sequence.
type Timing struct {
	// Debounce is how long a sense assertion must persist before energizing.
	Debounce time.Duration
	// Changeover is how long full duty is applied before dropping to hold.
	Changeover time.Duration
}

// Mode selects how sense lines map onto channels.
type Mode string

const (
	// ModeIndependent gives each channel its own sense line.
	ModeIndependent Mode = "independent"
	// ModeGanged drives both channels from a single shared sense line.
	ModeGanged Mode = "ganged"
)

// ParseMode converts a flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeIndependent, ModeGanged:
		return m, nil
	default:
		return "", fmt.Errorf("contactor: unknown mode %q", s)
	}
}

// Transition records a single state change of a channel.
type Transition struct {
	Channel string
	From    State
	To      State
}

// Counts tracks per-channel events since startup.
type Counts struct {
	Activations   int // completed energize sequences
	Deactivations int
	Rejected      int // assertions dropped by debounce
	Faults        int // failed or skipped disable commands
}

// ChannelStatus is a value copy of a channel's externally visible state.
type ChannelStatus struct {
	Name   string
	State  State
	Duty   uint32
	Counts Counts
}

// Active reports whether the channel's coil is being driven.
func (s ChannelStatus) Active() bool {
	return s.State.Active()
}

// Heartbeat contains information for a periodic heartbeat log line.
type Heartbeat struct {
	Timestamp time.Time
	Uptime    time.Duration
	HoldRate  uint32
	Channels  []ChannelStatus
}
