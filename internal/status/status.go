// Package status provides the thread-safe handoff of channel state from the
// control loop to the status indicator. Only value copies cross goroutines;
// no actuator handle is ever reachable from a Snapshot.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/contactor-driver/internal/contactor"
)

// Config is the daemon configuration shown on the startup line.
type Config struct {
	PollMs       int64
	DebounceMs   int64
	ChangeoverMs int64
	HeartbeatMs  int64
	Mode         contactor.Mode
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Channels  [contactor.MaxChannels]contactor.ChannelStatus
	Count     int // number of populated entries in Channels
	HoldRate  uint32
	MaxDuty   uint32
	Ticks     uint64
	StartTime time.Time
	Now       time.Time
	Config    Config
}

// Active reports whether channel i is driving its coil.
// Out of range indices report false.
func (s Snapshot) Active(i int) bool {
	if i < 0 || i >= s.Count {
		return false
	}
	return s.Channels[i].Active()
}

// AnyActive reports whether any channel is driving its coil.
func (s Snapshot) AnyActive() bool {
	for i := 0; i < s.Count; i++ {
		if s.Channels[i].Active() {
			return true
		}
	}
	return false
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the latest snapshot behind an RWMutex. Last writer wins.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update replaces the channel states and hold rate.
// Called from runLoop on every tick. Channels beyond MaxChannels are ignored.
func (t *Tracker) Update(holdRate, maxDuty uint32, channels []contactor.ChannelStatus) {
	var chans [contactor.MaxChannels]contactor.ChannelStatus
	n := copy(chans[:], channels)

	t.mu.Lock()
	t.snap.Channels = chans
	t.snap.Count = n
	t.snap.HoldRate = holdRate
	t.snap.MaxDuty = maxDuty
	t.snap.Ticks++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
