package indicator

import (
	"time"

	"github.com/sweeney/contactor-driver/internal/status"
)

// Step is one segment of a blink pattern.
type Step struct {
	On  bool
	Dur time.Duration
}

// Idle heartbeat: rapid blinking while no channel is active.
const (
	idleCycles = 12
	idleHalf   = 50 * time.Millisecond
	idleGap    = 200 * time.Millisecond
)

// Active pattern: a dark lead-in, then one fixed-length slot per active
// channel holding index+1 short pulses.
const (
	leadIn   = 800 * time.Millisecond
	slot     = 800 * time.Millisecond
	pulseOn  = 150 * time.Millisecond
	pulseOff = 100 * time.Millisecond
)

// Pattern returns the blink sequence for one rendering pass of snap.
func Pattern(snap status.Snapshot) []Step {
	if !snap.AnyActive() {
		steps := make([]Step, 0, 2*idleCycles+1)
		for i := 0; i < idleCycles; i++ {
			steps = append(steps, Step{On: true, Dur: idleHalf}, Step{On: false, Dur: idleHalf})
		}
		return append(steps, Step{On: false, Dur: idleGap})
	}

	steps := []Step{{On: false, Dur: leadIn}}
	for i := 0; i < snap.Count; i++ {
		if !snap.Active(i) {
			continue
		}
		var used time.Duration
		for p := 0; p <= i; p++ {
			steps = append(steps, Step{On: true, Dur: pulseOn}, Step{On: false, Dur: pulseOff})
			used += pulseOn + pulseOff
		}
		steps = append(steps, Step{On: false, Dur: slot - used})
	}
	return steps
}

// Duration returns the total length of a pattern.
func Duration(steps []Step) time.Duration {
	var d time.Duration
	for _, s := range steps {
		d += s.Dur
	}
	return d
}
