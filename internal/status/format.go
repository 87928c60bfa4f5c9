package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/contactor-driver/internal/contactor"
)

// FormatLine renders a snapshot as a single console line, e.g.
// "A=HOLDING(60) B=IDLE hold=60/255 ticks=42 uptime=1h2m3s".
func FormatLine(snap Snapshot) string {
	var b strings.Builder
	for i := 0; i < snap.Count; i++ {
		ch := snap.Channels[i]
		state := string(ch.State)
		if state == "" {
			state = "UNKNOWN"
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		if ch.Active() {
			fmt.Fprintf(&b, "%s=%s(%d)", ch.Name, state, ch.Duty)
		} else {
			fmt.Fprintf(&b, "%s=%s", ch.Name, state)
		}
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "hold=%d/%d ticks=%d uptime=%v", snap.HoldRate, snap.MaxDuty, snap.Ticks, snap.Uptime().Truncate(time.Second))
	return b.String()
}

// FormatConfig renders the daemon settings for the startup line, e.g.
// "mode=independent poll=500ms debounce=100ms changeover=200ms heartbeat=15m0s".
func FormatConfig(cfg Config) string {
	ms := func(v int64) time.Duration { return time.Duration(v) * time.Millisecond }
	heartbeat := "off"
	if cfg.HeartbeatMs > 0 {
		heartbeat = ms(cfg.HeartbeatMs).String()
	}
	return fmt.Sprintf("mode=%s poll=%v debounce=%v changeover=%v heartbeat=%s",
		cfg.Mode, ms(cfg.PollMs), ms(cfg.DebounceMs), ms(cfg.ChangeoverMs), heartbeat)
}

// FormatCounts renders per-channel event counts for the heartbeat line.
func FormatCounts(channels []contactor.ChannelStatus) string {
	parts := make([]string, 0, len(channels))
	for _, ch := range channels {
		parts = append(parts, fmt.Sprintf("%s[on=%d off=%d rejected=%d faults=%d]",
			ch.Name, ch.Counts.Activations, ch.Counts.Deactivations, ch.Counts.Rejected, ch.Counts.Faults))
	}
	return strings.Join(parts, " ")
}
