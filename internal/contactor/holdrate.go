package contactor

import "log"

// HoldRate is the holding duty shared by all channels of a Coordinator.
// It rises by one per tick while the rate-increase input is asserted and is
// clamped to the smallest MaxDuty of the channels it feeds.
//
// Not safe for concurrent use; only the control loop mutates it.
type HoldRate struct {
	value     uint32
	max       uint32
	saturated bool
}

// NewHoldRate creates a HoldRate starting at initial, clamped to max.
func NewHoldRate(initial, max uint32) *HoldRate {
	h := &HoldRate{value: initial, max: max}
	if h.value >= h.max {
		h.value = h.max
		h.saturated = true
	}
	return h
}

// Step advances the rate by one tick and returns the new value.
func (h *HoldRate) Step(increase bool) uint32 {
	if !increase {
		return h.value
	}
	if h.value < h.max {
		h.value++
		return h.value
	}
	if !h.saturated {
		log.Printf("hold rate: clamped at max duty %d", h.max)
		h.saturated = true
	}
	return h.value
}

// Value returns the current rate.
func (h *HoldRate) Value() uint32 {
	return h.value
}

// Max returns the clamp ceiling.
func (h *HoldRate) Max() uint32 {
	return h.max
}
