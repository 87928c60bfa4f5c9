package contactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHoldRateStep(t *testing.T) {
	h := NewHoldRate(60, 255)

	assert.Equal(t, uint32(60), h.Step(false))
	for i := 0; i < 5; i++ {
		h.Step(true)
	}
	assert.Equal(t, uint32(65), h.Value())
	assert.Equal(t, uint32(65), h.Step(false), "never decreases")
}

func TestHoldRateClamp(t *testing.T) {
	h := NewHoldRate(253, 255)

	for i := 0; i < 10; i++ {
		assert.LessOrEqual(t, h.Step(true), h.Max())
	}
	assert.Equal(t, uint32(255), h.Value())
}

func TestHoldRateInitialAboveMax(t *testing.T) {
	h := NewHoldRate(300, 255)
	assert.Equal(t, uint32(255), h.Value())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Ganged")
	assert.NoError(t, err)
	assert.Equal(t, ModeGanged, m)

	m, err = ParseMode("independent")
	assert.NoError(t, err)
	assert.Equal(t, ModeIndependent, m)

	_, err = ParseMode("tandem")
	assert.Error(t, err)
}

func TestStateActive(t *testing.T) {
	assert.False(t, StateIdle.Active())
	assert.False(t, StateDebouncing.Active())
	assert.True(t, StateEnergized.Active())
	assert.True(t, StateHolding.Active())
}
