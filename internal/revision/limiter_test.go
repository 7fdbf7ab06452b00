package revision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_TrackCycle(t *testing.T) {
	limiter := NewLimiter(3, true)

	first := limiter.TrackCycle("architect", "architecture")
	assert.Equal(t, 1, first.CycleCount)
	assert.Equal(t, 3, first.MaxCycles)
	assert.False(t, first.LimitReached)
	assert.False(t, first.AutoApprove)

	second := limiter.TrackCycle("architect", "architecture")
	assert.Equal(t, 2, second.CycleCount)
	assert.False(t, second.LimitReached)

	third := limiter.TrackCycle("architect", "architecture")
	assert.Equal(t, 3, third.CycleCount)
	assert.True(t, third.LimitReached)
	assert.True(t, third.AutoApprove)
}

func TestLimiter_AutoApproveDisabled(t *testing.T) {
	limiter := NewLimiter(1, false)

	status := limiter.TrackCycle("writer", "prd")
	assert.True(t, status.LimitReached)
	assert.False(t, status.AutoApprove)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(3, true)

	limiter.TrackCycle("architect", "architecture")
	limiter.TrackCycle("architect", "architecture")

	other := limiter.TrackCycle("writer", "prd")
	assert.Equal(t, 1, other.CycleCount)
}

func TestLimiter_Reset(t *testing.T) {
	limiter := NewLimiter(3, true)

	limiter.TrackCycle("architect", "architecture")
	limiter.TrackCycle("architect", "architecture")
	limiter.Reset("architect", "architecture")

	status := limiter.TrackCycle("architect", "architecture")
	assert.Equal(t, 1, status.CycleCount)
}

func TestLimiter_StatusDoesNotIncrement(t *testing.T) {
	limiter := NewLimiter(3, true)

	// Unknown key reports defaults.
	status := limiter.Status("architect", "architecture")
	assert.Equal(t, 0, status.CycleCount)
	assert.Equal(t, 3, status.RemainingCycles)
	assert.False(t, status.LimitReached)

	limiter.TrackCycle("architect", "architecture")

	status = limiter.Status("architect", "architecture")
	assert.Equal(t, 1, status.CycleCount)
	assert.Equal(t, 2, status.RemainingCycles)

	// Status again returns the same count.
	assert.Equal(t, status, limiter.Status("architect", "architecture"))
}
