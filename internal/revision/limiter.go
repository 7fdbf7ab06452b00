// Package revision implements the bounded revision cycle: per-key cycle
// accounting, durable revision history, and construction of revision
// instructions from reviewer feedback.
package revision

import (
	"log"
	"sync"
)

// CycleStatus is a snapshot of cycle accounting for one (producer, stage) key.
type CycleStatus struct {
	CycleCount      int  `json:"cycle_count"`
	MaxCycles       int  `json:"max_cycles"`
	RemainingCycles int  `json:"remaining_cycles"`
	LimitReached    bool `json:"limit_reached"`
	AutoApprove     bool `json:"auto_approve"`
}

// Limiter bounds how many revision cycles may occur per (producer, stage)
// key before forcing a decision. Counters live in memory only: the limiter
// is a safety valve for the live run, not a historical record.
type Limiter struct {
	maxCycles           int
	autoApproveAfterMax bool

	mu     sync.Mutex
	counts map[string]int
}

// NewLimiter creates a Limiter. maxCycles must be positive.
func NewLimiter(maxCycles int, autoApproveAfterMax bool) *Limiter {
	return &Limiter{
		maxCycles:           maxCycles,
		autoApproveAfterMax: autoApproveAfterMax,
		counts:              make(map[string]int),
	}
}

// cycleKey builds the tracking key for a producer/stage pair.
func cycleKey(producer, stage string) string {
	return producer + "_" + stage
}

// TrackCycle increments the counter for the key and returns the snapshot.
// The counter never decrements implicitly; only Reset clears it.
func (l *Limiter) TrackCycle(producer, stage string) CycleStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := cycleKey(producer, stage)
	l.counts[key]++
	status := l.snapshot(l.counts[key])

	if status.LimitReached {
		log.Printf("revision cycle limit reached for %s in %s (%d/%d)",
			producer, stage, status.CycleCount, status.MaxCycles)
	}

	return status
}

// Reset drops the counter for the key entirely. The next TrackCycle on the
// same key starts again from 1.
func (l *Limiter) Reset(producer, stage string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counts, cycleKey(producer, stage))
}

// Status returns the current snapshot without incrementing. Keys that were
// never tracked report a zero count with the limit not reached.
func (l *Limiter) Status(producer, stage string) CycleStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot(l.counts[cycleKey(producer, stage)])
}

func (l *Limiter) snapshot(count int) CycleStatus {
	remaining := l.maxCycles - count
	if remaining < 0 {
		remaining = 0
	}

	limitReached := count >= l.maxCycles
	return CycleStatus{
		CycleCount:      count,
		MaxCycles:       l.maxCycles,
		RemainingCycles: remaining,
		LimitReached:    limitReached,
		AutoApprove:     limitReached && l.autoApproveAfterMax,
	}
}
