package crawler

import (
	"context"
	"time"
)

// JitterPacer sleeps a fixed delay plus a random jitter between fetches.
type JitterPacer struct {
	Delay  time.Duration
	Jitter time.Duration
}

// NewJitterPacer builds a pacer; a zero delay and jitter disables pacing.
func NewJitterPacer(delay, jitter time.Duration) *JitterPacer {
	return &JitterPacer{Delay: delay, Jitter: jitter}
}

// Pause blocks for the configured delay or until ctx is done.
func (p *JitterPacer) Pause(ctx context.Context) {
	if p == nil {
		return
	}
	PauseFor(ctx, p.Delay+randomDuration(p.Jitter))
}

// PauseFor blocks for delay or until ctx is done.
func PauseFor(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// NoPacer never waits.
type NoPacer struct{}

// Pause returns immediately.
func (NoPacer) Pause(context.Context) {}
