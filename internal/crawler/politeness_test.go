package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPauseForHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	PauseFor(ctx, 5*time.Second)
	require.Less(t, time.Since(start), time.Second, "pause should exit immediately when context is done")
}

func TestJitterPacerWaitsAtLeastDelay(t *testing.T) {
	t.Parallel()

	pacer := NewJitterPacer(20*time.Millisecond, 10*time.Millisecond)
	start := time.Now()
	pacer.Pause(context.Background())
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	require.Less(t, elapsed, time.Second)
}

func TestNilJitterPacerIsNoop(t *testing.T) {
	t.Parallel()

	var pacer *JitterPacer
	start := time.Now()
	pacer.Pause(context.Background())
	require.Less(t, time.Since(start), 50*time.Millisecond)
}
