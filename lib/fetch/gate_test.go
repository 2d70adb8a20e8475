package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGateClampsToMinimum(t *testing.T) {
	require.Equal(t, MinCrawlDelay, NewGate(0).Delay())
	require.Equal(t, MinCrawlDelay, NewGate(time.Millisecond).Delay())
	require.Equal(t, 2*time.Second, NewGate(2*time.Second).Delay())
}

func TestGateSpacesFetches(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out a real crawl delay")
	}

	gate := NewGate(2 * time.Second)
	ctx := context.Background()

	require.NoError(t, gate.Wait(ctx))
	first := time.Now()
	require.NoError(t, gate.Wait(ctx))
	second := time.Now()

	require.GreaterOrEqual(t, second.Sub(first), 1900*time.Millisecond)
}

func TestGateWaitHonorsContext(t *testing.T) {
	gate := NewGate(time.Hour)
	ctx := context.Background()
	require.NoError(t, gate.Wait(ctx))

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	require.Error(t, gate.Wait(ctx))
}
