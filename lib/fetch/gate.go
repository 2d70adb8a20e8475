package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// MinCrawlDelay applies when robots.txt does not specify one.
const MinCrawlDelay = time.Second

// Gate serializes outbound fetches so that successive requests to one site
// are spaced at least a crawl delay apart. All requests made through a
// Client funnel through its Gate, which makes the limiter the sole
// serialization point if callers fetch from multiple goroutines.
type Gate struct {
	limiter *rate.Limiter
	delay   time.Duration
}

func NewGate(delay time.Duration) *Gate {
	if delay < MinCrawlDelay {
		delay = MinCrawlDelay
	}
	// burst of 1: the first fetch goes through immediately, every
	// subsequent one waits out the remainder of the delay.
	return &Gate{
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		delay:   delay,
	}
}

// Wait blocks until the crawl delay since the previous fetch has elapsed
// and records the current fetch. The delay is paid unconditionally, even
// for requests that will fail authorization afterwards.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}

func (g *Gate) Delay() time.Duration {
	return g.delay
}
