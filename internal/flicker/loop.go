package flicker

import (
	"context"
	"time"
)

// Ticker delivers display refresh timestamps.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc starts a new Ticker.
type TickerFunc func() Ticker

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// FrameTicker ticks at fps frames per second.
func FrameTicker(fps int) TickerFunc {
	if fps <= 0 {
		fps = 60
	}
	interval := time.Second / time.Duration(fps)
	return func() Ticker {
		return timeTicker{t: time.NewTicker(interval)}
	}
}

type frameClock struct{ last time.Time }

// delta returns the seconds elapsed since the previous frame.
func (c *frameClock) delta(now time.Time) float64 {
	dt := now.Sub(c.last).Seconds()
	c.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

// Run invokes tick once per frame with the seconds elapsed since the
// previous frame (or since start for the first one). It returns nil when
// frames is closed and ctx.Err() once ctx is cancelled; no tick runs
// after cancellation has been observed.
func Run(ctx context.Context, frames <-chan time.Time, start time.Time, tick func(dt float64)) error {
	clock := frameClock{last: start}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			tick(clock.delta(now))
		}
	}
}
