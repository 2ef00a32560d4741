package flicker

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

type size struct{ w, h float64 }

// Animator drives a Target from a size source, an optional visibility
// source and a frame ticker. Every event is handled on the goroutine
// that calls Run, so the target is never touched concurrently. The
// ticker only exists while the target is running.
type Animator struct {
	target     Target
	size       SizeSource
	visibility VisibilitySource
	ticker     TickerFunc
	now        func() time.Time
	logger     *log.Logger
}

func NewAnimator(target Target, size SizeSource, visibility VisibilitySource, ticker TickerFunc) *Animator {
	return &Animator{
		target:     target,
		size:       size,
		visibility: visibility,
		ticker:     ticker,
		now:        time.Now,
		logger:     log.Default(),
	}
}

func (a *Animator) SetLogger(l *log.Logger) { a.logger = l }

// Run blocks until ctx is cancelled. Subscriptions are released and the
// ticker stopped before it returns.
func (a *Animator) Run(ctx context.Context) error {
	resizes := make(chan size, 1)
	visibility := make(chan bool, 1)

	if a.size != nil {
		unsubscribe := a.size.OnResize(func(w, h float64) { offer(resizes, size{w, h}) })
		defer unsubscribe()
		a.target.Resize(a.size.Size())
	}
	if a.visibility != nil {
		unsubscribe := a.visibility.OnVisibilityChange(func(v bool) { offer(visibility, v) })
		defer unsubscribe()
	}

	var (
		ticker Ticker
		frames <-chan time.Time
		clock  frameClock
	)
	reconcile := func() {
		switch {
		case a.target.Running() && ticker == nil:
			ticker = a.ticker()
			frames = ticker.C()
			clock.last = a.now()
			a.logger.Debug("animation started")
		case !a.target.Running() && ticker != nil:
			ticker.Stop()
			ticker, frames = nil, nil
			a.logger.Debug("animation stopped")
		}
	}
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
	}()
	reconcile()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sz := <-resizes:
			a.target.Resize(sz.w, sz.h)
		case v := <-visibility:
			a.target.SetVisible(v)
			reconcile()
		case now := <-frames:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.target.Tick(clock.delta(now))
		}
	}
}

// offer replaces any pending value so the receiver only sees the latest.
func offer[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
