package flicker

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunDeliversDeltas(t *testing.T) {
	start := time.Unix(100, 0)
	frames := make(chan time.Time, 3)
	frames <- start.Add(16 * time.Millisecond)
	frames <- start.Add(48 * time.Millisecond)
	frames <- start.Add(40 * time.Millisecond)
	close(frames)

	var got []float64
	err := Run(context.Background(), frames, start, func(dt float64) { got = append(got, dt) })
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := []float64{0.016, 0.032, 0}
	if len(got) != len(want) {
		t.Fatalf("expected %d ticks, got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("tick %d: expected dt %f, got %f", i, want[i], got[i])
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	frames := make(chan time.Time)
	done := make(chan error, 1)
	ticks := 0

	go func() {
		done <- Run(ctx, frames, time.Now(), func(float64) { ticks++ })
	}()
	frames <- time.Now()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not return after cancel")
	}
	if ticks != 1 {
		t.Errorf("expected 1 tick, got %d", ticks)
	}
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeSources struct {
	mu      sync.Mutex
	w, h    float64
	resize  func(w, h float64)
	visible func(bool)
	unsubs  int
}

func (f *fakeSources) Size() (float64, float64) { return f.w, f.h }

func (f *fakeSources) OnResize(fn func(w, h float64)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resize = fn
	return func() { f.mu.Lock(); f.unsubs++; f.resize = nil; f.mu.Unlock() }
}

func (f *fakeSources) OnVisibilityChange(fn func(bool)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visible = fn
	return func() { f.mu.Lock(); f.unsubs++; f.visible = nil; f.mu.Unlock() }
}

func (f *fakeSources) setVisible(v bool) {
	f.mu.Lock()
	fn := f.visible
	f.mu.Unlock()
	if fn != nil {
		fn(v)
	}
}

func (f *fakeSources) setSize(w, h float64) {
	f.mu.Lock()
	fn := f.resize
	f.mu.Unlock()
	if fn != nil {
		fn(w, h)
	}
}

func (f *fakeSources) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resize != nil && f.visible != nil
}

func (f *fakeSources) unsubscribed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubs
}

// recordingTarget is only touched from the animator goroutine; the
// channels let the test observe it.
type recordingTarget struct {
	running bool
	sizes   chan [2]float64
	ticks   chan float64
}

func newRecordingTarget() *recordingTarget {
	return &recordingTarget{sizes: make(chan [2]float64, 16), ticks: make(chan float64, 16)}
}

func (r *recordingTarget) Resize(w, h float64) { r.sizes <- [2]float64{w, h} }
func (r *recordingTarget) SetVisible(v bool)   { r.running = v }
func (r *recordingTarget) Running() bool       { return r.running }
func (r *recordingTarget) Tick(dt float64) bool {
	r.ticks <- dt
	return true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestAnimatorLifecycle(t *testing.T) {
	sources := &fakeSources{w: 120, h: 80}
	target := newRecordingTarget()

	var mu sync.Mutex
	var tickers []*fakeTicker
	started := func() int { mu.Lock(); defer mu.Unlock(); return len(tickers) }
	newTicker := func() Ticker {
		mu.Lock()
		defer mu.Unlock()
		ft := &fakeTicker{c: make(chan time.Time)}
		tickers = append(tickers, ft)
		return ft
	}

	anim := NewAnimator(target, sources, sources, newTicker)
	base := time.Unix(0, 0)
	anim.now = func() time.Time { return base }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- anim.Run(ctx) }()

	if sz := <-target.sizes; sz != [2]float64{120, 80} {
		t.Errorf("expected initial size 120x80, got %v", sz)
	}
	waitFor(t, sources.subscribed)
	if started() != 0 {
		t.Fatal("ticker must not start while idle")
	}

	sources.setSize(200, 100)
	if sz := <-target.sizes; sz != [2]float64{200, 100} {
		t.Errorf("expected resize to 200x100, got %v", sz)
	}

	sources.setVisible(true)
	waitFor(t, func() bool { return started() == 1 })
	first := tickers[0]
	first.c <- base.Add(20 * time.Millisecond)
	if dt := <-target.ticks; math.Abs(dt-0.02) > 1e-9 {
		t.Errorf("expected dt 0.02, got %f", dt)
	}

	sources.setVisible(false)
	waitFor(t, first.stopped.Load)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("animator did not stop")
	}
	if n := sources.unsubscribed(); n != 2 {
		t.Errorf("expected 2 unsubscribes, got %d", n)
	}
	if len(target.ticks) != 0 {
		t.Error("unexpected ticks after visibility loss")
	}
}

func TestAnimatorStopsTickerOnCancel(t *testing.T) {
	opts := DefaultOptions()
	opts.StartImmediately = true
	sim := newTestSimulator(t, opts, &recordingSurface{scale: 1})

	ft := &fakeTicker{c: make(chan time.Time)}
	anim := NewAnimator(sim, &fakeSources{w: 50, h: 50}, nil, func() Ticker { return ft })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- anim.Run(ctx) }()

	ft.c <- time.Now()
	cancel()
	<-done

	if !ft.stopped.Load() {
		t.Error("ticker should be stopped on cancel")
	}
	if sim.Grid().Len() != 25 {
		t.Errorf("expected 5x5 grid from size source, got %d cells", sim.Grid().Len())
	}
}
