// Package export renders scenes headlessly at a fixed frame rate and
// encodes the result.
package export

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/metrics"
	"github.com/san-kum/flicker/internal/scene"
)

var (
	ErrEmptyScene = errors.New("export: scene has no drawable area")
	ErrNoFrames   = errors.New("export: no frames recorded")
	ErrNoLayer    = errors.New("export: no such layer")
)

// Recording is a sequence of composited frames captured at FPS.
type Recording struct {
	FPS    int
	Frames []*image.RGBA
}

// Clock returns a closed channel holding n timestamps spaced 1/fps apart,
// the first one 1/fps after start.
func Clock(start time.Time, n, fps int) <-chan time.Time {
	interval := time.Second / time.Duration(fps)
	ch := make(chan time.Time, max(n, 0))
	for i := 1; i <= n; i++ {
		ch <- start.Add(time.Duration(i) * interval)
	}
	close(ch)
	return ch
}

func prepare(s *scene.Scene, fps int) error {
	if fps <= 0 {
		return errors.New("export: fps must be positive")
	}
	if w, h := s.DeviceSize(); w == 0 || h == 0 {
		return ErrEmptyScene
	}
	// Headless output is always in view.
	s.SetVisible(true)
	return nil
}

// Record ticks the scene frames times at dt = 1/fps and keeps a copy of
// every composited frame.
func Record(ctx context.Context, s *scene.Scene, frames, fps int) (*Recording, error) {
	rec, _, err := capture(ctx, s, frames, fps, nil, nil, true)
	return rec, err
}

// RecordSampled records like Record and samples set against the named
// layer like Sample, in a single pass.
func RecordSampled(ctx context.Context, s *scene.Scene, layer string, frames, fps int, set metrics.Set) (*Recording, []Series, error) {
	l := s.Layer(layer)
	if l == nil {
		return nil, nil, ErrNoLayer
	}
	return capture(ctx, s, frames, fps, l, set, true)
}

// Sample ticks the scene like Record and evaluates set against the named
// layer after every frame. Each value covers that frame alone.
func Sample(ctx context.Context, s *scene.Scene, layer string, frames, fps int, set metrics.Set) ([]Series, error) {
	l := s.Layer(layer)
	if l == nil {
		return nil, ErrNoLayer
	}
	_, series, err := capture(ctx, s, frames, fps, l, set, false)
	return series, err
}

func capture(ctx context.Context, s *scene.Scene, frames, fps int, l *scene.Layer, set metrics.Set, keep bool) (*Recording, []Series, error) {
	if err := prepare(s, fps); err != nil {
		return nil, nil, err
	}
	n := max(frames, 0)

	rec := &Recording{FPS: fps}
	if keep {
		rec.Frames = make([]*image.RGBA, 0, n)
	}
	var series []Series
	if l != nil {
		series = make([]Series, len(set))
		for i, m := range set {
			series[i] = Series{Name: m.Name(), Values: make([]float64, 0, n)}
		}
		obs := &sampler{set: set}
		defer l.Sim.AddObserver(obs)()
	}

	start := time.Unix(0, 0)
	err := flicker.Run(ctx, Clock(start, frames, fps), start, func(dt float64) {
		if l != nil {
			set.Reset()
		}
		s.Tick(dt)
		if keep {
			rec.Frames = append(rec.Frames, clone(s.Frame()))
		}
		if l != nil {
			for i, m := range set {
				series[i].Values = append(series[i].Values, m.Value())
			}
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return rec, series, nil
}

func clone(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}

// Series is one metric sampled once per frame.
type Series struct {
	Name   string
	Values []float64
}

type sampler struct {
	set metrics.Set
}

func (s *sampler) Observe(g *flicker.Grid, resampled int, dt float64) {
	s.set.Observe(g, resampled, dt)
}
