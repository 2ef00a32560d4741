package metrics

import "github.com/san-kum/flicker/internal/flicker"

// Metric accumulates a value over the ticks it observes.
type Metric interface {
	Name() string
	Observe(g *flicker.Grid, resampled int, dt float64)
	Value() float64
	Reset()
}

// Set fans one tick out to several metrics. It satisfies flicker.Observer.
type Set []Metric

func (s Set) Observe(g *flicker.Grid, resampled int, dt float64) {
	for _, m := range s {
		m.Observe(g, resampled, dt)
	}
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Values maps metric names to their current values.
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func Default() Set {
	return Set{NewMeanOpacity(), NewPeakOpacity(), NewResampleRate()}
}
