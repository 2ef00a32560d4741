package metrics

import "github.com/san-kum/flicker/internal/flicker"

// ResampleRate is the observed number of resamples per cell per second.
// For a running grid it converges on the flicker chance.
type ResampleRate struct {
	name      string
	resampled int
	cellTime  float64
}

func NewResampleRate() *ResampleRate {
	return &ResampleRate{name: "resample_rate"}
}

func (r *ResampleRate) Name() string { return r.name }

func (r *ResampleRate) Observe(g *flicker.Grid, resampled int, dt float64) {
	r.resampled += resampled
	r.cellTime += float64(g.Len()) * dt
}

func (r *ResampleRate) Value() float64 {
	if r.cellTime == 0 {
		return 0
	}
	return float64(r.resampled) / r.cellTime
}

func (r *ResampleRate) Reset() {
	r.resampled = 0
	r.cellTime = 0
}
