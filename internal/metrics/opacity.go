package metrics

import "github.com/san-kum/flicker/internal/flicker"

// MeanOpacity is the average cell opacity over all observed ticks.
type MeanOpacity struct {
	name    string
	sum     float64
	samples int
}

func NewMeanOpacity() *MeanOpacity {
	return &MeanOpacity{name: "mean_opacity"}
}

func (m *MeanOpacity) Name() string { return m.name }

func (m *MeanOpacity) Observe(g *flicker.Grid, resampled int, dt float64) {
	if g.Len() == 0 {
		return
	}
	m.sum += g.Mean()
	m.samples++
}

func (m *MeanOpacity) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanOpacity) Reset() {
	m.sum = 0
	m.samples = 0
}

// PeakOpacity is the brightest cell seen since the last reset.
type PeakOpacity struct {
	name string
	peak float64
}

func NewPeakOpacity() *PeakOpacity {
	return &PeakOpacity{name: "peak_opacity"}
}

func (p *PeakOpacity) Name() string { return p.name }

func (p *PeakOpacity) Observe(g *flicker.Grid, resampled int, dt float64) {
	p.peak = max(p.peak, g.Peak())
}

func (p *PeakOpacity) Value() float64 { return p.peak }
func (p *PeakOpacity) Reset()         { p.peak = 0 }
