// Package scene stacks flickering grids into one picture: each layer has
// its own simulator and surface, and may be clipped by a silhouette mask.
package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/mask"
	"github.com/san-kum/flicker/internal/surface"
)

type Layer struct {
	Name   string
	Sim    *flicker.Simulator
	Raster *surface.Raster
	Mask   mask.Mask

	alpha *image.Alpha
}

// maskAlpha renders the layer mask at the given device size, reusing the
// previous rendering when the size is unchanged.
func (l *Layer) maskAlpha(w, h int) *image.Alpha {
	if l.Mask == nil {
		return nil
	}
	if l.alpha == nil || l.alpha.Rect.Dx() != w || l.alpha.Rect.Dy() != h {
		l.alpha = l.Mask.Render(w, h)
	}
	return l.alpha
}

// Scene satisfies flicker.Target, so an Animator can drive every layer
// at once.
type Scene struct {
	background color.RGBA
	scale      float64
	layers     []*Layer
	width      float64
	height     float64
	frame      *image.RGBA
}

func New(background color.RGBA, scale float64) *Scene {
	if !(scale > 0) {
		scale = 1
	}
	return &Scene{
		background: background,
		scale:      scale,
		frame:      image.NewRGBA(image.Rectangle{}),
	}
}

// AddLayer stacks a new grid on top of the existing ones.
func (s *Scene) AddLayer(name string, opts flicker.Options, m mask.Mask, rng flicker.Rand, options ...flicker.Option) (*Layer, error) {
	raster := surface.NewRaster(s.scale)
	sim, err := flicker.New(opts, raster, rng, options...)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", name, err)
	}
	sim.Resize(s.width, s.height)
	l := &Layer{Name: name, Sim: sim, Raster: raster, Mask: m}
	s.layers = append(s.layers, l)
	return l, nil
}

func (s *Scene) Layers() []*Layer         { return s.layers }
func (s *Scene) Background() color.RGBA   { return s.background }
func (s *Scene) Scale() float64           { return s.scale }
func (s *Scene) Size() (float64, float64) { return s.width, s.height }

func (s *Scene) Layer(name string) *Layer {
	for _, l := range s.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// DeviceSize is the size of composited frames in pixels.
func (s *Scene) DeviceSize() (int, int) {
	return surface.DeviceArea(s.width, s.height, s.scale)
}

func (s *Scene) Resize(width, height float64) {
	s.width, s.height = width, height
	for _, l := range s.layers {
		l.Sim.Resize(width, height)
	}
}

func (s *Scene) SetVisible(visible bool) {
	for _, l := range s.layers {
		l.Sim.SetVisible(visible)
	}
}

func (s *Scene) Running() bool {
	for _, l := range s.layers {
		if l.Sim.Running() {
			return true
		}
	}
	return false
}

// Tick advances every running layer and reports whether any did.
func (s *Scene) Tick(dt float64) bool {
	ticked := false
	for _, l := range s.layers {
		if l.Sim.Tick(dt) {
			ticked = true
		}
	}
	return ticked
}

// Frame composites the layers over the background. The returned image is
// reused by the next call.
func (s *Scene) Frame() *image.RGBA {
	w, h := s.DeviceSize()
	if s.frame.Rect.Dx() != w || s.frame.Rect.Dy() != h {
		s.frame = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	draw.Draw(s.frame, s.frame.Rect, image.NewUniform(s.background), image.Point{}, draw.Src)

	for _, l := range s.layers {
		src := l.Raster.Image()
		r := src.Rect.Intersect(s.frame.Rect)
		if r.Empty() {
			continue
		}
		if a := l.maskAlpha(w, h); a != nil {
			draw.DrawMask(s.frame, r, src, r.Min, a, r.Min, draw.Over)
			continue
		}
		draw.Draw(s.frame, r, src, r.Min, draw.Over)
	}
	return s.frame
}

// WriteSVG writes the current state of every layer as one SVG document.
// Masked layers scale each cell's opacity by the mask coverage at the
// cell centre.
func (s *Scene) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	fw, fh := s.DeviceSize()
	canvas := svg.New(ew)
	canvas.Start(fw, fh)
	bg := s.background
	canvas.Rect(0, 0, fw, fh, fmt.Sprintf("fill:rgb(%d,%d,%d)", bg.R, bg.G, bg.B))
	for _, l := range s.layers {
		rec := surface.NewSVG(s.scale)
		rec.Resize(l.Sim.DrawSize())
		l.Sim.RenderTo(rec)

		var coverage func(x, y float64) float64
		if a := l.maskAlpha(fw, fh); a != nil {
			coverage = func(x, y float64) float64 { return mask.Coverage(a, x, y) }
		}
		rec.Draw(canvas, l.Name, coverage)
	}
	canvas.End()
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
