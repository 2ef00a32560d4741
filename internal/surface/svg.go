package surface

import (
	"fmt"
	"image/color"
	"math"

	svg "github.com/ajstarks/svgo"
)

// Rect is one filled rectangle recorded by an SVG surface.
type Rect struct {
	X, Y, W, H float64
	Color      color.NRGBA
}

// SVG records the rectangles of the last frame for vector output.
type SVG struct {
	width, height float64
	scale         float64
	rects         []Rect
}

func NewSVG(scale float64) *SVG {
	if !(scale > 0) {
		scale = 1
	}
	return &SVG{scale: scale}
}

func (s *SVG) Scale() float64 { return s.scale }
func (s *SVG) Rects() []Rect  { return s.rects }

// Size is the device size of the surface.
func (s *SVG) Size() (int, int) {
	return DeviceArea(s.width, s.height, s.scale)
}

func (s *SVG) Resize(width, height float64) {
	s.width, s.height = width, height
}

// ClearRect drops every recorded rectangle lying inside the cleared area.
func (s *SVG) ClearRect(x, y, w, h float64) {
	kept := s.rects[:0]
	for _, r := range s.rects {
		if r.X >= x && r.Y >= y && r.X+r.W <= x+w && r.Y+r.H <= y+h {
			continue
		}
		kept = append(kept, r)
	}
	s.rects = kept
}

func (s *SVG) FillRect(x, y, w, h float64, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	s.rects = append(s.rects, Rect{X: x, Y: y, W: w, H: h, Color: c})
}

// Draw writes the recorded rectangles as a group. coverage, when not nil,
// scales each rectangle's opacity by the value at its centre.
func (s *SVG) Draw(canvas *svg.SVG, id string, coverage func(x, y float64) float64) {
	canvas.Gid(id)
	for _, r := range s.rects {
		opacity := float64(r.Color.A) / 255
		if coverage != nil {
			opacity *= coverage(r.X+r.W/2, r.Y+r.H/2)
		}
		if opacity <= 0 {
			continue
		}
		px := pixelRect(r.X, r.Y, r.W, r.H)
		canvas.Rect(px.Min.X, px.Min.Y, px.Dx(), px.Dy(),
			fmt.Sprintf("fill:rgb(%d,%d,%d);fill-opacity:%.3f", r.Color.R, r.Color.G, r.Color.B, math.Min(opacity, 1)))
	}
	canvas.Gend()
}
