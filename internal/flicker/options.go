package flicker

import "math"

const (
	DefaultSquareSize    = 4.0
	DefaultGridGap       = 6.0
	DefaultFlickerChance = 0.3
	DefaultColor         = "rgb(0, 0, 0)"
	DefaultMaxOpacity    = 0.3

	// MaxCells bounds the number of cells one grid may hold.
	MaxCells = 1 << 24
)

// Options is the per-instance configuration of one flickering grid.
// Width and Height override the observed container size when positive.
type Options struct {
	SquareSize       float64
	GridGap          float64
	FlickerChance    float64
	Color            string
	MaxOpacity       float64
	Width            float64
	Height           float64
	StartImmediately bool
}

func DefaultOptions() Options {
	return Options{
		SquareSize:    DefaultSquareSize,
		GridGap:       DefaultGridGap,
		FlickerChance: DefaultFlickerChance,
		Color:         DefaultColor,
		MaxOpacity:    DefaultMaxOpacity,
	}
}

// Pitch is the repeating spatial period of the grid.
func (o Options) Pitch() float64 {
	return o.SquareSize + o.GridGap
}

// Size resolves the drawing size from the observed container size.
func (o Options) Size(width, height float64) (float64, float64) {
	if o.Width > 0 {
		width = o.Width
	}
	if o.Height > 0 {
		height = o.Height
	}
	return width, height
}

func (o Options) Validate() error {
	switch {
	case !finite(o.SquareSize) || o.SquareSize <= 0:
		return &OptionError{Field: "square size", Value: o.SquareSize}
	case !finite(o.GridGap) || o.GridGap < 0:
		return &OptionError{Field: "grid gap", Value: o.GridGap}
	case !finite(o.FlickerChance) || o.FlickerChance < 0:
		return &OptionError{Field: "flicker chance", Value: o.FlickerChance}
	case !finite(o.MaxOpacity) || o.MaxOpacity < 0 || o.MaxOpacity > 1:
		return &OptionError{Field: "max opacity", Value: o.MaxOpacity}
	case !finite(o.Width) || o.Width < 0:
		return &OptionError{Field: "width", Value: o.Width}
	case !finite(o.Height) || o.Height < 0:
		return &OptionError{Field: "height", Value: o.Height}
	case span(o.Width, o.Pitch()) > MaxCells:
		return &OptionError{Field: "width", Value: o.Width}
	case span(o.Height, o.Pitch()) > MaxCells:
		return &OptionError{Field: "height", Value: o.Height}
	case !fits(span(o.Width, o.Pitch()), span(o.Height, o.Pitch())):
		return &OptionError{Field: "size", Value: o.Width * o.Height}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
