package flicker

import "image/color"

// Surface is an immediate-mode 2D target addressed in device pixels.
type Surface interface {
	ClearRect(x, y, w, h float64)
	FillRect(x, y, w, h float64, c color.NRGBA)
	// Scale is the number of device pixels per logical pixel.
	Scale() float64
}

// Resizer is implemented by surfaces whose backing store follows the
// logical drawing size.
type Resizer interface {
	Resize(width, height float64)
}

// ColorResolver turns a colour specification into its RGB components.
type ColorResolver interface {
	Resolve(spec string) (r, g, b uint8, err error)
}

// SizeSource reports the hosting surface size and notifies on change.
type SizeSource interface {
	Size() (width, height float64)
	OnResize(fn func(width, height float64)) (unsubscribe func())
}

// VisibilitySource notifies when the surface enters or leaves view.
type VisibilitySource interface {
	OnVisibilityChange(fn func(visible bool)) (unsubscribe func())
}

// Observer is told about every completed tick.
type Observer interface {
	Observe(g *Grid, resampled int, dt float64)
}

// Target is anything the Animator can drive: a single Simulator or a
// composition of them.
type Target interface {
	Resize(width, height float64)
	SetVisible(visible bool)
	Running() bool
	Tick(dt float64) bool
}
