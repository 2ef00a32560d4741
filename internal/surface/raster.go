// Package surface provides draw surfaces for the flicker simulator.
package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Raster draws into an RGBA image whose size follows the logical drawing
// size multiplied by the device scale.
type Raster struct {
	img   *image.RGBA
	scale float64
}

func NewRaster(scale float64) *Raster {
	if !(scale > 0) {
		scale = 1
	}
	return &Raster{img: image.NewRGBA(image.Rectangle{}), scale: scale}
}

func (r *Raster) Scale() float64          { return r.scale }
func (r *Raster) Image() *image.RGBA      { return r.img }
func (r *Raster) Bounds() image.Rectangle { return r.img.Rect }

// MaxPixels bounds the area of one backing image.
const MaxPixels = 1 << 26

// Resize reallocates the backing image when the device size changes.
func (r *Raster) Resize(width, height float64) {
	w, h := DeviceArea(width, height, r.scale)
	if r.img.Rect.Dx() == w && r.img.Rect.Dy() == h {
		return
	}
	r.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (r *Raster) ClearRect(x, y, w, h float64) {
	draw.Draw(r.img, pixelRect(x, y, w, h).Intersect(r.img.Rect), image.Transparent, image.Point{}, draw.Src)
}

func (r *Raster) FillRect(x, y, w, h float64, c color.NRGBA) {
	if c.A == 0 {
		return
	}
	dr := pixelRect(x, y, w, h).Intersect(r.img.Rect)
	if dr.Empty() {
		return
	}
	draw.Draw(r.img, dr, image.NewUniform(c), image.Point{}, draw.Over)
}

// DeviceSize converts a logical extent to whole device pixels.
func DeviceSize(logical, scale float64) int {
	if !(logical > 0) || math.IsInf(logical, 0) {
		return 0
	}
	n := math.Ceil(logical*scale - 1e-9)
	if !(n <= MaxPixels) {
		return 0
	}
	return int(n)
}

// DeviceArea is DeviceSize for both axes. Areas above MaxPixels are
// empty.
func DeviceArea(width, height, scale float64) (int, int) {
	w, h := DeviceSize(width, scale), DeviceSize(height, scale)
	if w*h > MaxPixels {
		return 0, 0
	}
	return w, h
}

// pixelRect snaps a device-space rectangle to whole pixels. A non-empty
// rectangle always covers at least one pixel.
func pixelRect(x, y, w, h float64) image.Rectangle {
	x0, y0 := int(math.Round(x)), int(math.Round(y))
	x1, y1 := int(math.Round(x+w)), int(math.Round(y+h))
	if w > 0 && x1 == x0 {
		x1++
	}
	if h > 0 && y1 == y0 {
		y1++
	}
	return image.Rect(x0, y0, x1, y1)
}
