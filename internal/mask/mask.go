// Package mask renders silhouettes into alpha masks that are fitted into
// a target area the way CSS mask-size: contain with a centred position
// does.
package mask

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"
)

var ErrNoPaths = errors.New("mask: svg contains no paths")

//go:embed assets/silhouette.svg
var silhouette []byte

// Mask renders itself into a w x h alpha image.
type Mask interface {
	Render(w, h int) *image.Alpha
}

// Default returns the built-in silhouette.
func Default() *Shape {
	s, err := ParseSVG(bytes.NewReader(silhouette))
	if err != nil {
		panic(fmt.Sprintf("mask: embedded silhouette: %v", err))
	}
	return s
}

// Load reads a mask from an .svg file or from any decodable image, whose
// alpha channel becomes the mask. The name "builtin" selects Default.
func Load(path string) (Mask, error) {
	if path == "builtin" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load mask: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		shape, err := ParseSVG(f)
		if err != nil {
			return nil, fmt.Errorf("load mask %s: %w", path, err)
		}
		return shape, nil
	}
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load mask %s: %w", path, err)
	}
	return FromImage(img), nil
}

// Bitmap is a mask taken from the alpha channel of an image.
type Bitmap struct {
	src image.Image
}

func FromImage(img image.Image) *Bitmap {
	return &Bitmap{src: img}
}

func (b *Bitmap) Render(w, h int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, max(w, 0), max(h, 0)))
	sb := b.src.Bounds()
	if w <= 0 || h <= 0 || sb.Empty() {
		return dst
	}
	fit := contain(float64(sb.Dx()), float64(sb.Dy()), w, h)
	dr := image.Rect(
		int(fit.x+0.5), int(fit.y+0.5),
		int(fit.x+float64(sb.Dx())*fit.scale+0.5), int(fit.y+float64(sb.Dy())*fit.scale+0.5),
	)
	xdraw.ApproxBiLinear.Scale(dst, dr, b.src, sb, xdraw.Src, nil)
	return dst
}

type placement struct {
	x, y, scale float64
}

// contain scales a srcW x srcH box to fit inside w x h, centred.
func contain(srcW, srcH float64, w, h int) placement {
	if srcW <= 0 || srcH <= 0 {
		return placement{scale: 1}
	}
	scale := min(float64(w)/srcW, float64(h)/srcH)
	return placement{
		x:     (float64(w) - srcW*scale) / 2,
		y:     (float64(h) - srcH*scale) / 2,
		scale: scale,
	}
}

// Coverage samples a rendered mask at (x, y) and returns a value in [0, 1].
// Points outside the mask are uncovered; a nil mask covers everything.
func Coverage(a *image.Alpha, x, y float64) float64 {
	if a == nil {
		return 1
	}
	p := image.Pt(int(x), int(y))
	if x < 0 || y < 0 || !p.In(a.Rect) {
		return 0
	}
	return float64(a.AlphaAt(p.X, p.Y).A) / 255
}
