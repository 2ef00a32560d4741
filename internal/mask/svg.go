package mask

import (
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"
)

// Shape is a silhouette made of SVG paths, filled with the non-zero rule.
type Shape struct {
	viewBox [4]float64
	paths   [][]segment
}

// ParseSVG reads every <path d="..."> of an SVG document. The viewBox
// (or the width and height attributes, or the bounds of the paths)
// defines the area fitted into the mask.
func ParseSVG(r io.Reader) (*Shape, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = func(_ string, in io.Reader) (io.Reader, error) { return in, nil }

	s := &Shape{}
	haveBox := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse svg: %w", err)
		}
		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch el.Name.Local {
		case "svg":
			if box, ok := rootBox(el.Attr); ok && !haveBox {
				s.viewBox, haveBox = box, true
			}
		case "path":
			d := attr(el.Attr, "d")
			if d == "" {
				continue
			}
			segs, err := parsePathData(d)
			if err != nil {
				return nil, fmt.Errorf("parse svg: %w", err)
			}
			s.paths = append(s.paths, segs)
		}
	}
	if len(s.paths) == 0 {
		return nil, ErrNoPaths
	}
	if !haveBox {
		s.viewBox = s.bounds()
	}
	return s, nil
}

func attr(attrs []xml.Attr, name string) string {
	for _, a := range attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func rootBox(attrs []xml.Attr) ([4]float64, bool) {
	if vb := strings.Fields(strings.ReplaceAll(attr(attrs, "viewBox"), ",", " ")); len(vb) == 4 {
		var box [4]float64
		for i, f := range vb {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return box, false
			}
			box[i] = v
		}
		return box, box[2] > 0 && box[3] > 0
	}
	w, werr := strconv.ParseFloat(strings.TrimSuffix(attr(attrs, "width"), "px"), 64)
	h, herr := strconv.ParseFloat(strings.TrimSuffix(attr(attrs, "height"), "px"), 64)
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return [4]float64{}, false
	}
	return [4]float64{0, 0, w, h}, true
}

func (s *Shape) bounds() [4]float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, segs := range s.paths {
		for _, sg := range segs {
			for _, p := range sg.pts[:arity(sg.op)] {
				minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
				minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
			}
		}
	}
	if minX > maxX || minY > maxY {
		return [4]float64{0, 0, 1, 1}
	}
	return [4]float64{minX, minY, math.Max(maxX-minX, 1e-9), math.Max(maxY-minY, 1e-9)}
}

func arity(op opcode) int {
	switch op {
	case opMove, opLine:
		return 1
	case opQuad:
		return 2
	case opCube:
		return 3
	}
	return 0
}

// Render rasterizes the silhouette into a w x h alpha mask, scaled to fit
// and centred.
func (s *Shape) Render(w, h int) *image.Alpha {
	dst := image.NewAlpha(image.Rect(0, 0, max(w, 0), max(h, 0)))
	if w <= 0 || h <= 0 {
		return dst
	}
	fit := contain(s.viewBox[2], s.viewBox[3], w, h)
	tx := func(p point) (float32, float32) {
		return float32(fit.x + (p.x-s.viewBox[0])*fit.scale), float32(fit.y + (p.y-s.viewBox[1])*fit.scale)
	}

	z := vector.NewRasterizer(w, h)
	for _, segs := range s.paths {
		open := false
		for _, sg := range segs {
			switch sg.op {
			case opMove:
				if open {
					z.ClosePath()
				}
				z.MoveTo(tx(sg.pts[0]))
				open = true
			case opLine:
				z.LineTo(tx(sg.pts[0]))
				open = true
			case opQuad:
				bx, by := tx(sg.pts[0])
				cx, cy := tx(sg.pts[1])
				z.QuadTo(bx, by, cx, cy)
				open = true
			case opCube:
				bx, by := tx(sg.pts[0])
				cx, cy := tx(sg.pts[1])
				dx, dy := tx(sg.pts[2])
				z.CubeTo(bx, by, cx, cy, dx, dy)
				open = true
			case opClose:
				if open {
					z.ClosePath()
					open = false
				}
			}
		}
		if open {
			z.ClosePath()
		}
	}
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}
