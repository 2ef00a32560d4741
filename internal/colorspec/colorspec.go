// Package colorspec resolves CSS-style colour strings.
package colorspec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

var ErrUnknownColor = errors.New("colorspec: unknown color")

// Resolver satisfies flicker.ColorResolver.
type Resolver struct{}

var Default Resolver

func (Resolver) Resolve(spec string) (r, g, b uint8, err error) {
	c, err := Parse(spec)
	if err != nil {
		return 0, 0, 0, err
	}
	r, g, b = c.Clamped().RGB255()
	return r, g, b, nil
}

// Parse accepts #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(), hsl(),
// hsla() and CSS colour names. Alpha components are accepted and dropped.
func Parse(spec string) (colorful.Color, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		args, err := functionArgs(s, "rgb", "rgba")
		if err != nil {
			return colorful.Color{}, err
		}
		return parseRGB(args)
	case strings.HasPrefix(s, "hsl"):
		args, err := functionArgs(s, "hsl", "hsla")
		if err != nil {
			return colorful.Color{}, err
		}
		return parseHSL(args)
	}
	if c, ok := colornames.Map[s]; ok {
		return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}, nil
	}
	return colorful.Color{}, fmt.Errorf("%w: %q", ErrUnknownColor, spec)
}

func parseHex(s string) (colorful.Color, error) {
	switch len(s) {
	case 5:
		s = s[:4]
	case 9:
		s = s[:7]
	case 4, 7:
	default:
		return colorful.Color{}, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: %q: %v", ErrUnknownColor, s, err)
	}
	return c, nil
}

func functionArgs(s string, names ...string) ([]string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	name := strings.TrimSpace(s[:open])
	known := false
	for _, n := range names {
		known = known || n == name
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	body := strings.NewReplacer(",", " ", "/", " ").Replace(s[open+1 : len(s)-1])
	args := strings.Fields(body)
	if len(args) != 3 && len(args) != 4 {
		return nil, fmt.Errorf("%w: %q: want 3 or 4 components", ErrUnknownColor, s)
	}
	return args[:3], nil
}

func parseRGB(args []string) (colorful.Color, error) {
	var ch [3]float64
	for i, a := range args {
		v, err := component(a, 255)
		if err != nil {
			return colorful.Color{}, err
		}
		ch[i] = clamp(v/255, 0, 1)
	}
	return colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, nil
}

func parseHSL(args []string) (colorful.Color, error) {
	h, err := number(strings.TrimSuffix(args[0], "deg"))
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: hue %q", ErrUnknownColor, args[0])
	}
	s, err := component(args[1], 1)
	if err != nil {
		return colorful.Color{}, err
	}
	l, err := component(args[2], 1)
	if err != nil {
		return colorful.Color{}, err
	}
	h = h - 360*float64(int(h/360))
	if h < 0 {
		h += 360
	}
	return colorful.Hsl(h, clamp(s, 0, 1), clamp(l, 0, 1)), nil
}

// component parses a plain number or a percentage of full.
func component(a string, full float64) (float64, error) {
	if p, ok := strings.CutSuffix(a, "%"); ok {
		v, err := number(p)
		if err != nil {
			return 0, fmt.Errorf("%w: component %q", ErrUnknownColor, a)
		}
		return v / 100 * full, nil
	}
	v, err := number(a)
	if err != nil {
		return 0, fmt.Errorf("%w: component %q", ErrUnknownColor, a)
	}
	return v, nil
}

// number parses a finite float.
func number(a string) (float64, error) {
	v, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
