package scene

import (
	"fmt"
	"image/color"

	"github.com/san-kum/flicker/internal/colorspec"
	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/mask"
)

// Build assembles a scene from a validated configuration. All layers
// share rng.
func Build(cfg *config.Config, rng flicker.Rand, options ...flicker.Option) (*Scene, error) {
	bg, err := colorspec.Parse(cfg.Background)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	r, g, b := bg.Clamped().RGB255()
	s := New(color.RGBA{R: r, G: g, B: b, A: 0xff}, cfg.Scale)

	for _, lc := range cfg.Layers {
		var m mask.Mask
		if lc.Mask != "" {
			if m, err = mask.Load(lc.Mask); err != nil {
				return nil, fmt.Errorf("layer %s: %w", lc.Name, err)
			}
		}
		if _, err := s.AddLayer(lc.Name, lc.Options(), m, rng, options...); err != nil {
			return nil, err
		}
	}
	return s, nil
}
