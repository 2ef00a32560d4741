package config

import (
	"errors"
	"sort"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

// heroLayers reproduces the two-layer banner: a faint full-screen grid
// and a bright grid clipped by the silhouette.
func heroLayers(size, gap float64) []LayerConfig {
	return []LayerConfig{
		{
			Name: "background", Color: "#ffffff", MaxOpacity: 0.1, FlickerChance: 0.06,
			SquareSize: size, GridGap: gap, StartImmediately: true,
		},
		{
			Name: "silhouette", Color: "#ffffff", MaxOpacity: 1, FlickerChance: 0.53,
			SquareSize: size, GridGap: gap, StartImmediately: true, Mask: "builtin",
		},
	}
}

var Presets = map[string]*Config{
	"default": DefaultConfig(),
	"hero": {
		FPS: DefaultFPS, Scale: DefaultScale, Background: "#000000",
		Layers: heroLayers(3, 4),
	},
	"terminal": {
		FPS: 30, Scale: DefaultScale, Background: "#000000",
		Layers: heroLayers(1, 1),
	},
	"dense": {
		FPS: DefaultFPS, Scale: DefaultScale, Background: "#0a0a0a",
		Layers: []LayerConfig{{
			Name: "grid", Color: "#00ff88", MaxOpacity: 0.6, FlickerChance: 0.5,
			SquareSize: 2, GridGap: 2, StartImmediately: true,
		}},
	},
}

// GetPreset returns a copy of the named preset.
func GetPreset(name string) (*Config, error) {
	cfg, ok := Presets[name]
	if !ok {
		return nil, ErrUnknownPreset
	}
	return cfg.Clone(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
