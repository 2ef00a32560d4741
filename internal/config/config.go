package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/san-kum/flicker/internal/colorspec"
	"github.com/san-kum/flicker/internal/flicker"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFPS        = 60
	DefaultScale      = 1.0
	DefaultBackground = "#ffffff"
)

var ErrNoLayers = errors.New("config: no layers")

type Config struct {
	Seed       uint64        `yaml:"seed"`
	FPS        int           `yaml:"fps"`
	Scale      float64       `yaml:"scale"`
	Background string        `yaml:"background"`
	Layers     []LayerConfig `yaml:"layers"`
}

// LayerConfig describes one flickering grid. Mask is empty for an
// unmasked layer, "builtin" for the embedded silhouette, or a path to an
// SVG or image file.
type LayerConfig struct {
	Name             string  `yaml:"name"`
	SquareSize       float64 `yaml:"square_size"`
	GridGap          float64 `yaml:"grid_gap"`
	FlickerChance    float64 `yaml:"flicker_chance"`
	Color            string  `yaml:"color"`
	MaxOpacity       float64 `yaml:"max_opacity"`
	Width            float64 `yaml:"width,omitempty"`
	Height           float64 `yaml:"height,omitempty"`
	StartImmediately bool    `yaml:"start_immediately"`
	Mask             string  `yaml:"mask,omitempty"`
}

func DefaultLayer() LayerConfig {
	o := flicker.DefaultOptions()
	return LayerConfig{
		Name:          "grid",
		SquareSize:    o.SquareSize,
		GridGap:       o.GridGap,
		FlickerChance: o.FlickerChance,
		Color:         o.Color,
		MaxOpacity:    o.MaxOpacity,
	}
}

// UnmarshalYAML fills fields missing from the document with defaults.
func (l *LayerConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain LayerConfig
	p := plain(DefaultLayer())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*l = LayerConfig(p)
	return nil
}

func (l LayerConfig) Options() flicker.Options {
	return flicker.Options{
		SquareSize:       l.SquareSize,
		GridGap:          l.GridGap,
		FlickerChance:    l.FlickerChance,
		Color:            l.Color,
		MaxOpacity:       l.MaxOpacity,
		Width:            l.Width,
		Height:           l.Height,
		StartImmediately: l.StartImmediately,
	}
}

func DefaultConfig() *Config {
	return &Config{
		FPS:        DefaultFPS,
		Scale:      DefaultScale,
		Background: DefaultBackground,
		Layers:     []LayerConfig{DefaultLayer()},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.Layers = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Layers) == 0 {
		cfg.Layers = []LayerConfig{DefaultLayer()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if !(c.Scale > 0) {
		return fmt.Errorf("scale must be positive, got %f", c.Scale)
	}
	if _, err := colorspec.Parse(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	if len(c.Layers) == 0 {
		return ErrNoLayers
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if l.Name == "" {
			return fmt.Errorf("layer %d: missing name", i)
		}
		if seen[l.Name] {
			return fmt.Errorf("layer %s: duplicate name", l.Name)
		}
		seen[l.Name] = true
		if err := l.Options().Validate(); err != nil {
			return fmt.Errorf("layer %s: %w", l.Name, err)
		}
		if _, err := colorspec.Parse(l.Color); err != nil {
			return fmt.Errorf("layer %s: %w", l.Name, err)
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Layers = append([]LayerConfig(nil), c.Layers...)
	return &cp
}

// ResolveSeed returns seed, or a fresh random seed when seed is 0.
func ResolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return rand.Uint64()
	}
	return seed
}

// NewRand returns the random source for a seed. Equal seeds replay the
// same animation.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
