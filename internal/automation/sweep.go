package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/export"
	"github.com/san-kum/flicker/internal/metrics"
	"github.com/san-kum/flicker/internal/scene"
)

// Param names a layer option a sweep can vary.
type Param string

const (
	ParamFlickerChance Param = "flicker_chance"
	ParamMaxOpacity    Param = "max_opacity"
	ParamSquareSize    Param = "square_size"
	ParamGridGap       Param = "grid_gap"
)

func Params() []Param {
	return []Param{ParamFlickerChance, ParamMaxOpacity, ParamSquareSize, ParamGridGap}
}

func (p Param) set(l *config.LayerConfig, v float64) error {
	switch p {
	case ParamFlickerChance:
		l.FlickerChance = v
	case ParamMaxOpacity:
		l.MaxOpacity = v
	case ParamSquareSize:
		l.SquareSize = v
	case ParamGridGap:
		l.GridGap = v
	default:
		return fmt.Errorf("automation: unknown parameter %q", p)
	}
	return nil
}

// Sweep measures one layer while a single option steps from Min to Max.
// Every run uses the same seed so results differ only by the option. A
// zero seed is replaced by one random seed for the whole sweep.
type Sweep struct {
	Config *config.Config
	Layer  string
	Param  Param
	Min    float64
	Max    float64
	Steps  int
	Frames int
	Width  float64
	Height float64
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

// RunSweep executes the sweep. Layer defaults to the top layer.
func RunSweep(ctx context.Context, sweep *Sweep, logger *log.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	if sweep.Steps < 1 {
		return nil, errors.New("automation: sweep needs at least one step")
	}
	idx, err := layerIndex(sweep.Config, sweep.Layer)
	if err != nil {
		return nil, err
	}

	seed := config.ResolveSeed(sweep.Config.Seed)
	logger.Debug("sweep seed", "seed", seed)

	paramStep := 0.0
	if sweep.Steps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	}

	results := make([]SweepResult, 0, sweep.Steps)
	for i := 0; i < sweep.Steps; i++ {
		value := sweep.Min + float64(i)*paramStep
		cfg := sweep.Config.Clone()
		cfg.Seed = seed
		if err := sweep.Param.set(&cfg.Layers[idx], value); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%.4f: %w", sweep.Param, value, err)
		}

		s, err := scene.Build(cfg, config.NewRand(cfg.Seed))
		if err != nil {
			return nil, err
		}
		s.Resize(orDefault(sweep.Width, defaultWidth), orDefault(sweep.Height, defaultHeight))
		series, err := export.Sample(ctx, s, cfg.Layers[idx].Name, orDefault(sweep.Frames, defaultFrames), cfg.FPS, metrics.Default())
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{Value: value, Metrics: export.Means(series)})
		logger.Info("sweep", "step", i+1, "of", sweep.Steps, string(sweep.Param), value)
	}
	return results, nil
}

func layerIndex(cfg *config.Config, name string) (int, error) {
	if len(cfg.Layers) == 0 {
		return 0, config.ErrNoLayers
	}
	if name == "" {
		return len(cfg.Layers) - 1, nil
	}
	for i, l := range cfg.Layers {
		if l.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", export.ErrNoLayer, name)
}
