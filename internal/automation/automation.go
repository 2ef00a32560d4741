package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/export"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/metrics"
	"github.com/san-kum/flicker/internal/scene"
	"gopkg.in/yaml.v3"
)

const (
	defaultPreset = "hero"
	defaultFrames = 120
	defaultWidth  = 480
	defaultHeight = 270
)

var ErrNoSteps = errors.New("automation: scenario has no steps")

// Scenario is a scripted sequence of headless renders.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step renders one scene to Output. Config, when set, takes precedence
// over Preset.
type Step struct {
	Preset string  `yaml:"preset"`
	Config string  `yaml:"config"`
	Seed   uint64  `yaml:"seed"`
	Frames int     `yaml:"frames"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Output string  `yaml:"output"`
}

type StepResult struct {
	Step    int
	Output  string
	Seed    uint64
	Frames  int
	Metrics map[string]float64
}

// LoadScenario reads a scenario from a YAML file. Relative paths in the
// steps are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, ErrNoSteps
	}

	dir := filepath.Dir(path)
	for i := range scenario.Steps {
		s := &scenario.Steps[i]
		if s.Output == "" {
			return nil, fmt.Errorf("step %d: missing output", i+1)
		}
		if _, err := export.FormatFor(strings.ToLower(filepath.Ext(s.Output))); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		s.Output = resolve(dir, s.Output)
		if s.Config != "" {
			s.Config = resolve(dir, s.Config)
		}
	}
	return &scenario, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func (s Step) config() (*config.Config, error) {
	if s.Config != "" {
		return config.Load(s.Config)
	}
	name := s.Preset
	if name == "" {
		name = defaultPreset
	}
	cfg, err := config.GetPreset(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, name)
	}
	return cfg, nil
}

func orDefault[T int | float64](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// RunScenario executes every step in order and stops at the first
// failure, returning the results gathered so far.
func RunScenario(ctx context.Context, scenario *Scenario, logger *log.Logger) ([]StepResult, error) {
	if logger == nil {
		logger = log.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		logger.Info("running step", "step", i+1, "of", len(scenario.Steps), "output", step.Output)

		cfg, err := step.config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if step.Seed != 0 {
			cfg.Seed = step.Seed
		}
		cfg.Seed = config.ResolveSeed(cfg.Seed)
		s, err := scene.Build(cfg, config.NewRand(cfg.Seed), flicker.WithLogger(logger))
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		s.Resize(orDefault(step.Width, defaultWidth), orDefault(step.Height, defaultHeight))

		layers := s.Layers()
		top := layers[len(layers)-1]
		rec, series, err := export.RecordSampled(ctx, s, top.Name, orDefault(step.Frames, defaultFrames), cfg.FPS, metrics.Default())
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		format, _ := export.FormatFor(strings.ToLower(filepath.Ext(step.Output)))
		if err := os.MkdirAll(filepath.Dir(step.Output), 0755); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := export.WriteFile(step.Output, format, rec, s); err != nil {
			return results, fmt.Errorf("step %d write: %w", i+1, err)
		}

		results = append(results, StepResult{
			Step:    i + 1,
			Output:  step.Output,
			Seed:    cfg.Seed,
			Frames:  len(rec.Frames),
			Metrics: export.Means(series),
		})
	}
	return results, nil
}
