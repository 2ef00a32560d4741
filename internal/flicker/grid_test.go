package flicker

import (
	"math"
	"math/rand/v2"
	"testing"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		pitch         float64
		cols, rows    int
	}{
		{"exact", 100, 50, 10, 10, 5},
		{"partial cells round up", 101, 41, 10, 11, 5},
		{"zero size", 0, 0, 10, 0, 0},
		{"negative size", -5, 20, 10, 0, 2},
		{"zero pitch", 100, 100, 0, 0, 0},
		{"nan", math.NaN(), 10, 10, 0, 1},
		{"too many cells", 1e10, 1e10, 10, 0, 0},
		{"one huge axis", 1e30, 10, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows := Dimensions(tt.width, tt.height, tt.pitch)
			if cols != tt.cols || rows != tt.rows {
				t.Errorf("expected %dx%d, got %dx%d", tt.cols, tt.rows, cols, rows)
			}
		})
	}
}

func TestNewGrid(t *testing.T) {
	g := NewGrid(10, 5, 0.5, seeded(1))

	if g.Len() != 50 {
		t.Fatalf("expected 50 cells, got %d", g.Len())
	}
	for k, v := range g.Cells {
		if v < 0 || v >= 0.5 {
			t.Errorf("cell %d: %f outside [0, 0.5)", k, v)
		}
	}
}

func TestNewGridTooLarge(t *testing.T) {
	g := NewGrid(MaxCells, 2, 0.5, seeded(1))
	if g.Len() != 0 || g.Cols != 0 || g.Rows != 0 {
		t.Errorf("expected empty grid, got %dx%d with %d cells", g.Cols, g.Rows, g.Len())
	}
}

func TestGridIndexColumnMajor(t *testing.T) {
	g := NewGrid(3, 4, 1, seeded(2))

	if g.Index(0, 3) != 3 {
		t.Errorf("expected index 3, got %d", g.Index(0, 3))
	}
	if g.Index(2, 1) != 9 {
		t.Errorf("expected index 9, got %d", g.Index(2, 1))
	}
	g.Cells[9] = 0.75
	if g.At(2, 1) != 0.75 {
		t.Errorf("expected 0.75, got %f", g.At(2, 1))
	}
}

func TestFlicker(t *testing.T) {
	tests := []struct {
		name                                         string
		current, dt, chance, max, roll, sample, want float64
	}{
		{"resample", 0.1, 1, 0.5, 0.4, 0.2, 0.5, 0.2},
		{"roll misses", 0.1, 1, 0.5, 0.4, 0.6, 0.5, 0.1},
		{"probability scales with dt", 0.1, 0.1, 0.5, 0.4, 0.06, 0.5, 0.1},
		{"clamp to ceiling", 0.9, 1, 0, 0.3, 0.5, 0.5, 0.3},
		{"floor at zero", -0.2, 1, 0, 0.3, 0.5, 0.5, 0},
		{"zero dt never resamples", 0.1, 0, 1, 0.4, 0, 0.9, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flicker(tt.current, tt.dt, tt.chance, tt.max, tt.roll, tt.sample)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestAdvanceZeroChanceOnlyClamps(t *testing.T) {
	g := NewGrid(8, 8, 0.5, seeded(3))
	before := append([]float64(nil), g.Cells...)

	resampled := g.Advance(0.016, 0, 0.5, seeded(4))
	if resampled != 0 {
		t.Errorf("expected no resamples, got %d", resampled)
	}
	for k := range g.Cells {
		if g.Cells[k] != before[k] {
			t.Fatalf("cell %d changed from %f to %f", k, before[k], g.Cells[k])
		}
	}
}

func TestAdvanceLargeDtResamplesAll(t *testing.T) {
	g := NewGrid(20, 10, 0.5, seeded(5))

	resampled := g.Advance(10, 1, 0.5, seeded(6))
	if float64(resampled) < 0.99*float64(g.Len()) {
		t.Errorf("expected at least 99%% resampled, got %d of %d", resampled, g.Len())
	}
}

func TestAdvanceClampsAfterCeilingDrop(t *testing.T) {
	g := NewGrid(16, 16, 0.9, seeded(7))

	g.Advance(0.016, 0.3, 0.2, seeded(8))
	for k, v := range g.Cells {
		if v > 0.2 {
			t.Fatalf("cell %d: %f exceeds new ceiling", k, v)
		}
	}
}

func TestAdvanceNegativeDt(t *testing.T) {
	g := NewGrid(4, 4, 0.5, seeded(9))
	before := append([]float64(nil), g.Cells...)

	if n := g.Advance(-1, 1, 0.5, seeded(10)); n != 0 {
		t.Errorf("expected no resamples for negative dt, got %d", n)
	}
	for k := range g.Cells {
		if g.Cells[k] != before[k] {
			t.Fatalf("cell %d changed", k)
		}
	}
}

func TestManagerUpdate(t *testing.T) {
	m := NewManager(seeded(11))
	opts := DefaultOptions()

	if !m.Update(100, 50, opts) {
		t.Fatal("expected first update to allocate")
	}
	first := m.Grid()
	if first.Cols != 10 || first.Rows != 5 {
		t.Fatalf("expected 10x5, got %dx%d", first.Cols, first.Rows)
	}

	if m.Update(95, 45, opts) {
		t.Error("same geometry should keep the grid")
	}
	if m.Grid() != first {
		t.Error("grid pointer changed without reallocation")
	}

	if !m.Update(200, 50, opts) {
		t.Fatal("expected resize to reallocate")
	}
	if m.Grid() == first || m.Grid().Len() != 100 {
		t.Errorf("expected a new 100-cell grid, got %d cells", m.Grid().Len())
	}

	opts.MaxOpacity = 0.1
	if !m.Update(200, 50, opts) {
		t.Fatal("expected ceiling change to reallocate")
	}
	for _, v := range m.Grid().Cells {
		if v >= 0.1 {
			t.Fatalf("cell %f not below new ceiling", v)
		}
	}
}

func TestManagerFixedSize(t *testing.T) {
	m := NewManager(seeded(12))
	opts := DefaultOptions()
	opts.Width, opts.Height = 30, 20

	m.Update(1000, 1000, opts)
	g := m.Grid()
	if g.Cols != 3 || g.Rows != 2 {
		t.Errorf("expected fixed 3x2, got %dx%d", g.Cols, g.Rows)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero square", func(o *Options) { o.SquareSize = 0 }},
		{"negative gap", func(o *Options) { o.GridGap = -1 }},
		{"negative chance", func(o *Options) { o.FlickerChance = -0.1 }},
		{"opacity above one", func(o *Options) { o.MaxOpacity = 1.5 }},
		{"nan width", func(o *Options) { o.Width = math.NaN() }},
		{"negative height", func(o *Options) { o.Height = -1 }},
		{"huge width", func(o *Options) { o.Width = 1e30 }},
		{"too many cells", func(o *Options) { o.Width, o.Height = 1e10, 1e10 }},
	}

	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
