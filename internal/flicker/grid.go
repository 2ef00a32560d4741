package flicker

import "math"

// Rand is the random source used for fills and flicker rolls.
// *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Grid holds one opacity per cell in column-major order.
type Grid struct {
	Cols, Rows int
	MaxOpacity float64
	Cells      []float64
}

// NewGrid allocates a cols x rows grid with every cell drawn uniformly
// from [0, maxOpacity).
func NewGrid(cols, rows int, maxOpacity float64, rng Rand) *Grid {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	if !fits(cols, rows) {
		cols, rows = 0, 0
	}
	g := &Grid{
		Cols:       cols,
		Rows:       rows,
		MaxOpacity: maxOpacity,
		Cells:      make([]float64, cols*rows),
	}
	for i := range g.Cells {
		g.Cells[i] = rng.Float64() * maxOpacity
	}
	return g
}

func (g *Grid) Index(col, row int) int  { return col*g.Rows + row }
func (g *Grid) At(col, row int) float64 { return g.Cells[g.Index(col, row)] }
func (g *Grid) Len() int                 { return len(g.Cells) }

func (g *Grid) Mean() float64 {
	if len(g.Cells) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range g.Cells {
		sum += v
	}
	return sum / float64(len(g.Cells))
}

func (g *Grid) Peak() float64 {
	peak := 0.0
	for _, v := range g.Cells {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Dimensions returns the number of columns and rows needed to cover a
// width x height area at the given pitch. Areas needing more than
// MaxCells cells yield an empty grid.
func Dimensions(width, height, pitch float64) (cols, rows int) {
	if !(pitch > 0) {
		return 0, 0
	}
	cols, rows = span(width, pitch), span(height, pitch)
	if !fits(cols, rows) {
		return 0, 0
	}
	return cols, rows
}

func span(extent, pitch float64) int {
	if !(extent > 0) || math.IsInf(extent, 0) {
		return 0
	}
	n := math.Ceil(extent / pitch)
	if n > MaxCells {
		return MaxCells + 1
	}
	return int(n)
}

func fits(cols, rows int) bool {
	return cols <= MaxCells && rows <= MaxCells && cols*rows <= MaxCells
}

// Flicker computes the next opacity of one cell. roll and sample are
// independent uniform draws from [0, 1); the cell is resampled when roll
// falls under chance*dt. The result is clamped to [0, maxOpacity].
func Flicker(current, dt, chance, maxOpacity, roll, sample float64) float64 {
	if roll < chance*dt {
		current = sample * maxOpacity
	}
	if current > maxOpacity {
		current = maxOpacity
	}
	if current < 0 {
		current = 0
	}
	return current
}

// Advance runs one flicker pass over every cell and returns how many
// cells were resampled. The sample draw is only taken for cells whose
// roll succeeds.
func (g *Grid) Advance(dt, chance, maxOpacity float64, rng Rand) int {
	if dt < 0 {
		dt = 0
	}
	threshold := chance * dt
	resampled := 0
	for i, v := range g.Cells {
		roll := rng.Float64()
		sample := 0.0
		if roll < threshold {
			sample = rng.Float64()
			resampled++
		}
		g.Cells[i] = Flicker(v, dt, chance, maxOpacity, roll, sample)
	}
	return resampled
}
