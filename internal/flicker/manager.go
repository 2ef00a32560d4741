package flicker

// Manager owns the grid of one widget and reallocates it when the
// derived geometry or the opacity ceiling changes. Old values are never
// migrated: the grid pointer is swapped for a freshly filled one.
type Manager struct {
	grid *Grid
	rng  Rand
}

func NewManager(rng Rand) *Manager {
	return &Manager{grid: &Grid{}, rng: rng}
}

func (m *Manager) Grid() *Grid { return m.grid }

// Update derives cols and rows from the container size (or the fixed
// overrides in opts) and reports whether a new grid was allocated.
func (m *Manager) Update(width, height float64, opts Options) bool {
	width, height = opts.Size(width, height)
	cols, rows := Dimensions(width, height, opts.Pitch())
	g := m.grid
	if g != nil && g.Cols == cols && g.Rows == rows && g.MaxOpacity == opts.MaxOpacity {
		return false
	}
	m.grid = NewGrid(cols, rows, opts.MaxOpacity, m.rng)
	return true
}
