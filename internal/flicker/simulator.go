package flicker

import (
	"fmt"
	"image/color"
	"math"

	"github.com/charmbracelet/log"
	"github.com/san-kum/flicker/internal/colorspec"
)

// Simulator is one flickering grid widget: it owns the grid, advances
// it on every tick and paints it onto its surface.
type Simulator struct {
	opts      Options
	resolver  ColorResolver
	rgb       [3]uint8
	resolved  bool
	rng       Rand
	grid      *Manager
	surface   Surface
	width     float64
	height    float64
	visible   bool
	phase     Phase
	observers []observer
	nextObs   int
	logger    *log.Logger
}

type observer struct {
	id int
	o  Observer
}

type Option func(*Simulator)

func WithResolver(r ColorResolver) Option {
	return func(s *Simulator) { s.resolver = r }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// New builds a simulator drawing onto surface. A nil surface is allowed;
// ticks are then skipped.
func New(opts Options, surface Surface, rng Rand, options ...Option) (*Simulator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		rng:      rng,
		grid:     NewManager(rng),
		surface:  surface,
		resolver: colorspec.Default,
		logger:   log.Default(),
	}
	for _, o := range options {
		o(s)
	}
	s.apply(opts)
	return s, nil
}

// AddObserver registers o for every tick and returns a func that
// detaches it. Calling the returned func more than once is a no-op.
func (s *Simulator) AddObserver(o Observer) (remove func()) {
	s.nextObs++
	id := s.nextObs
	s.observers = append(s.observers, observer{id: id, o: o})
	return func() {
		for i, x := range s.observers {
			if x.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Simulator) Options() Options { return s.opts }
func (s *Simulator) Grid() *Grid      { return s.grid.Grid() }
func (s *Simulator) Phase() Phase     { return s.phase }
func (s *Simulator) Running() bool    { return s.phase == Running }

// DrawSize is the logical size the grid covers.
func (s *Simulator) DrawSize() (float64, float64) { return s.opts.Size(s.width, s.height) }

// SetOptions swaps the configuration. The grid is reallocated when the
// derived geometry or the opacity ceiling changes.
func (s *Simulator) SetOptions(opts Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("set options: %w", err)
	}
	s.apply(opts)
	return nil
}

func (s *Simulator) apply(opts Options) {
	if !s.resolved || opts.Color != s.opts.Color {
		s.rgb = s.resolveColor(opts.Color)
		s.resolved = true
	}
	s.opts = opts
	s.setPhase(nextPhase(opts.StartImmediately, s.visible))
	s.Resize(s.width, s.height)
}

func (s *Simulator) resolveColor(spec string) [3]uint8 {
	if s.resolver == nil {
		return [3]uint8{}
	}
	r, g, b, err := s.resolver.Resolve(spec)
	if err != nil {
		s.logger.Warn("unresolved colour, using black", "color", spec, "err", err)
		return [3]uint8{}
	}
	return [3]uint8{r, g, b}
}

// Resize records the observed container size and brings the grid and
// the surface in line with it.
func (s *Simulator) Resize(width, height float64) {
	s.width, s.height = width, height
	w, h := s.opts.Size(width, height)
	if rs, ok := s.surface.(Resizer); ok {
		rs.Resize(w, h)
	}
	if s.grid.Update(width, height, s.opts) {
		g := s.grid.Grid()
		s.logger.Debug("grid allocated", "cols", g.Cols, "rows", g.Rows, "max_opacity", g.MaxOpacity)
	}
}

func (s *Simulator) SetVisible(visible bool) {
	s.visible = visible
	s.setPhase(nextPhase(s.opts.StartImmediately, visible))
}

func (s *Simulator) setPhase(p Phase) {
	if p == s.phase {
		return
	}
	s.logger.Debug("phase change", "from", s.phase, "to", p)
	s.phase = p
}

// Tick advances the grid by dt seconds and repaints it. It reports
// false when the simulator is idle, has nothing to draw on or covers
// no cells.
func (s *Simulator) Tick(dt float64) bool {
	if s.phase != Running || s.surface == nil || s.grid.Grid().Len() == 0 {
		return false
	}
	if math.IsNaN(dt) || dt < 0 {
		dt = 0
	}
	g := s.grid.Grid()
	resampled := g.Advance(dt, s.opts.FlickerChance, s.opts.MaxOpacity, s.rng)
	s.render(s.surface, g)
	for _, x := range s.observers {
		x.o.Observe(g, resampled, dt)
	}
	return true
}

// Render repaints the current grid without advancing it.
func (s *Simulator) Render() {
	s.RenderTo(s.surface)
}

// RenderTo paints the current grid onto another surface, e.g. for export.
func (s *Simulator) RenderTo(dst Surface) {
	if dst == nil {
		return
	}
	s.render(dst, s.grid.Grid())
}

func (s *Simulator) render(dst Surface, g *Grid) {
	scale := dst.Scale()
	w, h := s.opts.Size(s.width, s.height)
	dst.ClearRect(0, 0, w*scale, h*scale)

	pitch := s.opts.Pitch() * scale
	side := s.opts.SquareSize * scale
	c := color.NRGBA{R: s.rgb[0], G: s.rgb[1], B: s.rgb[2]}
	for i := 0; i < g.Cols; i++ {
		for j := 0; j < g.Rows; j++ {
			k := g.Index(i, j)
			if k >= len(g.Cells) {
				continue
			}
			c.A = alpha(g.Cells[k])
			dst.FillRect(float64(i)*pitch, float64(j)*pitch, side, side, c)
		}
	}
}

func alpha(opacity float64) uint8 {
	if opacity <= 0 {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(math.Round(opacity * 255))
}
