// Package tui shows a scene in the terminal with Bubble Tea. Every
// terminal cell carries two vertically stacked pixels.
package tui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/flicker/internal/config"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/metrics"
	"github.com/san-kum/flicker/internal/scene"
	"github.com/san-kum/flicker/internal/surface"
)

const (
	statsWidth      = 36
	historyCapacity = 240
	opacityStep     = 0.05
	chanceStep      = 0.05
)

type TickMsg time.Time

// Model hosts a scene. Window size and terminal focus stand in for the
// container size and viewport visibility.
type Model struct {
	cfg    *config.Config
	logger *log.Logger
	scene  *scene.Scene
	stats  metrics.Set
	now    func() time.Time

	width, height int
	visible       bool
	paused        bool
	ticking       bool
	last          time.Time

	history   []float64
	showStats bool
	showHelp  bool
	theme     Theme
	styles    styles
	err       error
}

// NewModel builds the scene described by cfg. Rendering is done at one
// logical pixel per device pixel regardless of cfg.Scale.
func NewModel(cfg *config.Config, logger *log.Logger) (Model, error) {
	cfg = cfg.Clone()
	cfg.Scale = 1
	if logger == nil {
		logger = log.Default()
	}
	m := Model{
		cfg:     cfg,
		logger:  logger,
		stats:   metrics.Default(),
		now:     time.Now,
		visible: true,
		history: make([]float64, 0, historyCapacity),
		theme:   ThemeMono,
	}
	m.styles = newStyles(m.theme)
	if err := m.rebuild(); err != nil {
		return Model{}, err
	}
	m.ticking = m.scene.Running()
	return m, nil
}

// SetTheme selects a theme by name.
func (m *Model) SetTheme(name string) {
	m.theme = GetTheme(name)
	m.styles = newStyles(m.theme)
}

func (m Model) Scene() *scene.Scene { return m.scene }
func (m Model) Seed() uint64        { return m.cfg.Seed }
func (m Model) Err() error          { return m.err }

// rebuild replaces the scene, keeping size and visibility.
func (m *Model) rebuild() error {
	s, err := scene.Build(m.cfg, config.NewRand(m.cfg.Seed), flicker.WithLogger(m.logger))
	if err != nil {
		return err
	}
	if layers := s.Layers(); len(layers) > 0 {
		layers[len(layers)-1].Sim.AddObserver(m.stats)
	}
	m.scene = s
	m.stats.Reset()
	m.history = m.history[:0]
	m.layout()
	s.SetVisible(m.visible)
	return nil
}

// canvasSize is the grid area in terminal cells.
func (m Model) canvasSize() (cols, rows int) {
	cols, rows = m.width, m.height-1
	if m.showStats {
		cols -= statsWidth
	}
	return max(cols, 0), max(rows, 0)
}

func (m *Model) layout() {
	cols, rows := m.canvasSize()
	m.scene.Resize(float64(cols), float64(rows*2))
}

func tick(fps int) tea.Cmd {
	if fps <= 0 {
		fps = config.DefaultFPS
	}
	return tea.Tick(time.Second/time.Duration(fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	if m.ticking {
		return tick(m.cfg.FPS)
	}
	return nil
}

// schedule requests the next frame unless one is pending or the scene
// has nothing to animate.
func (m Model) schedule() (Model, tea.Cmd) {
	if m.ticking || m.paused || !m.scene.Running() {
		return m, nil
	}
	m.ticking = true
	if m.last.IsZero() {
		m.last = m.now()
	}
	return m, tick(m.cfg.FPS)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil
	case tea.FocusMsg:
		m.visible = true
		m.scene.SetVisible(true)
		return m.schedule()
	case tea.BlurMsg:
		m.visible = false
		m.scene.SetVisible(false)
		return m, nil
	case TickMsg:
		return m.step(time.Time(msg))
	}
	return m, nil
}

func (m Model) step(now time.Time) (tea.Model, tea.Cmd) {
	m.ticking = false
	if m.paused || !m.scene.Running() {
		m.last = time.Time{}
		return m, nil
	}
	dt := 0.0
	if !m.last.IsZero() {
		dt = max(now.Sub(m.last).Seconds(), 0)
	}
	m.last = now

	m.stats.Reset()
	m.scene.Tick(dt)
	m.history = append(m.history, m.stats[0].Value())
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	return m.schedule()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
		if m.paused {
			return m, nil
		}
		m.last = time.Time{}
		return m.schedule()
	case "r":
		m.cfg.Seed = rand.Uint64()
		if err := m.rebuild(); err != nil {
			m.err = err
			return m, nil
		}
		m.logger.Info("reseeded", "seed", m.cfg.Seed)
		return m.schedule()
	case "+", "=":
		m.adjust(func(o *flicker.Options) { o.MaxOpacity = min(o.MaxOpacity+opacityStep, 1) })
	case "-", "_":
		m.adjust(func(o *flicker.Options) { o.MaxOpacity = max(o.MaxOpacity-opacityStep, 0) })
	case "]":
		m.adjust(func(o *flicker.Options) { o.FlickerChance += chanceStep })
	case "[":
		m.adjust(func(o *flicker.Options) { o.FlickerChance = max(o.FlickerChance-chanceStep, 0) })
	case "s":
		m.showStats = !m.showStats
		m.layout()
	case "t":
		m.theme = nextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// adjust edits the options of the top layer, which carries the stats
// observer.
func (m *Model) adjust(edit func(*flicker.Options)) {
	layers := m.scene.Layers()
	if len(layers) == 0 {
		return
	}
	top := layers[len(layers)-1]
	opts := top.Sim.Options()
	edit(&opts)
	if err := top.Sim.SetOptions(opts); err != nil {
		m.err = err
		return
	}
	m.cfg.Layers[len(layers)-1] = updateLayer(m.cfg.Layers[len(layers)-1], opts)
}

func updateLayer(l config.LayerConfig, o flicker.Options) config.LayerConfig {
	l.MaxOpacity = o.MaxOpacity
	l.FlickerChance = o.FlickerChance
	return l
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	cols, rows := m.canvasSize()
	canvas := Canvas(m.scene.Frame(), cols, rows, m.scene.Background())

	main := canvas
	if m.showStats {
		main = lipgloss.JoinHorizontal(lipgloss.Top, canvas, m.statsView(rows))
	}
	if m.showHelp {
		return helpText + "\n" + m.statusLine()
	}
	return main + "\n" + m.statusLine()
}

func (m Model) statusLine() string {
	var status string
	switch {
	case m.paused:
		status = m.styles.paused.Render("PAUSED")
	case m.scene.Running():
		status = m.styles.status.Render("RUNNING")
	default:
		status = m.styles.paused.Render("IDLE")
	}
	line := fmt.Sprintf("%s  %s", status, m.styles.help.Render("space:pause r:reseed +/-:opacity [/]:chance s:stats t:theme ?:help q:quit"))
	if m.err != nil {
		line += "  " + m.styles.status.Render(m.err.Error())
	}
	return line
}

func (m Model) statsView(rows int) string {
	var sb strings.Builder
	sb.WriteString(Gradient("FLICKER", m.theme.Primary, m.theme.Secondary) + "\n\n")

	row := func(label, value string) {
		sb.WriteString(m.styles.label.Render(label) + m.styles.value.Render(value) + "\n")
	}
	row("seed", fmt.Sprintf("%d", m.cfg.Seed))
	row("layers", fmt.Sprintf("%d", len(m.scene.Layers())))
	if layers := m.scene.Layers(); len(layers) > 0 {
		top := layers[len(layers)-1]
		g := top.Sim.Grid()
		row("grid", fmt.Sprintf("%dx%d", g.Cols, g.Rows))
		row("max opacity", fmt.Sprintf("%.2f", top.Sim.Options().MaxOpacity))
		row("chance", fmt.Sprintf("%.2f/s", top.Sim.Options().FlickerChance))
	}
	values := m.stats.Values()
	row("mean", fmt.Sprintf("%.3f", values["mean_opacity"]))
	row("peak", fmt.Sprintf("%.3f", values["peak_opacity"]))

	if len(m.history) > 1 && rows > 16 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(min(6, rows-14)),
			asciigraph.Width(statsWidth-12),
			asciigraph.Caption("mean opacity"))
		sb.WriteString("\n" + m.styles.graph.Render(chart) + "\n")
	}
	return m.styles.panel.Height(rows).Render(sb.String())
}

// Canvas renders a frame as cols x rows half-block cells. Runs of
// identical cells share one style.
func Canvas(frame *image.RGBA, cols, rows int, bg color.RGBA) string {
	cells := surface.HalfBlocks(frame, cols, rows, bg)
	var sb strings.Builder
	for row := 0; row < rows; row++ {
		line := cells[row*cols : (row+1)*cols]
		for start := 0; start < len(line); {
			end := start + 1
			for end < len(line) && line[end] == line[start] {
				end++
			}
			style := lipgloss.NewStyle().
				Foreground(hex(line[start].Top)).
				Background(hex(line[start].Bottom))
			sb.WriteString(style.Render(strings.Repeat(string(surface.HalfBlock), end-start)))
			start = end
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hex(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hex())
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Reseed                   ║
║  + / -    - Top layer max opacity    ║
║  ] / [    - Top layer flicker chance ║
║  S        - Toggle stats panel       ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the program with focus reporting and blocks until it quits
// or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	}, opts...)
	_, err := tea.NewProgram(m, opts...).Run()
	return err
}
