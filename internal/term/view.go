// Package term shows a scene on a tcell screen. Unlike the Bubble Tea
// view it is driven by flicker.Animator, with the screen acting as size
// and visibility source.
package term

import (
	"context"
	"errors"
	"image/color"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/san-kum/flicker/internal/flicker"
	"github.com/san-kum/flicker/internal/scene"
	"github.com/san-kum/flicker/internal/surface"
)

// View adapts a tcell screen to the animator's collaborators. Each
// terminal cell shows two pixels, so sizes are reported as cols x 2*rows.
type View struct {
	screen tcell.Screen
	scene  *scene.Scene

	mu         sync.Mutex
	nextID     int
	resizes    map[int]func(w, h float64)
	visibility map[int]func(bool)
}

func New(screen tcell.Screen, s *scene.Scene) *View {
	return &View{
		screen:     screen,
		scene:      s,
		resizes:    make(map[int]func(w, h float64)),
		visibility: make(map[int]func(bool)),
	}
}

func (v *View) Size() (float64, float64) {
	cols, rows := v.screen.Size()
	return float64(cols), float64(rows * 2)
}

func (v *View) OnResize(fn func(w, h float64)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.resizes[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.resizes, id)
		v.mu.Unlock()
	}
}

func (v *View) OnVisibilityChange(fn func(bool)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.visibility[id] = fn
	return func() {
		v.mu.Lock()
		delete(v.visibility, id)
		v.mu.Unlock()
	}
}

// Resize, SetVisible, Running and Tick make the view a flicker.Target
// that redraws the screen after the scene changes.
func (v *View) Resize(w, h float64) {
	v.scene.Resize(w, h)
	v.Draw()
}

func (v *View) SetVisible(visible bool) { v.scene.SetVisible(visible) }
func (v *View) Running() bool           { return v.scene.Running() }

func (v *View) Tick(dt float64) bool {
	if !v.scene.Tick(dt) {
		return false
	}
	v.Draw()
	return true
}

// Draw paints the current frame onto the screen.
func (v *View) Draw() {
	cols, rows := v.screen.Size()
	bg := v.scene.Background()
	cells := surface.HalfBlocks(v.scene.Frame(), cols, rows, bg)
	for i, c := range cells {
		style := tcell.StyleDefault.Foreground(rgb(c.Top)).Background(rgb(c.Bottom))
		v.screen.SetContent(i%cols, i/cols, surface.HalfBlock, nil, style)
	}
	v.screen.Show()
}

func rgb(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// handle dispatches one screen event and reports whether the view should
// keep running.
func (v *View) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
			return false
		}
	case *tcell.EventResize:
		cols, rows := ev.Size()
		v.notifyResize(float64(cols), float64(rows*2))
	case *tcell.EventFocus:
		v.notifyVisibility(ev.Focused)
	}
	return true
}

func (v *View) notifyResize(w, h float64) {
	v.mu.Lock()
	fns := make([]func(w, h float64), 0, len(v.resizes))
	for _, fn := range v.resizes {
		fns = append(fns, fn)
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn(w, h)
	}
}

func (v *View) notifyVisibility(visible bool) {
	v.mu.Lock()
	fns := make([]func(bool), 0, len(v.visibility))
	for _, fn := range v.visibility {
		fns = append(fns, fn)
	}
	v.mu.Unlock()
	for _, fn := range fns {
		fn(visible)
	}
}

// Run animates s on an initialised screen until a quit key is pressed or
// ctx is cancelled. The screen starts out visible; focus events toggle it.
func Run(ctx context.Context, screen tcell.Screen, s *scene.Scene, fps int, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if logger == nil {
		logger = log.Default()
	}
	screen.EnableFocus()
	v := New(screen, s)
	s.SetVisible(true)

	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		screen.ChannelEvents(events, quit)
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if !v.handle(ev) {
					logger.Debug("quit requested")
					cancel()
					return
				}
			}
		}
	}()

	a := flicker.NewAnimator(v, v, v, flicker.FrameTicker(fps))
	a.SetLogger(logger)
	err := a.Run(ctx)
	close(quit)
	wg.Wait()

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
