// Package termview draws generations in a terminal.
package termview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"goi/internal/core"
	"goi/internal/sims/factions"
)

// ErrQuit is returned from Snapshot once the user asks to stop.
var ErrQuit = errors.New("termview: quit")

// Viewer is a snapshot sink that paints each generation onto a tcell screen,
// one cell per character, with a status line underneath.
type Viewer struct {
	screen tcell.Screen
	pacer  *core.FixedStep

	events chan tcell.Event
	quit   chan struct{}
	styles [core.MaxFactions]tcell.Style
}

// Open initialises the controlling terminal and returns a viewer for it.
func Open(tps int) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return New(screen, tps)
}

// New initialises screen and paces snapshots at tps generations per second.
// A non-positive tps draws as fast as the simulation runs.
func New(screen tcell.Screen, tps int) (*Viewer, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()
	screen.Clear()

	v := &Viewer{
		screen: screen,
		events: make(chan tcell.Event, 16),
		quit:   make(chan struct{}),
	}
	if tps > 0 {
		v.pacer = core.NewFixedStep(tps)
	}
	for i, c := range factions.FactionPalette() {
		if i == int(core.Dead) {
			v.styles[i] = tcell.StyleDefault
			continue
		}
		v.styles[i] = tcell.StyleDefault.Background(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
	}
	go screen.ChannelEvents(v.events, v.quit)
	return v, nil
}

// Snapshot implements factions.SnapshotSink.
func (v *Viewer) Snapshot(generation int, g *core.Grid) error {
	if err := v.drainEvents(); err != nil {
		return err
	}
	if v.pacer != nil {
		v.pacer.Wait()
	}
	v.draw(generation, g)
	return nil
}

func (v *Viewer) drainEvents() error {
	for {
		select {
		case ev := <-v.events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return ErrQuit
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		default:
			return nil
		}
	}
}

func (v *Viewer) draw(generation int, g *core.Grid) {
	width, height := v.screen.Size()
	rows := min(g.Rows, height-1)
	cols := min(g.Cols, width)
	v.screen.Clear()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			f := g.At(row, col)
			v.screen.SetContent(col, row, ' ', nil, v.styles[f])
		}
	}
	for i, r := range status(generation, g) {
		if i >= width {
			break
		}
		v.screen.SetContent(i, rows, r, nil, tcell.StyleDefault)
	}
	v.screen.Show()
}

func status(generation int, g *core.Grid) string {
	var b strings.Builder
	fmt.Fprintf(&b, "generation %d", generation)
	census := g.Census()
	for f := 1; f < core.MaxFactions; f++ {
		if census[f] > 0 {
			fmt.Fprintf(&b, "  f%d:%d", f, census[f])
		}
	}
	b.WriteString("  [q] quit")
	return b.String()
}

// Close restores the terminal.
func (v *Viewer) Close() {
	close(v.quit)
	v.screen.Fini()
}
