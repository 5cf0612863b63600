package termview

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"goi/internal/core"
	"goi/internal/sims/factions"
)

func newSimViewer(t *testing.T) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	v, err := New(screen, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Close)
	return v, screen
}

func TestViewerPaintsFactions(t *testing.T) {
	v, screen := newSimViewer(t)
	g := core.GridFrom(2, 3, []core.Faction{0, 2, 0, 5, 0, 0})
	if err := v.Snapshot(7, g); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	cells, width, _ := screen.GetContents()
	palette := factions.FactionPalette()
	_, bg, _ := cells[1].Style.Decompose()
	want := tcell.NewRGBColor(int32(palette[2].R), int32(palette[2].G), int32(palette[2].B))
	if bg != want {
		t.Fatalf("faction 2 background = %v, want %v", bg, want)
	}
	_, bg, _ = cells[width].Style.Decompose()
	if bg != tcell.NewRGBColor(int32(palette[5].R), int32(palette[5].G), int32(palette[5].B)) {
		t.Fatalf("faction 5 background = %v", bg)
	}
	if _, bg, _ = cells[0].Style.Decompose(); bg != tcell.ColorDefault {
		t.Fatalf("dead cell background = %v, want default", bg)
	}

	var line strings.Builder
	for _, c := range cells[2*width : 3*width] {
		line.WriteString(string(c.Runes))
	}
	if got := line.String(); !strings.HasPrefix(got, "generation 7  f2:1  f5:1") {
		t.Fatalf("unexpected status line %q", got)
	}
}

func TestViewerQuitKey(t *testing.T) {
	v, screen := newSimViewer(t)
	g := core.NewGrid(2, 2)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		err := v.Snapshot(0, g)
		if errors.Is(err, ErrQuit) {
			return
		}
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("viewer never reported ErrQuit")
}
