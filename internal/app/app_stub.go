//go:build !ebiten

package app

import (
	"errors"

	"goi/internal/core"
)

var errNoViewer = errors.New("app: the factions viewer is built only with -tags ebiten")

// Game stands in for the ebiten factions viewer in headless builds. Use
// cmd/goi -watch for a terminal view instead.
type Game struct{}

// New panics: there is no window to show the sim in without ebiten.
func New(core.Sim, int, int64, int) *Game {
	panic(errNoViewer)
}

// Reset does nothing; there is no sim attached.
func (g *Game) Reset(int64) {}

// Update reports errNoViewer.
func (g *Game) Update() error { return errNoViewer }

func (g *Game) Draw(any) {}

func (g *Game) Layout(int, int) (int, int) { return 0, 0 }
