package factions

import (
	"goi/internal/core"
	pcore "goi/pkg/core"
)

// World runs the factions automaton one generation per Step for interactive
// viewers. Invasions are drawn at random every Params.InvasionEvery
// generations.
type World struct {
	cfg Config

	stepper    *Stepper
	rng        *pcore.RNG
	generation int
	deathToll  int

	lastInvasion *core.Grid
	invasionMask []float32
	display      []uint8
}

// New returns a factions world with the provided dimensions using defaults.
func New(w, h int) *World {
	cfg := DefaultConfig()
	cfg.Width = w
	cfg.Height = h
	return NewWithConfig(cfg)
}

// NewWithConfig returns a factions world configured from the provided options.
func NewWithConfig(cfg Config) *World {
	if cfg.Width < 0 {
		cfg.Width = 0
	}
	if cfg.Height < 0 {
		cfg.Height = 0
	}
	total := cfg.Width * cfg.Height
	w := &World{
		cfg:          cfg,
		invasionMask: make([]float32, total),
		display:      make([]uint8, total),
	}
	w.Reset(0)
	return w
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "factions" }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return core.Size{W: w.cfg.Width, H: w.cfg.Height} }

// Cells exposes the current display buffer: one faction id per cell.
func (w *World) Cells() []uint8 { return w.display }

// Grid exposes the current generation.
func (w *World) Grid() *core.Grid { return w.stepper.Current() }

// Generation reports how many generations have run since the last Reset.
func (w *World) Generation() int { return w.generation }

// DeathToll reports deaths by fighting since the last Reset.
func (w *World) DeathToll() int { return w.deathToll }

// InvasionMask marks the cells forced by the most recent invasion with 1.
func (w *World) InvasionMask() []float32 { return w.invasionMask }

// Reset generates a new start world. A zero seed reuses the configured seed.
func (w *World) Reset(seed int64) {
	effective := seed
	if effective == 0 {
		effective = w.cfg.Seed
	}
	start := Generate(GenConfig{
		Rows:     w.cfg.Height,
		Cols:     w.cfg.Width,
		Factions: w.cfg.Params.Factions,
		Density:  w.cfg.Params.Density,
		Scale:    w.cfg.Params.Scale,
		Seed:     effective,
	})
	w.stepper = NewStepper(start, w.cfg.Threads, Parallel)
	w.rng = pcore.NewRNG(effective ^ 0x5eed)
	w.generation = 0
	w.deathToll = 0
	w.lastInvasion = nil
	for i := range w.invasionMask {
		w.invasionMask[i] = 0
	}
	w.rebuildDisplay()
}

// Step advances the world by one generation.
func (w *World) Step() {
	if w.cfg.Width == 0 || w.cfg.Height == 0 {
		return
	}
	w.generation++
	var plan *core.Grid
	every := w.cfg.Params.InvasionEvery
	if every > 0 && w.generation%every == 0 {
		plan = randomInvasion(w.rng, w.cfg.Height, w.cfg.Width, w.cfg.Params.InvasionRadius, w.cfg.Params.Factions)
	}
	w.deathToll += w.stepper.Step(plan)
	w.lastInvasion = plan
	w.rebuildMask()
	w.rebuildDisplay()
}

func (w *World) rebuildMask() {
	if w.lastInvasion == nil {
		for i := range w.invasionMask {
			w.invasionMask[i] = 0
		}
		return
	}
	for i, v := range w.lastInvasion.Cells() {
		if v != core.Dead {
			w.invasionMask[i] = 1
		} else {
			w.invasionMask[i] = 0
		}
	}
}

func (w *World) rebuildDisplay() {
	for i, v := range w.stepper.Current().Cells() {
		w.display[i] = uint8(v)
	}
}

func init() {
	core.Register("factions", func(cfg map[string]string) core.Sim {
		return NewWithConfig(FromMap(cfg))
	})
}
