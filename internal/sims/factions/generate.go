package factions

import (
	"github.com/ojrac/opensimplex-go"

	"goi/internal/core"
	pcore "goi/pkg/core"
)

// GenConfig controls random world generation.
type GenConfig struct {
	Rows     int
	Cols     int
	Factions int
	// Density is the probability that a cell starts alive.
	Density float64
	// Scale is the territory size in cells; larger values give broader fronts.
	Scale float64
	Seed  int64
}

// Generate builds a start world where each live cell belongs to whichever
// faction's noise field is strongest at that point, so factions hold
// contiguous territories with contested borders.
func Generate(cfg GenConfig) *core.Grid {
	g := core.NewGrid(cfg.Rows, cfg.Cols)
	factions := clampFactions(cfg.Factions)
	scale := cfg.Scale
	if scale <= 0 {
		scale = 16
	}

	fields := make([]opensimplex.Noise, factions)
	for i := range fields {
		fields[i] = opensimplex.New(cfg.Seed + int64(i)*7919)
	}
	rng := pcore.NewRNG(cfg.Seed)
	cells := g.Cells()
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if !rng.Chance(cfg.Density) {
				continue
			}
			x, y := float64(col)/scale, float64(row)/scale
			best, bestVal := 0, fields[0].Eval2(x, y)
			for i := 1; i < factions; i++ {
				if v := fields[i].Eval2(x, y); v > bestVal {
					best, bestVal = i, v
				}
			}
			cells[g.Index(row, col)] = core.Faction(best + 1)
		}
	}
	return g
}

// RandomSchedule schedules a disc-shaped invasion by a random faction every
// `every` generations up to and including generations.
func RandomSchedule(rows, cols, generations, every, radius, factions int, seed int64) Schedule {
	if every <= 0 || rows <= 0 || cols <= 0 {
		return nil
	}
	rng := pcore.NewRNG(seed)
	var out Schedule
	for gen := every; gen <= generations; gen += every {
		out = append(out, Invasion{Generation: gen, Plan: randomInvasion(rng, rows, cols, radius, factions)})
	}
	return out
}

// randomInvasion draws a filled disc of a single random faction.
func randomInvasion(rng *pcore.RNG, rows, cols, radius, factions int) *core.Grid {
	plan := core.NewGrid(rows, cols)
	if radius < 0 {
		radius = 0
	}
	f := core.Faction(1 + rng.IntN(clampFactions(factions)))
	cy, cx := rng.IntN(rows), rng.IntN(cols)
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			plan.Set(cy+dy, cx+dx, f)
		}
	}
	return plan
}

func clampFactions(n int) int {
	if n < 1 {
		return 1
	}
	if n > core.MaxFactions-1 {
		return core.MaxFactions - 1
	}
	return n
}

// RandomInput generates a start world from cfg and schedules a random
// invasion every `every` generations.
func RandomInput(cfg GenConfig, generations, every, radius, threads int) Input {
	return Input{
		Start:       Generate(cfg),
		Generations: generations,
		Schedule:    RandomSchedule(cfg.Rows, cfg.Cols, generations, every, radius, cfg.Factions, cfg.Seed+1),
		Threads:     threads,
	}
}
