package factions

import "goi/internal/core"

// isBirthable reports whether n same-faction neighbours bring a dead cell to life.
func isBirthable(n int) bool { return n == 3 }

// isSurvivable reports whether n friendly neighbours keep a live cell alive.
func isSurvivable(n int) bool { return n == 2 || n == 3 }

// willFight reports whether n hostile neighbours kill a live cell.
func willFight(n int) bool { return n > 0 }

// NextState computes the faction occupying (row, col) in the next generation
// and whether the transition counts as a death by fighting. overlay may be nil
// when no invasion is scheduled. Coordinates must lie inside cur and every
// value in cur must be a valid faction.
func NextState(cur, overlay *core.Grid, row, col int) (core.Faction, bool) {
	idx := cur.Index(row, col)
	self := cur.Cells()[idx]

	if overlay != nil {
		if invader := overlay.Cells()[idx]; invader != core.Dead {
			return invader, self != core.Dead && self != invader
		}
	}

	counts := neighbourCounts(cur, row, col)

	if self == core.Dead {
		// Ascending scan: the highest qualifying faction wins a contested birth.
		next := core.Dead
		for f := 1; f < core.MaxFactions; f++ {
			if isBirthable(counts[f]) {
				next = core.Faction(f)
			}
		}
		return next, false
	}

	hostile := 0
	for f := 1; f < core.MaxFactions; f++ {
		if f == int(self) {
			continue
		}
		hostile += counts[f]
	}
	if willFight(hostile) {
		return core.Dead, true
	}
	if !isSurvivable(counts[self]) {
		return core.Dead, false
	}
	return self, false
}

// neighbourCounts tallies the Moore neighbourhood of (row, col) by faction.
// Neighbours beyond the edge of the board are not counted.
func neighbourCounts(g *core.Grid, row, col int) [core.MaxFactions]int {
	var counts [core.MaxFactions]int
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			v := g.At(row+dy, col+dx)
			if v == core.NoCell {
				continue
			}
			counts[v]++
		}
	}
	return counts
}
