package factions

import (
	"errors"
	"fmt"

	"goi/internal/core"
)

var (
	// ErrResourceExhausted reports that the working buffers for a run cannot be
	// allocated.
	ErrResourceExhausted = errors.New("factions: resource exhausted")
	// ErrMalformedSchedule reports an invasion schedule that violates its
	// ordering or shape preconditions.
	ErrMalformedSchedule = errors.New("factions: malformed invasion schedule")
	// ErrDimensions reports inconsistent grid dimensions.
	ErrDimensions = errors.New("factions: bad dimensions")
	// ErrFactionRange reports a cell value outside [0, MaxFactions).
	ErrFactionRange = errors.New("factions: faction out of range")
)

// Invasion forcibly sets every nonzero cell of Plan at the given generation.
type Invasion struct {
	Generation int
	Plan       *core.Grid
}

// Schedule is an ordered list of invasions.
type Schedule []Invasion

// NewSchedule pairs invasion times with their plans. The result is not
// validated; call Validate before running it.
func NewSchedule(times []int, plans []*core.Grid) (Schedule, error) {
	if len(times) != len(plans) {
		return nil, fmt.Errorf("%w: %d times for %d plans", ErrMalformedSchedule, len(times), len(plans))
	}
	out := make(Schedule, len(times))
	for i := range times {
		out[i] = Invasion{Generation: times[i], Plan: plans[i]}
	}
	return out, nil
}

// Validate checks that generations are 1-based and strictly increasing and
// that every plan matches the world dimensions and holds valid factions.
func (s Schedule) Validate(rows, cols int) error {
	prev := 0
	for i, inv := range s {
		if inv.Generation < 1 {
			return fmt.Errorf("%w: invasion %d at generation %d", ErrMalformedSchedule, i, inv.Generation)
		}
		if inv.Generation <= prev {
			return fmt.Errorf("%w: invasion %d at generation %d does not follow generation %d",
				ErrMalformedSchedule, i, inv.Generation, prev)
		}
		prev = inv.Generation
		if inv.Plan == nil {
			return fmt.Errorf("%w: invasion %d has no plan", ErrMalformedSchedule, i)
		}
		if inv.Plan.Rows != rows || inv.Plan.Cols != cols {
			return fmt.Errorf("%w: invasion %d plan is %dx%d, world is %dx%d",
				ErrMalformedSchedule, i, inv.Plan.Rows, inv.Plan.Cols, rows, cols)
		}
		if err := checkFactions(inv.Plan); err != nil {
			return fmt.Errorf("invasion %d: %w", i, err)
		}
	}
	return nil
}

// Last returns the generation of the final invasion, or 0 when empty.
func (s Schedule) Last() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Generation
}

// cursor walks a schedule in order, one generation at a time.
type cursor struct {
	schedule Schedule
	next     int
}

// planFor returns the plan scheduled for generation gen, or nil. The cursor
// advances past an invasion once its generation has been asked for.
func (c *cursor) planFor(gen int) *core.Grid {
	if c.next >= len(c.schedule) {
		return nil
	}
	inv := c.schedule[c.next]
	if inv.Generation != gen {
		return nil
	}
	c.next++
	return inv.Plan
}

func checkFactions(g *core.Grid) error {
	for i, v := range g.Cells() {
		if int(v) >= core.MaxFactions {
			return fmt.Errorf("%w: cell %d holds %d", ErrFactionRange, i, v)
		}
	}
	return nil
}
