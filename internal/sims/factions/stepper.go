package factions

import (
	"golang.org/x/sync/errgroup"

	"goi/internal/core"
)

// Strategy selects how a generation's cells are evaluated.
type Strategy int

const (
	// Parallel evaluates row blocks on a bounded pool of goroutines.
	Parallel Strategy = iota
	// Sequential evaluates every cell on the calling goroutine.
	Sequential
)

func (s Strategy) String() string {
	switch s {
	case Sequential:
		return "sequential"
	default:
		return "parallel"
	}
}

type rowBlock struct {
	lo, hi int
}

// Stepper owns the double buffer for a run: the current generation, the
// buffer its successor is written into, and a scratch overlay for invasions.
type Stepper struct {
	cur     *core.Grid
	nxt     *core.Grid
	overlay *core.Grid

	strategy Strategy
	threads  int
	blocks   []rowBlock
	partial  []int
}

// NewStepper copies start into a fresh working buffer. The caller keeps
// ownership of start.
func NewStepper(start *core.Grid, threads int, strategy Strategy) *Stepper {
	s := &Stepper{
		cur:      start.Clone(),
		nxt:      core.NewGrid(start.Rows, start.Cols),
		strategy: strategy,
	}
	s.SetThreads(threads)
	return s
}

// SetThreads resizes the worker pool used by the parallel strategy. Values
// below one are treated as one.
func (s *Stepper) SetThreads(threads int) {
	if threads < 1 {
		threads = 1
	}
	s.threads = threads
	s.blocks = partitionRows(s.cur.Rows, threads)
	s.partial = make([]int, len(s.blocks))
}

// Threads reports the configured pool size.
func (s *Stepper) Threads() int { return s.threads }

// Current exposes the latest generation. It is overwritten by the next Step
// after that, so callers that keep it must Clone.
func (s *Stepper) Current() *core.Grid { return s.cur }

// Step advances one generation. plan is the invasion for this generation or
// nil; it is copied and never modified. A plan whose shape differs from the
// world is ignored. Step returns the number of deaths by fighting in the
// generation.
func (s *Stepper) Step(plan *core.Grid) int {
	var overlay *core.Grid
	if plan != nil && plan.SameShape(s.cur) {
		if s.overlay == nil {
			s.overlay = core.NewGrid(s.cur.Rows, s.cur.Cols)
		}
		if s.overlay.CopyFrom(plan) {
			overlay = s.overlay
		}
	}

	var deaths int
	if s.strategy == Sequential || len(s.blocks) <= 1 {
		deaths = evaluateRows(s.cur, overlay, s.nxt, 0, s.cur.Rows)
	} else {
		deaths = s.stepParallel(overlay)
	}

	s.cur, s.nxt = s.nxt, s.cur
	return deaths
}

func (s *Stepper) stepParallel(overlay *core.Grid) int {
	var g errgroup.Group
	g.SetLimit(s.threads)
	for i, b := range s.blocks {
		g.Go(func() error {
			s.partial[i] = evaluateRows(s.cur, overlay, s.nxt, b.lo, b.hi)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, n := range s.partial {
		total += n
	}
	return total
}

// evaluateRows writes the successor of rows [lo, hi) of cur into next and
// returns the deaths by fighting among them.
func evaluateRows(cur, overlay, next *core.Grid, lo, hi int) int {
	deaths := 0
	out := next.Cells()
	for row := lo; row < hi; row++ {
		for col := 0; col < cur.Cols; col++ {
			state, fought := NextState(cur, overlay, row, col)
			out[next.Index(row, col)] = state
			if fought {
				deaths++
			}
		}
	}
	return deaths
}

// partitionRows splits rows into at most parts contiguous, near-equal blocks.
func partitionRows(rows, parts int) []rowBlock {
	if rows <= 0 {
		return nil
	}
	if parts > rows {
		parts = rows
	}
	blocks := make([]rowBlock, 0, parts)
	base, extra := rows/parts, rows%parts
	lo := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < extra {
			size++
		}
		blocks = append(blocks, rowBlock{lo: lo, hi: lo + size})
		lo += size
	}
	return blocks
}
