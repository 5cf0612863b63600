package factions

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"lukechampine.com/blake3"

	"goi/internal/core"
)

// DefaultMaxCells caps the size of a single working buffer.
const DefaultMaxCells = 1 << 28

// SnapshotSink receives every generation's grid, starting with generation 0.
// Implementations must not retain g past the call.
type SnapshotSink interface {
	Snapshot(generation int, g *core.Grid) error
}

// SinkFunc adapts a function to SnapshotSink.
type SinkFunc func(generation int, g *core.Grid) error

// Snapshot calls f.
func (f SinkFunc) Snapshot(generation int, g *core.Grid) error { return f(generation, g) }

// Input describes one simulation run. Start and the invasion plans are read
// but never modified.
type Input struct {
	Start       *core.Grid
	Generations int
	Schedule    Schedule
	Threads     int
}

// Result summarises a finished run.
type Result struct {
	DeathToll   int
	Generations int
	Final       *core.Grid
	Census      [core.MaxFactions]int
	Elapsed     time.Duration
}

type options struct {
	sink     SnapshotSink
	logger   *zap.Logger
	strategy Strategy
	maxCells int
}

// Option customises Simulate.
type Option func(*options)

// WithSink emits every generation to sink.
func WithSink(sink SnapshotSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithLogger routes run logging to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithStrategy picks sequential or parallel evaluation.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithMaxCells overrides DefaultMaxCells.
func WithMaxCells(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxCells = n
		}
	}
}

// Simulate advances in.Start by in.Generations generations, applying the
// invasion schedule, and returns the cumulative number of deaths by fighting.
// Sequential and parallel strategies produce identical results for any
// thread count.
func Simulate(ctx context.Context, in Input, opts ...Option) (Result, error) {
	o := options{logger: zap.NewNop(), strategy: Parallel, maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(&o)
	}
	if err := in.validate(o.maxCells); err != nil {
		return Result{}, err
	}

	log := o.logger.With(
		zap.Int("rows", in.Start.Rows),
		zap.Int("cols", in.Start.Cols),
		zap.Int("threads", in.Threads),
		zap.Stringer("strategy", o.strategy),
	)
	log.Info("simulation started", zap.Int("generations", in.Generations), zap.Int("invasions", len(in.Schedule)))

	started := time.Now()
	stepper := NewStepper(in.Start, in.Threads, o.strategy)
	if err := emit(o.sink, 0, stepper.Current()); err != nil {
		return Result{}, err
	}

	invasions := cursor{schedule: in.Schedule}
	toll := 0
	for gen := 1; gen <= in.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		plan := invasions.planFor(gen)
		if plan != nil {
			log.Debug("invasion", zap.Int("generation", gen))
		}
		toll += stepper.Step(plan)
		if err := emit(o.sink, gen, stepper.Current()); err != nil {
			return Result{}, err
		}
	}

	final := stepper.Current()
	res := Result{
		DeathToll:   toll,
		Generations: in.Generations,
		Final:       final,
		Census:      final.Census(),
		Elapsed:     time.Since(started),
	}
	log.Info("simulation finished", zap.Int("death_toll", toll), zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

func emit(sink SnapshotSink, gen int, g *core.Grid) error {
	if sink == nil {
		return nil
	}
	if err := sink.Snapshot(gen, g); err != nil {
		return fmt.Errorf("snapshot generation %d: %w", gen, err)
	}
	return nil
}

func (in Input) validate(maxCells int) error {
	if in.Start == nil {
		return fmt.Errorf("%w: no start world", ErrDimensions)
	}
	rows, cols := in.Start.Rows, in.Start.Cols
	if rows < 0 || cols < 0 || rows*cols != in.Start.Len() {
		return fmt.Errorf("%w: start world is %dx%d with %d cells", ErrDimensions, rows, cols, in.Start.Len())
	}
	if in.Generations < 0 {
		return fmt.Errorf("%w: negative generation count %d", ErrDimensions, in.Generations)
	}
	if err := checkCells(rows, cols, maxCells); err != nil {
		return err
	}
	if err := checkFactions(in.Start); err != nil {
		return fmt.Errorf("start world: %w", err)
	}
	if err := in.Schedule.Validate(rows, cols); err != nil {
		return err
	}
	if last := in.Schedule.Last(); last > in.Generations {
		return fmt.Errorf("%w: invasion at generation %d after final generation %d",
			ErrMalformedSchedule, last, in.Generations)
	}
	return nil
}

func checkCells(rows, cols, maxCells int) error {
	if rows == 0 || cols == 0 {
		return nil
	}
	if rows > math.MaxInt/cols || rows*cols > maxCells {
		return fmt.Errorf("%w: %dx%d exceeds %d cells", ErrResourceExhausted, rows, cols, maxCells)
	}
	return nil
}

// Status codes returned by Goi in place of a death toll.
const (
	// GoiOutOfMemory reports that the working buffers could not be allocated.
	GoiOutOfMemory = -1
	// GoiMalformedSchedule reports invasion times and plans that do not form
	// a valid schedule.
	GoiMalformedSchedule = -2
	// GoiBadDimensions reports buffers that do not match rows*cols or a
	// negative generation count.
	GoiBadDimensions = -3
	// GoiBadFaction reports a cell value outside [0, MaxFactions).
	GoiBadFaction = -4
)

// Goi runs a simulation from flat integer buffers and returns the death toll,
// or one of the negative Goi status codes when the run is rejected. Inputs are
// copied, never modified.
func Goi(nThreads, nGenerations int, startWorld []int, nRows, nCols int, invasionTimes []int, invasionPlans [][]int) int {
	res, err := goi(nThreads, nGenerations, startWorld, nRows, nCols, invasionTimes, invasionPlans)
	if err != nil {
		return goiStatus(err)
	}
	return res.DeathToll
}

func goi(nThreads, nGenerations int, startWorld []int, nRows, nCols int, invasionTimes []int, invasionPlans [][]int) (Result, error) {
	if nRows < 0 || nCols < 0 {
		return Result{}, fmt.Errorf("%w: %dx%d", ErrDimensions, nRows, nCols)
	}
	if err := checkCells(nRows, nCols, DefaultMaxCells); err != nil {
		return Result{}, err
	}
	start, err := gridFromInts(nRows, nCols, startWorld)
	if err != nil {
		return Result{}, fmt.Errorf("start world: %w", err)
	}
	plans := make([]*core.Grid, len(invasionPlans))
	for i, p := range invasionPlans {
		if plans[i], err = gridFromInts(nRows, nCols, p); err != nil {
			return Result{}, fmt.Errorf("%w: invasion plan %d: %w", ErrMalformedSchedule, i, err)
		}
	}
	schedule, err := NewSchedule(invasionTimes, plans)
	if err != nil {
		return Result{}, err
	}
	return Simulate(context.Background(), Input{
		Start:       start,
		Generations: nGenerations,
		Schedule:    schedule,
		Threads:     nThreads,
	})
}

func goiStatus(err error) int {
	switch {
	case errors.Is(err, ErrMalformedSchedule):
		return GoiMalformedSchedule
	case errors.Is(err, ErrFactionRange):
		return GoiBadFaction
	case errors.Is(err, ErrDimensions):
		return GoiBadDimensions
	default:
		return GoiOutOfMemory
	}
}

func gridFromInts(rows, cols int, cells []int) (*core.Grid, error) {
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("%w: %d cells for %dx%d", ErrDimensions, len(cells), rows, cols)
	}
	g := core.NewGrid(rows, cols)
	out := g.Cells()
	for i, v := range cells {
		if v < 0 || v >= core.MaxFactions {
			return nil, fmt.Errorf("%w: cell %d holds %d", ErrFactionRange, i, v)
		}
		out[i] = core.Faction(v)
	}
	return g, nil
}

// Digest returns a hex BLAKE3-256 fingerprint of the grid's shape and cells.
func Digest(g *core.Grid) string {
	h := blake3.New(32, nil)
	var dims [16]byte
	binary.LittleEndian.PutUint64(dims[:8], uint64(g.Rows))
	binary.LittleEndian.PutUint64(dims[8:], uint64(g.Cols))
	_, _ = h.Write(dims[:])
	_, _ = h.Write(g.Bytes())
	return hex.EncodeToString(h.Sum(nil))
}
