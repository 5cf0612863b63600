package factions

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"goi/internal/core"
)

func run(t *testing.T, in Input, opts ...Option) Result {
	t.Helper()
	res, err := Simulate(context.Background(), in, opts...)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	return res
}

func TestBlinkerScenario(t *testing.T) {
	start := mustGrid(t, "...", "111", "...")
	res := run(t, Input{Start: start, Generations: 1, Threads: 2})

	want := mustGrid(t, ".1.", ".1.", ".1.")
	if !res.Final.Equal(want) {
		t.Fatalf("after one generation got %v, want %v", FormatRows(res.Final), FormatRows(want))
	}
	if res.DeathToll != 0 {
		t.Fatalf("expected no fighting deaths, got %d", res.DeathToll)
	}

	res = run(t, Input{Start: start, Generations: 2, Threads: 2})
	if !res.Final.Equal(start) {
		t.Fatalf("blinker should return to its start after two generations, got %v", FormatRows(res.Final))
	}
}

func TestAdjacentEnemiesBothDie(t *testing.T) {
	start := mustGrid(t, "....", ".12.", "....")
	res := run(t, Input{Start: start, Generations: 1, Threads: 3})
	if res.DeathToll != 2 {
		t.Fatalf("expected toll 2, got %d", res.DeathToll)
	}
	if res.Census[core.Dead] != start.Len() {
		t.Fatalf("expected an empty board, got %v", FormatRows(res.Final))
	}
}

func TestStarvationDoesNotCountTowardsToll(t *testing.T) {
	start := mustGrid(t, ".....", ".1...", ".....", "...3.", ".....")
	res := run(t, Input{Start: start, Generations: 3, Threads: 4})
	if res.DeathToll != 0 {
		t.Fatalf("isolated cells should starve without fighting, toll %d", res.DeathToll)
	}
	if res.Census[core.Dead] != start.Len() {
		t.Fatalf("expected every cell to starve, got %v", FormatRows(res.Final))
	}
}

func TestInvasionAppliedAtScheduledGeneration(t *testing.T) {
	start := mustGrid(t, ".....", ".....", ".....", ".....", ".....")
	plan := mustGrid(t, ".....", ".....", "..7..", ".....", ".....")
	schedule := Schedule{{Generation: 2, Plan: plan}}

	var seen []*core.Grid
	sink := SinkFunc(func(gen int, g *core.Grid) error {
		seen = append(seen, g.Clone())
		return nil
	})
	res := run(t, Input{Start: start, Generations: 3, Schedule: schedule, Threads: 2}, WithSink(sink))

	if len(seen) != 4 {
		t.Fatalf("expected 4 snapshots (generation 0..3), got %d", len(seen))
	}
	if got := seen[1].At(2, 2); got != int(core.Dead) {
		t.Fatalf("invasion applied early: generation 1 centre is %d", got)
	}
	if got := seen[2].At(2, 2); got != 7 {
		t.Fatalf("generation 2 centre = %d, want invader 7", got)
	}
	if got := seen[3].At(2, 2); got != int(core.Dead) {
		t.Fatalf("lone invader should starve by generation 3, got %d", got)
	}
	if res.DeathToll != 0 {
		t.Fatalf("landing on empty ground is not a fighting death, toll %d", res.DeathToll)
	}
}

func TestStepIgnoresMisshapenPlan(t *testing.T) {
	stepper := NewStepper(mustGrid(t, "...", "...", "..."), 2, Parallel)

	stepper.Step(mustGrid(t, "...", ".5.", "..."))
	if got := stepper.Current().At(1, 1); got != 5 {
		t.Fatalf("centre = %d, want invader 5", got)
	}

	stepper.Step(mustGrid(t, "7.", ".."))
	cur := stepper.Current()
	if got := cur.At(0, 0); got != int(core.Dead) {
		t.Fatalf("misshapen plan applied: (0,0) = %d", got)
	}
	if got := cur.At(1, 1); got != int(core.Dead) {
		t.Fatalf("previous invasion reapplied: centre = %d", got)
	}
}

func TestInvasionOnDefenderCountsOnce(t *testing.T) {
	start := mustGrid(t, "....", ".11.", ".11.", "....")
	plan := mustGrid(t, "....", ".2..", "....", "....")
	res := run(t, Input{
		Start:       start,
		Generations: 1,
		Schedule:    Schedule{{Generation: 1, Plan: plan}},
		Threads:     2,
	})
	// The invader kills the defender it lands on; the rest of the block still
	// sees only faction 1 in the previous generation and survives.
	if res.DeathToll != 1 {
		t.Fatalf("expected toll 1, got %d", res.DeathToll)
	}
	want := mustGrid(t, "....", ".21.", ".11.", "....")
	if !res.Final.Equal(want) {
		t.Fatalf("got %v, want %v", FormatRows(res.Final), FormatRows(want))
	}
}

func TestSequentialAndParallelAgree(t *testing.T) {
	const rows, cols, gens = 48, 64, 60
	start := Generate(GenConfig{Rows: rows, Cols: cols, Factions: 5, Density: 0.45, Scale: 6, Seed: 7})
	schedule := RandomSchedule(rows, cols, gens, 7, 4, 5, 11)
	if len(schedule) == 0 {
		t.Fatal("expected a non-empty invasion schedule")
	}

	want := run(t, Input{Start: start, Generations: gens, Schedule: schedule}, WithStrategy(Sequential))
	if want.DeathToll == 0 {
		t.Fatal("scenario should produce fighting deaths")
	}

	for _, threads := range []int{0, 1, 2, 3, 4, 7, 16, 100} {
		got := run(t, Input{Start: start, Generations: gens, Schedule: schedule, Threads: threads}, WithStrategy(Parallel))
		if got.DeathToll != want.DeathToll {
			t.Fatalf("threads=%d: toll %d, sequential %d", threads, got.DeathToll, want.DeathToll)
		}
		if !got.Final.Equal(want.Final) {
			t.Fatalf("threads=%d: final grid differs from sequential run", threads)
		}
		if Digest(got.Final) != Digest(want.Final) {
			t.Fatalf("threads=%d: digest differs", threads)
		}
	}
}

func TestDeathTollIsSumOfGenerations(t *testing.T) {
	const gens = 25
	start := Generate(GenConfig{Rows: 30, Cols: 30, Factions: 3, Density: 0.5, Scale: 4, Seed: 3})
	schedule := RandomSchedule(30, 30, gens, 5, 3, 3, 9)

	stepper := NewStepper(start, 4, Parallel)
	invasions := cursor{schedule: schedule}
	sum := 0
	for gen := 1; gen <= gens; gen++ {
		sum += stepper.Step(invasions.planFor(gen))
	}

	res := run(t, Input{Start: start, Generations: gens, Schedule: schedule, Threads: 4})
	if res.DeathToll != sum {
		t.Fatalf("toll %d, per-generation sum %d", res.DeathToll, sum)
	}
	if !res.Final.Equal(stepper.Current()) {
		t.Fatal("Simulate and manual stepping diverged")
	}
}

func TestSimulateDoesNotMutateInputs(t *testing.T) {
	start := Generate(GenConfig{Rows: 20, Cols: 20, Factions: 4, Density: 0.5, Scale: 5, Seed: 1})
	schedule := RandomSchedule(20, 20, 10, 3, 2, 4, 2)
	startCopy := start.Clone()
	planCopies := make([]*core.Grid, len(schedule))
	for i, inv := range schedule {
		planCopies[i] = inv.Plan.Clone()
	}

	run(t, Input{Start: start, Generations: 10, Schedule: schedule, Threads: 3})

	if !start.Equal(startCopy) {
		t.Fatal("start world was modified")
	}
	for i, inv := range schedule {
		if !inv.Plan.Equal(planCopies[i]) {
			t.Fatalf("invasion plan %d was modified", i)
		}
	}
}

func TestSnapshotsStartWithUnmodifiedCopy(t *testing.T) {
	start := mustGrid(t, "...", "111", "...")
	var gens []int
	var first *core.Grid
	sink := SinkFunc(func(gen int, g *core.Grid) error {
		gens = append(gens, gen)
		if gen == 0 {
			first = g.Clone()
			if g == start {
				t.Fatal("sink received the caller's grid instead of the working copy")
			}
		}
		return nil
	})
	run(t, Input{Start: start, Generations: 4}, WithSink(sink), WithLogger(zaptest.NewLogger(t)))
	if !slices.Equal(gens, []int{0, 1, 2, 3, 4}) {
		t.Fatalf("unexpected snapshot generations %v", gens)
	}
	if !first.Equal(start) {
		t.Fatal("generation 0 snapshot should equal the start world")
	}
}

func TestSinkErrorAbortsRun(t *testing.T) {
	boom := errors.New("disk full")
	sink := SinkFunc(func(gen int, g *core.Grid) error {
		if gen == 2 {
			return boom
		}
		return nil
	})
	_, err := Simulate(context.Background(), Input{Start: mustGrid(t, "11", "11"), Generations: 5}, WithSink(sink))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestSimulateStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Simulate(ctx, Input{Start: mustGrid(t, "11", "11"), Generations: 5})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSimulateRejectsMalformedInput(t *testing.T) {
	world := func() *core.Grid { return core.NewGrid(3, 3) }
	plan := func(rows, cols int) *core.Grid {
		g := core.NewGrid(rows, cols)
		g.Set(0, 0, 1)
		return g
	}

	cases := []struct {
		name string
		in   Input
		opts []Option
		want error
	}{
		{
			name: "no start world",
			in:   Input{Generations: 1},
			want: ErrDimensions,
		},
		{
			name: "negative generations",
			in:   Input{Start: world(), Generations: -1},
			want: ErrDimensions,
		},
		{
			name: "zero invasion time",
			in:   Input{Start: world(), Generations: 3, Schedule: Schedule{{Generation: 0, Plan: plan(3, 3)}}},
			want: ErrMalformedSchedule,
		},
		{
			name: "repeated invasion time",
			in: Input{Start: world(), Generations: 3, Schedule: Schedule{
				{Generation: 2, Plan: plan(3, 3)},
				{Generation: 2, Plan: plan(3, 3)},
			}},
			want: ErrMalformedSchedule,
		},
		{
			name: "decreasing invasion times",
			in: Input{Start: world(), Generations: 3, Schedule: Schedule{
				{Generation: 3, Plan: plan(3, 3)},
				{Generation: 1, Plan: plan(3, 3)},
			}},
			want: ErrMalformedSchedule,
		},
		{
			name: "plan with wrong shape",
			in:   Input{Start: world(), Generations: 3, Schedule: Schedule{{Generation: 1, Plan: plan(2, 3)}}},
			want: ErrMalformedSchedule,
		},
		{
			name: "missing plan",
			in:   Input{Start: world(), Generations: 3, Schedule: Schedule{{Generation: 1}}},
			want: ErrMalformedSchedule,
		},
		{
			name: "invasion after the last generation",
			in:   Input{Start: world(), Generations: 3, Schedule: Schedule{{Generation: 4, Plan: plan(3, 3)}}},
			want: ErrMalformedSchedule,
		},
		{
			name: "faction out of range",
			in:   Input{Start: core.GridFrom(1, 2, []core.Faction{1, core.MaxFactions}), Generations: 1},
			want: ErrFactionRange,
		},
		{
			name: "too many cells",
			in:   Input{Start: world(), Generations: 1},
			opts: []Option{WithMaxCells(8)},
			want: ErrResourceExhausted,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Simulate(context.Background(), tc.in, tc.opts...)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if res.Final != nil || res.DeathToll != 0 {
				t.Fatalf("failed run leaked a partial result: %+v", res)
			}
		})
	}
}

func TestNewScheduleRequiresMatchingLengths(t *testing.T) {
	_, err := NewSchedule([]int{1, 2}, []*core.Grid{core.NewGrid(1, 1)})
	if !errors.Is(err, ErrMalformedSchedule) {
		t.Fatalf("expected ErrMalformedSchedule, got %v", err)
	}
}

func TestGoiFacade(t *testing.T) {
	world := []int{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 0, 0, 0,
	}
	if got := Goi(4, 1, world, 3, 4, nil, nil); got != 2 {
		t.Fatalf("Goi toll = %d, want 2", got)
	}

	plan := make([]int, 12)
	plan[5] = 3
	if got := Goi(2, 1, world, 3, 4, []int{1}, [][]int{plan}); got != 2 {
		t.Fatalf("Goi toll with invasion = %d, want 2", got)
	}
	if world[5] != 1 || plan[5] != 3 {
		t.Fatal("Goi modified caller buffers")
	}

	rejected := []struct {
		name string
		got  int
		want int
	}{
		{"mismatched schedule", Goi(2, 1, world, 3, 4, []int{1, 2}, [][]int{plan}), GoiMalformedSchedule},
		{"unordered schedule", Goi(2, 3, world, 3, 4, []int{2, 1}, [][]int{plan, plan}), GoiMalformedSchedule},
		{"invasion after last generation", Goi(2, 1, world, 3, 4, []int{2}, [][]int{plan}), GoiMalformedSchedule},
		{"short invasion plan", Goi(2, 1, world, 3, 4, []int{1}, [][]int{plan[:4]}), GoiMalformedSchedule},
		{"short start world", Goi(2, 1, world[:5], 3, 4, nil, nil), GoiBadDimensions},
		{"negative generations", Goi(2, -1, world, 3, 4, nil, nil), GoiBadDimensions},
		{"out of range faction", Goi(2, 1, []int{0, 11}, 1, 2, nil, nil), GoiBadFaction},
		{"oversized world", Goi(1, 1, nil, math.MaxInt/2, 4, nil, nil), GoiOutOfMemory},
	}
	for _, tc := range rejected {
		if tc.got != tc.want {
			t.Fatalf("%s: Goi = %d, want %d", tc.name, tc.got, tc.want)
		}
	}
	if GoiOutOfMemory != -1 {
		t.Fatalf("allocation failure must stay -1, got %d", GoiOutOfMemory)
	}
}

func TestPartitionRows(t *testing.T) {
	cases := []struct {
		rows, parts int
		want        []rowBlock
	}{
		{rows: 0, parts: 4, want: nil},
		{rows: 3, parts: 8, want: []rowBlock{{0, 1}, {1, 2}, {2, 3}}},
		{rows: 10, parts: 3, want: []rowBlock{{0, 4}, {4, 7}, {7, 10}}},
		{rows: 4, parts: 1, want: []rowBlock{{0, 4}}},
	}
	for _, tc := range cases {
		got := partitionRows(tc.rows, tc.parts)
		if !slices.Equal(got, tc.want) {
			t.Fatalf("partitionRows(%d, %d) = %v, want %v", tc.rows, tc.parts, got, tc.want)
		}
	}
}

func TestSingleFactionGliderTravels(t *testing.T) {
	start := mustGrid(t,
		".1....",
		"..1...",
		"111...",
		"......",
		"......",
		"......",
	)
	res := run(t, Input{Start: start, Generations: 4, Threads: 3})
	want := mustGrid(t,
		"......",
		"..1...",
		"...1..",
		".111..",
		"......",
		"......",
	)
	if !res.Final.Equal(want) {
		t.Fatalf("glider after 4 generations = %v, want %v", FormatRows(res.Final), FormatRows(want))
	}
	if res.DeathToll != 0 {
		t.Fatalf("a lone faction cannot fight, toll %d", res.DeathToll)
	}
}
