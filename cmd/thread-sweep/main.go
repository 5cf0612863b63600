package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"goi/internal/persistence/runs"
	"goi/internal/sims/factions"
)

type job struct {
	threads int
	repeat  int
}

type sweepResult struct {
	threads int
	repeat  int
	toll    int
	digest  string
	elapsed time.Duration
	err     error
}

func main() {
	scenario := flag.String("scenario", "", "YAML or JSON scenario file (random world when empty)")
	rows := flag.Int("rows", 256, "rows of a random world")
	cols := flag.Int("cols", 256, "columns of a random world")
	factionCount := flag.Int("factions", 5, "factions in a random world")
	density := flag.Float64("density", 0.4, "probability a random cell starts alive")
	seed := flag.Int64("seed", 1, "random world seed")
	generations := flag.Int("generations", 200, "generations per run")
	threadList := flag.String("threads", "1,2,4,8", "comma separated worker counts to compare")
	repeat := flag.Int("repeat", 3, "runs per worker count")
	workers := flag.Int("workers", max(runtime.NumCPU()/4, 1), "runs executed concurrently")
	dbPath := flag.String("db", "", "record every run in this SQLite ledger")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	counts, err := parseThreads(*threadList)
	if err != nil {
		logger.Fatal("bad -threads", zap.Error(err))
	}

	var in factions.Input
	label := *scenario
	if *scenario != "" {
		sc, err := factions.LoadScenario(*scenario)
		if err != nil {
			logger.Fatal("load scenario", zap.Error(err))
		}
		if in, err = sc.Input(); err != nil {
			logger.Fatal("scenario input", zap.Error(err))
		}
	} else {
		cfg := factions.GenConfig{Rows: *rows, Cols: *cols, Factions: *factionCount, Density: *density, Scale: 16, Seed: *seed}
		in = factions.RandomInput(cfg, *generations, 20, 6, 1)
		label = fmt.Sprintf("random %dx%d seed %d", *rows, *cols, *seed)
	}

	ctx := context.Background()
	baseline, err := factions.Simulate(ctx, in, factions.WithStrategy(factions.Sequential))
	if err != nil {
		logger.Fatal("sequential baseline", zap.Error(err))
	}
	wantDigest := factions.Digest(baseline.Final)
	fmt.Printf("Baseline (sequential): toll=%s digest=%s elapsed=%s\n",
		humanize.Comma(int64(baseline.DeathToll)), wantDigest[:16], baseline.Elapsed.Round(time.Millisecond))

	var ledger *runs.DB
	if *dbPath != "" {
		if ledger, err = runs.Open(*dbPath); err != nil {
			logger.Fatal("open ledger", zap.Error(err))
		}
	}

	fmt.Printf("Sweeping %d runs (%d workers, %d generations)\n", len(counts) * *repeat, *workers, in.Generations)
	mismatches := sweep(ctx, in, baseline, sweepConfig{
		counts:  counts,
		repeat:  *repeat,
		workers: *workers,
		label:   label,
	}, ledger, logger, os.Stdout)

	if ledger != nil {
		if err := ledger.Close(); err != nil {
			logger.Error("close ledger", zap.Error(err))
		}
	}
	if mismatches > 0 {
		fmt.Printf("\n%d runs disagreed with the sequential baseline\n", mismatches)
		logger.Sync()
		os.Exit(1)
	}
	fmt.Println("\nAll runs matched the sequential baseline.")
}

type sweepConfig struct {
	counts  []int
	repeat  int
	workers int
	label   string
}

// sweep runs every thread count cfg.repeat times, records each run in ledger
// when it is non-nil, writes the timing table to out and returns how many runs
// failed or disagreed with baseline.
func sweep(ctx context.Context, in factions.Input, baseline factions.Result, cfg sweepConfig, ledger *runs.DB, logger *zap.Logger, out io.Writer) int {
	wantDigest := factions.Digest(baseline.Final)
	var all []job
	for _, n := range cfg.counts {
		for r := 0; r < cfg.repeat; r++ {
			all = append(all, job{threads: n, repeat: r})
		}
	}

	jobs := make(chan job)
	results := make(chan sweepResult)
	var wg sync.WaitGroup

	for i := 0; i < max(cfg.workers, 1); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results <- runJob(ctx, in, j)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		for _, j := range all {
			jobs <- j
		}
		close(jobs)
	}()

	byThreads := map[int][]time.Duration{}
	mismatches := 0
	for res := range results {
		if res.err != nil {
			logger.Error("run failed", zap.Int("threads", res.threads), zap.Error(res.err))
			mismatches++
			continue
		}
		if res.toll != baseline.DeathToll || res.digest != wantDigest {
			fmt.Fprintf(out, "MISMATCH threads=%d repeat=%d toll=%d digest=%s\n", res.threads, res.repeat, res.toll, res.digest[:16])
			mismatches++
		}
		byThreads[res.threads] = append(byThreads[res.threads], res.elapsed)

		if ledger != nil {
			_, err := ledger.Insert(ctx, runs.Record{
				Label:       cfg.label,
				Rows:        in.Start.Rows,
				Cols:        in.Start.Cols,
				Generations: in.Generations,
				Threads:     res.threads,
				Strategy:    factions.Parallel.String(),
				DeathToll:   res.toll,
				Digest:      res.digest,
				ElapsedMS:   res.elapsed.Milliseconds(),
			})
			if err != nil {
				logger.Error("record run", zap.Error(err))
			}
		}
	}

	fmt.Fprintf(out, "\n%8s %6s %12s %12s %8s\n", "threads", "runs", "best", "mean", "speedup")
	for _, n := range cfg.counts {
		times := byThreads[n]
		if len(times) == 0 {
			continue
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		var total time.Duration
		for _, d := range times {
			total += d
		}
		mean := total / time.Duration(len(times))
		speedup := float64(baseline.Elapsed) / float64(max(times[0], 1))
		fmt.Fprintf(out, "%8d %6d %12s %12s %7.2fx\n", n, len(times),
			times[0].Round(time.Microsecond), mean.Round(time.Microsecond), speedup)
	}
	return mismatches
}

func runJob(ctx context.Context, in factions.Input, j job) sweepResult {
	in.Threads = j.threads
	res, err := factions.Simulate(ctx, in, factions.WithStrategy(factions.Parallel))
	if err != nil {
		return sweepResult{threads: j.threads, repeat: j.repeat, err: err}
	}
	return sweepResult{
		threads: j.threads,
		repeat:  j.repeat,
		toll:    res.DeathToll,
		digest:  factions.Digest(res.Final),
		elapsed: res.Elapsed,
	}
}

func parseThreads(s string) ([]int, error) {
	var out []int
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid worker count %q", part)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no worker counts in %q", s)
	}
	sort.Ints(out)
	return out, nil
}
