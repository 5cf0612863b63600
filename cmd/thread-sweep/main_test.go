package main

import (
	"bytes"
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"goi/internal/persistence/runs"
	"goi/internal/sims/factions"
)

func TestParseThreads(t *testing.T) {
	got, err := parseThreads(" 8, 2,2 ,1,")
	if err != nil {
		t.Fatalf("parseThreads: %v", err)
	}
	if !slices.Equal(got, []int{1, 2, 8}) {
		t.Fatalf("got %v", got)
	}
	for _, bad := range []string{"", "0", "two", "1,-3"} {
		if _, err := parseThreads(bad); err == nil {
			t.Fatalf("%q: expected an error", bad)
		}
	}
}

func TestRunJobMatchesSequential(t *testing.T) {
	in := factions.RandomInput(factions.GenConfig{Rows: 20, Cols: 20, Factions: 3, Density: 0.5, Seed: 2}, 15, 5, 3, 1)
	want, err := factions.Simulate(context.Background(), in, factions.WithStrategy(factions.Sequential))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	res := runJob(context.Background(), in, job{threads: 5})
	if res.err != nil {
		t.Fatalf("runJob: %v", res.err)
	}
	if res.toll != want.DeathToll || res.digest != factions.Digest(want.Final) {
		t.Fatalf("parallel run disagreed: toll %d vs %d", res.toll, want.DeathToll)
	}
}

func TestSweepRecordsEveryRunAndReleasesLedger(t *testing.T) {
	ctx := context.Background()
	in := factions.RandomInput(factions.GenConfig{Rows: 16, Cols: 16, Factions: 3, Density: 0.5, Seed: 4}, 10, 4, 2, 1)
	baseline, err := factions.Simulate(ctx, in, factions.WithStrategy(factions.Sequential))
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sweep.db")
	ledger, err := runs.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var out bytes.Buffer
	cfg := sweepConfig{counts: []int{1, 3}, repeat: 2, workers: 2, label: "sweep"}
	if n := sweep(ctx, in, baseline, cfg, ledger, zaptest.NewLogger(t), &out); n != 0 {
		t.Fatalf("%d mismatches:\n%s", n, out.String())
	}
	if err := ledger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(out.String(), "speedup") {
		t.Fatalf("missing timing table:\n%s", out.String())
	}

	reopened, err := runs.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	recs, err := reopened.ByDigest(ctx, factions.Digest(baseline.Final))
	if err != nil {
		t.Fatalf("ByDigest: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("ledger holds %d runs, want 4", len(recs))
	}
}

func TestSweepCountsDisagreement(t *testing.T) {
	ctx := context.Background()
	in := factions.RandomInput(factions.GenConfig{Rows: 12, Cols: 12, Factions: 2, Density: 0.5, Seed: 6}, 5, 0, 0, 1)
	baseline, err := factions.Simulate(ctx, in)
	if err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	baseline.DeathToll++

	var out bytes.Buffer
	cfg := sweepConfig{counts: []int{2}, repeat: 3, workers: 1}
	if n := sweep(ctx, in, baseline, cfg, nil, zaptest.NewLogger(t), &out); n != 3 {
		t.Fatalf("mismatches = %d, want 3", n)
	}
	if !strings.Contains(out.String(), "MISMATCH threads=2") {
		t.Fatalf("missing mismatch report:\n%s", out.String())
	}
}
