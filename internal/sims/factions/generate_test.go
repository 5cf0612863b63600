package factions

import (
	"testing"

	"goi/internal/core"
)

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := GenConfig{Rows: 40, Cols: 50, Factions: 4, Density: 0.4, Scale: 8, Seed: 99}
	a := Generate(cfg)
	b := Generate(cfg)
	if !a.Equal(b) {
		t.Fatal("same seed produced different worlds")
	}
	cfg.Seed++
	if Generate(cfg).Equal(a) {
		t.Fatal("different seeds produced identical worlds")
	}
}

func TestGenerateRespectsFactionCount(t *testing.T) {
	g := Generate(GenConfig{Rows: 64, Cols: 64, Factions: 3, Density: 1, Scale: 4, Seed: 5})
	census := g.Census()
	if census[core.Dead] != 0 {
		t.Fatalf("density 1 left %d dead cells", census[core.Dead])
	}
	for f := 4; f < core.MaxFactions; f++ {
		if census[f] != 0 {
			t.Fatalf("faction %d appeared in a three-faction world", f)
		}
	}
	for f := 1; f <= 3; f++ {
		if census[f] == 0 {
			t.Fatalf("faction %d holds no territory", f)
		}
	}
}

func TestGenerateEmptyDensity(t *testing.T) {
	g := Generate(GenConfig{Rows: 10, Cols: 10, Factions: 9, Density: 0, Seed: 1})
	if g.Census()[core.Dead] != g.Len() {
		t.Fatal("density 0 should leave the world empty")
	}
}

func TestRandomSchedule(t *testing.T) {
	s := RandomSchedule(20, 30, 100, 25, 3, 2, 4)
	if len(s) != 4 {
		t.Fatalf("expected 4 invasions, got %d", len(s))
	}
	if err := s.Validate(20, 30); err != nil {
		t.Fatalf("generated schedule invalid: %v", err)
	}
	for i, inv := range s {
		if inv.Generation != (i+1)*25 {
			t.Fatalf("invasion %d at generation %d", i, inv.Generation)
		}
		census := inv.Plan.Census()
		live := 0
		for f := 1; f < core.MaxFactions; f++ {
			if census[f] > 0 {
				if f > 2 {
					t.Fatalf("invader faction %d exceeds faction count", f)
				}
				live++
			}
		}
		if live != 1 {
			t.Fatalf("invasion %d mixes %d factions", i, live)
		}
	}
	if RandomSchedule(20, 30, 100, 0, 3, 2, 4) != nil {
		t.Fatal("every=0 should disable invasions")
	}
}

func TestRandomInputIsRunnable(t *testing.T) {
	in := RandomInput(GenConfig{Rows: 12, Cols: 12, Factions: 2, Density: 0.5, Seed: 3}, 20, 5, 2, 2)
	if len(in.Schedule) != 4 || in.Threads != 2 {
		t.Fatalf("unexpected input %+v", in)
	}
	run(t, in)
}
