package app

import (
	"flag"
	"testing"
)

func TestConfigBind(t *testing.T) {
	cfg := NewConfig()
	fs := flag.NewFlagSet("ca", flag.ContinueOnError)
	cfg.Bind(fs)
	err := fs.Parse([]string{"-scale", "2", "-seed", "9", "-p", "w=64", "-p", "factions=6"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Sim != "factions" || cfg.Scale != 2 || cfg.Seed != 9 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Params["w"] != "64" || cfg.Params["factions"] != "6" {
		t.Fatalf("unexpected params %v", cfg.Params)
	}
	if err := fs.Parse([]string{"-p", "novalue"}); err == nil {
		t.Fatal("expected an error for a parameter without '='")
	}
}
