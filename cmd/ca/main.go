//go:build ebiten

package main

import (
	"errors"
	"flag"
	"log"
	"strconv"

	"goi/internal/app"
	"goi/internal/core"
	_ "goi/internal/sims/factions"

	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	flag.Parse()

	factory, ok := core.Sims()[cfg.Sim]
	if !ok {
		log.Fatalf("unknown sim %q (available: %v)", cfg.Sim, core.Names())
	}

	if _, ok := cfg.Params["seed"]; !ok {
		cfg.Params["seed"] = strconv.FormatInt(cfg.Seed, 10)
	}
	sim := factory(cfg.Params)
	sim.Reset(cfg.Seed)

	game := app.New(sim, cfg.Scale, cfg.Seed, cfg.HUDWidth)
	size := sim.Size()

	ebiten.SetWindowTitle("goi: " + sim.Name())
	ebiten.SetTPS(cfg.TPS)
	ebiten.SetWindowSize(size.W*cfg.Scale+cfg.HUDWidth, size.H*cfg.Scale)

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
