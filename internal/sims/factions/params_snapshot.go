package factions

import (
	"fmt"
	"strconv"

	"goi/internal/core"
)

const maxThreads = 64

func (w *World) Parameters() core.ParameterSnapshot {
	params := w.cfg.Params
	groups := []core.ParameterGroup{
		{
			Name: "World",
			Params: []core.Parameter{
				intParam("w", "Width", w.cfg.Width),
				intParam("h", "Height", w.cfg.Height),
				int64Param("seed", "Seed", w.cfg.Seed),
				intParam("threads", "Threads", w.stepper.Threads()),
			},
		},
		{
			Name: "Seeding",
			Params: []core.Parameter{
				intParam("factions", "Factions", params.Factions),
				floatParam("density", "Density", params.Density),
				floatParam("scale", "Territory scale", params.Scale),
			},
		},
		{
			Name: "Invasions",
			Params: []core.Parameter{
				intParam("invasion_every", "Invasion every", params.InvasionEvery),
				intParam("invasion_radius", "Invasion radius", params.InvasionRadius),
			},
		},
	}
	return core.ParameterSnapshot{Groups: groups}
}

// ParameterControls lists the values adjustable from the HUD. Seeding values
// take effect on the next Reset.
func (w *World) ParameterControls() []core.ParameterControl {
	return []core.ParameterControl{
		{Key: "threads", Label: "Threads", Type: core.ParamTypeInt, Step: 1, Min: 1, Max: maxThreads, HasMin: true, HasMax: true},
		{Key: "invasion_every", Label: "Invasion every", Type: core.ParamTypeInt, Step: 10, Min: 0, HasMin: true},
		{Key: "invasion_radius", Label: "Invasion radius", Type: core.ParamTypeInt, Step: 1, Min: 0, Max: 64, HasMin: true, HasMax: true},
		{Key: "density", Label: "Density", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, Max: 1, HasMin: true, HasMax: true},
	}
}

// SetIntParameter applies an integer control change.
func (w *World) SetIntParameter(key string, value int) bool {
	switch key {
	case "threads":
		if value < 1 || value > maxThreads {
			return false
		}
		w.cfg.Threads = value
		w.stepper.SetThreads(value)
	case "invasion_every":
		if value < 0 {
			return false
		}
		w.cfg.Params.InvasionEvery = value
	case "invasion_radius":
		if value < 0 {
			return false
		}
		w.cfg.Params.InvasionRadius = value
	default:
		return false
	}
	return true
}

// SetFloatParameter applies a floating point control change.
func (w *World) SetFloatParameter(key string, value float64) bool {
	switch key {
	case "density":
		if value < 0 {
			value = 0
		}
		if value > 1 {
			value = 1
		}
		w.cfg.Params.Density = value
		return true
	default:
		return false
	}
}

// Stats reports live counters for the HUD.
func (w *World) Stats() []core.Stat {
	census := w.stepper.Current().Census()
	stats := []core.Stat{
		{Label: "Generation", Value: strconv.Itoa(w.generation)},
		{Label: "Deaths by fighting", Value: strconv.Itoa(w.deathToll)},
	}
	for f := 1; f <= clampFactions(w.cfg.Params.Factions); f++ {
		stats = append(stats, core.Stat{Label: fmt.Sprintf("Faction %d", f), Value: strconv.Itoa(census[f])})
	}
	return stats
}

func intParam(key, label string, value int) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.Itoa(value),
	}
}

func int64Param(key, label string, value int64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeInt,
		Value: strconv.FormatInt(value, 10),
	}
}

func floatParam(key, label string, value float64) core.Parameter {
	return core.Parameter{
		Key:   key,
		Label: label,
		Type:  core.ParamTypeFloat,
		Value: strconv.FormatFloat(value, 'f', -1, 64),
	}
}
