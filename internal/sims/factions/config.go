package factions

import "strconv"

// Params holds the tunables of the interactive factions sim.
type Params struct {
	Factions int
	Density  float64
	Scale    float64

	// InvasionEvery schedules a random invasion every n generations; 0 disables.
	InvasionEvery  int
	InvasionRadius int
}

// Config controls the interactive factions simulation.
type Config struct {
	Width  int
	Height int

	Seed    int64
	Threads int

	Params Params
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:   256,
		Height:  256,
		Seed:    1337,
		Threads: 4,
		Params: Params{
			Factions:       4,
			Density:        0.35,
			Scale:          24,
			InvasionEvery:  50,
			InvasionRadius: 6,
		},
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["threads"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Threads = parsed
		}
	}
	if v, ok := cfg["factions"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.Params.Factions = clampFactions(parsed)
		}
	}
	if v, ok := cfg["density"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.Params.Density = parsed
		}
	}
	if v, ok := cfg["scale"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.Params.Scale = parsed
		}
	}
	if v, ok := cfg["invasion_every"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.InvasionEvery = parsed
		}
	}
	if v, ok := cfg["invasion_radius"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			c.Params.InvasionRadius = parsed
		}
	}
	return c
}
