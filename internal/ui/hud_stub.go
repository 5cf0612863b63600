//go:build !ebiten

package ui

import "goi/internal/core"

// HUD replaces the faction stats and controls panel when ebiten is not
// linked. NewHUD returns nil so callers skip it.
type HUD struct{}

func NewHUD(core.Sim, int) *HUD { return nil }

func (h *HUD) Update(int) {}

func (h *HUD) Draw(any, int, int) {}
