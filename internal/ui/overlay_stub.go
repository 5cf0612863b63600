//go:build !ebiten

package ui

import "goi/internal/core"

// Overlay replaces the invasion tint in headless builds; it never draws.
type Overlay struct{}

func NewOverlay(core.Sim, int) *Overlay { return &Overlay{} }

func (o *Overlay) Update() {}

func (o *Overlay) Draw(any) {}
