package render

import (
	"image/color"
	"math"
)

// FillPalette converts cell values into RGBA pixels using palette. Values past
// the end of the palette take its last color; an empty palette clears buf to
// transparent black.
func FillPalette(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

const (
	maskMaxAlpha = 140.0
	maskGlowBase = 0.35
	maskGlowSpan = 0.65
	maskBias     = 0.75
)

// FillMask tints buf by mask intensity in [0, 1]. Zero intensity is fully
// transparent; stronger cells are brighter and more opaque.
func FillMask(buf []byte, mask []float32, tint color.RGBA) {
	for i, m := range mask {
		base := i * 4
		intensity := clamp01(float64(m))
		if intensity == 0 {
			buf[base+0] = 0
			buf[base+1] = 0
			buf[base+2] = 0
			buf[base+3] = 0
			continue
		}
		glow := maskGlowBase + maskGlowSpan*math.Sqrt(intensity)
		buf[base+0] = scaleComponent(tint.R, glow)
		buf[base+1] = scaleComponent(tint.G, glow)
		buf[base+2] = scaleComponent(tint.B, glow)
		buf[base+3] = uint8(math.Round(maskMaxAlpha * math.Pow(intensity, maskBias)))
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func scaleComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}
