package ui

import (
	"image/color"
	"math"
)

// Brightness is the perceived brightness of c on a 0..255 scale.
func Brightness(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// ContrastColor returns an opaque gray that reads well on bg: darker than
// bg on bright backgrounds, lighter on dark ones.
func ContrastColor(bg color.RGBA) color.RGBA {
	b := Brightness(bg)
	var v float64
	if b > 128 {
		v = (255 - b) / 2
	} else {
		v = 255 - b/2
	}
	g := uint8(math.Round(v))
	return color.RGBA{R: g, G: g, B: g, A: 0xFF}
}
