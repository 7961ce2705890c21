// Package palette samples time-driven colors from ordered color lists.
package palette

import (
	"math"

	"github.com/coreman2200/tubestage/internal/pixel"
)

const MaxSpeed = 100

type Palette struct {
	Name   string
	Colors []pixel.RGB
	// Speed is in colors per second; negative runs the list backwards.
	Speed float64
}

// ClampSpeed bounds s to [-MaxSpeed, MaxSpeed]; NaN becomes 0.
func ClampSpeed(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(-MaxSpeed, math.Min(MaxSpeed, s))
}

// Position returns the two neighbouring color indices and the blend
// fraction for time t (seconds). i is always non-negative.
func (p Palette) Position(t float64) (i, j int, f float64) {
	n := len(p.Colors)
	if n == 0 {
		return 0, 0, 0
	}
	x := t * ClampSpeed(p.Speed)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		x = 0
	}
	fl := math.Floor(x)
	f = x - fl
	i = int(math.Mod(fl, float64(n)))
	if i < 0 {
		i += n
	}
	return i, (i + 1) % n, f
}

// Sample returns the interpolated color at time t. An empty palette is
// black and a single color is returned unchanged.
func (p Palette) Sample(t float64) pixel.RGB {
	switch len(p.Colors) {
	case 0:
		return pixel.Black
	case 1:
		return p.Colors[0]
	}
	i, j, f := p.Position(t)
	if f == 0 {
		return p.Colors[i]
	}
	c := p.Colors[i].Colorful().BlendRgb(p.Colors[j].Colorful(), f)
	return pixel.RGB{
		R: pixel.Round8(c.R * 255),
		G: pixel.Round8(c.G * 255),
		B: pixel.Round8(c.B * 255),
	}
}
