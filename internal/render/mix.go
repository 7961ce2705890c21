package render

import (
	"math"

	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/shape"
)

// MixMasks blends two masks into dst by t (0..1). The endpoints copy the
// source so t=0 and t=1 are exact.
func MixMasks(dst, a, b []float32, t float64) {
	if t <= 0 {
		copy(dst, a)
		return
	}
	if t >= 1 {
		copy(dst, b)
		return
	}
	af := float32(1 - t)
	bf := float32(t)
	for i := range dst {
		dst[i] = a[i]*af + b[i]*bf
	}
}

// ClampFade clamps a crossfade value to [0,1]; NaN becomes 0.
func ClampFade(t float64) float64 {
	return pixel.Clamp01(t)
}

// Composite crossfades masks a and b into dst. The frame color is the
// lerp of ca and cb, or pal when a palette is active. Every pixel is
// round(color × mask). Masks must both be dst-sized; a mismatched mask is
// treated as blank.
func Composite(dst *Result, a, b shape.Mask, ca, cb pixel.RGB, t float64, pal *pixel.RGB) {
	w, h := dst.Frame.W, dst.Frame.H
	n := w * h
	if len(dst.Mask.V) != n {
		dst.Mask = shape.NewMask(w, h)
	}
	dst.Mask.W, dst.Mask.H = w, h
	av := a.V
	if len(av) != n {
		av = make([]float32, n)
	}
	bv := b.V
	if len(bv) != n {
		bv = make([]float32, n)
	}

	t = ClampFade(t)
	MixMasks(dst.Mask.V, av, bv, t)

	if pal != nil {
		dst.Color = *pal
	} else {
		dst.Color = ca.Lerp(cb, t)
	}
	cr, cg, cbl := float64(dst.Color.R), float64(dst.Color.G), float64(dst.Color.B)
	for i, m := range dst.Mask.V {
		v := float64(m)
		o := i * 3
		dst.Frame.Pix[o] = pixel.Round8(cr * v)
		dst.Frame.Pix[o+1] = pixel.Round8(cg * v)
		dst.Frame.Pix[o+2] = pixel.Round8(cbl * v)
	}
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
