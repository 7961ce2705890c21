package shape

import "math"

func renderCircle(w, h int, p Params) Mask {
	m := NewMask(w, h)
	cx, cy := center(w, h, p)
	r := p.Radius * float64(min(w, h))

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d := math.Hypot(float64(i)-cx, float64(j)-cy)
			body := falloff(d-r, p.Softness)
			stroke := falloff(math.Abs(d-r)-p.StrokePx, p.Softness)
			m.V[j*w+i] = float32(p.Fill*body + (1-p.Fill)*stroke)
		}
	}
	return m
}

// renderRing draws an annulus of RingWidth around Radius: soft-inside the
// outer radius and soft-outside the inner one.
func renderRing(w, h int, p Params) Mask {
	m := NewMask(w, h)
	cx, cy := center(w, h, p)
	minDim := float64(min(w, h))
	r1 := (p.Radius - p.RingWidth*0.5) * minDim
	r2 := (p.Radius + p.RingWidth*0.5) * minDim

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d := math.Hypot(float64(i)-cx, float64(j)-cy)
			v := math.Min(falloff(d-r2, p.Softness), falloff(r1-d, p.Softness))
			m.V[j*w+i] = float32(v)
		}
	}
	return m
}
