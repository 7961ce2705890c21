package shape

import "math"

// renderRect draws a rotated rectangle. Fill blends continuously between
// the solid body (1) and a border stroke (0) of Thickness·min(w,h) pixels.
func renderRect(w, h int, p Params) Mask {
	m := NewMask(w, h)
	cx, cy := center(w, h, p)
	cos, sin := math.Cos(p.Angle), math.Sin(p.Angle)

	hw := math.Max(1, p.Width*float64(w)*0.5)
	hh := math.Max(1, p.Height*float64(h)*0.5)
	stroke := math.Max(0.5, p.Thickness*float64(min(w, h)))

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dx := float64(i) - cx
			dy := float64(j) - cy
			ax := math.Abs(dx*cos + dy*sin)
			ay := math.Abs(-dx*sin + dy*cos)

			inside := falloff(math.Max(ax-hw, ay-hh), p.Softness)
			if inside == 0 {
				continue
			}
			toEdge := math.Min(hw-ax, hh-ay)
			border := math.Min(inside, falloff(toEdge-stroke, p.Softness))

			m.V[j*w+i] = float32(p.Fill*inside + (1-p.Fill)*border)
		}
	}
	return m
}
