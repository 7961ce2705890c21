package shape

import "math"

// renderLine draws a segment through the center. Thickness is relative to
// the short grid side, length to the long one.
func renderLine(w, h int, p Params) Mask {
	m := NewMask(w, h)
	cx, cy := center(w, h, p)
	cos, sin := math.Cos(p.Angle), math.Sin(p.Angle)

	minDim := float64(min(w, h))
	maxDim := float64(max(w, h))
	halfT := math.Max(0.5, p.Thickness*minDim*0.5)
	halfL := math.Max(1, p.Length*maxDim*0.5)

	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			dx := float64(i) - cx
			dy := float64(j) - cy
			rx := dx*cos + dy*sin
			ry := -dx*sin + dy*cos

			across := falloff(math.Abs(ry)-halfT, p.Softness)
			if across == 0 {
				continue
			}
			along := falloff(math.Abs(rx)-halfL, p.Softness)
			m.V[j*w+i] = float32(across * along)
		}
	}
	return m
}
