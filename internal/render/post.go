package render

import "github.com/coreman2200/tubestage/internal/pixel"

// Power configures the output limiter. The zero WhiteCap disables the cap.
type Power struct {
	// Brightness scales the whole frame, (0,1]. Zero means unset (full).
	Brightness float64 `yaml:"brightness" json:"brightness"`
	// WhiteCap bounds R+G+B per pixel (0..765).
	WhiteCap int `yaml:"white_cap" json:"whiteCap"`
}

func (p Power) normalized() Power {
	p.Brightness = pixel.Clamp01(finiteOr(p.Brightness, 1))
	if p.Brightness == 0 {
		p.Brightness = 1
	}
	if p.WhiteCap < 0 {
		p.WhiteCap = 0
	}
	if p.WhiteCap >= 765 {
		p.WhiteCap = 0
	}
	return p
}

// Limit applies the global brightness then the per-pixel white cap in
// place. Full brightness with no cap leaves the frame untouched.
func Limit(f pixel.Frame, p Power) {
	p = p.normalized()
	if p.Brightness >= 1 && p.WhiteCap == 0 {
		return
	}
	capSum := float64(p.WhiteCap)
	for o := 0; o+2 < len(f.Pix); o += 3 {
		r := float64(f.Pix[o]) * p.Brightness
		g := float64(f.Pix[o+1]) * p.Brightness
		b := float64(f.Pix[o+2]) * p.Brightness
		if capSum > 0 {
			if s := r + g + b; s > capSum {
				k := capSum / s
				r, g, b = r*k, g*k, b*k
			}
		}
		f.Pix[o] = pixel.Round8(r)
		f.Pix[o+1] = pixel.Round8(g)
		f.Pix[o+2] = pixel.Round8(b)
	}
}
