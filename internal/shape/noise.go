package shape

import "math"

// renderNoise is deterministic block noise: each Scale·min(w,h) sized cell
// gets a hashed value, and values above Threshold are rescaled to [0,1].
// Animate it by changing Seed.
func renderNoise(w, h int, p Params) Mask {
	m := NewMask(w, h)
	cell := int(math.Round(p.Scale * float64(min(w, h))))
	if cell < 1 {
		cell = 1
	}
	th := p.Threshold
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			v := hash01(p.Seed, i/cell, j/cell)
			if v > th {
				m.V[j*w+i] = float32((v - th) / (1 - th))
			}
		}
	}
	return m
}

// hash01 maps a lattice point to [0,1) with a splitmix64 finalizer.
func hash01(seed int64, x, y int) float64 {
	z := uint64(seed)*0x9e3779b97f4a7c15 ^ uint64(int64(x))*0xbf58476d1ce4e5b9 ^ uint64(int64(y))*0x94d049bb133111eb
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}
