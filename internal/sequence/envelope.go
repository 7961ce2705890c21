package sequence

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	default:
		return x
	}
}

// Eval returns the envelope value at t. No keys gives 0; times outside the
// keys hold the nearest end value.
func (e Envelope) Eval(t float64) float64 {
	n := len(e.Keys)
	if n == 0 {
		return 0
	}
	if t <= e.Keys[0].T {
		return e.Keys[0].V
	}
	if t >= e.Keys[n-1].T {
		return e.Keys[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e.Keys[i], e.Keys[i+1]
		if t > b.T {
			continue
		}
		den := b.T - a.T
		if den <= 0 {
			return b.V
		}
		u := easeApply(a.Ease, clamp01((t-a.T)/den))
		return a.V + (b.V-a.V)*u
	}
	return e.Keys[n-1].V
}

// BoolEval thresholds the envelope at 0.5.
func (e Envelope) BoolEval(t float64) bool {
	return e.Eval(t) >= 0.5
}
