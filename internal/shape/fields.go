package shape

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownParam = errors.New("shape: unknown parameter")

func (p *Params) fields() map[string]*float64 {
	return map[string]*float64{
		"x":          &p.X,
		"y":          &p.Y,
		"angle":      &p.Angle,
		"softness":   &p.Softness,
		"length":     &p.Length,
		"thickness":  &p.Thickness,
		"width":      &p.Width,
		"height":     &p.Height,
		"fill":       &p.Fill,
		"radius":     &p.Radius,
		"stroke_px":  &p.StrokePx,
		"ring_width": &p.RingWidth,
		"spacing":    &p.Spacing,
		"scale":      &p.Scale,
		"threshold":  &p.Threshold,
	}
}

// Set assigns a parameter by its yaml name. Integer parameters are rounded
// and NaN or Inf leaves the parameter unchanged. Range clamping happens in
// Sanitize at render time.
func (p *Params) Set(name string, v float64) error {
	switch name {
	case "count":
		p.Count = int(math.Round(finite(v, float64(p.Count))))
		return nil
	case "seed":
		p.Seed = int64(finite(v, float64(p.Seed)))
		return nil
	}
	f, ok := p.fields()[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	*f = finite(v, *f)
	return nil
}

// Get reads a parameter by its yaml name.
func (p Params) Get(name string) (float64, bool) {
	switch name {
	case "count":
		return float64(p.Count), true
	case "seed":
		return float64(p.Seed), true
	}
	f, ok := p.fields()[name]
	if !ok {
		return 0, false
	}
	return *f, true
}

// ParamNames lists every name accepted by Set.
func ParamNames() []string {
	var p Params
	out := []string{"count", "seed"}
	for k := range p.fields() {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
