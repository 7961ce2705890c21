// Package shape rasterizes procedural shapes into intensity masks.
//
// Every shape works in abstract grid space [0,w)×[0,h) and knows nothing
// about devices. Edges are anti-aliased: intensity falls off linearly over
// Params.Softness pixels past the boundary and is clamped to [0,1].
package shape

import "math"

type Kind string

const (
	Line   Kind = "line"
	Rect   Kind = "rect"
	Circle Kind = "circle"
	Ring   Kind = "ring"
	Multi  Kind = "multi"
	Noise  Kind = "noise"
)

// MinSoftness keeps the falloff finite; at this width edges are effectively hard.
const MinSoftness = 1e-4

// Mask is a dense W×H intensity field, row-major by row*W+col.
type Mask struct {
	W, H int
	V    []float32
}

func NewMask(w, h int) Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Mask{W: w, H: h, V: make([]float32, w*h)}
}

func (m Mask) At(col, row int) float32 {
	if col < 0 || col >= m.W || row < 0 || row >= m.H {
		return 0
	}
	return m.V[row*m.W+col]
}

// Params is the union of every shape's parameters. Fields a shape does not
// use are ignored. Sizes are relative to the grid unless suffixed Px.
type Params struct {
	X        float64 `yaml:"x" json:"x"`
	Y        float64 `yaml:"y" json:"y"`
	Angle    float64 `yaml:"angle" json:"angle"`
	Softness float64 `yaml:"softness" json:"softness"`

	Length    float64 `yaml:"length" json:"length"`
	Thickness float64 `yaml:"thickness" json:"thickness"`
	Width     float64 `yaml:"width" json:"width"`
	Height    float64 `yaml:"height" json:"height"`
	Fill      float64 `yaml:"fill" json:"fill"`
	Radius    float64 `yaml:"radius" json:"radius"`
	StrokePx  float64 `yaml:"stroke_px" json:"strokePx"`
	RingWidth float64 `yaml:"ring_width" json:"ringWidth"`

	Count   int     `yaml:"count" json:"count"`
	Spacing float64 `yaml:"spacing" json:"spacing"`
	Child   *Spec   `yaml:"child,omitempty" json:"child,omitempty"`

	Seed      int64   `yaml:"seed" json:"seed"`
	Scale     float64 `yaml:"scale" json:"scale"`
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// Spec selects a shape kind and its parameters.
type Spec struct {
	Kind   Kind   `yaml:"kind" json:"kind"`
	Params Params `yaml:"params" json:"params"`
}

var defaults = Params{
	Softness:  1,
	Length:    1,
	Thickness: 0.08,
	Width:     0.6,
	Height:    0.6,
	Fill:      1,
	Radius:    0.4,
	StrokePx:  1,
	RingWidth: 0.08,
	Count:     3,
	Spacing:   0.3,
	Scale:     0.2,
	Threshold: 0.5,
}

// DefaultParams returns the parameters a freshly selected shape starts with.
func DefaultParams(k Kind) Params {
	p := defaults
	if k == Ring {
		p.Radius = 0.45
	}
	return p
}

// DefaultSpec is DefaultParams wrapped in a Spec.
func DefaultSpec(k Kind) Spec {
	return Spec{Kind: k, Params: DefaultParams(k)}
}

// Sanitize clamps every parameter into its usable range and replaces
// non-finite values with defaults.
func (p Params) Sanitize() Params {
	d := defaults
	p.X = clamp(finite(p.X, 0), -0.5, 0.5)
	p.Y = clamp(finite(p.Y, 0), -0.5, 0.5)
	p.Angle = finite(p.Angle, 0)
	p.Softness = clamp(finite(p.Softness, d.Softness), MinSoftness, 64)

	p.Length = clamp(finite(p.Length, d.Length), 0, 2)
	p.Thickness = clamp(finite(p.Thickness, d.Thickness), 0, 1)
	p.Width = clamp(finite(p.Width, d.Width), 0, 1)
	p.Height = clamp(finite(p.Height, d.Height), 0, 1)
	p.Fill = clamp(finite(p.Fill, d.Fill), 0, 1)
	p.Radius = clamp(finite(p.Radius, d.Radius), 0, 1)
	p.StrokePx = clamp(finite(p.StrokePx, d.StrokePx), 0, 64)
	p.RingWidth = clamp(finite(p.RingWidth, d.RingWidth), 0, 1)

	if p.Count < 1 {
		p.Count = 1
	} else if p.Count > 64 {
		p.Count = 64
	}
	p.Spacing = clamp(finite(p.Spacing, d.Spacing), -1, 1)

	p.Scale = clamp(finite(p.Scale, d.Scale), 0, 1)
	p.Threshold = clamp(finite(p.Threshold, d.Threshold), 0, 0.999)
	return p
}

// Shape renders one kind of mask. Implementations must be pure and return a
// w×h mask.
type Shape interface {
	Kind() Kind
	Render(w, h int, p Params) Mask
}

// Func adapts a plain function to Shape.
type Func struct {
	K Kind
	F func(w, h int, p Params) Mask
}

func (f Func) Kind() Kind { return f.K }

func (f Func) Render(w, h int, p Params) Mask {
	if f.F == nil {
		return NewMask(w, h)
	}
	return f.F(w, h, p)
}

// falloff is the shared soft-edge rule: d is the signed distance past the
// boundary (negative inside).
func falloff(d, soft float64) float64 {
	return clamp(1-d/soft, 0, 1)
}

func center(w, h int, p Params) (float64, float64) {
	return float64(w-1) * (0.5 + p.X), float64(h-1) * (0.5 + p.Y)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
