// Package verify generates diagnostic stage patterns that bypass shape
// rendering, for checking device placement and wiring end to end.
package verify

import (
	"time"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
)

type Kind string

const (
	None        Kind = ""
	Walk        Kind = "walk"
	RGBChannels Kind = "rgb_channels"
	IndexSweep  Kind = "index_sweep"
)

const (
	DefaultCap         = 5
	DefaultInterval    = 300 * time.Millisecond
	MinInterval        = 10 * time.Millisecond
	DefaultPaletteSize = 10
)

// WalkPalette gives each stage column in the bottom cap a color that
// differs from its neighbours.
var WalkPalette = [DefaultPaletteSize]pixel.RGB{
	{R: 255},
	{G: 255},
	{B: 255},
	{R: 255, G: 255},
	{G: 255, B: 255},
	{R: 255, B: 255},
	{R: 255, G: 128},
	{R: 128, B: 255},
	{R: 128, G: 255},
	{R: 255, B: 128},
}

type Plan struct {
	Kind     Kind          `yaml:"kind" json:"kind"`
	Cap      int           `yaml:"cap" json:"cap"`
	Interval time.Duration `yaml:"interval" json:"interval"`
}

// Normalize fills defaults and clamps cap and interval.
func (p Plan) Normalize() Plan {
	if p.Kind == None {
		p.Kind = Walk
	}
	if p.Cap < 0 {
		p.Cap = 0
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	} else if p.Interval < MinInterval {
		p.Interval = MinInterval
	}
	return p
}

// DefaultPlan is the column walk with the stock cap and interval.
func DefaultPlan() Plan {
	return Plan{Kind: Walk, Cap: DefaultCap, Interval: DefaultInterval}
}

// Runner steps one pattern. It is not safe for concurrent use.
type Runner struct {
	plan   Plan
	step   int
	active int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan.Normalize()} }

func (r *Runner) Kind() Kind { return r.plan.Kind }
func (r *Runner) Plan() Plan { return r.plan }

// Active is the walk's highlighted stage column.
func (r *Runner) Active() int { return r.active }

// Steps is how many frames have been produced.
func (r *Runner) Steps() int { return r.step }

func (r *Runner) Reset() {
	r.step = 0
	r.active = 0
}

// WalkColor is the walk pattern at stage column u, row y.
func WalkColor(u, y, h, active, capRows int) pixel.RGB {
	if y < capRows {
		return pixel.White
	}
	if y >= h-capRows {
		n := len(WalkPalette)
		return WalkPalette[(u%n+n)%n]
	}
	if u == active {
		return pixel.White
	}
	return pixel.Black
}

// Step draws the next pattern frame for space into f, resizing it to the
// stage. It returns false when the pattern is finished or the space is
// empty; the walk and rgb_channels never finish.
func (r *Runner) Step(space layout.Space, f *pixel.Frame) bool {
	if space.N <= 0 || space.H <= 0 {
		return false
	}
	if f.W != space.N || f.H != space.H || len(f.Pix) != space.Len()*3 {
		f.Resize(space.N, space.H)
	} else {
		clear(f.Pix)
	}

	switch r.plan.Kind {
	case Walk:
		r.active = (r.active + 1) % space.N
		for y := 0; y < space.H; y++ {
			for u := 0; u < space.N; u++ {
				f.Set(u, y, WalkColor(u, y, space.H, r.active, r.plan.Cap))
			}
		}
	case RGBChannels:
		var c pixel.RGB
		switch r.step % 3 {
		case 0:
			c.R = 255
		case 1:
			c.G = 255
		case 2:
			c.B = 255
		}
		f.Fill(c)
	case IndexSweep:
		// column-major, the order every unflipped device is wired in
		if r.step >= space.Len() {
			return false
		}
		f.Set(r.step/space.H, r.step%space.H, pixel.White)
	default:
		return false
	}
	r.step++
	return true
}
