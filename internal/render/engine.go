package render

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/palette"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/shape"
)

var (
	ErrBadSlot      = errors.New("render: channel slot must be \"a\" or \"b\"")
	ErrUnknownParam = errors.New("render: unknown parameter")
)

// Engine holds the show state and renders stage frames from it. Hooks may
// be called from any goroutine; Render takes a snapshot of the show so a
// frame never observes a half-applied change.
type Engine struct {
	Shapes   *shape.Registry
	Palettes *palette.Library

	mu   sync.Mutex
	show Show
	t0   time.Time

	// last render duration, ms
	last float64
}

func NewEngine(shapes *shape.Registry, pals *palette.Library, s Show) *Engine {
	if shapes == nil {
		shapes = shape.Default()
	}
	if pals == nil {
		pals = palette.NewLibrary()
	}
	return &Engine{Shapes: shapes, Palettes: pals, show: s.Clone(), t0: time.Now()}
}

// Now returns seconds since the engine started.
func (e *Engine) Now() float64 { return time.Since(e.t0).Seconds() }

// RenderChannel rasterizes ch over the stage grid.
func RenderChannel(reg *shape.Registry, space layout.Space, ch Channel) shape.Mask {
	return reg.Render(space.N, space.H, ch.Shape)
}

// Render composites the current show over space at time t (seconds; t<0
// means Now) into dst, resizing it as needed.
func (e *Engine) Render(space layout.Space, t float64, dst *Result) {
	if t < 0 {
		t = e.Now()
	}
	start := time.Now()
	s := e.Show()

	if dst.Frame.W != space.N || dst.Frame.H != space.H || len(dst.Frame.Pix) != space.Len()*3 {
		dst.Frame.Resize(space.N, space.H)
	}
	a := RenderChannel(e.Shapes, space, s.A)
	b := RenderChannel(e.Shapes, space, s.B)
	Composite(dst, a, b, s.A.Color, s.B.Color, s.Crossfade, e.paletteColor(s, t))
	Limit(dst.Frame, s.Power)

	e.mu.Lock()
	e.last = float64(time.Since(start).Microseconds()) / 1000.0
	e.mu.Unlock()
}

// LastMS reports how long the previous Render took.
func (e *Engine) LastMS() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// paletteColor returns nil in solid mode or when the palette does not
// resolve, which falls back to the per-channel colors.
func (e *Engine) paletteColor(s Show, t float64) *pixel.RGB {
	if s.Mode != Palette || s.Palette == "" {
		return nil
	}
	p, ok := e.Palettes.Resolve(s.Palette)
	if !ok {
		return nil
	}
	if s.PaletteSpeed != nil {
		p.Speed = palette.ClampSpeed(*s.PaletteSpeed)
	}
	c := p.Sample(t)
	return &c
}

// Show returns a copy of the current show.
func (e *Engine) Show() Show {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.show.Clone()
}

func (e *Engine) SetShow(s Show) {
	s = s.Clone()
	s.Crossfade = ClampFade(s.Crossfade)
	e.mu.Lock()
	e.show = s
	e.mu.Unlock()
}

func (e *Engine) update(f func(s *Show) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return f(&e.show)
}

func slot(s *Show, name string) (*Channel, error) {
	switch strings.ToLower(name) {
	case "a":
		return &s.A, nil
	case "b":
		return &s.B, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadSlot, name)
}

// SetChannel replaces channel "a" or "b".
func (e *Engine) SetChannel(name string, ch Channel) error {
	ch = ch.clone()
	return e.update(func(s *Show) error {
		c, err := slot(s, name)
		if err != nil {
			return err
		}
		*c = ch
		return nil
	})
}

// SetShape switches a channel to kind with that kind's default parameters.
func (e *Engine) SetShape(name string, k shape.Kind) error {
	return e.update(func(s *Show) error {
		c, err := slot(s, name)
		if err != nil {
			return err
		}
		c.Shape = shape.DefaultSpec(k)
		if k == shape.Multi {
			child := shape.DefaultSpec(shape.Circle)
			child.Params.Radius = 0.2
			c.Shape.Params.Child = &child
		}
		return nil
	})
}

func (e *Engine) SetColor(name string, col pixel.RGB) error {
	return e.update(func(s *Show) error {
		c, err := slot(s, name)
		if err != nil {
			return err
		}
		c.Color = col
		return nil
	})
}

// SetActive loads ch into A and resets the crossfade to A.
func (e *Engine) SetActive(ch Channel) {
	ch = ch.clone()
	_ = e.update(func(s *Show) error {
		s.A = ch
		s.Crossfade = 0
		return nil
	})
}

// ArmNext loads ch into B so a crossfade can move toward it.
func (e *Engine) ArmNext(ch Channel) {
	ch = ch.clone()
	_ = e.update(func(s *Show) error {
		s.B = ch
		return nil
	})
}

// SetCrossfade sets the A→B mix, clamped to [0,1].
func (e *Engine) SetCrossfade(t float64) {
	_ = e.update(func(s *Show) error {
		s.Crossfade = ClampFade(t)
		return nil
	})
}

func (e *Engine) SetMode(m ColorMode) {
	if m != Palette {
		m = Solid
	}
	_ = e.update(func(s *Show) error {
		s.Mode = m
		return nil
	})
}

func (e *Engine) SetPalette(name string) {
	_ = e.update(func(s *Show) error {
		s.Palette = name
		return nil
	})
}

// SetParam sets a numeric show parameter:
//
//	crossfade, palette.speed, power.brightness, power.white_cap,
//	a.<shape param>, b.<shape param>
func (e *Engine) SetParam(name string, v float64) error {
	return e.update(func(s *Show) error {
		switch name {
		case "crossfade":
			s.Crossfade = ClampFade(v)
			return nil
		case "palette.speed":
			sp := palette.ClampSpeed(v)
			s.PaletteSpeed = &sp
			return nil
		case "power.brightness":
			s.Power.Brightness = pixel.Clamp01(v)
			return nil
		case "power.white_cap":
			s.Power.WhiteCap = int(math.Round(finiteOr(v, 0)))
			return nil
		}
		ch, field, ok := strings.Cut(name, ".")
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
		c, err := slot(s, ch)
		if err != nil {
			return err
		}
		return c.Shape.Params.Set(field, v)
	})
}

// SetBool sets a boolean show flag. "palette" switches the color mode.
func (e *Engine) SetBool(name string, b bool) error {
	switch name {
	case "palette":
		m := Solid
		if b {
			m = Palette
		}
		e.SetMode(m)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownParam, name)
}
