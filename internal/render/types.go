package render

import (
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/shape"
)

type ColorMode string

const (
	Solid   ColorMode = "solid"
	Palette ColorMode = "palette"
)

// Channel is one of the two crossfaded render sources.
type Channel struct {
	Shape shape.Spec `yaml:"shape" json:"shape"`
	Color pixel.RGB  `yaml:"color" json:"color"`
}

// Preset is a stored channel configuration that can be loaded into A or B.
type Preset struct {
	ID      string  `yaml:"id" json:"id"`
	Name    string  `yaml:"name" json:"name"`
	Channel Channel `yaml:"channel" json:"channel"`
}

// Show is everything the compositor needs besides the stage geometry.
type Show struct {
	A         Channel   `yaml:"a" json:"a"`
	B         Channel   `yaml:"b" json:"b"`
	Crossfade float64   `yaml:"crossfade" json:"crossfade"`
	Mode      ColorMode `yaml:"mode" json:"mode"`
	Palette   string    `yaml:"palette" json:"palette"`
	// PaletteSpeed overrides the palette's own speed when non-nil.
	PaletteSpeed *float64 `yaml:"palette_speed,omitempty" json:"paletteSpeed,omitempty"`
	Power        Power    `yaml:"power" json:"power"`
}

// DefaultShow is a magenta line crossfading into a cyan circle.
func DefaultShow() Show {
	return Show{
		A:     Channel{Shape: shape.DefaultSpec(shape.Line), Color: pixel.RGB{R: 255, B: 255}},
		B:     Channel{Shape: shape.DefaultSpec(shape.Circle), Color: pixel.RGB{G: 255, B: 255}},
		Mode:  Solid,
		Power: Power{Brightness: 1},
	}
}

// Clone deep-copies the parts of s that are shared by pointer.
func (s Show) Clone() Show {
	s.A = s.A.clone()
	s.B = s.B.clone()
	if s.PaletteSpeed != nil {
		v := *s.PaletteSpeed
		s.PaletteSpeed = &v
	}
	return s
}

func (c Channel) clone() Channel {
	if c.Shape.Params.Child != nil {
		child := *c.Shape.Params.Child
		c.Shape.Params.Child = &child
	}
	return c
}

// Result is one composited stage frame.
type Result struct {
	Mask  shape.Mask
	Frame pixel.Frame
	// Color is the color applied before mask modulation.
	Color pixel.RGB
}
