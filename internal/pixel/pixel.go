package pixel

import (
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is an 8-bit color as sent on the wire.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{}
	White = RGB{R: 255, G: 255, B: 255}
)

// ParseHex accepts "#rrggbb", "rrggbb" and the short "#rgb" form.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("pixel: bad hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, nil
}

// Hex renders c as "#rrggbb".
func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *RGB) UnmarshalText(b []byte) error {
	v, err := ParseHex(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Colorful converts to go-colorful's float representation.
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

// Lerp linearly interpolates each channel from c toward o by t and rounds.
// t is clamped to [0,1].
func (c RGB) Lerp(o RGB, t float64) RGB {
	t = Clamp01(t)
	return RGB{
		R: lerp8(c.R, o.R, t),
		G: lerp8(c.G, o.G, t),
		B: lerp8(c.B, o.B, t),
	}
}

// Scale multiplies every channel by v in [0,1] and rounds.
func (c RGB) Scale(v float64) RGB {
	v = Clamp01(v)
	return RGB{
		R: Round8(float64(c.R) * v),
		G: Round8(float64(c.G) * v),
		B: Round8(float64(c.B) * v),
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return Round8(float64(a)*(1-t) + float64(b)*t)
}

// Round8 rounds half away from zero and saturates to a byte.
func Round8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// Clamp01 clamps v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
