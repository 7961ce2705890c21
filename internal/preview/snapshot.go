// Package preview draws stage frames for people: a PNG of the tube wall
// and a colored terminal rendering.
package preview

import (
	"io"

	"github.com/gogpu/gg"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
)

// Geometry of the PNG snapshot, in image pixels.
const (
	PadX    = 24
	PadY    = 28
	TubeW   = 18
	TubeGap = 6
	TubeH   = 420
	// owner strip under the tubes
	StripH = 4
)

var (
	background = gg.Hex("#0b0b10")
	stripEven  = pixel.RGB{R: 90, G: 90, B: 100}
	stripOdd   = pixel.RGB{R: 160, G: 160, B: 170}
)

// Size is the snapshot size for a stage n columns wide.
func Size(n int) (w, h int) {
	if n < 1 {
		n = 1
	}
	return 2*PadX + n*TubeW + (n-1)*TubeGap, 2*PadY + TubeH
}

// TubeX is the left edge of stage column u.
func TubeX(u int) float64 {
	return float64(PadX + u*(TubeW+TubeGap))
}

// Snapshot draws frame as a row of tubes, one per stage column, with a
// strip under each tube marking which device owns it and a line at stage
// x=0 when it is on the stage. p may be nil.
func Snapshot(w io.Writer, space layout.Space, frame pixel.Frame, p *layout.Profile) error {
	iw, ih := Size(space.N)
	dc := gg.NewContext(iw, ih)
	defer dc.Close()
	dc.ClearWithColor(background)

	if space.N > 0 && space.H > 0 && frame.W == space.N && frame.H == space.H {
		cell := float64(TubeH) / float64(space.H)
		for u := 0; u < space.N; u++ {
			x := TubeX(u)
			for y := 0; y < space.H; y++ {
				setRGB(dc, frame.At(u, y))
				dc.DrawRectangle(x, float64(PadY)+float64(y)*cell, TubeW, cell)
				if err := dc.Fill(); err != nil {
					return err
				}
			}
			if err := ownerStrip(dc, p, space, u, x); err != nil {
				return err
			}
		}

		if space.Center >= 0 && space.Center < space.N {
			cx := TubeX(space.Center) + TubeW/2
			dc.SetRGBA(1, 1, 1, 0.5)
			dc.SetLineWidth(1)
			dc.DrawLine(cx, PadY/2, cx, float64(PadY+TubeH+PadY/2))
			if err := dc.Stroke(); err != nil {
				return err
			}
		}
	}
	return dc.EncodePNG(w)
}

func ownerStrip(dc *gg.Context, p *layout.Profile, space layout.Space, u int, x float64) error {
	if p == nil {
		return nil
	}
	d, ok := layout.Owner(p, space, u)
	if !ok {
		return nil
	}
	c := stripEven
	for i := range p.Devices {
		if p.Devices[i].ID == d.ID && i%2 == 1 {
			c = stripOdd
		}
	}
	setRGB(dc, c)
	dc.DrawRectangle(x, float64(PadY+TubeH+2), TubeW, StripH)
	return dc.Fill()
}

func setRGB(dc *gg.Context, c pixel.RGB) {
	dc.SetRGB(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255)
}
