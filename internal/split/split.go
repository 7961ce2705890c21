// Package split cuts a composited stage frame into per-device pixel
// buffers in each device's own wiring order.
package split

import (
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
)

// Buffer is one device's share of a frame: Width×H RGB triples, column
// major (local column, then row).
type Buffer struct {
	Device layout.Device
	Pixels []byte
}

// Device writes d's slice of frame into dst and returns it, growing dst
// when it is too small. Columns outside the stage are left black. The
// output depends only on the arguments.
func Device(frame pixel.Frame, space layout.Space, d layout.Device, dst []byte) []byte {
	w, h := d.W(), space.H
	n := w * h * 3
	if cap(dst) < n {
		dst = make([]byte, n)
	} else {
		dst = dst[:n]
		clear(dst)
	}
	if frame.W != space.N || frame.H != space.H || len(frame.Pix) < space.Len()*3 {
		return dst
	}

	u0 := d.X - space.XMin
	for cx := 0; cx < w; cx++ {
		src := cx
		if d.ReverseHorizontal {
			src = w - 1 - cx
		}
		u := u0 + src
		if u < 0 || u >= space.N {
			continue
		}
		for y := 0; y < h; y++ {
			yy := y
			if d.FlipVertical {
				yy = h - 1 - y
			}
			s := space.Index(u, yy) * 3
			o := (cx*h + y) * 3
			dst[o], dst[o+1], dst[o+2] = frame.Pix[s], frame.Pix[s+1], frame.Pix[s+2]
		}
	}
	return dst
}

// Visible reports whether any of d's columns fall inside the stage.
func Visible(space layout.Space, d layout.Device) bool {
	u0, u1 := space.Span(d)
	return u1 >= 0 && u0 < space.N
}

// All splits frame for every visible device in declaration order. Devices
// that map entirely outside [0,N) are skipped. Overlapping devices each
// receive the same shared stage content for their columns.
func All(frame pixel.Frame, space layout.Space, p *layout.Profile) []Buffer {
	if p == nil {
		return nil
	}
	out := make([]Buffer, 0, len(p.Devices))
	for _, d := range p.Devices {
		if !Visible(space, d) {
			continue
		}
		out = append(out, Buffer{Device: d, Pixels: Device(frame, space, d, nil)})
	}
	return out
}
