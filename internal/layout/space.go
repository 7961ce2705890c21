package layout

// Space is the unified stage coordinate space derived from a profile.
// Column u = x - XMin, so stage x=0 sits at column Center.
type Space struct {
	XMin   int `json:"xMin"`
	XMax   int `json:"xMax"`
	N      int `json:"n"`
	Center int `json:"centerColumn"`
	H      int `json:"h"`
}

// Derive computes the stage space. ok is false when there is nothing to
// draw (nil profile or no devices); that is not an error.
func Derive(p *Profile) (s Space, ok bool) {
	if p == nil || len(p.Devices) == 0 {
		return Space{}, false
	}
	xMin := p.Devices[0].X
	xMax := p.Devices[0].X + p.Devices[0].W() - 1
	for _, d := range p.Devices[1:] {
		if d.X < xMin {
			xMin = d.X
		}
		if e := d.X + d.W() - 1; e > xMax {
			xMax = e
		}
	}
	return Space{
		XMin:   xMin,
		XMax:   xMax,
		N:      xMax - xMin + 1,
		Center: -xMin,
		H:      p.Height(),
	}, true
}

// Column translates a stage x into a column index.
func (s Space) Column(x int) int { return x - s.XMin }

// Index maps (col,row) to the row-major mask/frame index.
func (s Space) Index(col, row int) int { return row*s.N + col }

// Len is the pixel count of the whole stage.
func (s Space) Len() int { return s.N * s.H }

// Span returns the device's first and last stage column.
func (s Space) Span(d Device) (u0, u1 int) {
	u0 = s.Column(d.X)
	return u0, u0 + d.W() - 1
}

// Owner returns the device that owns column u. When devices overlap the one
// declared later wins.
func Owner(p *Profile, s Space, u int) (Device, bool) {
	if p == nil {
		return Device{}, false
	}
	for i := len(p.Devices) - 1; i >= 0; i-- {
		u0, u1 := s.Span(p.Devices[i])
		if u >= u0 && u <= u1 {
			return p.Devices[i], true
		}
	}
	return Device{}, false
}
