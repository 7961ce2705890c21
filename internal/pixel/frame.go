package pixel

// Frame is a dense W×H RGB raster indexed row-major by row*W+col.
type Frame struct {
	W, H int
	Pix  []byte
}

func NewFrame(w, h int) Frame {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return Frame{W: w, H: h, Pix: make([]byte, w*h*3)}
}

// Resize reuses the backing array when it is large enough and zeroes it.
func (f *Frame) Resize(w, h int) {
	n := w * h * 3
	if cap(f.Pix) < n {
		f.Pix = make([]byte, n)
	} else {
		f.Pix = f.Pix[:n]
		clear(f.Pix)
	}
	f.W, f.H = w, h
}

// Index returns the byte offset of (col,row).
func (f Frame) Index(col, row int) int {
	return (row*f.W + col) * 3
}

func (f Frame) In(col, row int) bool {
	return col >= 0 && col < f.W && row >= 0 && row < f.H
}

func (f Frame) At(col, row int) RGB {
	if !f.In(col, row) {
		return Black
	}
	i := f.Index(col, row)
	return RGB{R: f.Pix[i], G: f.Pix[i+1], B: f.Pix[i+2]}
}

func (f Frame) Set(col, row int, c RGB) {
	if !f.In(col, row) {
		return
	}
	i := f.Index(col, row)
	f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.R, c.G, c.B
}

// Fill sets every pixel to c.
func (f Frame) Fill(c RGB) {
	for i := 0; i+2 < len(f.Pix); i += 3 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.R, c.G, c.B
	}
}

func (f Frame) Clone() Frame {
	return Frame{W: f.W, H: f.H, Pix: append([]byte(nil), f.Pix...)}
}
