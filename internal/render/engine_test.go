package render

import (
	"errors"
	"math"
	"testing"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/palette"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/shape"
)

func stage(t *testing.T) layout.Space {
	t.Helper()
	p := &layout.Profile{Name: "three", PixelsPerColumn: 5, Devices: []layout.Device{
		{ID: "a", X: -2, Width: 2},
		{ID: "b", X: 0, Width: 3},
		{ID: "c", X: 4, Width: 1},
	}}
	s, ok := layout.Derive(p)
	if !ok {
		t.Fatal("expected a stage space")
	}
	return s
}

func ramp(w, h int, rev bool) shape.Mask {
	m := shape.NewMask(w, h)
	for i := range m.V {
		v := float32(i) / float32(len(m.V)-1)
		if rev {
			v = 1 - v
		}
		m.V[i] = v
	}
	return m
}

func TestMixMasksAlpha(t *testing.T) {
	a := []float32{1, 0, 0.5}
	b := []float32{0, 1, 0.5}
	dst := make([]float32, 3)
	MixMasks(dst, a, b, 0.5)
	for i, want := range []float32{0.5, 0.5, 0.5} {
		if math.Abs(float64(dst[i]-want)) > 1e-6 {
			t.Fatalf("dst[%d]=%v want %v", i, dst[i], want)
		}
	}
}

func TestCrossfadeEndpointsExact(t *testing.T) {
	w, h := 7, 5
	a, b := ramp(w, h, false), ramp(w, h, true)
	ca := pixel.RGB{R: 200, G: 10, B: 33}
	cb := pixel.RGB{R: 1, G: 250, B: 90}

	for _, tc := range []struct {
		t     float64
		mask  shape.Mask
		color pixel.RGB
	}{
		{0, a, ca},
		{-4, a, ca},
		{math.NaN(), a, ca},
		{1, b, cb},
		{9, b, cb},
	} {
		dst := Result{Frame: pixel.NewFrame(w, h)}
		Composite(&dst, a, b, ca, cb, tc.t, nil)
		if dst.Color != tc.color {
			t.Fatalf("t=%v color %v want %v", tc.t, dst.Color, tc.color)
		}
		for i := range tc.mask.V {
			if dst.Mask.V[i] != tc.mask.V[i] {
				t.Fatalf("t=%v mask[%d]=%v want %v", tc.t, i, dst.Mask.V[i], tc.mask.V[i])
			}
			want := tc.color.Scale(float64(tc.mask.V[i]))
			got := dst.Frame.At(i%w, i/w)
			if got != want {
				t.Fatalf("t=%v px %d = %v want %v", tc.t, i, got, want)
			}
		}
	}
}

func TestCrossfadeMidpointIsLerp(t *testing.T) {
	w, h := 7, 5
	a, b := ramp(w, h, false), ramp(w, h, true)
	ca := pixel.RGB{R: 255}
	cb := pixel.RGB{B: 255}
	dst := Result{Frame: pixel.NewFrame(w, h)}
	Composite(&dst, a, b, ca, cb, 0.25, nil)

	if want := ca.Lerp(cb, 0.25); dst.Color != want {
		t.Fatalf("color %v want %v", dst.Color, want)
	}
	for i := range a.V {
		want := 0.75*float64(a.V[i]) + 0.25*float64(b.V[i])
		if math.Abs(float64(dst.Mask.V[i])-want) > 1e-6 {
			t.Fatalf("mask[%d]=%v want %v", i, dst.Mask.V[i], want)
		}
	}
}

func TestCompositeTreatsMismatchedMaskAsBlank(t *testing.T) {
	dst := Result{Frame: pixel.NewFrame(4, 2)}
	Composite(&dst, shape.NewMask(1, 1), ramp(4, 2, false), pixel.White, pixel.White, 0, nil)
	for _, v := range dst.Frame.Pix {
		if v != 0 {
			t.Fatalf("expected blank frame, got %v", dst.Frame.Pix)
		}
	}
}

func TestEngineRendersLineAcrossStage(t *testing.T) {
	space := stage(t)
	s := DefaultShow()
	s.A = Channel{Shape: shape.DefaultSpec(shape.Line), Color: pixel.White}
	s.A.Shape.Params.Softness = 0.01
	e := NewEngine(shape.Default(), nil, s)

	var res Result
	e.Render(space, 0, &res)
	if res.Frame.W != 7 || res.Frame.H != 5 {
		t.Fatalf("frame %dx%d", res.Frame.W, res.Frame.H)
	}
	for c := 0; c < 7; c++ {
		if got := res.Frame.At(c, 2); got != pixel.White {
			t.Fatalf("middle row col %d = %v", c, got)
		}
		if got := res.Frame.At(c, 0); got != pixel.Black {
			t.Fatalf("top row col %d = %v", c, got)
		}
	}
	if e.LastMS() < 0 {
		t.Fatal("negative render time")
	}
}

func TestEnginePaletteModeAndFallback(t *testing.T) {
	space := stage(t)
	lib := palette.NewLibrary()
	lib.Put(palette.Palette{Name: "green", Colors: []pixel.RGB{{G: 200}}})

	s := DefaultShow()
	s.A = Channel{Shape: shape.DefaultSpec(shape.Line), Color: pixel.RGB{R: 255}}
	s.A.Shape.Params.Softness = 0.01
	s.Mode = Palette
	s.Palette = "green"
	e := NewEngine(shape.Default(), lib, s)

	var res Result
	e.Render(space, 3, &res)
	if got := res.Frame.At(3, 2); got != (pixel.RGB{G: 200}) {
		t.Fatalf("palette color %v", got)
	}

	e.SetPalette("missing")
	e.Render(space, 3, &res)
	if got := res.Frame.At(3, 2); got != (pixel.RGB{R: 255}) {
		t.Fatalf("fallback color %v", got)
	}
}

func TestEngineHooks(t *testing.T) {
	e := NewEngine(nil, nil, DefaultShow())

	if err := e.SetParam("a.angle", 1.25); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam("b.count", 4.6); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam("crossfade", 7); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam("palette.speed", 500); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam("c.angle", 1); !errors.Is(err, ErrBadSlot) {
		t.Fatalf("want ErrBadSlot, got %v", err)
	}
	if err := e.SetParam("a.wobble", 1); !errors.Is(err, shape.ErrUnknownParam) {
		t.Fatalf("want shape.ErrUnknownParam, got %v", err)
	}
	if err := e.SetParam("speed", 1); !errors.Is(err, ErrUnknownParam) {
		t.Fatalf("want ErrUnknownParam, got %v", err)
	}
	if err := e.SetBool("palette", true); err != nil {
		t.Fatal(err)
	}

	s := e.Show()
	if s.A.Shape.Params.Angle != 1.25 || s.B.Shape.Params.Count != 5 {
		t.Fatalf("params not applied: %+v", s)
	}
	if s.Crossfade != 1 || *s.PaletteSpeed != palette.MaxSpeed || s.Mode != Palette {
		t.Fatalf("show flags not applied: %+v", s)
	}

	e.SetActive(Channel{Shape: shape.DefaultSpec(shape.Ring), Color: pixel.White})
	s = e.Show()
	if s.A.Shape.Kind != shape.Ring || s.Crossfade != 0 {
		t.Fatalf("SetActive: %+v", s)
	}

	if err := e.SetShape("b", shape.Multi); err != nil {
		t.Fatal(err)
	}
	s = e.Show()
	s.B.Shape.Params.Child.Kind = shape.Line
	if e.Show().B.Shape.Params.Child.Kind != shape.Circle {
		t.Fatal("Show must return a deep copy")
	}
}
