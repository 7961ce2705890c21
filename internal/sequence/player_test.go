package sequence

import (
	"errors"
	"strings"
	"testing"
)

func TestEnvelopeEval(t *testing.T) {
	env := Envelope{Keys: []Keyframe{
		{T: 0, V: 0, Ease: "linear"},
		{T: 10, V: 10, Ease: "linear"},
	}}
	for _, tc := range []struct{ t, want float64 }{
		{-1, 0}, {0, 0}, {5, 5}, {10, 10}, {11, 10},
	} {
		if v := env.Eval(tc.t); v != tc.want {
			t.Fatalf("Eval(%v)=%v want %v", tc.t, v, tc.want)
		}
	}
	if v := (Envelope{}).Eval(3); v != 0 {
		t.Fatalf("empty envelope = %v", v)
	}
}

func TestEnvelopeEasing(t *testing.T) {
	smooth := Envelope{Keys: []Keyframe{{T: 0, V: 0, Ease: "smooth"}, {T: 1, V: 1}}}
	cubic := Envelope{Keys: []Keyframe{{T: 0, V: 0, Ease: "cubic"}, {T: 1, V: 1}}}
	if v := smooth.Eval(0.25); v >= 0.25 {
		t.Fatalf("smooth should ease in, got %v", v)
	}
	if v := cubic.Eval(0.5); v != 0.5 {
		t.Fatalf("cubic midpoint %v", v)
	}
	if !smooth.BoolEval(0.9) || smooth.BoolEval(0.1) {
		t.Fatal("BoolEval threshold")
	}
}

type recorder struct {
	log    []string
	alphas []float64
	params map[string]float64
}

func (r *recorder) hooks() Hooks {
	r.params = map[string]float64{}
	return Hooks{
		SetActive:    func(preset string) { r.log = append(r.log, "Set:"+preset) },
		ArmNext:      func(preset string) { r.log = append(r.log, "Arm:"+preset) },
		SetCrossfade: func(a float64) { r.alphas = append(r.alphas, a) },
		SetParam:     func(name string, v float64) { r.params[name] = v },
		SetBool:      func(name string, b bool) {},
	}
}

func twoClips(loop bool) Program {
	return Program{
		Version: "seq.v1",
		Loop:    loop,
		Clips: []Clip{
			{Name: "A", Preset: "calm", DurationS: 4, XFadeS: 2,
				Params: map[string]Envelope{"a.angle": {Keys: []Keyframe{{T: 0, V: 0}, {T: 4, V: 2}}}}},
			{Name: "B", Preset: "storm", DurationS: 4},
		},
	}
}

func TestSequencerCrossfade(t *testing.T) {
	var r recorder
	p := NewPlayer(r.hooks())
	if err := p.Load(twoClips(false)); err != nil {
		t.Fatalf("load: %v", err)
	}
	p.Start()
	p.Tick(1.75)
	if r.params["a.angle"] != 0.875 {
		t.Fatalf("param at 1.75s = %v", r.params["a.angle"])
	}
	p.Tick(0.5) // inside A's fade window, arms B
	p.Tick(0.75)
	p.Tick(1.0) // A ends, B becomes active

	want := []string{"Set:calm", "Arm:storm", "Set:storm"}
	if strings.Join(r.log, ",") != strings.Join(want, ",") {
		t.Fatalf("hook order %v", r.log)
	}
	sawMid := false
	for _, a := range r.alphas {
		if a > 0 && a < 1 {
			sawMid = true
		}
	}
	if !sawMid {
		t.Fatalf("expected partial crossfade, got %v", r.alphas)
	}
	if last := r.alphas[len(r.alphas)-1]; last != 0 {
		t.Fatalf("crossfade must reset on clip change, got %v", last)
	}
	if st := p.Status(); st.Clip != "B" || st.State != Running {
		t.Fatalf("status %+v", st)
	}

	p.Tick(4)
	if p.State != Idle {
		t.Fatalf("program should end, state %v", p.State)
	}
}

func TestSequencerLoops(t *testing.T) {
	var r recorder
	p := NewPlayer(r.hooks())
	if err := p.Load(twoClips(true)); err != nil {
		t.Fatal(err)
	}
	p.Start()
	p.Tick(4)
	p.Tick(3.5) // into B's end, no fade on B
	p.Tick(0.5) // B ends, loop back to A
	if st := p.Status(); st.Clip != "A" || st.State != Running {
		t.Fatalf("status after loop %+v", st)
	}
	if st := p.Status(); st.PositionS != 0 {
		t.Fatalf("position after loop %v", st.PositionS)
	}
}

func TestSeekPauseStop(t *testing.T) {
	var r recorder
	p := NewPlayer(r.hooks())
	if err := p.Load(twoClips(false)); err != nil {
		t.Fatal(err)
	}
	p.Seek(5)
	if st := p.Status(); st.Clip != "B" || st.PositionS != 5 {
		t.Fatalf("seek %+v", st)
	}
	p.Seek(100)
	if st := p.Status(); st.Clip != "B" || st.PositionS >= 8 {
		t.Fatalf("seek past end %+v", st)
	}

	p.Start()
	p.Pause()
	p.Tick(1)
	if p.Status().PositionS >= 8 {
		t.Fatal("paused player must not advance")
	}
	p.Resume()
	if p.State != Running {
		t.Fatal("resume")
	}
	p.Stop()
	if st := p.Status(); st.State != Idle || st.PositionS != 0 || st.Index != 0 {
		t.Fatalf("stop %+v", st)
	}
}

func TestLoadRejectsBadPrograms(t *testing.T) {
	p := NewPlayer(Hooks{})
	if err := p.Load(Program{}); !errors.Is(err, ErrNoClips) {
		t.Fatalf("want ErrNoClips, got %v", err)
	}
	if err := p.Load(Program{Clips: []Clip{{Preset: "x"}}}); !errors.Is(err, ErrBadDuration) {
		t.Fatalf("want ErrBadDuration, got %v", err)
	}
	if err := p.Load(Program{Clips: []Clip{{DurationS: 1}}}); !errors.Is(err, ErrNoPreset) {
		t.Fatalf("want ErrNoPreset, got %v", err)
	}
}

const programYAML = `
loop: true
clips:
  - name: intro
    preset: calm
    duration_s: 8
    xfade_s: 2
    params:
      a.angle:
        - {t: 8, v: 3.14}
        - {t: 0, v: 0, ease: smooth}
  - name: drop
    preset: storm
    duration_s: 4
`

func TestParseProgram(t *testing.T) {
	prog, err := ParseProgram([]byte(programYAML))
	if err != nil {
		t.Fatal(err)
	}
	if prog.Version != "seq.v1" || !prog.Loop || len(prog.Clips) != 2 {
		t.Fatalf("program %+v", prog)
	}
	env := prog.Clips[0].Params["a.angle"]
	if len(env.Keys) != 2 || env.Keys[0].T != 0 || env.Keys[0].Ease != "smooth" {
		t.Fatalf("keys not decoded and sorted: %+v", env.Keys)
	}
	if _, err := ParseProgram([]byte("clips: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}
