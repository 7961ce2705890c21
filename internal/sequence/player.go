package sequence

import (
	"math"
	"sync"
)

func NewPlayer(h Hooks) *Player {
	return &Player{State: Idle, hooks: h}
}

// Load replaces the program and resets to Idle at time 0.
func (p *Player) Load(prog Program) error {
	if err := prog.Validate(); err != nil {
		return err
	}
	p.prog = prog
	p.nowS = 0
	p.idx = 0
	p.State = Idle
	p.armed = false
	p.lastAlpha = 0
	return nil
}

// Start begins playback from the current position.
func (p *Player) Start() {
	if p.State == Running || len(p.prog.Clips) == 0 {
		return
	}
	if p.State == Paused {
		p.State = Running
		return
	}
	if p.nowS >= p.totalDuration() {
		p.nowS = 0
		p.idx = 0
	}
	p.State = Running
	p.enter(p.idx)
}

func (p *Player) Pause() {
	if p.State == Running {
		p.State = Paused
	}
}

func (p *Player) Resume() {
	if p.State == Paused {
		p.State = Running
	}
}

// Stop rewinds to the start and goes Idle.
func (p *Player) Stop() {
	p.State = Idle
	p.nowS = 0
	p.idx = 0
	p.armed = false
	p.lastAlpha = 0
	p.crossfade(0)
}

// Seek jumps to absolute program time t, clamped into [0, total).
func (p *Player) Seek(t float64) {
	if len(p.prog.Clips) == 0 {
		return
	}
	if t < 0 || math.IsNaN(t) {
		t = 0
	}
	if total := p.totalDuration(); total > 0 && t >= total {
		t = math.Nextafter(total, -1)
	}
	acc := 0.0
	idx := len(p.prog.Clips) - 1
	for i, c := range p.prog.Clips {
		if t < acc+c.DurationS {
			idx = i
			break
		}
		acc += c.DurationS
	}
	p.nowS = t
	p.enter(idx)
}

// Tick advances playback by dt seconds and emits hooks.
func (p *Player) Tick(dt float64) {
	if p.State != Running || len(p.prog.Clips) == 0 || dt <= 0 {
		return
	}
	p.nowS += dt

	clip, localT := p.currentClipAndLocalT()
	if p.hooks.SetParam != nil {
		for name, env := range clip.Params {
			p.hooks.SetParam(name, env.Eval(localT))
		}
	}
	if p.hooks.SetBool != nil {
		for name, env := range clip.Bools {
			p.hooks.SetBool(name, env.BoolEval(localT))
		}
	}

	if clip.XFadeS > 0 {
		remain := clip.DurationS - localT
		if remain <= clip.XFadeS && remain >= 0 {
			next := p.nextIndex()
			if !p.armed && next != -1 && p.hooks.ArmNext != nil {
				p.hooks.ArmNext(p.prog.Clips[next].Preset)
				p.armed = true
			}
			if p.armed {
				alpha := clamp01(1 - remain/clip.XFadeS)
				if alpha != p.lastAlpha {
					p.crossfade(alpha)
					p.lastAlpha = alpha
				}
			}
		}
	}

	if localT >= clip.DurationS {
		p.advanceClip()
	}
}

// Status reports where playback is.
func (p *Player) Status() Status {
	st := Status{State: p.State, Index: p.idx, PositionS: p.nowS, TotalS: p.totalDuration()}
	if p.idx < len(p.prog.Clips) {
		st.Clip = p.prog.Clips[p.idx].Name
	}
	return st
}

func (p *Player) Program() Program { return p.prog }

func (p *Player) crossfade(a float64) {
	if p.hooks.SetCrossfade != nil {
		p.hooks.SetCrossfade(a)
	}
}

// enter makes clip i active with no crossfade in progress.
func (p *Player) enter(i int) {
	p.idx = i
	p.armed = false
	p.lastAlpha = 0
	if p.hooks.SetActive != nil {
		p.hooks.SetActive(p.prog.Clips[i].Preset)
	}
	p.crossfade(0)
}

func (p *Player) currentClipAndLocalT() (Clip, float64) {
	acc := 0.0
	for i := 0; i < p.idx; i++ {
		acc += p.prog.Clips[i].DurationS
	}
	return p.prog.Clips[p.idx], p.nowS - acc
}

func (p *Player) totalDuration() float64 {
	total := 0.0
	for _, c := range p.prog.Clips {
		total += c.DurationS
	}
	return total
}

func (p *Player) nextIndex() int {
	ni := p.idx + 1
	if ni >= len(p.prog.Clips) {
		if p.prog.Loop {
			return 0
		}
		return -1
	}
	return ni
}

func (p *Player) advanceClip() {
	next := p.nextIndex()
	if next == -1 {
		p.State = Idle
		p.crossfade(0)
		return
	}
	if next == 0 {
		// looped: keep the overshoot so the timeline stays continuous
		p.nowS -= p.totalDuration()
		if p.nowS < 0 {
			p.nowS = 0
		}
	}
	p.enter(next)
}

// SafePlayer serializes access to a Player shared between the conductor
// and the control surface.
type SafePlayer struct {
	mu sync.Mutex
	P  *Player
}

func NewSafePlayer(h Hooks) *SafePlayer {
	return &SafePlayer{P: NewPlayer(h)}
}

func (s *SafePlayer) With(f func(p *Player)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s.P)
}
