// Package app owns the running stage: the profile snapshot, the render
// engine, the verify walk, the show sequencer and the transport.
package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/store"
	"github.com/coreman2200/tubestage/internal/transport"
	"github.com/coreman2200/tubestage/internal/verify"
)

type Mode string

const (
	ShowMode   Mode = "show"
	VerifyMode Mode = "verify"
)

var ErrNoProfile = errors.New("app: no profile loaded")

// Snapshot is one published stage frame.
type Snapshot struct {
	ID    uint64
	Mode  Mode
	Space layout.Space
	Frame pixel.Frame
	// Profile is the profile the frame was rendered for.
	Profile *layout.Profile
}

// Options configure a Core. Zero values get defaults.
type Options struct {
	FPS  int
	Mode Mode
	Plan verify.Plan
}

// Core is the explicit application state. The conductor goroutine owns the
// tick buffers; everything else is safe to call from any goroutine.
type Core struct {
	Eng      *render.Engine
	Profiles store.ProfileStore // optional; edits are persisted when set
	Presets  store.PresetStore  // optional; needed by the sequencer
	Out      transport.Sender
	Diag     diagnostics.Sink
	Seq      *sequence.SafePlayer

	// OnFrame, when set before Run, receives every published snapshot.
	OnFrame func(s *Snapshot)

	profile atomic.Pointer[layout.Profile]
	editMu  sync.Mutex

	mu     sync.Mutex
	mode   Mode
	fps    int
	plan   verify.Plan
	runner *verify.Runner
	retime chan struct{}

	// cue holds the channels of the playing program's presets, keyed by
	// the names its clips use. Guarded by the Seq lock.
	cue map[string]render.Channel

	tick   sync.Mutex
	res    render.Result
	walk   pixel.Frame
	nextID atomic.Uint64
	last   atomic.Pointer[Snapshot]
	empty  atomic.Bool
	start  time.Time
}

func NewCore(eng *render.Engine, out transport.Sender, opts Options) *Core {
	if out == nil {
		out = transport.Discard{}
	}
	if opts.FPS <= 0 {
		opts.FPS = 40
	}
	if opts.Mode != VerifyMode {
		opts.Mode = ShowMode
	}
	c := &Core{
		Eng:    eng,
		Out:    out,
		Diag:   diagnostics.Discard{},
		mode:   opts.Mode,
		fps:    opts.FPS,
		plan:   opts.Plan.Normalize(),
		retime: make(chan struct{}, 1),
		start:  time.Now(),
	}
	c.runner = verify.NewRunner(c.plan)
	c.Seq = sequence.NewSafePlayer(c.hooks())
	return c
}

// Profile returns the current immutable profile snapshot, or nil.
func (c *Core) Profile() *layout.Profile { return c.profile.Load() }

// SetProfile validates p and publishes a private copy of it.
func (c *Core) SetProfile(p *layout.Profile) error {
	if p == nil {
		return ErrNoProfile
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.editMu.Lock()
	c.profile.Store(p.Clone())
	c.editMu.Unlock()
	return nil
}

// EditProfile applies edit to a copy of the current profile and publishes
// the copy when it validates. Ticks in flight keep the old snapshot.
func (c *Core) EditProfile(edit func(p *layout.Profile) error) error {
	c.editMu.Lock()
	defer c.editMu.Unlock()

	cur := c.profile.Load()
	if cur == nil {
		return ErrNoProfile
	}
	next := cur.Clone()
	if err := edit(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	if c.Profiles != nil {
		if err := c.Profiles.Save(next); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
	}
	c.profile.Store(next)
	c.Diag.Push(diagnostics.Diagnostic{
		Severity: diagnostics.Info, Code: diagnostics.ProfileEdited, Summary: "Profile updated",
		Evidence: map[string]any{"devices": len(next.Devices), "height": next.Height()},
	})
	return nil
}

func (c *Core) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches between the show render and the verify walk. Entering
// verify restarts the pattern.
func (c *Core) SetMode(m Mode) {
	if m != VerifyMode {
		m = ShowMode
	}
	c.mu.Lock()
	if m == VerifyMode && c.mode != VerifyMode {
		c.runner = verify.NewRunner(c.plan)
	}
	c.mode = m
	c.mu.Unlock()
}

// StartVerify runs plan instead of the show until StopVerify or until the
// pattern finishes.
func (c *Core) StartVerify(plan verify.Plan) {
	plan = plan.Normalize()
	c.mu.Lock()
	c.plan = plan
	c.runner = verify.NewRunner(plan)
	c.mode = VerifyMode
	c.mu.Unlock()
	c.kick()
	c.Diag.Push(diagnostics.Diagnostic{
		Severity: diagnostics.Info, Code: diagnostics.VerifyRunning, Summary: "Running verify pattern",
		Detail:   string(plan.Kind),
		Evidence: map[string]any{"cap": plan.Cap, "interval_ms": plan.Interval.Milliseconds()},
	})
}

func (c *Core) StopVerify() { c.SetMode(ShowMode) }

func (c *Core) Plan() verify.Plan {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plan
}

func (c *Core) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// SetFPS changes the render rate, clamped to 1..240.
func (c *Core) SetFPS(fps int) {
	if fps < 1 {
		fps = 1
	}
	if fps > 240 {
		fps = 240
	}
	c.mu.Lock()
	c.fps = fps
	c.mu.Unlock()
	c.kick()
}

func (c *Core) kick() {
	select {
	case c.retime <- struct{}{}:
	default:
	}
}

// Last returns the most recently published frame, or nil.
func (c *Core) Last() *Snapshot { return c.last.Load() }

// Frames is how many frames have been published.
func (c *Core) Frames() uint64 { return c.nextID.Load() }

func (c *Core) Uptime() time.Duration { return time.Since(c.start) }
