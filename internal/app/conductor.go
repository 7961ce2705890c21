package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/split"
)

// Run drives the render and walk ticks until ctx is done. Only the tick
// matching the current mode does any work.
func (c *Core) Run(ctx context.Context) {
	frame := time.Second / time.Duration(c.FPS())
	rt := time.NewTicker(frame)
	defer rt.Stop()
	wt := time.NewTicker(c.Plan().Interval)
	defer wt.Stop()

	log.Info().Int("fps", c.FPS()).Str("mode", string(c.Mode())).Msg("conductor started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", c.Frames()).Msg("conductor stopped")
			return
		case <-c.retime:
			frame = time.Second / time.Duration(c.FPS())
			rt.Reset(frame)
			wt.Reset(c.Plan().Interval)
		case <-rt.C:
			c.RenderTick(frame.Seconds())
		case <-wt.C:
			c.WalkTick()
		}
	}
}

// snapshot loads the current profile and derives its space. ok is false
// when there is nothing to draw.
func (c *Core) snapshot() (*layout.Profile, layout.Space, bool) {
	p := c.profile.Load()
	space, ok := layout.Derive(p)
	if !ok {
		if !c.empty.Swap(true) {
			// the last frame belongs to a stage that no longer exists
			c.last.Store(nil)
			c.Diag.Push(diagnostics.Diagnostic{
				Severity: diagnostics.Warn, Code: diagnostics.ProfileEmpty, Summary: "Profile has no devices",
				SuggestedFixes: []string{"add a device to the profile"},
			})
		}
		return nil, layout.Space{}, false
	}
	c.empty.Store(false)
	return p, space, true
}

// RenderTick advances the sequencer by dt seconds, renders the show and
// sends it. It reports whether a frame was produced; it does nothing in
// verify mode, with an empty profile or while another tick is running.
func (c *Core) RenderTick(dt float64) bool {
	if !c.tick.TryLock() {
		return false
	}
	defer c.tick.Unlock()
	if c.Mode() != ShowMode {
		return false
	}

	c.Seq.With(func(p *sequence.Player) { p.Tick(dt) })

	p, space, ok := c.snapshot()
	if !ok {
		return false
	}
	c.Eng.Render(space, -1, &c.res)
	c.emit(ShowMode, p, space, c.res.Frame)
	return true
}

// WalkTick draws the next verify pattern frame and sends it. When the
// pattern finishes the core falls back to the show.
func (c *Core) WalkTick() bool {
	if !c.tick.TryLock() {
		return false
	}
	defer c.tick.Unlock()

	c.mu.Lock()
	if c.mode != VerifyMode {
		c.mu.Unlock()
		return false
	}
	r := c.runner
	c.mu.Unlock()

	p, space, ok := c.snapshot()
	if !ok {
		return false
	}
	if !r.Step(space, &c.walk) {
		c.mu.Lock()
		if c.runner == r {
			c.mode = ShowMode
		}
		c.mu.Unlock()
		c.Diag.Push(diagnostics.Diagnostic{
			Severity: diagnostics.Info, Code: diagnostics.VerifyDone, Summary: "Verify pattern complete",
			Detail: string(r.Kind()), Evidence: map[string]any{"steps": r.Steps()},
		})
		return false
	}
	c.emit(VerifyMode, p, space, c.walk)
	return true
}

// emit splits f per device, hands the buffers to the transport and
// publishes a preview copy.
func (c *Core) emit(m Mode, p *layout.Profile, space layout.Space, f pixel.Frame) {
	for _, b := range split.All(f, space, p) {
		c.Out.Send(b.Device.Address, b.Pixels)
	}
	s := &Snapshot{
		ID:      c.nextID.Add(1),
		Mode:    m,
		Space:   space,
		Frame:   f.Clone(),
		Profile: p,
	}
	c.last.Store(s)
	if c.OnFrame != nil {
		c.OnFrame(s)
	}
}
