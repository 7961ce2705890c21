package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/sequence"
)

var ErrNoPresets = errors.New("app: no preset store")

// hooks binds the sequencer to the engine. Clips name presets; a preset
// that cannot be found leaves the channel as it is.
func (c *Core) hooks() sequence.Hooks {
	return sequence.Hooks{
		SetActive: func(name string) {
			if ch, ok := c.presetChannel(name); ok {
				c.Eng.SetActive(ch)
			}
		},
		ArmNext: func(name string) {
			if ch, ok := c.presetChannel(name); ok {
				c.Eng.ArmNext(ch)
			}
		},
		SetCrossfade: c.Eng.SetCrossfade,
		SetParam: func(name string, v float64) {
			if err := c.Eng.SetParam(name, v); err != nil {
				log.Debug().Err(err).Str("param", name).Msg("sequence param")
			}
		},
		SetBool: func(name string, b bool) {
			if err := c.Eng.SetBool(name, b); err != nil {
				log.Debug().Err(err).Str("param", name).Msg("sequence bool")
			}
		},
	}
}

// presetChannel looks key up in the program's resolved presets. It runs
// inside a tick, so it never touches the store.
func (c *Core) presetChannel(key string) (render.Channel, bool) {
	ch, ok := c.cue[key]
	if !ok {
		log.Debug().Str("preset", key).Msg("sequence preset unresolved")
	}
	return ch, ok
}

// resolve reads every preset prog names from the store. Missing presets are
// reported once here and skipped at play time.
func (c *Core) resolve(prog sequence.Program) map[string]render.Channel {
	cue := make(map[string]render.Channel, len(prog.Clips))
	miss := map[string]bool{}
	for _, clip := range prog.Clips {
		if _, ok := cue[clip.Preset]; ok || miss[clip.Preset] {
			continue
		}
		p, err := c.findPreset(clip.Preset)
		if err != nil {
			miss[clip.Preset] = true
			c.Diag.Push(diagnostics.Diagnostic{
				Severity: diagnostics.Warn, Code: diagnostics.PresetMissing, Summary: "Preset not found",
				Detail: err.Error(), Evidence: map[string]any{"preset": clip.Preset, "clip": clip.Name},
			})
			continue
		}
		cue[clip.Preset] = p.Channel
	}
	return cue
}

func (c *Core) findPreset(key string) (render.Preset, error) {
	if c.Presets == nil {
		return render.Preset{}, ErrNoPresets
	}
	return c.Presets.Find(key)
}

// LoadPreset copies a stored preset into channel slot ("a" or "b").
func (c *Core) LoadPreset(slot, key string) (render.Preset, error) {
	p, err := c.findPreset(key)
	if err != nil {
		return render.Preset{}, err
	}
	if err := c.Eng.SetChannel(slot, p.Channel); err != nil {
		return render.Preset{}, err
	}
	return p, nil
}

// SavePreset stores channel slot under name. An empty id creates a new
// preset; an existing id overwrites it.
func (c *Core) SavePreset(slot, id, name string) (render.Preset, error) {
	if c.Presets == nil {
		return render.Preset{}, ErrNoPresets
	}
	s := c.Eng.Show()
	var ch render.Channel
	switch slot {
	case "a", "A":
		ch = s.A
	case "b", "B":
		ch = s.B
	default:
		return render.Preset{}, fmt.Errorf("%w: %q", render.ErrBadSlot, slot)
	}
	saved, err := c.Presets.Save(render.Preset{ID: id, Name: name, Channel: ch})
	if err != nil {
		return render.Preset{}, err
	}
	c.Seq.With(func(*sequence.Player) {
		for _, key := range []string{saved.ID, saved.Name} {
			if _, ok := c.cue[key]; ok {
				c.cue[key] = saved.Channel
			}
		}
	})
	return saved, nil
}

// Play resolves prog's presets, then loads it and starts it from the top.
func (c *Core) Play(prog sequence.Program) error {
	if err := prog.Validate(); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	cue := c.resolve(prog)
	var err error
	c.Seq.With(func(p *sequence.Player) {
		if err = p.Load(prog); err != nil {
			return
		}
		c.cue = cue
		p.Start()
	})
	if err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	log.Info().Int("clips", len(prog.Clips)).Bool("loop", prog.Loop).Msg("program started")
	return nil
}

func (c *Core) Pause()  { c.Seq.With(func(p *sequence.Player) { p.Pause() }) }
func (c *Core) Resume() { c.Seq.With(func(p *sequence.Player) { p.Resume() }) }
func (c *Core) Stop()   { c.Seq.With(func(p *sequence.Player) { p.Stop() }) }

func (c *Core) Seek(t float64) { c.Seq.With(func(p *sequence.Player) { p.Seek(t) }) }

func (c *Core) PlayerStatus() sequence.Status {
	var st sequence.Status
	c.Seq.With(func(p *sequence.Player) { st = p.Status() })
	return st
}
