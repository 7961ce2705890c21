package ws

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/coreman2200/tubestage/internal/app"
	diag "github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/pixel"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/sequence"
	"github.com/coreman2200/tubestage/internal/shape"
	"github.com/coreman2200/tubestage/internal/verify"
)

var (
	ErrUnknownType  = errors.New("control: unknown message type")
	ErrMissingField = errors.New("control: missing field")
	ErrUnknownShape = errors.New("control: unknown shape kind")
	ErrBadPath      = errors.New("control: path outside program directory")
	ErrBadValue     = errors.New("control: value is not a usable integer")
)

// Control is one message on the control channel. Type selects the action;
// the other fields are its arguments.
//
//	{"type":"param","name":"a.angle","value":0.5}
//	{"type":"device.move","id":"STAGE_A","value":-3}
//	{"type":"verify.start","kind":"walk","cap":5,"intervalMs":300}
type Control struct {
	Type       string          `json:"type"`
	Name       string          `json:"name,omitempty"`
	Slot       string          `json:"slot,omitempty"`
	ID         string          `json:"id,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Value      *float64        `json:"value,omitempty"`
	Bool       *bool           `json:"bool,omitempty"`
	Color      *pixel.RGB      `json:"color,omitempty"`
	Device     *layout.Device  `json:"device,omitempty"`
	Profile    *layout.Profile `json:"profile,omitempty"`
	Cap        *int            `json:"cap,omitempty"`
	IntervalMs int             `json:"intervalMs,omitempty"`
	Path       string          `json:"path,omitempty"`
}

// Reply answers every control message with the resulting state.
type Reply struct {
	Type  string `json:"type"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
	State State  `json:"state"`
}

// State is what an operator console needs to redraw itself.
type State struct {
	Mode     app.Mode        `json:"mode"`
	FPS      int             `json:"fps"`
	Verify   verify.Plan     `json:"verify"`
	Show     render.Show     `json:"show"`
	Player   sequence.Status `json:"player"`
	Profile  *layout.Profile `json:"profile,omitempty"`
	Space    *layout.Space   `json:"space,omitempty"`
	Shapes   []shape.Kind    `json:"shapes"`
	Palettes []string        `json:"palettes"`
}

func (s *Server) state() State {
	c := s.Core
	st := State{
		Mode:     c.Mode(),
		FPS:      c.FPS(),
		Verify:   c.Plan(),
		Show:     c.Eng.Show(),
		Player:   c.PlayerStatus(),
		Profile:  c.Profile(),
		Shapes:   c.Eng.Shapes.List(),
		Palettes: c.Eng.Palettes.Names(),
	}
	if sp, ok := layout.Derive(st.Profile); ok {
		st.Space = &sp
	}
	return st
}

func (s *Server) fail(msg Control, err error) Reply {
	s.Diag.Push(diag.Diagnostic{
		Severity: diag.Warn, Code: diag.ControlError, Summary: "Control message rejected",
		Detail: err.Error(), Evidence: map[string]any{"type": msg.Type},
	})
	return Reply{Type: msg.Type, Error: err.Error(), State: s.state()}
}

// Apply performs one control message.
func (s *Server) Apply(msg Control) Reply {
	data, err := s.apply(msg)
	if err != nil {
		return s.fail(msg, err)
	}
	return Reply{Type: msg.Type, OK: true, Data: data, State: s.state()}
}

func need[T any](v *T, field string) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return *v, nil
}

// needInt reads an integral argument. Non-finite values and anything outside
// the int32 range are rejected before they reach the conductor or layout.
func needInt(v *float64, field string) (int, error) {
	f, err := need(v, field)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f < math.MinInt32 || f > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s=%v", ErrBadValue, field, f)
	}
	return int(f), nil
}

func (s *Server) apply(msg Control) (any, error) {
	c := s.Core
	eng := c.Eng

	switch msg.Type {
	case "state":
		return nil, nil

	// show
	case "param":
		v, err := need(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		return nil, eng.SetParam(msg.Name, v)
	case "bool":
		b, err := need(msg.Bool, "bool")
		if err != nil {
			return nil, err
		}
		return nil, eng.SetBool(msg.Name, b)
	case "crossfade":
		v, err := need(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		eng.SetCrossfade(v)
		return nil, nil
	case "shape":
		k := shape.Kind(msg.Kind)
		if _, ok := eng.Shapes.Get(k); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownShape, msg.Kind)
		}
		return nil, eng.SetShape(msg.Slot, k)
	case "color":
		col, err := need(msg.Color, "color")
		if err != nil {
			return nil, err
		}
		return nil, eng.SetColor(msg.Slot, col)
	case "colorMode":
		eng.SetMode(render.ColorMode(msg.Kind))
		return nil, nil
	case "palette":
		eng.SetPalette(msg.Name)
		return nil, nil

	// conductor
	case "fps":
		v, err := needInt(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		c.SetFPS(v)
		return nil, nil
	case "mode":
		c.SetMode(app.Mode(msg.Kind))
		return nil, nil
	case "verify.start":
		plan := c.Plan()
		plan.Kind = verify.Kind(msg.Kind)
		if msg.Cap != nil {
			plan.Cap = *msg.Cap
		}
		if msg.IntervalMs != 0 {
			plan.Interval = time.Duration(msg.IntervalMs) * time.Millisecond
		}
		c.StartVerify(plan)
		return nil, nil
	case "verify.stop":
		c.StopVerify()
		return nil, nil

	// profile
	case "profile.set":
		p, err := need(msg.Profile, "profile")
		if err != nil {
			return nil, err
		}
		return nil, c.EditProfile(func(cur *layout.Profile) error {
			*cur = *p.Clone()
			return nil
		})
	case "profile.height":
		v, err := needInt(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		return nil, c.EditProfile(func(p *layout.Profile) error { return p.SetHeight(v) })
	case "device.add", "device.update":
		d, err := need(msg.Device, "device")
		if err != nil {
			return nil, err
		}
		return nil, c.EditProfile(func(p *layout.Profile) error {
			if msg.Type == "device.add" {
				return p.Add(d)
			}
			return p.Update(d)
		})
	case "device.remove":
		return nil, c.EditProfile(func(p *layout.Profile) error { return p.Remove(msg.ID) })
	case "device.move", "device.resize":
		v, err := needInt(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		return nil, c.EditProfile(func(p *layout.Profile) error {
			if msg.Type == "device.move" {
				return p.Move(msg.ID, v)
			}
			return p.Resize(msg.ID, v)
		})

	// presets
	case "preset.list":
		if c.Presets == nil {
			return nil, app.ErrNoPresets
		}
		return c.Presets.List()
	case "preset.load":
		key := msg.ID
		if key == "" {
			key = msg.Name
		}
		return c.LoadPreset(msg.Slot, key)
	case "preset.save":
		return c.SavePreset(msg.Slot, msg.ID, msg.Name)
	case "preset.delete":
		if c.Presets == nil {
			return nil, app.ErrNoPresets
		}
		return nil, c.Presets.Delete(msg.ID)

	// sequencer
	case "program.play":
		path, err := s.programPath(msg.Path)
		if err != nil {
			return nil, err
		}
		prog, err := sequence.LoadProgram(path)
		if err != nil {
			return nil, err
		}
		return nil, c.Play(prog)
	case "program.pause":
		c.Pause()
		return nil, nil
	case "program.resume":
		c.Resume()
		return nil, nil
	case "program.stop":
		c.Stop()
		return nil, nil
	case "program.seek":
		v, err := need(msg.Value, "value")
		if err != nil {
			return nil, err
		}
		c.Seek(v)
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, msg.Type)
}

func (s *Server) programPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: path", ErrMissingField)
	}
	if s.ProgramDir == "" {
		return p, nil
	}
	full := filepath.Join(s.ProgramDir, filepath.Clean("/"+p))
	rel, err := filepath.Rel(s.ProgramDir, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %q", ErrBadPath, p)
	}
	return full, nil
}
