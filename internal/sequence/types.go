package sequence

import "gopkg.in/yaml.v3"

// Keyframe is a value at time T (seconds into the clip). Ease shapes the
// segment that starts at this keyframe.
type Keyframe struct {
	T    float64 `yaml:"t" json:"t"`
	V    float64 `yaml:"v" json:"v"`
	Ease string  `yaml:"ease,omitempty" json:"ease,omitempty"` // "linear","smooth","cubic"
}

// Envelope is a list of keyframes sorted by T, written in YAML as a plain
// sequence.
type Envelope struct {
	Keys []Keyframe
}

func (e *Envelope) UnmarshalYAML(n *yaml.Node) error {
	return n.Decode(&e.Keys)
}

func (e Envelope) MarshalYAML() (interface{}, error) {
	return e.Keys, nil
}

// Clip plays one preset for DurationS seconds, optionally crossfading into
// the next clip over its last XFadeS seconds. Params keys are engine
// parameter names ("a.angle", "palette.speed").
type Clip struct {
	Name      string              `yaml:"name" json:"name"`
	Preset    string              `yaml:"preset" json:"preset"`
	DurationS float64             `yaml:"duration_s" json:"durationS"`
	XFadeS    float64             `yaml:"xfade_s,omitempty" json:"xFadeS,omitempty"`
	Params    map[string]Envelope `yaml:"params,omitempty" json:"-"`
	Bools     map[string]Envelope `yaml:"bools,omitempty" json:"-"`
}

type Program struct {
	Version string `yaml:"version" json:"version"` // "seq.v1"
	Loop    bool   `yaml:"loop,omitempty" json:"loop,omitempty"`
	Clips   []Clip `yaml:"clips" json:"clips"`
}

type PlayerState string

const (
	Idle    PlayerState = "idle"
	Running PlayerState = "running"
	Paused  PlayerState = "paused"
)

// Hooks are the render engine callbacks the player drives.
type Hooks struct {
	// SetActive shows a preset immediately on channel A.
	SetActive func(preset string)
	// SetParam and SetBool automate the active show.
	SetParam func(name string, v float64)
	SetBool  func(name string, b bool)
	// ArmNext loads the following clip's preset into channel B.
	ArmNext      func(preset string)
	SetCrossfade func(alpha float64)
}

// Status is a snapshot of playback for the control surface.
type Status struct {
	State     PlayerState `json:"state"`
	Clip      string      `json:"clip"`
	Index     int         `json:"index"`
	PositionS float64     `json:"positionS"`
	TotalS    float64     `json:"totalS"`
}

// Player owns the program timeline and drives the engine through Hooks.
// It is not safe for concurrent use; see SafePlayer.
type Player struct {
	State PlayerState

	prog Program
	nowS float64
	idx  int

	armed     bool
	lastAlpha float64

	hooks Hooks
}
