package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/tubestage/internal/palette"
	"github.com/coreman2200/tubestage/internal/render"
	"github.com/coreman2200/tubestage/internal/verify"
)

const (
	MinFPS     = 1
	MaxFPS     = 240
	DefaultFPS = 40
)

type Bridge struct {
	URL   string `yaml:"url"`   // e.g. ws://127.0.0.1:8787
	Codec string `yaml:"codec"` // "json" | "msgpack"
}

type DDP struct {
	Port int `yaml:"port"` // default 4048
}

type SPI struct {
	FreqKHz int `yaml:"freq_khz"` // e.g. 2500
}

type Transport struct {
	Default    string `yaml:"default"` // "ws" | "ddp" | "spi" | "sim"
	QueueDepth int    `yaml:"queue_depth"`
	Bridge     Bridge `yaml:"bridge"`
	DDP        DDP    `yaml:"ddp"`
	SPI        SPI    `yaml:"spi,omitempty"`
}

type Walk struct {
	Kind       string `yaml:"kind"` // "walk" | "rgb_channels" | "index_sweep"
	Cap        *int   `yaml:"cap,omitempty"`
	IntervalMs int    `yaml:"interval_ms"`
}

type Config struct {
	Mode     string `yaml:"mode"` // "show" | "verify"
	FPS      int    `yaml:"fps"`
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`

	ProfilePath string `yaml:"profile_path"`
	PresetsPath string `yaml:"presets_path"`
	ProgramPath string `yaml:"program_path,omitempty"`
	PaletteDir  string `yaml:"palette_dir,omitempty"`

	Palettes map[string]palette.Def `yaml:"palettes,omitempty"`
	Show     *render.Show           `yaml:"show,omitempty"`
	Power    render.Power           `yaml:"power"`
	Walk     Walk                   `yaml:"walk"`

	Transport Transport `yaml:"transport"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Mode:        "show",
		FPS:         DefaultFPS,
		Addr:        ":8080",
		LogLevel:    "info",
		ProfilePath: "profile.yaml",
		PresetsPath: "presets.yaml",
		Power:       render.Power{Brightness: 1},
		Walk:        Walk{Kind: string(verify.Walk), IntervalMs: int(verify.DefaultInterval / time.Millisecond)},
		Transport: Transport{
			Default:    "sim",
			QueueDepth: 2,
			Bridge:     Bridge{URL: "ws://127.0.0.1:8787", Codec: "json"},
			DDP:        DDP{Port: 4048},
			SPI:        SPI{FreqKHz: 2500},
		},
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.Normalize()
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ClampFPS bounds fps to [MinFPS, MaxFPS].
func ClampFPS(fps int) int {
	if fps < MinFPS {
		return MinFPS
	}
	if fps > MaxFPS {
		return MaxFPS
	}
	return fps
}

// Normalize clamps numeric settings into range.
func (c *Config) Normalize() {
	c.FPS = ClampFPS(c.FPS)
	if c.Mode != "verify" {
		c.Mode = "show"
	}
	if c.Walk.Cap != nil && *c.Walk.Cap < 0 {
		zero := 0
		c.Walk.Cap = &zero
	}
	if c.Transport.QueueDepth < 1 {
		c.Transport.QueueDepth = 2
	}
}

// WalkPlan converts the walk settings to a verify plan.
func (c *Config) WalkPlan() verify.Plan {
	p := verify.DefaultPlan()
	if c.Walk.Kind != "" {
		p.Kind = verify.Kind(c.Walk.Kind)
	}
	if c.Walk.Cap != nil {
		p.Cap = *c.Walk.Cap
	}
	if c.Walk.IntervalMs != 0 {
		p.Interval = time.Duration(c.Walk.IntervalMs) * time.Millisecond
	}
	return p.Normalize()
}

// FrameInterval is the render tick period.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(ClampFPS(c.FPS))
}
