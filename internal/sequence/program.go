package sequence

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoClips     = errors.New("sequence: program has no clips")
	ErrBadDuration = errors.New("sequence: clip duration must be > 0")
	ErrNoPreset    = errors.New("sequence: clip has no preset")
)

// Validate checks every clip and sorts envelope keys in place.
func (p Program) Validate() error {
	if len(p.Clips) == 0 {
		return ErrNoClips
	}
	for i, c := range p.Clips {
		if !(c.DurationS > 0) {
			return fmt.Errorf("clip %d %q: %w", i, c.Name, ErrBadDuration)
		}
		if c.Preset == "" {
			return fmt.Errorf("clip %d %q: %w", i, c.Name, ErrNoPreset)
		}
		for _, env := range c.Params {
			sortKeys(env.Keys)
		}
		for _, env := range c.Bools {
			sortKeys(env.Keys)
		}
	}
	return nil
}

func sortKeys(k []Keyframe) {
	sort.SliceStable(k, func(i, j int) bool { return k[i].T < k[j].T })
}

// LoadProgram reads a YAML program file.
func LoadProgram(path string) (Program, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Program{}, err
	}
	return ParseProgram(b)
}

func ParseProgram(b []byte) (Program, error) {
	var p Program
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Program{}, fmt.Errorf("sequence: %w", err)
	}
	if p.Version == "" {
		p.Version = "seq.v1"
	}
	if err := p.Validate(); err != nil {
		return Program{}, err
	}
	return p, nil
}
