// Package store persists profiles and presets as YAML files.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/render"
)

var ErrNotFound = errors.New("store: not found")

type ProfileStore interface {
	// Load returns ErrNotFound when no profile has been saved.
	Load() (*layout.Profile, error)
	Save(p *layout.Profile) error
}

type PresetStore interface {
	List() ([]render.Preset, error)
	// Find looks a preset up by id, then by name.
	Find(key string) (render.Preset, error)
	// Save inserts or replaces by id; an empty id gets a fresh one.
	Save(p render.Preset) (render.Preset, error)
	Delete(id string) error
}

// writeYAML replaces path atomically.
func writeYAML(path string, v interface{}) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readYAML(path string, v interface{}) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ProfileFile stores one profile in a YAML file.
type ProfileFile struct {
	Path string
}

func (f ProfileFile) Load() (*layout.Profile, error) {
	var p layout.Profile
	if err := readYAML(f.Path, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return &p, nil
}

func (f ProfileFile) Save(p *layout.Profile) error {
	if p == nil {
		return errors.New("store: nil profile")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return writeYAML(f.Path, p)
}
