package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coreman2200/tubestage/internal/render"
)

type presetDoc struct {
	Presets []render.Preset `yaml:"presets"`
}

// PresetFile keeps every preset in one YAML file. It is safe for
// concurrent use within one process.
type PresetFile struct {
	Path string

	mu sync.Mutex
}

func NewPresetFile(path string) *PresetFile { return &PresetFile{Path: path} }

func (f *PresetFile) read() ([]render.Preset, error) {
	var doc presetDoc
	if err := readYAML(f.Path, &doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return doc.Presets, nil
}

func (f *PresetFile) List() ([]render.Preset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read()
}

func (f *PresetFile) Find(key string) (render.Preset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return render.Preset{}, err
	}
	for _, p := range all {
		if p.ID == key {
			return p, nil
		}
	}
	for _, p := range all {
		if p.Name == key {
			return p, nil
		}
	}
	return render.Preset{}, fmt.Errorf("preset %q: %w", key, ErrNotFound)
}

func (f *PresetFile) Save(p render.Preset) (render.Preset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return render.Preset{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Name == "" {
		p.Name = "Preset " + p.ID[:8]
	}
	replaced := false
	for i := range all {
		if all[i].ID == p.ID {
			all[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		all = append(all, p)
	}
	if err := writeYAML(f.Path, presetDoc{Presets: all}); err != nil {
		return render.Preset{}, err
	}
	return p, nil
}

func (f *PresetFile) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	all, err := f.read()
	if err != nil {
		return err
	}
	for i := range all {
		if all[i].ID == id {
			all = append(all[:i], all[i+1:]...)
			return writeYAML(f.Path, presetDoc{Presets: all})
		}
	}
	return fmt.Errorf("preset %q: %w", id, ErrNotFound)
}
