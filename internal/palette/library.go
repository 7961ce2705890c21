package palette

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/pixel"
)

var ErrEmpty = errors.New("palette: no colors")

// Def is the config form of a palette: hex colors and a speed.
type Def struct {
	Colors []string `yaml:"colors" json:"colors"`
	Speed  float64  `yaml:"speed" json:"speed"`
}

// FromDef parses every hex color in d.
func FromDef(name string, d Def) (Palette, error) {
	p := Palette{Name: name, Speed: ClampSpeed(d.Speed)}
	for _, h := range d.Colors {
		c, err := pixel.ParseHex(h)
		if err != nil {
			return Palette{}, fmt.Errorf("palette %q: %w", name, err)
		}
		p.Colors = append(p.Colors, c)
	}
	if len(p.Colors) == 0 {
		return Palette{}, fmt.Errorf("palette %q: %w", name, ErrEmpty)
	}
	return p, nil
}

// Library is the set of named palettes available to the show. It is safe
// for concurrent use.
type Library struct {
	mu sync.RWMutex
	m  map[string]Palette
}

func NewLibrary() *Library { return &Library{m: map[string]Palette{}} }

// Builtin returns a library with the stock palettes.
func Builtin() *Library {
	l := NewLibrary()
	l.Put(Palette{Name: "rainbow", Speed: 1, Colors: []pixel.RGB{
		{R: 255}, {R: 255, G: 128}, {R: 255, G: 255}, {G: 255}, {G: 255, B: 255}, {B: 255}, {R: 128, B: 255},
	}})
	l.Put(Palette{Name: "fire", Speed: 2, Colors: []pixel.RGB{
		{R: 80}, {R: 255, G: 40}, {R: 255, G: 160}, {R: 255, G: 230, B: 120},
	}})
	l.Put(Palette{Name: "ocean", Speed: 0.5, Colors: []pixel.RGB{
		{G: 40, B: 120}, {G: 150, B: 200}, {R: 40, G: 220, B: 200},
	}})
	return l
}

func (l *Library) Put(p Palette) {
	if p.Name == "" {
		return
	}
	l.mu.Lock()
	l.m[p.Name] = p
	l.mu.Unlock()
}

// AddDefs parses config palettes; the first bad one aborts.
func (l *Library) AddDefs(defs map[string]Def) error {
	for name, d := range defs {
		p, err := FromDef(name, d)
		if err != nil {
			return err
		}
		l.Put(p)
	}
	return nil
}

// LoadDir adds every *.gpl file in dir. Unreadable files are logged and
// skipped. A missing dir is not an error.
func (l *Library) LoadDir(dir string, speed float64) (int, error) {
	if dir == "" {
		return 0, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.gpl"))
	if err != nil {
		return 0, err
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	n := 0
	for _, path := range paths {
		p, err := LoadGPL(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skip palette")
			continue
		}
		p.Speed = ClampSpeed(speed)
		l.Put(p)
		n++
	}
	return n, nil
}

// Resolve looks a palette up by name. ok is false for unknown names, which
// callers treat as "no active palette".
func (l *Library) Resolve(name string) (Palette, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.m[name]
	if !ok || len(p.Colors) == 0 {
		return Palette{}, false
	}
	return p, true
}

func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.m))
	for n := range l.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
