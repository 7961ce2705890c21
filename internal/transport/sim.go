package transport

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// Sim is a driver for running without hardware. It keeps the last frame
// and a frame count per address.
type Sim struct {
	mu     sync.Mutex
	frames map[string]uint64
	last   map[string][]byte
}

func NewSim() *Sim {
	return &Sim{frames: map[string]uint64{}, last: map[string][]byte{}}
}

func (s *Sim) Write(addr string, pixels []byte) error {
	s.mu.Lock()
	s.frames[addr]++
	s.last[addr] = pixels
	s.mu.Unlock()
	return nil
}

func (s *Sim) Frames(addr string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames[addr]
}

// Last returns the most recent buffer written to addr.
func (s *Sim) Last(addr string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.last[addr]
	return b, ok
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := make([]string, 0, len(s.frames))
	for a := range s.frames {
		addrs = append(addrs, a)
	}
	sort.Strings(addrs)
	for _, a := range addrs {
		log.Info().Str("addr", a).Uint64("frames", s.frames[a]).Msg("sim summary")
	}
	return nil
}
