package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

const DefaultSPIFreq = 2500 * physic.KiloHertz

type spiStrip struct {
	port spi.PortCloser
	dev  *nrzled.Dev
	n    int
}

// SPI drives WS281x strips wired to local SPI ports through periph's NRZ
// encoder. The address is the spireg port name ("" is the first port).
// A strip is (re)opened whenever the frame length changes.
type SPI struct {
	Freq physic.Frequency

	// Open is spireg.Open by default; tests swap in spitest ports.
	Open func(name string) (spi.PortCloser, error)

	initOnce sync.Once
	initErr  error

	mu     sync.Mutex
	strips map[string]*spiStrip
	closed bool
}

func NewSPI(freq physic.Frequency) *SPI {
	if freq <= 0 {
		freq = DefaultSPIFreq
	}
	return &SPI{Freq: freq, strips: map[string]*spiStrip{}}
}

func (s *SPI) open(name string) (spi.PortCloser, error) {
	if s.Open != nil {
		return s.Open(name)
	}
	s.initOnce.Do(func() {
		_, s.initErr = host.Init()
	})
	if s.initErr != nil {
		return nil, fmt.Errorf("periph host init: %w", s.initErr)
	}
	return spireg.Open(name)
}

func (s *SPI) strip(addr string, n int) (*spiStrip, error) {
	if st, ok := s.strips[addr]; ok {
		if st.n == n {
			return st, nil
		}
		_ = s.release(addr, st)
	}
	port, err := s.open(addr)
	if err != nil {
		return nil, err
	}
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{NumPixels: n, Channels: 3, Freq: s.Freq})
	if err != nil {
		port.Close()
		return nil, err
	}
	log.Info().Str("port", addr).Int("pixels", n).Str("dev", dev.String()).Msg("spi strip opened")
	st := &spiStrip{port: port, dev: dev, n: n}
	s.strips[addr] = st
	return st, nil
}

func (s *SPI) release(addr string, st *spiStrip) error {
	delete(s.strips, addr)
	return errors.Join(st.dev.Halt(), st.port.Close())
}

func (s *SPI) Write(addr string, pixels []byte) error {
	if len(pixels)%3 != 0 {
		return fmt.Errorf("%w: %d bytes is not whole RGB pixels", ErrBadFrame, len(pixels))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	st, err := s.strip(addr, len(pixels)/3)
	if err != nil {
		return err
	}
	_, err = st.dev.Write(pixels)
	return err
}

// Close blanks and releases every strip.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	var errs []error
	for a, st := range s.strips {
		errs = append(errs, s.release(a, st))
	}
	return errors.Join(errs...)
}
