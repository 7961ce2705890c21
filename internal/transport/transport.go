// Package transport delivers per-device pixel buffers to hardware.
//
// The render core only sees Sender, which never blocks and never reports
// delivery. Drivers do the actual I/O behind a bounded per-device queue.
package transport

import "errors"

var (
	ErrNotConnected = errors.New("transport: not connected")
	ErrClosed       = errors.New("transport: closed")
	ErrNoDriver     = errors.New("transport: no driver for address")
	ErrBadAddress   = errors.New("transport: bad address")
	ErrBadFrame     = errors.New("transport: bad frame length")
)

// Sender accepts a device buffer of width·H·3 column-major RGB bytes
// starting at pixel offset 0. Send takes ownership of pixels and returns
// immediately; failures are invisible to the caller.
type Sender interface {
	Send(addr string, pixels []byte)
}

// Driver writes one buffer to one device address, synchronously.
type Driver interface {
	Write(addr string, pixels []byte) error
	Close() error
}

// Discard is a Sender that drops everything.
type Discard struct{}

func (Discard) Send(string, []byte) {}
