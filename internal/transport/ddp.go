package transport

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

const (
	DDPPort = 4048

	// DDPChunk is the largest payload per packet: 480 RGB pixels.
	DDPChunk = 1440

	ddpHeaderLen = 10
	ddpVersion1  = 0x40
	ddpPush      = 0x01
	ddpTypeRGB24 = 0x0B
	ddpOutputID  = 0x01
)

// EncodeDDP splits pixels into DDP data packets starting at offsetPixels.
// The last packet carries the push flag so the receiver latches the frame
// only once it is complete. seq cycles 1..15.
func EncodeDDP(seq uint8, pixels []byte, offsetPixels int) [][]byte {
	seq = seq%15 + 1
	var out [][]byte
	off := offsetPixels * 3
	for start := 0; ; start += DDPChunk {
		end := min(start+DDPChunk, len(pixels))
		last := end == len(pixels)
		p := make([]byte, ddpHeaderLen+end-start)
		p[0] = ddpVersion1
		if last {
			p[0] |= ddpPush
		}
		p[1] = seq
		p[2] = ddpTypeRGB24
		p[3] = ddpOutputID
		binary.BigEndian.PutUint32(p[4:8], uint32(off+start))
		binary.BigEndian.PutUint16(p[8:10], uint16(end-start))
		copy(p[ddpHeaderLen:], pixels[start:end])
		out = append(out, p)
		if last {
			return out
		}
	}
}

// DDP sends frames straight to DDP receivers (WLED, ESPixelStick) over
// UDP. Addresses are "host" or "host:port".
type DDP struct {
	Port         int
	WriteTimeout time.Duration

	mu     sync.Mutex
	conns  map[string]net.Conn
	seq    uint8
	closed bool
}

func NewDDP(port int) *DDP {
	if port <= 0 {
		port = DDPPort
	}
	return &DDP{Port: port, WriteTimeout: 100 * time.Millisecond, conns: map[string]net.Conn{}}
}

func (d *DDP) target(addr string) (string, error) {
	if addr == "" {
		return "", fmt.Errorf("%w: empty", ErrBadAddress)
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr, nil
	}
	return net.JoinHostPort(addr, strconv.Itoa(d.Port)), nil
}

func (d *DDP) conn(addr string) (net.Conn, error) {
	if c, ok := d.conns[addr]; ok {
		return c, nil
	}
	target, err := d.target(addr)
	if err != nil {
		return nil, err
	}
	c, err := net.Dial("udp", target)
	if err != nil {
		return nil, err
	}
	d.conns[addr] = c
	return c, nil
}

func (d *DDP) Write(addr string, pixels []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	c, err := d.conn(addr)
	if err != nil {
		return err
	}
	d.seq++
	_ = c.SetWriteDeadline(time.Now().Add(d.WriteTimeout))
	for _, p := range EncodeDDP(d.seq, pixels, 0) {
		if _, err := c.Write(p); err != nil {
			c.Close()
			delete(d.conns, addr)
			return err
		}
	}
	return nil
}

func (d *DDP) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for a, c := range d.conns {
		c.Close()
		delete(d.conns, a)
	}
	return nil
}
