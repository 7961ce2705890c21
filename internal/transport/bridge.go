package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

type Codec string

const (
	JSON    Codec = "json"
	Msgpack Codec = "msgpack"
)

// BridgeMessage is what the DDP bridge expects per device frame in JSON
// mode. The bridge fans it out as DDP to IP.
type BridgeMessage struct {
	IP           string `json:"ip"`
	RGBBase64    string `json:"rgbBase64"`
	OffsetPixels int    `json:"offsetPixels"`
}

// BinaryBridgeMessage is the msgpack form; pixels travel raw.
type BinaryBridgeMessage struct {
	IP           string `msgpack:"ip"`
	RGB          []byte `msgpack:"rgb"`
	OffsetPixels int    `msgpack:"offsetPixels"`
}

// Encode returns the websocket message type and payload for one frame.
func (c Codec) Encode(ip string, pixels []byte) (int, []byte, error) {
	switch c {
	case Msgpack:
		b, err := msgpack.Marshal(BinaryBridgeMessage{IP: ip, RGB: pixels})
		return websocket.BinaryMessage, b, err
	case JSON, "":
		b, err := json.Marshal(BridgeMessage{IP: ip, RGBBase64: base64.StdEncoding.EncodeToString(pixels)})
		return websocket.TextMessage, b, err
	}
	return 0, nil, fmt.Errorf("transport: unknown codec %q", c)
}

// Bridge is a websocket client to a DDP bridge. It reconnects in the
// background; while disconnected every Write fails fast with
// ErrNotConnected and the frame is dropped.
type Bridge struct {
	URL          string
	Codec        Codec
	RetryEvery   time.Duration
	WriteTimeout time.Duration
	Dialer       *websocket.Dialer

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewBridge(url string, codec Codec) *Bridge {
	return &Bridge{
		URL:          url,
		Codec:        codec,
		RetryEvery:   2 * time.Second,
		WriteTimeout: 500 * time.Millisecond,
		Dialer:       websocket.DefaultDialer,
	}
}

// Start launches the connect loop. It returns immediately.
func (b *Bridge) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()
	b.wg.Add(1)
	go b.loop(ctx)
}

func (b *Bridge) loop(ctx context.Context) {
	defer b.wg.Done()
	for {
		conn, _, err := b.Dialer.DialContext(ctx, b.URL, nil)
		if err != nil {
			log.Debug().Err(err).Str("url", b.URL).Msg("bridge dial")
		} else {
			log.Info().Str("url", b.URL).Msg("bridge connected")
			b.setConn(conn)
			b.readUntilClosed(conn)
			b.dropConn(conn)
			log.Warn().Str("url", b.URL).Msg("bridge disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(b.RetryEvery):
		}
	}
}

// readUntilClosed discards bridge replies; it returns when the
// connection fails or is closed.
func (b *Bridge) readUntilClosed(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Bridge) setConn(c *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		c.Close()
		return
	}
	b.conn = c
}

func (b *Bridge) dropConn(c *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == c {
		b.conn = nil
	}
	c.Close()
}

func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

func (b *Bridge) Write(addr string, pixels []byte) error {
	typ, payload, err := b.Codec.Encode(addr, pixels)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.conn == nil {
		return ErrNotConnected
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(b.WriteTimeout))
	if err := b.conn.WriteMessage(typ, payload); err != nil {
		// the read loop notices the broken connection and redials
		b.conn.Close()
		b.conn = nil
		return err
	}
	return nil
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	cancel := b.cancel
	if b.conn != nil {
		_ = b.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		b.conn.Close()
		b.conn = nil
	}
	b.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()
	return nil
}
