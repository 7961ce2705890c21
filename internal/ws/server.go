package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/tubestage/internal/app"
	diag "github.com/coreman2200/tubestage/internal/diagnostics"
	"github.com/coreman2200/tubestage/internal/layout"
	"github.com/coreman2200/tubestage/internal/preview"
	"github.com/coreman2200/tubestage/internal/transport"
)

const writeWait = 200 * time.Millisecond

// StatsSource reports per-address transport counters.
type StatsSource interface {
	Addresses() []string
	Stats(addr string) (transport.Stats, bool)
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Server is the operator surface: a frame preview stream, a diagnostics
// stream, a JSON control channel, health and a PNG snapshot.
type Server struct {
	Core  *app.Core
	Diag  *diag.Hub
	Stats StatsSource // optional

	// ProgramDir, when set, confines program.play paths to it.
	ProgramDir string

	up      websocket.Upgrader
	frames  chan *app.Snapshot
	mu      sync.RWMutex
	clients map[*client]bool
}

func NewServer(core *app.Core, hub *diag.Hub) *Server {
	if hub == nil {
		hub = diag.NewHub(0)
	}
	return &Server{
		Core:    core,
		Diag:    hub,
		up:      websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		frames:  make(chan *app.Snapshot, 1),
		clients: map[*client]bool{},
	}
}

// Routes registers the handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/snapshot.png", s.HandleSnapshot)
}

// Publish queues a frame for the preview clients, replacing one that has
// not gone out yet. It never blocks, so it can be the core's OnFrame.
func (s *Server) Publish(snap *app.Snapshot) {
	for {
		select {
		case s.frames <- snap:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

// Run broadcasts published frames until ctx is done.
func (s *Server) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeClients()
			return
		case snap := <-s.frames:
			s.broadcastFrame(snap)
		}
	}
}

type frameMsg struct {
	T       int64        `json:"t"`
	FrameID uint64       `json:"frame_id"`
	Mode    app.Mode     `json:"mode"`
	Space   layout.Space `json:"space"`
	RGB     []byte       `json:"rgb"`
}

func (s *Server) broadcastFrame(snap *app.Snapshot) {
	b, err := json.Marshal(frameMsg{
		T: time.Now().UnixNano(), FrameID: snap.ID, Mode: snap.Mode, Space: snap.Space, RGB: snap.Frame.Pix,
	})
	if err != nil {
		log.Error().Err(err).Msg("encode frame")
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		if err := c.write(b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.conn.Close()
		delete(s.clients, c)
	}
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()
	if b, err := json.Marshal(s.state()); err == nil {
		_ = c.write(b)
	}

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, c)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn}
	ch, cancel := s.Diag.Subscribe(32)

	go func() {
		defer conn.Close()
		for _, d := range s.Diag.Recent() {
			b, _ := json.Marshal(d)
			if err := c.write(b); err != nil {
				cancel()
				return
			}
		}
		for d := range ch {
			b, _ := json.Marshal(d)
			if err := c.write(b); err != nil {
				cancel()
				return
			}
		}
	}()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	c := &client{conn: conn}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Control
		var rep Reply
		if err := json.Unmarshal(data, &msg); err != nil {
			rep = s.fail(msg, err)
		} else {
			rep = s.Apply(msg)
		}
		b, err := json.Marshal(rep)
		if err != nil {
			log.Error().Err(err).Msg("encode reply")
			continue
		}
		if err := c.write(b); err != nil {
			return
		}
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.health())
}

func (s *Server) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := s.Core.Last()
	if snap == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := preview.Snapshot(w, snap.Space, snap.Frame, snap.Profile); err != nil {
		log.Error().Err(err).Msg("snapshot")
	}
}

type health struct {
	FrameID   uint64                     `json:"frame_id"`
	UptimeS   float64                    `json:"uptime_s"`
	Mode      app.Mode                   `json:"mode"`
	FPS       int                        `json:"fps"`
	RenderMS  float64                    `json:"render_ms"`
	Devices   int                        `json:"devices"`
	Space     *layout.Space              `json:"space,omitempty"`
	Transport map[string]transport.Stats `json:"transport,omitempty"`
}

func (s *Server) health() health {
	h := health{
		FrameID:  s.Core.Frames(),
		UptimeS:  s.Core.Uptime().Seconds(),
		Mode:     s.Core.Mode(),
		FPS:      s.Core.FPS(),
		RenderMS: s.Core.Eng.LastMS(),
	}
	if p := s.Core.Profile(); p != nil {
		h.Devices = len(p.Devices)
		if sp, ok := layout.Derive(p); ok {
			h.Space = &sp
		}
	}
	if s.Stats != nil {
		h.Transport = map[string]transport.Stats{}
		for _, a := range s.Stats.Addresses() {
			if st, ok := s.Stats.Stats(a); ok {
				h.Transport[a] = st
			}
		}
	}
	return h
}
