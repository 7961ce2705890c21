package diagnostics

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

// Codes pushed by the core and the control server.
const (
	ProfileEmpty   = "PROFILE.EMPTY"
	ProfileEdited  = "PROFILE.EDITED"
	ProfileInvalid = "PROFILE.INVALID"
	VerifyRunning  = "VERIFY.RUNNING"
	VerifyDone     = "VERIFY.DONE"
	PresetMissing  = "PRESET.NOT_FOUND"
	ControlError   = "CONTROL.ERROR"
	TransportDown  = "TRANSPORT.DOWN"
)

type Diagnostic struct {
	Time           time.Time      `json:"time"`
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// Sink receives diagnostics. Push must not block.
type Sink interface {
	Push(d Diagnostic)
}

// Hub logs every diagnostic, keeps the most recent ones and fans them out
// to subscribers. Slow subscribers lose records rather than stall Push.
type Hub struct {
	mu     sync.Mutex
	keep   int
	recent []Diagnostic
	subs   map[int]chan Diagnostic
	next   int
}

func NewHub(keep int) *Hub {
	if keep < 1 {
		keep = 32
	}
	return &Hub{keep: keep, subs: map[int]chan Diagnostic{}}
}

func (h *Hub) Push(d Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	logEvent(d)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.recent = append(h.recent, d)
	if len(h.recent) > h.keep {
		h.recent = h.recent[len(h.recent)-h.keep:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- d:
		default:
		}
	}
}

// Subscribe returns a channel of future diagnostics and a cancel func that
// closes it.
func (h *Hub) Subscribe(buf int) (<-chan Diagnostic, func()) {
	if buf < 1 {
		buf = 16
	}
	ch := make(chan Diagnostic, buf)
	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Recent returns the retained diagnostics, oldest first.
func (h *Hub) Recent() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Diagnostic(nil), h.recent...)
}

func logEvent(d Diagnostic) {
	var ev *zerolog.Event
	switch d.Severity {
	case Err:
		ev = log.Error()
	case Warn:
		ev = log.Warn()
	default:
		ev = log.Info()
	}
	ev = ev.Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Fields(d.Evidence)
	}
	ev.Msg(d.Summary)
}

// Discard drops every diagnostic.
type Discard struct{}

func (Discard) Push(Diagnostic) {}
