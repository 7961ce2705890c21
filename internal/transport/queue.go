package transport

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

const DefaultDepth = 2

// Stats counts what happened to buffers sent to one address.
type Stats struct {
	Sent    uint64 `json:"sent"`
	Dropped uint64 `json:"dropped"`
	Failed  uint64 `json:"failed"`
}

type lane struct {
	addr string
	ch   chan []byte

	sent    atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

// Queue is a Sender that keeps a bounded buffer per address and drains
// each with its own writer goroutine. When a buffer is full the oldest
// entry is dropped, so a slow device only ever sees the newest frames.
type Queue struct {
	drv   Driver
	depth int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	lanes  map[string]*lane
	closed bool
}

func NewQueue(drv Driver, depth int) *Queue {
	if depth < 1 {
		depth = DefaultDepth
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		drv:    drv,
		depth:  depth,
		ctx:    ctx,
		cancel: cancel,
		lanes:  make(map[string]*lane),
	}
}

func (q *Queue) lane(addr string) *lane {
	q.mu.RLock()
	l, ok := q.lanes[addr]
	closed := q.closed
	q.mu.RUnlock()
	if closed {
		return nil
	}
	if ok {
		return l
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	if l, ok = q.lanes[addr]; ok {
		return l
	}
	l = &lane{addr: addr, ch: make(chan []byte, q.depth)}
	q.lanes[addr] = l
	q.wg.Add(1)
	go q.drain(l)
	return l
}

// Send enqueues pixels for addr, evicting the oldest pending buffer when
// the lane is full. It never blocks.
func (q *Queue) Send(addr string, pixels []byte) {
	l := q.lane(addr)
	if l == nil {
		return
	}
	for {
		select {
		case l.ch <- pixels:
			return
		default:
		}
		select {
		case <-l.ch:
			l.dropped.Add(1)
		default:
		}
	}
}

func (q *Queue) drain(l *lane) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case buf := <-l.ch:
			if err := q.drv.Write(l.addr, buf); err != nil {
				n := l.failed.Add(1)
				log.Debug().Err(err).Str("addr", l.addr).Uint64("failed", n).Msg("device write")
				continue
			}
			l.sent.Add(1)
		}
	}
}

// Stats returns the counters for addr.
func (q *Queue) Stats(addr string) (Stats, bool) {
	q.mu.RLock()
	l, ok := q.lanes[addr]
	q.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	return Stats{Sent: l.sent.Load(), Dropped: l.dropped.Load(), Failed: l.failed.Load()}, true
}

// Addresses lists every address seen so far, sorted.
func (q *Queue) Addresses() []string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]string, 0, len(q.lanes))
	for a := range q.lanes {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Close stops the writers, discards anything pending and closes the driver.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return q.drv.Close()
}
