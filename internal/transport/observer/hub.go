package observer

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"zonecraft.ai/internal/protocol"
	"zonecraft.ai/internal/sim"
)

// session is one subscribed observer. The loop goroutine only ever does
// non-blocking sends to out.
type session struct {
	id  string
	out chan []byte

	mu      sync.Mutex
	domains map[string]bool // nil means all
	zones   bool
}

func (s *session) subscribe(sub protocol.SubscribeMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = sub.Zones
	if len(sub.Domains) == 0 {
		s.domains = nil
		return
	}
	s.domains = make(map[string]bool, len(sub.Domains))
	for _, d := range sub.Domains {
		s.domains[d] = true
	}
}

func (s *session) wants(domain string) (ok, zones bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.domains != nil && !s.domains[domain] {
		return false, false
	}
	return true, s.zones
}

// Hub fans frames out to observer sessions. It implements sim.FrameSink.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	max      int

	dropped atomic.Uint64
}

func NewHub(maxSessions int) *Hub {
	if maxSessions <= 0 {
		maxSessions = 64
	}
	return &Hub{sessions: map[string]*session{}, max: maxSessions}
}

func (h *Hub) join(s *session) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sessions) >= h.max {
		return false
	}
	h.sessions[s.id] = s
	return true
}

func (h *Hub) leave(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dropped counts frames replaced before a slow observer read them.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub) PublishFrame(f protocol.FrameMsg) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.sessions) == 0 {
		return
	}

	// Marshal lazily: once with zones, once without.
	var full, lite []byte
	for _, s := range h.sessions {
		ok, zones := s.wants(f.Domain)
		if !ok {
			continue
		}
		var b []byte
		if zones {
			if full == nil {
				full, _ = json.Marshal(f)
			}
			b = full
		} else {
			if lite == nil {
				lite, _ = json.Marshal(stripZones(f))
			}
			b = lite
		}
		if !sendLatest(s.out, b) {
			h.dropped.Add(1)
		}
	}
}

func stripZones(f protocol.FrameMsg) protocol.FrameMsg {
	out := f
	out.Emitters = make([]protocol.EmitterStatus, len(f.Emitters))
	for i, e := range f.Emitters {
		e.Zone = nil
		out.Emitters[i] = e
	}
	return out
}

// sendLatest enqueues b, discarding the oldest queued frame when the channel
// is full. It reports false when something was discarded.
func sendLatest(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
	return false
}

var _ sim.FrameSink = (*Hub)(nil)
