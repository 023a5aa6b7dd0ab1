package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/pkg/logger"
)

const OpNotificationPush = "notification.push"

// Event is a frame sent to live sessions.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
}

// Router delivers events to a user's live sessions. Services depend on this
// interface rather than the concrete Hub.
type Router interface {
	Deliver(userID uuid.UUID, event Event)
}

// Hub keeps the userID -> live sessions registry. A user may hold several
// sessions at once (tabs, devices); delivery goes to all of them. Delivery is
// best-effort: a user with no sessions simply misses the push, and durability
// is the notification store's job, not the hub's.
type Hub struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		sessions: make(map[uuid.UUID]map[*Session]struct{}),
	}
}

// Join adds a session to its user's room. Idempotent.
func (h *Hub) Join(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s.userID]; !ok {
		h.sessions[s.userID] = make(map[*Session]struct{})
	}
	h.sessions[s.userID][s] = struct{}{}

	logger.Debug("session joined", "user_id", s.userID, "sessions", len(h.sessions[s.userID]))
}

// Leave removes a session from its room. Safe to call repeatedly or with a
// session the hub never saw; other sessions of the same user are untouched.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.sessions[s.userID]
	if !ok {
		return
	}
	if _, ok := room[s]; !ok {
		return
	}
	delete(room, s)
	s.closeSend()
	if len(room) == 0 {
		delete(h.sessions, s.userID)
	}

	logger.Debug("session left", "user_id", s.userID, "sessions", len(room))
}

// Deliver sends event to every live session of userID. No sessions means the
// event is dropped without error; writes to each session preserve dispatch
// order because a single goroutine drains each send channel.
func (h *Hub) Deliver(userID uuid.UUID, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("failed to marshal event", "op", event.Op, "error", err)
		return
	}
	h.DeliverRaw(userID, data)
}

// DeliverRaw sends a pre-encoded frame; used by the redis bridge so frames
// from other instances are forwarded without a decode/encode round trip.
func (h *Hub) DeliverRaw(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for s := range h.sessions[userID] {
		select {
		case s.send <- data:
		default:
			// Send buffer full: the session is too slow to keep up, evict it.
			go h.Leave(s)
		}
	}
}

// SessionCount reports live sessions for a user.
func (h *Hub) SessionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Shutdown closes every session's send channel.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, room := range h.sessions {
		for s := range room {
			s.closeSend()
		}
	}
	h.sessions = make(map[uuid.UUID]map[*Session]struct{})
}
