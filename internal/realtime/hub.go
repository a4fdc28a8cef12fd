// Package realtime tracks connected websocket sessions per user and pushes
// notification payloads to them. The hub implements ports.PresenceRegistry;
// delivery is best-effort, the persisted notification is the source of truth.
package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mesadeayuda/incident-system/internal/api/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only listen; anything longer than a ping frame is unexpected.
	maxMessageSize = 512

	sendBuffer = 16
)

// Hub fans payloads out to the sessions of a given user. A user may hold
// several sessions (multiple tabs); all of them receive each push.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{sessions: make(map[string]map[*session]struct{}), log: log}
}

type session struct {
	userID string
	conn   *websocket.Conn
	send   chan any
	done   chan struct{}
	hub    *Hub
	once   sync.Once
}

// Connected reports whether the user has at least one open session.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// Send queues the payload for every session of the user. A session whose
// buffer is full is dropped rather than blocking the caller.
func (h *Hub) Send(userID string, payload any) {
	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		select {
		case s.send <- payload:
		case <-s.done:
		default:
			h.log.Warn().Str("user_id", userID).Msg("realtime session backlogged, dropping")
			s.close()
		}
	}
}

// Serve owns the connection until it closes. It registers the session, starts
// the write pump and then blocks reading until the peer goes away.
func (h *Hub) Serve(userID string, conn *websocket.Conn) {
	s := &session{
		userID: userID,
		conn:   conn,
		send:   make(chan any, sendBuffer),
		done:   make(chan struct{}),
		hub:    h,
	}

	h.mu.Lock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[*session]struct{})
	}
	h.sessions[userID][s] = struct{}{}
	h.mu.Unlock()
	metrics.WebsocketSessions.Inc()

	h.log.Debug().Str("user_id", userID).Msg("realtime session opened")

	go s.writePump()
	s.readPump()
	s.close()
}

func (h *Hub) remove(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[s.userID]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.userID)
		}
	}
}

func (s *session) close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
		_ = s.conn.Close()
		metrics.WebsocketSessions.Dec()
		s.hub.log.Debug().Str("user_id", s.userID).Msg("realtime session closed")
	})
}

// readPump discards incoming frames; the channel is push-only. Its real job is
// refreshing the read deadline on pongs and noticing when the peer is gone.
func (s *session) readPump() {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.hub.log.Debug().Err(err).Str("user_id", s.userID).Msg("realtime read error")
			}
			return
		}
	}
}

func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(payload); err != nil {
				s.hub.log.Debug().Err(err).Str("user_id", s.userID).Msg("realtime write failed")
				s.close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		}
	}
}
