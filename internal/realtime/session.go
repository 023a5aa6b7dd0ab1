package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	pingInterval   = 30 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 256
)

// Session is one live websocket connection bound to a user at handshake time.
// The binding never changes for the session's lifetime.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID

	send      chan []byte
	closeOnce sync.Once
}

func NewSession(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Session {
	return &Session{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (s *Session) closeSend() {
	s.closeOnce.Do(func() { close(s.send) })
}

// ReadPump drains inbound frames until the peer goes away, then leaves the
// hub. Clients send nothing the server acts on besides pong control frames,
// but reading is required to notice disconnects and process pings.
func (s *Session) ReadPump() {
	defer func() {
		s.hub.Leave(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// WritePump is the session's single writer: it serializes frames from the
// send channel and keeps the connection alive with pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
