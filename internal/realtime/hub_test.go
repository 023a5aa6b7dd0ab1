package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// drain reads one frame from the session's send channel, failing the test if
// none arrives.
func drain(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case data, ok := <-s.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var event Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("invalid frame: %v", err)
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("no frame delivered")
	}
	return Event{}
}

func TestDeliverNoSessions(t *testing.T) {
	hub := NewHub()
	// Must neither block nor panic.
	hub.Deliver(uuid.New(), Event{Op: OpNotificationPush, Data: "x"})
}

func TestDeliverFansOutToAllSessions(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	s1 := NewSession(hub, nil, userID)
	s2 := NewSession(hub, nil, userID)
	other := NewSession(hub, nil, uuid.New())
	hub.Join(s1)
	hub.Join(s2)
	hub.Join(other)

	hub.Deliver(userID, Event{Op: OpNotificationPush, Data: "hello"})

	for _, s := range []*Session{s1, s2} {
		event := drain(t, s)
		if event.Op != OpNotificationPush {
			t.Errorf("op = %q, want %q", event.Op, OpNotificationPush)
		}
		if event.Data != "hello" {
			t.Errorf("data = %v, want hello", event.Data)
		}
	}

	select {
	case data := <-other.send:
		t.Errorf("unrelated session received frame %s", data)
	default:
	}
}

func TestDeliverPreservesOrderPerSession(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	s := NewSession(hub, nil, userID)
	hub.Join(s)

	const n = 20
	for i := 0; i < n; i++ {
		hub.Deliver(userID, Event{Op: OpNotificationPush, Data: fmt.Sprintf("%d", i)})
	}
	for i := 0; i < n; i++ {
		event := drain(t, s)
		if event.Data != fmt.Sprintf("%d", i) {
			t.Fatalf("frame %d carries %v", i, event.Data)
		}
	}
}

func TestLeave(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	s1 := NewSession(hub, nil, userID)
	s2 := NewSession(hub, nil, userID)
	hub.Join(s1)
	hub.Join(s2)

	hub.Leave(s1)
	if got := hub.SessionCount(userID); got != 1 {
		t.Errorf("SessionCount = %d, want 1", got)
	}

	// Remaining session still receives.
	hub.Deliver(userID, Event{Op: OpNotificationPush, Data: "still here"})
	if event := drain(t, s2); event.Data != "still here" {
		t.Errorf("data = %v", event.Data)
	}

	// Leaving again, or leaving a session the hub never saw, is harmless.
	hub.Leave(s1)
	hub.Leave(NewSession(hub, nil, uuid.New()))

	hub.Leave(s2)
	if got := hub.SessionCount(userID); got != 0 {
		t.Errorf("SessionCount after all left = %d, want 0", got)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	s := NewSession(hub, nil, uuid.New())
	hub.Join(s)
	hub.Join(s)
	if got := hub.SessionCount(s.userID); got != 1 {
		t.Errorf("SessionCount = %d, want 1", got)
	}
}

func TestSlowSessionEviction(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	slow := NewSession(hub, nil, userID)
	hub.Join(slow)

	// Fill the buffer without draining, then push one more frame.
	for i := 0; i < sendBufferSize+1; i++ {
		hub.Deliver(userID, Event{Op: OpNotificationPush, Data: "x"})
	}

	deadline := time.Now().Add(time.Second)
	for hub.SessionCount(userID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("slow session was not evicted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	hub := NewHub()
	s := NewSession(hub, nil, uuid.New())
	hub.Join(s)

	hub.Shutdown()

	select {
	case _, ok := <-s.send:
		if ok {
			t.Error("send channel still open after shutdown")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after shutdown")
	}
	if got := hub.SessionCount(s.userID); got != 0 {
		t.Errorf("SessionCount after shutdown = %d, want 0", got)
	}
}
