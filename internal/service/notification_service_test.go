package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/romes311/tourismiq/internal/model"
	"github.com/romes311/tourismiq/internal/realtime"
)

type fakeNotificationRepo struct {
	mu      sync.Mutex
	rows    []model.Notification
	failing bool
	steps   *[]string
}

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.steps != nil {
		*r.steps = append(*r.steps, "append")
	}
	if r.failing {
		return errors.New("connection refused")
	}
	notification.ID = uuid.Must(uuid.NewV7())
	notification.CreatedAt = time.Now()
	r.rows = append(r.rows, *notification)
	return nil
}

func (r *fakeNotificationRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for i := len(r.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if r.rows[i].UserID == userID {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, row := range r.rows {
		if row.UserID != userID {
			kept = append(kept, row)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeRouter struct {
	mu        sync.Mutex
	delivered []realtime.Event
	steps     *[]string
}

func (f *fakeRouter) Deliver(userID uuid.UUID, event realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.steps != nil {
		*f.steps = append(*f.steps, "deliver")
	}
	f.delivered = append(f.delivered, event)
}

type fakePublisher struct {
	mu        sync.Mutex
	published []realtime.Event
}

func (f *fakePublisher) Publish(ctx context.Context, userID uuid.UUID, event realtime.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
}

func TestDispatchAppendsBeforeDelivering(t *testing.T) {
	ctx := context.Background()
	var steps []string
	repo := &fakeNotificationRepo{steps: &steps}
	router := &fakeRouter{steps: &steps}
	publisher := &fakePublisher{}
	svc := NewNotificationService(repo, router, publisher)

	userID := uuid.New()
	notification, err := svc.Dispatch(ctx, userID, model.NotificationConnectionRequest, "alice wants to connect with you", model.Metadata{"sender_id": "x"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if notification.ID == uuid.Nil {
		t.Error("dispatched notification has no id")
	}

	if len(steps) != 2 || steps[0] != "append" || steps[1] != "deliver" {
		t.Fatalf("steps = %v, want [append deliver]", steps)
	}

	if len(router.delivered) != 1 {
		t.Fatalf("delivered events = %d, want 1", len(router.delivered))
	}
	event := router.delivered[0]
	if event.Op != realtime.OpNotificationPush {
		t.Errorf("event op = %q, want %q", event.Op, realtime.OpNotificationPush)
	}
	data, ok := event.Data.(map[string]any)
	if !ok {
		t.Fatalf("event data has type %T, want map", event.Data)
	}
	if data["message"] != "alice wants to connect with you" {
		t.Errorf("event message = %v", data["message"])
	}

	if len(publisher.published) != 1 {
		t.Errorf("published events = %d, want 1", len(publisher.published))
	}
}

func TestDispatchAppendFailureSkipsDelivery(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{failing: true}
	router := &fakeRouter{}
	svc := NewNotificationService(repo, router, nil)

	if _, err := svc.Dispatch(ctx, uuid.New(), model.NotificationNewMessage, "hi", nil); err == nil {
		t.Fatal("Dispatch() returned nil error on failed append")
	}
	if len(router.delivered) != 0 {
		t.Errorf("delivered events = %d, want 0 after failed append", len(router.delivered))
	}
}

func TestDispatchWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	svc := NewNotificationService(&fakeNotificationRepo{}, &fakeRouter{}, nil)

	if _, err := svc.Dispatch(ctx, uuid.New(), model.NotificationNewMessage, "hi", nil); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
}

func TestListRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeRouter{}, nil)
	userID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		n, err := svc.Dispatch(ctx, userID, model.NotificationNewMessage, "m", nil)
		if err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
		ids = append(ids, n.ID)
	}

	got, err := svc.List(ctx, userID, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List() returned %d rows, want 3", len(got))
	}
	// Newest first.
	for i, n := range got {
		want := ids[len(ids)-1-i]
		if n.ID != want {
			t.Errorf("row %d id = %v, want %v", i, n.ID, want)
		}
	}
}

func TestListLimitClamping(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeRouter{}, nil)
	userID := uuid.New()

	for i := 0; i < maxListLimit+10; i++ {
		if _, err := svc.Dispatch(ctx, userID, model.NotificationNewMessage, "m", nil); err != nil {
			t.Fatalf("Dispatch() error = %v", err)
		}
	}

	got, _ := svc.List(ctx, userID, 0)
	if len(got) != defaultListLimit {
		t.Errorf("List(0) returned %d rows, want default %d", len(got), defaultListLimit)
	}

	got, _ = svc.List(ctx, userID, maxListLimit+5)
	if len(got) != maxListLimit {
		t.Errorf("List(over max) returned %d rows, want %d", len(got), maxListLimit)
	}
}

func TestMarkAllReadAndClearAll(t *testing.T) {
	ctx := context.Background()
	repo := &fakeNotificationRepo{}
	svc := NewNotificationService(repo, &fakeRouter{}, nil)
	userID := uuid.New()
	other := uuid.New()

	for i := 0; i < 3; i++ {
		svc.Dispatch(ctx, userID, model.NotificationNewMessage, "m", nil)
	}
	svc.Dispatch(ctx, other, model.NotificationNewMessage, "m", nil)

	if n, _ := svc.UnreadCount(ctx, userID); n != 3 {
		t.Errorf("unread = %d, want 3", n)
	}
	if err := svc.MarkAllRead(ctx, userID); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, userID); n != 0 {
		t.Errorf("unread after mark = %d, want 0", n)
	}

	if err := svc.ClearAll(ctx, userID); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	rows, _ := svc.List(ctx, userID, 10)
	if len(rows) != 0 {
		t.Errorf("rows after clear = %d, want 0", len(rows))
	}
	// Other users' notifications survive.
	if n, _ := svc.UnreadCount(ctx, other); n != 1 {
		t.Errorf("other user's unread = %d, want 1", n)
	}
}
