package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/romes311/tourismiq/pkg/logger"
)

const channelPrefix = "user_notifications:"

// envelope wraps an event with the publishing instance's id so each instance
// can skip frames it already delivered locally.
type envelope struct {
	Origin string `json:"origin"`
	Event  Event  `json:"event"`
}

// Bridge fans events out across server instances over redis pub/sub. Each
// dispatch is delivered to the local hub directly and published here; the
// bridge's subscriber re-delivers events that originated elsewhere.
type Bridge struct {
	client     *redis.Client
	hub        *Hub
	instanceID string
}

func NewBridge(client *redis.Client, hub *Hub) *Bridge {
	return &Bridge{
		client:     client,
		hub:        hub,
		instanceID: uuid.NewString(),
	}
}

// Publish sends an event to the user's channel for other instances.
// Best-effort: a broker failure is logged, never surfaced, since the local
// delivery and the durable record have already happened.
func (b *Bridge) Publish(ctx context.Context, userID uuid.UUID, event Event) {
	payload, err := json.Marshal(envelope{Origin: b.instanceID, Event: event})
	if err != nil {
		logger.Error("failed to marshal bridge envelope", "error", err)
		return
	}
	if err := b.client.Publish(ctx, channelPrefix+userID.String(), payload).Err(); err != nil {
		logger.Warn("bridge publish failed", "user_id", userID, "error", err)
	}
}

// Run subscribes to every user channel and forwards foreign events into the
// local hub. Blocks until ctx is cancelled; reconnects are handled by
// go-redis inside the pubsub channel.
func (b *Bridge) Run(ctx context.Context) {
	pubsub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		logger.Error("bridge subscribe failed", "error", err)
		return
	}

	ch := pubsub.Channel()
	logger.Info("realtime bridge started", "instance_id", b.instanceID)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handle(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bridge) handle(msg *redis.Message) {
	userID, err := uuid.Parse(strings.TrimPrefix(msg.Channel, channelPrefix))
	if err != nil {
		logger.Warn("bridge received message on malformed channel", "channel", msg.Channel)
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		logger.Warn("bridge received malformed payload", "error", err)
		return
	}
	if env.Origin == b.instanceID {
		return
	}

	b.hub.Deliver(userID, env.Event)
}

// Ping verifies broker connectivity at startup.
func (b *Bridge) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := b.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
