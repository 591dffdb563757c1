package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/babbageLabs/insta-lite/internal/middleware"
)

// Realtime event types pushed to websocket clients.
const (
	EventNotification  = "notification"
	EventFeedItemAdded = "feed_item_added"
	// EventPong answers a client {"type":"ping"} frame.
	EventPong = "pong"
)

// Event is the envelope every websocket frame carries.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// MarshalEvent encodes an event envelope.
func MarshalEvent(eventType string, payload any) (string, error) {
	b, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Publisher pushes realtime events to users. Delivery is best effort.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, eventType string, payload any)
	PublishAll(ctx context.Context, eventType string, payload any)
}

// HubPublisher routes events through Redis when the notifier is enabled so
// every instance sees them, and straight into the local hub otherwise.
type HubPublisher struct {
	hub      *Hub
	notifier *Notifier
}

// NewHubPublisher builds a publisher. Either argument may be nil.
func NewHubPublisher(hub *Hub, notifier *Notifier) *HubPublisher {
	return &HubPublisher{hub: hub, notifier: notifier}
}

// PublishUser delivers an event to every connection of userID.
func (p *HubPublisher) PublishUser(ctx context.Context, userID uint, eventType string, payload any) {
	if p == nil || userID == 0 {
		return
	}
	msg, err := MarshalEvent(eventType, payload)
	if err != nil {
		middleware.Logger.Error("failed to encode realtime event",
			slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishUser(ctx, userID, msg)
		if err == nil {
			return
		}
		middleware.Logger.Warn("redis publish failed, delivering locally",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
	}
	if p.hub != nil {
		p.hub.Broadcast(userID, msg)
	}
}

// PublishAll delivers an event to every connected user.
func (p *HubPublisher) PublishAll(ctx context.Context, eventType string, payload any) {
	if p == nil {
		return
	}
	msg, err := MarshalEvent(eventType, payload)
	if err != nil {
		middleware.Logger.Error("failed to encode realtime event",
			slog.String("type", eventType), slog.String("error", err.Error()))
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishBroadcast(ctx, msg)
		if err == nil {
			return
		}
		middleware.Logger.Warn("redis broadcast failed, delivering locally", slog.String("error", err.Error()))
	}
	if p.hub != nil {
		p.hub.BroadcastAll(msg)
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

// PublishUser implements Publisher.
func (NopPublisher) PublishUser(context.Context, uint, string, any) {}

// PublishAll implements Publisher.
func (NopPublisher) PublishAll(context.Context, string, any) {}
