package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"xweeter/internal/observability"
)

// TopicAddToReplies carries a newly created reply to every listener.
const TopicAddToReplies = "add_to_replies"

const defaultPublishTimeout = 2 * time.Second

// Publisher is fire and forget: delivery is at most once, to whoever is connected.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, topic string, payload any)

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, topic string, payload any) {
	f(ctx, topic, payload)
}

// Event is the wire shape of every outbound WebSocket message.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Broadcaster publishes events through Redis when configured, otherwise straight
// to the local hub. Publish never blocks on Redis.
type Broadcaster struct {
	hub      *Hub
	notifier *Notifier
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBroadcaster wires a hub and an optional notifier.
func NewBroadcaster(hub *Hub, notifier *Notifier, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{hub: hub, notifier: notifier, timeout: defaultPublishTimeout, logger: logger}
}

// Publish implements Publisher.
func (b *Broadcaster) Publish(ctx context.Context, topic string, payload any) {
	message, err := json.Marshal(Event{Event: topic, Data: payload})
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to encode broadcast", slog.String("topic", topic), slog.String("error", err.Error()))
		return
	}

	if !b.notifier.Enabled() {
		b.broadcastLocal(ctx, topic, message)
		return
	}

	pubCtx := context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(pubCtx, b.timeout)
		defer cancel()

		if err := b.notifier.PublishBroadcast(pubCtx, string(message)); err != nil {
			b.logger.WarnContext(pubCtx, "redis broadcast failed, delivering locally",
				slog.String("topic", topic),
				slog.String("error", err.Error()),
			)
			b.broadcastLocal(pubCtx, topic, message)
			return
		}
		observability.BroadcastsTotal.WithLabelValues(topic, "redis").Inc()
	}()
}

func (b *Broadcaster) broadcastLocal(ctx context.Context, topic string, message []byte) {
	if b.hub == nil {
		return
	}
	n := b.hub.BroadcastAll(message)
	observability.BroadcastsTotal.WithLabelValues(topic, "local").Inc()
	b.logger.DebugContext(ctx, "broadcast delivered", slog.String("topic", topic), slog.Int("clients", n))
}
