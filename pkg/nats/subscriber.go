package nats

import (
	"context"
	"fmt"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/events"

	"github.com/nats-io/nats.go"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.BaseEvent) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	nc     *nats.Conn
	prefix string
	logger logger.ILogger
	subs   []*nats.Subscription
}

func NewSubscriber(nc *nats.Conn, prefix string, log logger.ILogger) *Subscriber {
	return &Subscriber{nc: nc, prefix: prefix, logger: log}
}

// Subscribe registers a handler for one event type.
// Handler failures are logged; core subjects have no redelivery.
func (s *Subscriber) Subscribe(eventType string, handler EventHandler) error {
	subject := Subject(s.prefix, eventType)

	sub, err := s.nc.Subscribe(subject, func(msg *nats.Msg) {
		event, err := events.Decode(msg.Data)
		if err != nil {
			s.logger.Warn("NATS", "Dropping malformed event", map[string]interface{}{
				"subject": msg.Subject,
				"error":   err.Error(),
			})
			return
		}

		if err := handler(context.Background(), event); err != nil {
			s.logger.Error("NATS", "Handler failed", map[string]interface{}{
				"subject": msg.Subject,
				"error":   err.Error(),
			})
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}

	s.subs = append(s.subs, sub)
	s.logger.Info("NATS", "Subscribed", map[string]interface{}{"subject": subject})
	return nil
}

// Close removes every subscription. The connection is owned by the caller.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil
}
