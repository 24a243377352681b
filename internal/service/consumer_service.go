// FILE: internal/service/consumer_service.go
package service

import (
	"context"

	"heritage-archive-be/internal/pkg/logger"
	"heritage-archive-be/pkg/events"
	pktNats "heritage-archive-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// CacheInvalidator drops cached search results.
type CacheInvalidator interface {
	Invalidate()
}

// Broadcaster pushes an event to the clients connected to this instance.
type Broadcaster interface {
	Broadcast(event events.Event)
}

// EventRelay forwards a local event to the other instances.
type EventRelay interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventSource delivers events published by other instances.
type EventSource interface {
	Subscribe(eventType string, handler pktNats.EventHandler) error
}

// ConsumerDeps are the collaborators of the consumer. Relay and Remote are nil without NATS.
type ConsumerDeps struct {
	Subscriber  message.Subscriber
	TopicName   string
	InstanceID  string
	Cache       CacheInvalidator
	Broadcaster Broadcaster
	Relay       EventRelay
	Remote      EventSource
}

type consumerService struct {
	deps   ConsumerDeps
	logger logger.ILogger
}

func NewConsumerService(deps ConsumerDeps, log logger.ILogger) IConsumerService {
	return &consumerService{deps: deps, logger: log}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.deps.Subscriber.Subscribe(ctx, cs.deps.TopicName)
	if err != nil {
		return err
	}

	if cs.deps.Remote != nil {
		if err := cs.deps.Remote.Subscribe(events.TypeArchiveIngested, cs.handleRemote); err != nil {
			cs.logger.Warn("CONSUMER", "Cross-instance events unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	event, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to decode message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.apply(event)

	if cs.deps.Relay != nil {
		if event.Origin == "" {
			event.Origin = cs.deps.InstanceID
		}
		if err := cs.deps.Relay.Publish(ctx, event); err != nil {
			// Local state is already consistent; other instances catch up when their cache expires.
			cs.logger.Warn("CONSUMER", "Failed to relay event", map[string]interface{}{
				"event_type": event.EventType(),
				"archive_id": events.ArchiveID(event),
				"error":      err.Error(),
			})
		}
	}

	cs.logger.Info("CONSUMER", "Event processed", map[string]interface{}{
		"event_type": event.EventType(),
		"archive_id": events.ArchiveID(event),
	})
	msg.Ack()
}

func (cs *consumerService) handleRemote(ctx context.Context, event events.BaseEvent) error {
	if event.Origin == cs.deps.InstanceID {
		return nil
	}
	cs.apply(event)
	cs.logger.Info("CONSUMER", "Remote event processed", map[string]interface{}{
		"event_type": event.EventType(),
		"archive_id": events.ArchiveID(event),
		"origin":     event.Origin,
	})
	return nil
}

func (cs *consumerService) apply(event events.BaseEvent) {
	if event.EventType() != events.TypeArchiveIngested {
		return
	}
	if cs.deps.Cache != nil {
		cs.deps.Cache.Invalidate()
	}
	if cs.deps.Broadcaster != nil {
		cs.deps.Broadcaster.Broadcast(event)
	}
}
