// Package eventbus provides event-driven notification infrastructure for
// workflow execution. The engine publishes state transition events; stores and
// observers subscribe rather than poll.
package eventbus

import (
	"context"

	"github.com/vireohq/flowd/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
