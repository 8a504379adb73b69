package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/vireohq/flowd/pkg/events"
)

// WatermillEventBus routes lifecycle events over a watermill pub/sub pair.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   map[events.EventType][]EventHandler
	logger     *slog.Logger
}

func NewWatermillEventBus(publisher message.Publisher, subscriber message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  publisher,
		subscriber: subscriber,
		handlers:   make(map[events.EventType][]EventHandler),
		logger:     logger.With("module", "eventbus"),
	}
}

func (b *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(b.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))
	msg.SetContext(ctx)

	return b.publisher.Publish(events.Topic, msg)
}

func (b *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	return nil
}

// Subscribe consumes the execution topic until ctx is done, dispatching each
// message to the handlers registered for its event type.
func (b *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.Topic, err)
	}

	go func() {
		for msg := range messages {
			b.dispatch(ctx, msg)
			msg.Ack()
		}
	}()

	return nil
}

func (b *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	handlers, ok := b.handlers[eventType]
	if !ok {
		return
	}

	event, err := decodeEvent(eventType, msg.Payload)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to decode event",
			"event_type", eventType, "message_id", msg.UUID, "error", err)

		return
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			b.logger.ErrorContext(ctx, "Event handler failed",
				"event_type", eventType, "message_id", msg.UUID, "error", err)
		}
	}
}

func (b *WatermillEventBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}

	return b.subscriber.Close()
}

func (b *WatermillEventBus) GenerateID() string {
	return uuid.New().String()
}

func decodeEvent(eventType events.EventType, payload []byte) (any, error) {
	var event any

	switch eventType {
	case events.ExecutionStartedEvent:
		event = &events.ExecutionStarted{}
	case events.ExecutionCompletedEvent:
		event = &events.ExecutionCompleted{}
	case events.ExecutionFailedEvent:
		event = &events.ExecutionFailed{}
	case events.ExecutionCancelledEvent:
		event = &events.ExecutionCancelled{}
	case events.NodeStartedEvent:
		event = &events.NodeStarted{}
	case events.NodeFinishedEvent:
		event = &events.NodeFinished{}
	case events.NodeFailedEvent:
		event = &events.NodeFailed{}
	case events.NodeSkippedEvent:
		event = &events.NodeSkipped{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", eventType, err)
	}

	return event, nil
}
