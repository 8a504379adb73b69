package cmd

import (
	"log/slog"

	"github.com/vireohq/flowd/pkg/eventbus"
)

// NewEventBus creates an event bus instance based on the provider name.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "memory":
		return eventbus.NewGoChannelEventBus(logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
