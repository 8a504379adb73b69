package delay

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// DelayHandlerFactory creates DelayHandler instances.
type DelayHandlerFactory struct{}

func NewDelayHandlerFactory() *DelayHandlerFactory {
	return &DelayHandlerFactory{}
}

func (f *DelayHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewDelayHandler(id, config)
}

func (f *DelayHandlerFactory) ID() string {
	return "delay"
}

func (f *DelayHandlerFactory) Name() string {
	return "Delay"
}

func (f *DelayHandlerFactory) Description() string {
	return "Pauses the branch for a configured duration"
}

func (f *DelayHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"duration_ms": map[string]any{
				"type":        "integer",
				"description": "Wait duration in milliseconds; required",
				"minimum":     1,
			},
		},
		"required": []any{"duration_ms"},
	}
}
