package conditional

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// ConditionalHandlerFactory creates ConditionalHandler instances.
type ConditionalHandlerFactory struct{}

func NewConditionalHandlerFactory() *ConditionalHandlerFactory {
	return &ConditionalHandlerFactory{}
}

func (f *ConditionalHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewConditionalHandler(id, config)
}

func (f *ConditionalHandlerFactory) ID() string {
	return "conditional"
}

func (f *ConditionalHandlerFactory) Name() string {
	return "Conditional"
}

func (f *ConditionalHandlerFactory) Description() string {
	return "Evaluates a boolean expression and routes execution to the true or false branch"
}

func (f *ConditionalHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{
				"type":        "string",
				"description": "Boolean expression evaluated against the node's input variables",
			},
		},
		"required": []any{"condition"},
	}
}
