package loop

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// LoopHandlerFactory creates LoopHandler instances.
type LoopHandlerFactory struct{}

func NewLoopHandlerFactory() *LoopHandlerFactory {
	return &LoopHandlerFactory{}
}

func (f *LoopHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewLoopHandler(id, config)
}

func (f *LoopHandlerFactory) ID() string {
	return "loop"
}

func (f *LoopHandlerFactory) Name() string {
	return "Loop"
}

func (f *LoopHandlerFactory) Description() string {
	return "Repeats a template body a bounded number of times, collecting results"
}

func (f *LoopHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"max_iterations": map[string]any{
				"type":        "integer",
				"description": "Upper bound on iterations; required",
				"minimum":     1,
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Template rendered once per iteration",
			},
		},
		"required": []any{"max_iterations"},
	}
}
