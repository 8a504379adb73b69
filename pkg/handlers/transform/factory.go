package transform

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// TransformHandlerFactory creates TransformHandler instances.
type TransformHandlerFactory struct{}

func NewTransformHandlerFactory() *TransformHandlerFactory {
	return &TransformHandlerFactory{}
}

func (f *TransformHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewTransformHandler(id, config)
}

func (f *TransformHandlerFactory) ID() string {
	return "transform"
}

func (f *TransformHandlerFactory) Name() string {
	return "Transform"
}

func (f *TransformHandlerFactory) Description() string {
	return "Transforms input variables into output variables using Go templates"
}

func (f *TransformHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mapping": map[string]any{
				"type":        "object",
				"description": "Output variable name to template expression",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
		},
		"required": []any{"mapping"},
	}
}
