package end

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// EndHandlerFactory creates EndHandler instances.
type EndHandlerFactory struct{}

func NewEndHandlerFactory() *EndHandlerFactory {
	return &EndHandlerFactory{}
}

func (f *EndHandlerFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Handler, error) {
	return NewEndHandler(id), nil
}

func (f *EndHandlerFactory) ID() string {
	return "end"
}

func (f *EndHandlerFactory) Name() string {
	return "End"
}

func (f *EndHandlerFactory) Description() string {
	return "Terminal node of a workflow"
}

func (f *EndHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
