package start

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// StartHandlerFactory creates StartHandler instances.
type StartHandlerFactory struct{}

func NewStartHandlerFactory() *StartHandlerFactory {
	return &StartHandlerFactory{}
}

func (f *StartHandlerFactory) Create(_ context.Context, id string, _ map[string]any) (protocol.Handler, error) {
	return NewStartHandler(id), nil
}

func (f *StartHandlerFactory) ID() string {
	return "start"
}

func (f *StartHandlerFactory) Name() string {
	return "Start"
}

func (f *StartHandlerFactory) Description() string {
	return "Entry point of a workflow; passes caller input downstream"
}

func (f *StartHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}
