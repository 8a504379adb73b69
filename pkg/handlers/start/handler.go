// Package start provides the entry-point handler for workflow graph execution.
package start

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// StartHandler marks a graph entry point. The executor seeds the variable
// context from the caller's input before any node runs, so the handler itself
// only echoes its inputs downstream.
type StartHandler struct {
	id string
}

func NewStartHandler(id string) *StartHandler {
	return &StartHandler{id: id}
}

func (h *StartHandler) Execute(_ context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	return &protocol.HandlerResult{Outputs: inputs}, nil
}
