// Package end provides the terminal handler for workflow graph execution.
package end

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// EndHandler marks a terminal node. It produces no outputs; the final variable
// context snapshot is taken by the executor when the run completes.
type EndHandler struct {
	id string
}

func NewEndHandler(id string) *EndHandler {
	return &EndHandler{id: id}
}

func (h *EndHandler) Execute(_ context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
	return &protocol.HandlerResult{}, nil
}
