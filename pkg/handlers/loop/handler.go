// Package loop provides the bounded-iteration handler for workflow graph execution.
//
// Loops are represented as an explicit node type with a required iteration
// bound rather than a general cycle: the handler iterates internally and the
// executor still dispatches the node exactly once, which keeps the validator's
// cycle rule a simple structural check.
package loop

import (
	"context"
	"errors"
	"fmt"

	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/template"
)

const maxIterationCeiling = 10000

// LoopHandler repeats a template-rendered body up to max_iterations times,
// collecting the per-iteration results.
type LoopHandler struct {
	id            string
	maxIterations int
	body          string
}

func NewLoopHandler(id string, config map[string]any) (*LoopHandler, error) {
	max, ok := asInt(config["max_iterations"])
	if !ok {
		return nil, errors.New("missing required field 'max_iterations'")
	}

	if max <= 0 || max > maxIterationCeiling {
		return nil, fmt.Errorf("max_iterations must be between 1 and %d, got %d", maxIterationCeiling, max)
	}

	body, _ := config["body"].(string)

	return &LoopHandler{
		id:            id,
		maxIterations: max,
		body:          body,
	}, nil
}

func (h *LoopHandler) Execute(ctx context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	results := make([]any, 0, h.maxIterations)

	for i := range h.maxIterations {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if h.body == "" {
			results = append(results, i)

			continue
		}

		rendered, err := template.Render(h.body, map[string]any{
			"iteration": i,
			"variables": inputs,
		})
		if err != nil {
			return nil, fmt.Errorf("iteration %d failed: %w", i, err)
		}

		results = append(results, rendered)
	}

	return &protocol.HandlerResult{
		Outputs: map[string]any{
			"iterations": h.maxIterations,
			"results":    results,
		},
	}, nil
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
