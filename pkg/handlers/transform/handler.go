// Package transform provides the data transformation handler for workflow graph execution.
package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/template"
)

// TransformHandler renders a set of Go templates against the node's input
// variables and writes the rendered values as output variables.
type TransformHandler struct {
	id      string
	mapping map[string]string
}

func NewTransformHandler(id string, config map[string]any) (*TransformHandler, error) {
	raw, ok := config["mapping"].(map[string]any)
	if !ok || len(raw) == 0 {
		return nil, errors.New("missing required field 'mapping'")
	}

	mapping := make(map[string]string, len(raw))

	for key, value := range raw {
		tmpl, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("mapping entry %q must be a template string", key)
		}

		mapping[key] = tmpl
	}

	return &TransformHandler{
		id:      id,
		mapping: mapping,
	}, nil
}

// Execute renders every mapping entry with the inputs exposed as .variables.
func (h *TransformHandler) Execute(_ context.Context, info protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	data := map[string]any{
		"variables": inputs,
		"execution": map[string]any{
			"id":          info.ExecutionID,
			"workflow_id": info.WorkflowID,
			"node_id":     info.NodeID,
		},
	}

	outputs, err := template.RenderMap(h.mapping, data)
	if err != nil {
		return nil, fmt.Errorf("transformation failed: %w", err)
	}

	return &protocol.HandlerResult{Outputs: outputs}, nil
}
