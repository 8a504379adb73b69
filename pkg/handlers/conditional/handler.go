// Package conditional provides the branching handler for workflow graph execution.
package conditional

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/vireohq/flowd/pkg/protocol"
)

const (
	BranchTrue  = "true"
	BranchFalse = "false"
)

// ConditionalHandler evaluates a boolean expression against its inputs and
// selects the "true" or "false" branch. This is the key control-flow handler
// enabling different execution paths.
type ConditionalHandler struct {
	id        string
	condition string
	program   *vm.Program
}

// NewConditionalHandler compiles the condition expression at creation time so
// bad expressions are rejected before execution starts.
func NewConditionalHandler(id string, config map[string]any) (*ConditionalHandler, error) {
	condition, ok := config["condition"].(string)
	if !ok || condition == "" {
		return nil, errors.New("missing required field 'condition'")
	}

	program, err := expr.Compile(condition, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid condition %q: %w", condition, err)
	}

	return &ConditionalHandler{
		id:        id,
		condition: condition,
		program:   program,
	}, nil
}

// Execute evaluates the condition and routes to the true or false branch.
func (h *ConditionalHandler) Execute(_ context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	env := inputs
	if env == nil {
		env = map[string]any{}
	}

	value, err := expr.Run(h.program, env)
	if err != nil {
		return nil, fmt.Errorf("condition evaluation failed: %w", err)
	}

	branch := BranchFalse
	if truthy(value) {
		branch = BranchTrue
	}

	return &protocol.HandlerResult{
		Outputs: map[string]any{
			"condition_result": branch == BranchTrue,
			"evaluated_value":  value,
		},
		Branch: branch,
	}, nil
}

// truthy converts various expression result types to a boolean.
func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != "" && v != "false" && v != "0"
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
