package conditional

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireohq/flowd/pkg/protocol"
)

func TestNewConditionalHandler_RequiresCondition(t *testing.T) {
	_, err := NewConditionalHandler("cond", map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "condition")
}

func TestNewConditionalHandler_RejectsBadExpression(t *testing.T) {
	_, err := NewConditionalHandler("cond", map[string]any{"condition": "x >"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid condition")
}

func TestExecute_Branching(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		inputs    map[string]any
		branch    string
	}{
		{"true comparison", "x > 1", map[string]any{"x": 2}, BranchTrue},
		{"false comparison", "x > 1", map[string]any{"x": 0}, BranchFalse},
		{"boolean variable", "enabled", map[string]any{"enabled": true}, BranchTrue},
		{"undefined variable is false", "missing", map[string]any{}, BranchFalse},
		{"string truthiness", `name != ""`, map[string]any{"name": "ada"}, BranchTrue},
		{"nil inputs", "1 > 2", nil, BranchFalse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewConditionalHandler("cond", map[string]any{"condition": tt.condition})
			require.NoError(t, err)

			result, err := handler.Execute(context.Background(), protocol.ExecutionInfo{}, tt.inputs)
			require.NoError(t, err)

			assert.Equal(t, tt.branch, result.Branch)
			assert.Equal(t, tt.branch == BranchTrue, result.Outputs["condition_result"])
		})
	}
}

func TestFactory_Metadata(t *testing.T) {
	factory := NewConditionalHandlerFactory()

	assert.Equal(t, "conditional", factory.ID())
	assert.NotEmpty(t, factory.Name())

	schema := factory.Schema()
	require.NotNil(t, schema)
	assert.Contains(t, schema["required"], "condition")
}
