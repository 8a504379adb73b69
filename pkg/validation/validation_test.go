package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireohq/flowd/pkg/graph"
	"github.com/vireohq/flowd/pkg/models"
)

func knownTypes(types ...string) graph.KnownTypeFunc {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}

	return func(nodeType string) bool { return set[nodeType] }
}

func defaultKnown() graph.KnownTypeFunc {
	return knownTypes("start", "task", "conditional", "loop", "end")
}

func codes(diagnostics []models.Diagnostic) []string {
	out := make([]string, 0, len(diagnostics))
	for _, d := range diagnostics {
		out = append(out, d.Code)
	}

	return out
}

func validDefinition() *models.WorkflowDefinition {
	return &models.WorkflowDefinition{
		ID: "wf-valid",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "work", Type: "task"},
			{ID: "end", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "work"},
			{From: "work", To: "end"},
		},
	}
}

func TestValidate_ValidWorkflow(t *testing.T) {
	result := ValidateDefinition(validDefinition(), defaultKnown())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidate_Idempotent(t *testing.T) {
	def := validDefinition()

	first := ValidateDefinition(def, defaultKnown())
	second := ValidateDefinition(def, defaultKnown())

	assert.Equal(t, first, second)
}

func TestValidate_MissingStartNode(t *testing.T) {
	def := &models.WorkflowDefinition{
		ID: "wf-no-start",
		Nodes: []*models.Node{
			{ID: "a", Type: "task"},
		},
	}

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)
	assert.Contains(t, codes(result.Errors), CodeMissingStartNode)
	// Structural failure short-circuits semantic checks.
	assert.NotContains(t, codes(result.Errors), CodeIllegalCycle)
}

func TestValidate_OrphanNode(t *testing.T) {
	def := validDefinition()
	def.Nodes = append(def.Nodes, &models.Node{ID: "island", Type: "task"})

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)

	found := false

	for _, d := range result.Errors {
		if d.Code == CodeOrphanNode {
			found = true

			assert.Equal(t, "island", d.NodeID)
		}
	}

	assert.True(t, found)
}

func TestValidate_DanglingEdge(t *testing.T) {
	def := validDefinition()
	def.Edges = append(def.Edges, &models.Edge{From: "work", To: "nowhere"})

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)

	found := false

	for _, d := range result.Errors {
		if d.Code == CodeDanglingEdge {
			found = true

			assert.Equal(t, "work->nowhere", d.EdgeID)
		}
	}

	assert.True(t, found)
}

func TestValidate_DuplicateNodeID(t *testing.T) {
	def := validDefinition()
	def.Nodes = append(def.Nodes, &models.Node{ID: "work", Type: "task"})

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)
	assert.Contains(t, codes(result.Errors), CodeDuplicateNodeID)
}

func TestValidate_UnknownNodeType(t *testing.T) {
	def := validDefinition()
	def.Nodes[1].Type = "quantum"

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)
	assert.Contains(t, codes(result.Errors), CodeUnknownNodeType)
}

func TestValidate_IllegalCycle(t *testing.T) {
	def := &models.WorkflowDefinition{
		ID: "wf-cycle",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "task"},
			{ID: "b", Type: "task"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
			{From: "a", To: "b"},
			{From: "b", To: "a"},
		},
	}

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)
	assert.Contains(t, codes(result.Errors), CodeIllegalCycle)
}

func TestValidate_LoopSelfCycleAllowed(t *testing.T) {
	def := &models.WorkflowDefinition{
		ID: "wf-loop-cycle",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "repeat", Type: "loop"},
			{ID: "end", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "repeat"},
			{From: "repeat", To: "repeat"},
			{From: "repeat", To: "end"},
		},
	}

	result := ValidateDefinition(def, defaultKnown())

	assert.True(t, result.Valid, "cycles through loop nodes only should pass: %v", result.Errors)
}

func TestValidate_VariableAvailabilityWarning(t *testing.T) {
	def := validDefinition()
	def.Nodes[1].Inputs = []string{"never_written"}

	result := ValidateDefinition(def, defaultKnown())

	assert.True(t, result.Valid, "availability findings are warnings, not errors")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, CodeVariableUnavailable, result.Warnings[0].Code)
	assert.Equal(t, "work", result.Warnings[0].NodeID)
}

func TestValidate_VariableAvailableFromPredecessorOutputs(t *testing.T) {
	def := validDefinition()
	def.Nodes[1].Outputs = []string{"total"}
	def.Nodes[2].Inputs = []string{"total"}

	result := ValidateDefinition(def, defaultKnown())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestValidate_VariableAvailableFromInitialVariables(t *testing.T) {
	def := validDefinition()
	def.Variables = map[string]any{"base_url": "https://example.com"}
	def.Nodes[1].Inputs = []string{"base_url"}

	result := ValidateDefinition(def, defaultKnown())

	assert.True(t, result.Valid)
	assert.Empty(t, result.Warnings)
}

func TestValidate_UnreachableNode(t *testing.T) {
	def := &models.WorkflowDefinition{
		ID: "wf-unreachable",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "task"},
			{ID: "b", Type: "task"},
			{ID: "c", Type: "task"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
			// b and c feed each other but nothing connects them to start.
			{From: "b", To: "c"},
			{From: "c", To: "b"},
		},
	}

	result := ValidateDefinition(def, defaultKnown())

	assert.False(t, result.Valid)
	assert.Contains(t, codes(result.Errors), CodeUnreachableNode)
}

func TestValidationError_Message(t *testing.T) {
	def := validDefinition()
	def.Edges = append(def.Edges, &models.Edge{From: "work", To: "nowhere"})

	result := ValidateDefinition(def, defaultKnown())
	err := &Error{Result: result}

	assert.Contains(t, err.Error(), "workflow validation failed")
	assert.Contains(t, err.Error(), "nowhere")
}

func TestDiagnostics_ErrorsFirst(t *testing.T) {
	result := &Result{}
	result.addWarning(CodeVariableUnavailable, "maybe missing", "n1")
	result.addError(CodeOrphanNode, "orphan", "n2", "")

	diagnostics := result.Diagnostics()
	require.Len(t, diagnostics, 2)
	assert.Equal(t, models.SeverityError, diagnostics[0].Severity)
	assert.Equal(t, models.SeverityWarning, diagnostics[1].Severity)
}
