package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionRecord_Clone(t *testing.T) {
	startedAt := time.Now().UTC()
	completedAt := startedAt.Add(time.Second)

	record := &ExecutionRecord{
		ID:          "exec-1",
		WorkflowID:  "wf-1",
		Status:      ExecutionStatusRunning,
		StartedAt:   startedAt,
		CompletedAt: &completedAt,
		InputData:   map[string]any{"in": 1},
		OutputData:  map[string]any{"out": 2},
		NodeResults: []*NodeResult{
			{NodeID: "a", Status: NodeStatusCompleted, Output: map[string]any{"x": true}},
			{NodeID: "b", Status: NodeStatusPending},
		},
		Diagnostics: []Diagnostic{{Severity: SeverityWarning, Code: "variable_unavailable"}},
	}

	clone := record.Clone()
	require.Equal(t, record, clone)

	// Mutating the original must not show through the clone.
	record.Status = ExecutionStatusCompleted
	record.InputData["in"] = 99
	record.NodeResults[0].Output["x"] = false
	record.NodeResults[1].Status = NodeStatusRunning
	record.NodeResults = append(record.NodeResults, &NodeResult{NodeID: "c"})
	*record.CompletedAt = completedAt.Add(time.Hour)

	assert.Equal(t, ExecutionStatusRunning, clone.Status)
	assert.Equal(t, 1, clone.InputData["in"])
	assert.Equal(t, true, clone.NodeResults[0].Output["x"])
	assert.Equal(t, NodeStatusPending, clone.NodeResults[1].Status)
	assert.Len(t, clone.NodeResults, 2)
	assert.Equal(t, completedAt, *clone.CompletedAt)
}

func TestExecutionRecord_CloneEmpty(t *testing.T) {
	record := &ExecutionRecord{ID: "exec-2", Status: ExecutionStatusPending}

	clone := record.Clone()
	require.Equal(t, record, clone)
	assert.Nil(t, clone.NodeResults)
	assert.Nil(t, clone.InputData)
	assert.Nil(t, clone.CompletedAt)
}
