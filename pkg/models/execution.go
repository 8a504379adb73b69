package models

import (
	"maps"
	"slices"
	"time"
)

// ExecutionStatus represents the lifecycle state of one workflow execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// Terminal reports whether the status is final. A record is immutable once its
// status reaches a terminal value.
func (s ExecutionStatus) Terminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusCancelled:
		return true
	case ExecutionStatusPending, ExecutionStatusRunning:
		return false
	default:
		return false
	}
}

// DiagnosticSeverity classifies validation findings: errors block execution,
// warnings do not.
type DiagnosticSeverity string

const (
	SeverityError   DiagnosticSeverity = "error"
	SeverityWarning DiagnosticSeverity = "warning"
)

// Diagnostic is one validation finding, naming the offending node or edge.
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	NodeID   string             `json:"node_id,omitempty"`
	EdgeID   string             `json:"edge_id,omitempty"`
}

// ExecutionRecord is the observable, persisted trace of one workflow run.
type ExecutionRecord struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	InputData   map[string]any  `json:"input_data,omitempty"`
	OutputData  map[string]any  `json:"output_data,omitempty"`
	NodeResults []*NodeResult   `json:"node_results"`
	Error       string          `json:"error,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

// Clone returns a deep copy of the record, detached from the instance the
// scheduler mutates, so callers can read and marshal it freely.
func (r *ExecutionRecord) Clone() *ExecutionRecord {
	clone := *r
	clone.InputData = maps.Clone(r.InputData)
	clone.OutputData = maps.Clone(r.OutputData)
	clone.Diagnostics = slices.Clone(r.Diagnostics)

	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		clone.CompletedAt = &completedAt
	}

	if r.NodeResults != nil {
		clone.NodeResults = make([]*NodeResult, len(r.NodeResults))
		for i, result := range r.NodeResults {
			clone.NodeResults[i] = result.Clone()
		}
	}

	return &clone
}

// Result returns the node result for the given node ID, or nil.
func (r *ExecutionRecord) Result(nodeID string) *NodeResult {
	for _, res := range r.NodeResults {
		if res.NodeID == nodeID {
			return res
		}
	}

	return nil
}

// NodesExecuted counts node results that reached the completed state.
func (r *ExecutionRecord) NodesExecuted() int {
	count := 0

	for _, res := range r.NodeResults {
		if res.Status == NodeStatusCompleted {
			count++
		}
	}

	return count
}
