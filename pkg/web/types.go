// Package web provides HTTP request and response types for the workflow API.
package web

import "github.com/vireohq/flowd/pkg/models"

// CreateWorkflowRequest represents the request body for creating a workflow.
type CreateWorkflowRequest struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Nodes       []*models.Node `json:"nodes"`
	Edges       []*models.Edge `json:"edges"`
	Variables   map[string]any `json:"variables,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// StartExecutionRequest represents the request body for starting an execution.
type StartExecutionRequest struct {
	InputData map[string]any `json:"input_data,omitempty"`
}

// StartExecutionResponse is returned when an execution has been accepted.
type StartExecutionResponse struct {
	ExecutionID string                 `json:"execution_id"`
	WorkflowID  string                 `json:"workflow_id"`
	Status      models.ExecutionStatus `json:"status"`
}
