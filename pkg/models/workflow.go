package models

import "time"

// WorkflowDefinition is the serialized, authoring-side description of a workflow:
// the node set, the edge set and the initial variables. The engine never executes
// a definition directly; it is first frozen into a graph.Graph.
type WorkflowDefinition struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required,min=3"`
	Description string         `json:"description,omitempty"`
	Nodes       []*Node        `json:"nodes"`
	Edges       []*Edge        `json:"edges"`
	Variables   map[string]any `json:"variables,omitempty"` // Initially-available variables
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// RegisteredComponent describes a handler type registered with the engine,
// exposed so an authoring UI can introspect available node types.
type RegisteredComponent struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema,omitempty"`
}
