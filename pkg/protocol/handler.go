// Package protocol defines the interfaces and contracts for pluggable node handlers.
package protocol

import (
	"context"
)

// ExecutionInfo identifies the run a handler is executing within.
type ExecutionInfo struct {
	ExecutionID string
	WorkflowID  string
	NodeID      string
}

// HandlerResult is what a handler returns on success. Branch is set only by
// branching handlers (conditionals); it names the outgoing edge label the
// executor should follow, and edges on other labels are skipped.
type HandlerResult struct {
	Outputs map[string]any `json:"outputs,omitempty"`
	Branch  string         `json:"branch,omitempty"`
}

// Handler is the executable capability behind one node. Inputs are a snapshot
// of the variable context filtered to the node's declared input names; the
// handler never sees or mutates the shared context directly.
type Handler interface {
	Execute(ctx context.Context, info ExecutionInfo, inputs map[string]any) (*HandlerResult, error)
}

// HandlerFactory creates handler instances and provides metadata about the
// node type it serves.
type HandlerFactory interface {
	// Create creates a handler bound to one node's configuration
	Create(ctx context.Context, nodeID string, config map[string]any) (Handler, error)

	// ID returns the node type this factory serves
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node type does
	Description() string

	// Schema returns the JSON schema for configuring this node type
	Schema() map[string]any
}
