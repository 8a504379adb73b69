// Package models defines the core domain models for node-based workflow execution
package models

import (
	"maps"
	"time"
)

// Built-in node types with engine-level meaning. Every other type is opaque to the
// engine and resolved through the handler registry.
const (
	NodeTypeStart = "start"
	NodeTypeEnd   = "end"
	NodeTypeLoop  = "loop"
)

// Node represents one step of a workflow graph. Nodes are authored once and are
// immutable for the duration of a single execution.
type Node struct {
	ID      string         `json:"id"                validate:"required"`
	Type    string         `json:"type"              validate:"required"`
	Name    string         `json:"name,omitempty"`
	Config  map[string]any `json:"config,omitempty"`
	Inputs  []string       `json:"inputs,omitempty"`  // Variable names the node reads
	Outputs []string       `json:"outputs,omitempty"` // Variable names the node writes
}

// IsStartNode reports whether the node is an entry point of the graph.
func (n *Node) IsStartNode() bool {
	return n.Type == NodeTypeStart
}

// IsLoopNode reports whether the node is a loop-control node. Cycles in a graph
// are only legal when every node on the cycle is a loop-control node.
func (n *Node) IsLoopNode() bool {
	return n.Type == NodeTypeLoop
}

// Edge is a directed connection between two nodes, optionally gated by a branch
// condition label ("true"/"false" for conditionals, or any label a branching
// handler may choose).
type Edge struct {
	ID        string `json:"id"`
	From      string `json:"from"                validate:"required"`
	To        string `json:"to"                  validate:"required"`
	Condition string `json:"condition,omitempty"`
}

// Key returns a stable identifier for the edge, falling back to the endpoint
// pair (and condition, so the two branches of a conditional stay distinct)
// when the author did not assign an ID.
func (e *Edge) Key() string {
	if e.ID != "" {
		return e.ID
	}

	if e.Condition != "" {
		return e.From + "->" + e.To + ":" + e.Condition
	}

	return e.From + "->" + e.To
}

// NodeStatus defines the possible states of a node execution.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// NodeResult records the outcome of a single node within one execution.
type NodeResult struct {
	NodeID      string         `json:"node_id"`
	Status      NodeStatus     `json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// Clone returns a copy of the result detached from the original.
func (r *NodeResult) Clone() *NodeResult {
	clone := *r
	clone.Output = maps.Clone(r.Output)

	if r.StartedAt != nil {
		startedAt := *r.StartedAt
		clone.StartedAt = &startedAt
	}

	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}

// Terminal reports whether the node reached a final state.
func (r *NodeResult) Terminal() bool {
	switch r.Status {
	case NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped:
		return true
	case NodeStatusPending, NodeStatusRunning:
		return false
	default:
		return false
	}
}
