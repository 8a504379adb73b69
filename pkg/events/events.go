// Package events defines event types for workflow execution lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/vireohq/flowd/pkg/models"
)

type EventType string

// Topic carries all execution lifecycle events.
const Topic = "flowd.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
	ExecutionCancelledEvent EventType = "execution.cancelled"

	NodeStartedEvent  EventType = "node.started"
	NodeFinishedEvent EventType = "node.finished"
	NodeFailedEvent   EventType = "node.failed"
	NodeSkippedEvent  EventType = "node.skipped"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID, executionID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
	}
}

type ExecutionStarted struct {
	BaseEvent

	InputData map[string]any `json:"input_data,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionCompleted struct {
	BaseEvent

	DurationMs    int64          `json:"duration_ms"`
	NodesExecuted int            `json:"nodes_executed"`
	OutputData    map[string]any `json:"output_data,omitempty"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent

	DurationMs    int64  `json:"duration_ms"`
	NodesExecuted int    `json:"nodes_executed"`
	FailedNodeID  string `json:"failed_node_id,omitempty"`
	Error         string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}

type ExecutionCancelled struct {
	BaseEvent

	DurationMs    int64  `json:"duration_ms"`
	NodesExecuted int    `json:"nodes_executed"`
	Reason        string `json:"reason,omitempty"`
}

func (e ExecutionCancelled) GetType() EventType {
	return ExecutionCancelledEvent
}

type NodeStarted struct {
	BaseEvent

	NodeID   string `json:"node_id"`
	NodeType string `json:"node_type"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeFinished struct {
	BaseEvent

	NodeID     string            `json:"node_id"`
	Status     models.NodeStatus `json:"status"`
	DurationMs int64             `json:"duration_ms"`
	Output     map[string]any    `json:"output,omitempty"`
}

func (e NodeFinished) GetType() EventType {
	return NodeFinishedEvent
}

type NodeFailed struct {
	BaseEvent

	NodeID     string `json:"node_id"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

type NodeSkipped struct {
	BaseEvent

	NodeID string `json:"node_id"`
	Reason string `json:"reason,omitempty"`
}

func (e NodeSkipped) GetType() EventType {
	return NodeSkippedEvent
}
