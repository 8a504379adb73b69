package execution

import (
	"errors"
	"fmt"
)

// ErrExecutionNotFound indicates the manager has no execution with the given ID.
var ErrExecutionNotFound = errors.New("execution not found")

// NodeFailureError is returned when a run ends because a node handler failed.
type NodeFailureError struct {
	NodeID  string
	Message string
}

func (e *NodeFailureError) Error() string {
	return fmt.Sprintf("node %s failed: %s", e.NodeID, e.Message)
}

// IsNodeFailure checks whether err indicates a node handler failure.
func IsNodeFailure(err error) bool {
	var nodeFailure *NodeFailureError

	return errors.As(err, &nodeFailure)
}
