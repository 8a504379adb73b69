package graph

import (
	"errors"
	"fmt"
)

// MalformedError indicates a workflow definition that cannot be frozen into a
// graph at all: duplicate node IDs or node types no handler is registered for.
// It is fatal and never retried.
type MalformedError struct {
	NodeID string
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed workflow graph: %s (node %s)", e.Reason, e.NodeID)
}

// IsMalformed checks whether err is a graph construction failure.
func IsMalformed(err error) bool {
	var malformed *MalformedError

	return errors.As(err, &malformed)
}
