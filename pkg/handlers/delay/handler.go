// Package delay provides the timed-wait handler for workflow graph execution.
package delay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vireohq/flowd/pkg/protocol"
)

const maxDelay = time.Hour

// DelayHandler pauses the branch it sits on for a configured duration. The
// wait is cancellable through the execution context.
type DelayHandler struct {
	id       string
	duration time.Duration
}

func NewDelayHandler(id string, config map[string]any) (*DelayHandler, error) {
	ms, ok := asMillis(config["duration_ms"])
	if !ok {
		return nil, errors.New("missing required field 'duration_ms'")
	}

	duration := time.Duration(ms) * time.Millisecond
	if duration <= 0 || duration > maxDelay {
		return nil, fmt.Errorf("duration_ms must be between 1 and %d", maxDelay.Milliseconds())
	}

	return &DelayHandler{id: id, duration: duration}, nil
}

func (h *DelayHandler) Execute(ctx context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
	timer := time.NewTimer(h.duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	return &protocol.HandlerResult{
		Outputs: map[string]any{
			"delayed_ms": h.duration.Milliseconds(),
		},
	}, nil
}

func asMillis(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
