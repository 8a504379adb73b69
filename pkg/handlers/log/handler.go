// Package log provides the logging handler for workflow graph execution.
package log

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/template"
)

// LogHandler renders a message template and writes it to the structured log.
type LogHandler struct {
	id      string
	message string
	level   string
	logger  *slog.Logger
}

func NewLogHandler(id string, config map[string]any) (*LogHandler, error) {
	message, ok := config["message"].(string)
	if !ok || message == "" {
		return nil, errors.New("missing required field 'message'")
	}

	level, _ := config["level"].(string)
	if level == "" {
		level = "info"
	}

	return &LogHandler{
		id:      id,
		message: message,
		level:   level,
		logger:  slog.With("module", "handler:log"),
	}, nil
}

func (h *LogHandler) Execute(ctx context.Context, info protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	rendered, err := template.Render(h.message, map[string]any{
		"variables": inputs,
		"execution": map[string]any{
			"id":          info.ExecutionID,
			"workflow_id": info.WorkflowID,
			"node_id":     info.NodeID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render log message: %w", err)
	}

	message := fmt.Sprintf("%v", rendered)

	logger := h.logger.With(
		"execution_id", info.ExecutionID,
		"node_id", info.NodeID,
	)

	switch h.level {
	case "debug":
		logger.DebugContext(ctx, message)
	case "warn":
		logger.WarnContext(ctx, message)
	case "error":
		logger.ErrorContext(ctx, message)
	default:
		logger.InfoContext(ctx, message)
	}

	return &protocol.HandlerResult{
		Outputs: map[string]any{
			"logged_message": message,
		},
	}, nil
}
