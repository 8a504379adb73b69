package log

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// LogHandlerFactory creates LogHandler instances.
type LogHandlerFactory struct{}

func NewLogHandlerFactory() *LogHandlerFactory {
	return &LogHandlerFactory{}
}

func (f *LogHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewLogHandler(id, config)
}

func (f *LogHandlerFactory) ID() string {
	return "log"
}

func (f *LogHandlerFactory) Name() string {
	return "Log"
}

func (f *LogHandlerFactory) Description() string {
	return "Renders a message template and writes it to the structured log"
}

func (f *LogHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{
				"type":        "string",
				"description": "Message template with access to input variables",
			},
			"level": map[string]any{
				"type": "string",
				"enum": []any{"debug", "info", "warn", "error"},
			},
		},
		"required": []any{"message"},
	}
}
