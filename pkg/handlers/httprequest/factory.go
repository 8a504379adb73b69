package httprequest

import (
	"context"

	"github.com/vireohq/flowd/pkg/protocol"
)

// HTTPRequestHandlerFactory creates HTTPRequestHandler instances.
type HTTPRequestHandlerFactory struct{}

func NewHTTPRequestHandlerFactory() *HTTPRequestHandlerFactory {
	return &HTTPRequestHandlerFactory{}
}

func (f *HTTPRequestHandlerFactory) Create(_ context.Context, id string, config map[string]any) (protocol.Handler, error) {
	return NewHTTPRequestHandler(id, config)
}

func (f *HTTPRequestHandlerFactory) ID() string {
	return "http_request"
}

func (f *HTTPRequestHandlerFactory) Name() string {
	return "HTTP Request"
}

func (f *HTTPRequestHandlerFactory) Description() string {
	return "Performs an HTTP request with templated URL, headers and body"
}

func (f *HTTPRequestHandlerFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL template; required",
			},
			"method": map[string]any{
				"type":    "string",
				"enum":    []any{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD"},
				"default": "GET",
			},
			"headers": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body template",
			},
			"timeout_seconds": map[string]any{
				"type":    "number",
				"minimum": 1,
			},
		},
		"required": []any{"url"},
	}
}
