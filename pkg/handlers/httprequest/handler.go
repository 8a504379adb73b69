// Package httprequest provides the HTTP call handler for workflow graph execution.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/template"
)

const defaultTimeout = 30 * time.Second

// HTTPRequestHandler performs one HTTP request. URL, headers and body are
// templates rendered against the node's input variables.
type HTTPRequestHandler struct {
	id      string
	url     string
	method  string
	headers map[string]string
	body    string
	client  *http.Client
}

func NewHTTPRequestHandler(id string, config map[string]any) (*HTTPRequestHandler, error) {
	url, ok := config["url"].(string)
	if !ok || url == "" {
		return nil, errors.New("missing required field 'url'")
	}

	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)

	if raw, ok := config["headers"].(map[string]any); ok {
		for key, value := range raw {
			if s, ok := value.(string); ok {
				headers[key] = s
			}
		}
	}

	body, _ := config["body"].(string)

	timeout := defaultTimeout
	if seconds, ok := config["timeout_seconds"].(float64); ok && seconds > 0 {
		timeout = time.Duration(seconds) * time.Second
	}

	return &HTTPRequestHandler{
		id:      id,
		url:     url,
		method:  strings.ToUpper(method),
		headers: headers,
		body:    body,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (h *HTTPRequestHandler) Execute(ctx context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	data := map[string]any{"variables": inputs}

	renderedURL, err := template.Render(h.url, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render url: %w", err)
	}

	var bodyReader io.Reader

	if h.body != "" {
		renderedBody, err := template.Render(h.body, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}

		switch v := renderedBody.(type) {
		case string:
			bodyReader = strings.NewReader(v)
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("failed to encode body: %w", err)
			}

			bodyReader = strings.NewReader(string(encoded))
		}
	}

	req, err := http.NewRequestWithContext(ctx, h.method, fmt.Sprintf("%v", renderedURL), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var responseBody any
	if err := json.Unmarshal(raw, &responseBody); err != nil {
		responseBody = string(raw)
	}

	return &protocol.HandlerResult{
		Outputs: map[string]any{
			"status_code": resp.StatusCode,
			"body":        responseBody,
		},
	}, nil
}
