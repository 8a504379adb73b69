// Package template provides templating functionality for dynamic handler configuration.
package template

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Render parses and executes a Go template against the given data. Results
// that look like JSON are decoded so handlers can produce structured values,
// not just strings.
func Render(templateStr string, data map[string]any) (any, error) {
	tmpl, err := template.
		New("render").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"json": func(v any) string {
				b, err := json.Marshal(v)
				if err != nil {
					return ""
				}

				return string(b)
			},
		}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template '%s': %w", templateStr, err)
	}

	var buf strings.Builder

	err = tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to execute template '%s': %w", templateStr, err)
	}

	rendered := buf.String()

	var decoded any
	if err := json.Unmarshal([]byte(rendered), &decoded); err == nil {
		return decoded, nil
	}

	return rendered, nil
}

// RenderMap renders every value of a string map, returning the structured
// results under the same keys.
func RenderMap(templates map[string]string, data map[string]any) (map[string]any, error) {
	rendered := make(map[string]any, len(templates))

	for key, tmpl := range templates {
		value, err := Render(tmpl, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render %q: %w", key, err)
		}

		rendered[key] = value
	}

	return rendered, nil
}
