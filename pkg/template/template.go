// Package template provides templating functionality for dynamic node configuration.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/opsnode/opsnode/pkg/models"
)

// RenderWithItem renders a config value against the current item, the
// invocation variables and the process environment.
func RenderWithItem(input string, ectx *models.ExecutionContext, item models.Item) (any, error) {
	data := map[string]any{
		"item":      map[string]any(item),
		"variables": ectx.Variables,
		"vars":      ectx.Variables, // Support both .vars and .variables
		"metadata":  ectx.Metadata,
		"env":       getEnvVars(),
		"execution": map[string]any{
			"id":      ectx.ID,
			"node_id": ectx.NodeID,
		},
	}

	return Render(input, data)
}

func Render(templateStr string, data any) (any, error) {
	// Fast path: nothing to render
	if !strings.Contains(templateStr, "{{") {
		return templateStr, nil
	}

	tmpl, err := template.
		New("config").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
			"rand": func(max int) int {
				if max <= 0 {
					return 0
				}
				num := make([]byte, 1)
				_, err := rand.Read(num)
				if err != nil {
					return 0
				}

				return int(num[0]) % max
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

	result := strings.TrimSpace(buf.String())

	// Try to parse as JSON if it looks like JSON
	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any

		err := json.Unmarshal([]byte(result), &jsonResult)
		if err == nil {
			return jsonResult, nil
		}
	}

	// Try to parse as number
	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	// Try to parse as boolean
	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderString renders a config value and coerces the result back to string.
func RenderString(input string, ectx *models.ExecutionContext, item models.Item) (string, error) {
	rendered, err := RenderWithItem(input, ectx, item)
	if err != nil {
		return "", err
	}

	if s, ok := rendered.(string); ok {
		return s, nil
	}

	return fmt.Sprintf("%v", rendered), nil
}

// getEnvVars returns environment variables as a map.
func getEnvVars() map[string]any {
	envMap := make(map[string]any)

	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envMap[parts[0]] = parts[1]
		}
	}

	return envMap
}
