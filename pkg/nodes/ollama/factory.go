// Package ollama provides the ollama node factory for the registry system.
package ollama

import (
	"context"

	"github.com/opsnode/opsnode/pkg/protocol"
)

// OllamaNodeFactory creates OllamaNode instances.
type OllamaNodeFactory struct{}

// NewOllamaNodeFactory creates a new ollama node factory.
func NewOllamaNodeFactory() protocol.NodeFactory {
	return &OllamaNodeFactory{}
}

// Create creates a new OllamaNode instance.
func (f *OllamaNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewOllamaNode(id, config)
}

// ID returns the factory ID.
func (f *OllamaNodeFactory) ID() string {
	return "ollama"
}

// Name returns the factory name.
func (f *OllamaNodeFactory) Name() string {
	return "Ollama"
}

// Description returns the factory description.
func (f *OllamaNodeFactory) Description() string {
	return "Forwards generate/chat/model-list requests to a local Ollama server"
}

// Schema returns the JSON schema for ollama node configuration.
func (f *OllamaNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"baseUrl": map[string]any{
				"type":        "string",
				"description": "Base URL of the Ollama server",
				"default":     "http://127.0.0.1:11434",
			},
			"operation": map[string]any{
				"type":        "string",
				"description": "API operation to perform",
				"default":     "generate",
				"enum":        []string{"generate", "chat", "models"},
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model name, e.g. llama3.2 or mistral",
				"examples":    []string{"llama3.2", "mistral", "codellama:13b"},
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt text. Supports templating with {{.item.field}}",
				"examples": []string{
					"Summarize: {{.item.text}}",
					"Classify the following log line: {{.item.line}}",
				},
			},
			"system": map[string]any{
				"type":        "string",
				"description": "Optional system prompt",
			},
			"messages": map[string]any{
				"type":        "array",
				"description": "Chat history sent instead of a single user prompt (chat operation)",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"role": map[string]any{
							"type": "string",
							"enum": []string{"system", "user", "assistant"},
						},
						"content": map[string]any{
							"type":        "string",
							"description": "Message text. Supports templating with {{.item.field}}",
						},
					},
					"required": []string{"role", "content"},
				},
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature",
				"default":     0.7,
				"minimum":     0,
				"maximum":     2,
			},
			"maxTokens": map[string]any{
				"type":        "number",
				"description": "Maximum number of tokens to generate (num_predict)",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Request timeout in seconds",
				"default":     120,
				"minimum":     1,
				"maximum":     600,
			},
		},
		"examples": []map[string]any{
			{"operation": "models"},
			{
				"operation":   "chat",
				"model":       "llama3.2",
				"prompt":      "Summarize: {{.item.text}}",
				"temperature": 0.2,
			},
		},
	}
}
