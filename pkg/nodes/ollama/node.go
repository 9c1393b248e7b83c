// Package ollama provides a node forwarding requests to a local Ollama REST API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/template"
)

const (
	OperationGenerate = "generate"
	OperationChat     = "chat"
	OperationModels   = "models"

	defaultBaseURL = "http://127.0.0.1:11434"
	defaultTimeout = 120

	errorBodySnippetLen = 240
)

// OllamaNode implements the Node interface for local LLM completions.
type OllamaNode struct {
	id     string
	config OllamaConfig
	client *http.Client
}

// OllamaConfig defines the configuration for ollama nodes.
type OllamaConfig struct {
	BaseURL     string              `json:"baseUrl"`
	Operation   string              `json:"operation"`
	Model       string              `json:"model"`
	Prompt      string              `json:"prompt,omitempty"`
	System      string              `json:"system,omitempty"`
	Messages    []map[string]string `json:"messages,omitempty"`
	Temperature float64             `json:"temperature"`
	MaxTokens   int                 `json:"maxTokens"`
	Timeout     int                 `json:"timeout"`
}

// NewOllamaNode creates a new ollama node.
func NewOllamaNode(id string, config map[string]any) (*OllamaNode, error) {
	ollamaConfig := OllamaConfig{
		BaseURL:     defaultBaseURL,
		Operation:   OperationGenerate,
		Temperature: 0.7,
		Timeout:     defaultTimeout,
	}

	if baseURL, ok := config["baseUrl"].(string); ok && baseURL != "" {
		ollamaConfig.BaseURL = strings.TrimRight(baseURL, "/")
	}

	if operation, ok := config["operation"].(string); ok {
		ollamaConfig.Operation = operation
	}

	if model, ok := config["model"].(string); ok {
		ollamaConfig.Model = model
	}

	if prompt, ok := config["prompt"].(string); ok {
		ollamaConfig.Prompt = prompt
	}

	if system, ok := config["system"].(string); ok {
		ollamaConfig.System = system
	}

	if rawMessages, ok := config["messages"].([]any); ok {
		messages, err := parseMessages(rawMessages)
		if err != nil {
			return nil, err
		}

		ollamaConfig.Messages = messages
	}

	if temperature, ok := config["temperature"].(float64); ok {
		ollamaConfig.Temperature = temperature
	}

	if maxTokens, ok := config["maxTokens"].(float64); ok {
		ollamaConfig.MaxTokens = int(maxTokens)
	}

	if timeout, ok := config["timeout"].(float64); ok {
		ollamaConfig.Timeout = int(timeout)
	}

	switch ollamaConfig.Operation {
	case OperationGenerate:
		if ollamaConfig.Model == "" {
			return nil, errors.New("missing required field 'model'")
		}

		if ollamaConfig.Prompt == "" {
			return nil, errors.New("missing required field 'prompt'")
		}
	case OperationChat:
		if ollamaConfig.Model == "" {
			return nil, errors.New("missing required field 'model'")
		}

		if ollamaConfig.Prompt == "" && len(ollamaConfig.Messages) == 0 {
			return nil, errors.New("chat requires 'prompt' or 'messages'")
		}
	case OperationModels:
	default:
		return nil, fmt.Errorf("invalid operation: %s", ollamaConfig.Operation)
	}

	return &OllamaNode{
		id:     id,
		config: ollamaConfig,
		client: &http.Client{Timeout: time.Duration(ollamaConfig.Timeout) * time.Second},
	}, nil
}

// ID returns the node ID.
func (n *OllamaNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *OllamaNode) Type() string {
	return "ollama"
}

// Execute forwards one request to the Ollama server.
func (n *OllamaNode) Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	var (
		data map[string]any
		err  error
	)

	switch n.config.Operation {
	case OperationChat:
		data, err = n.chat(ctx, ectx, item)
	case OperationModels:
		data, err = n.listModels(ctx)
	default:
		data, err = n.generate(ctx, ectx, item)
	}

	if err != nil {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		NodeID:    n.id,
		Data:      data,
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	}, nil
}

func (n *OllamaNode) generate(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	prompt, err := template.RenderString(n.config.Prompt, &ectx, item)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt template: %w", err)
	}

	payload := map[string]any{
		"model":   n.config.Model,
		"prompt":  prompt,
		"stream":  false,
		"options": n.options(),
	}

	if n.config.System != "" {
		payload["system"] = n.config.System
	}

	var resp struct {
		Model           string `json:"model"`
		Response        string `json:"response"`
		Done            bool   `json:"done"`
		TotalDuration   int64  `json:"total_duration"`
		EvalCount       int    `json:"eval_count"`
		PromptEvalCount int    `json:"prompt_eval_count"`
	}

	if err := n.post(ctx, "/api/generate", payload, &resp); err != nil {
		return nil, err
	}

	return map[string]any{
		"response":        resp.Response,
		"model":           resp.Model,
		"done":            resp.Done,
		"totalDurationMs": resp.TotalDuration / int64(time.Millisecond),
		"evalCount":       resp.EvalCount,
		"promptEvalCount": resp.PromptEvalCount,
	}, nil
}

func (n *OllamaNode) chat(ctx context.Context, ectx models.ExecutionContext, item models.Item) (map[string]any, error) {
	messages := make([]map[string]string, 0, len(n.config.Messages)+2)
	if n.config.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": n.config.System})
	}

	if len(n.config.Messages) > 0 {
		for _, message := range n.config.Messages {
			content, err := template.RenderString(message["content"], &ectx, item)
			if err != nil {
				return nil, fmt.Errorf("failed to render message template: %w", err)
			}

			messages = append(messages, map[string]string{"role": message["role"], "content": content})
		}
	} else {
		prompt, err := template.RenderString(n.config.Prompt, &ectx, item)
		if err != nil {
			return nil, fmt.Errorf("failed to render prompt template: %w", err)
		}

		messages = append(messages, map[string]string{"role": "user", "content": prompt})
	}

	payload := map[string]any{
		"model":    n.config.Model,
		"messages": messages,
		"stream":   false,
		"options":  n.options(),
	}

	var resp struct {
		Model   string `json:"model"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		Done          bool  `json:"done"`
		TotalDuration int64 `json:"total_duration"`
	}

	if err := n.post(ctx, "/api/chat", payload, &resp); err != nil {
		return nil, err
	}

	return map[string]any{
		"response":        resp.Message.Content,
		"role":            resp.Message.Role,
		"model":           resp.Model,
		"done":            resp.Done,
		"totalDurationMs": resp.TotalDuration / int64(time.Millisecond),
	}, nil
}

func (n *OllamaNode) listModels(ctx context.Context) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp struct {
		Models []struct {
			Name       string `json:"name"`
			Size       int64  `json:"size"`
			ModifiedAt string `json:"modified_at"`
		} `json:"models"`
	}

	if err := n.do(req, &resp); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(resp.Models))
	modelList := make([]map[string]any, 0, len(resp.Models))

	for _, m := range resp.Models {
		names = append(names, m.Name)
		modelList = append(modelList, map[string]any{
			"name":       m.Name,
			"size":       m.Size,
			"modifiedAt": m.ModifiedAt,
		})
	}

	return map[string]any{
		"names":  names,
		"models": modelList,
		"count":  len(names),
	}, nil
}

func (n *OllamaNode) options() map[string]any {
	options := map[string]any{"temperature": n.config.Temperature}
	if n.config.MaxTokens > 0 {
		options["num_predict"] = n.config.MaxTokens
	}

	return options
}

func (n *OllamaNode) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return n.do(req, out)
}

func (n *OllamaNode) do(req *http.Request, out any) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read ollama response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		snippet := string(payload)
		if len(snippet) > errorBodySnippetLen {
			snippet = snippet[:errorBodySnippetLen]
		}

		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, snippet)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("ollama returned non-json payload: %w", err)
	}

	return nil
}

// parseMessages converts a raw messages array into role/content pairs.
func parseMessages(raw []any) ([]map[string]string, error) {
	messages := make([]map[string]string, 0, len(raw))

	for i, entry := range raw {
		fields, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("messages[%d] must be an object", i)
		}

		role, _ := fields["role"].(string)
		content, _ := fields["content"].(string)

		if role == "" || content == "" {
			return nil, fmt.Errorf("messages[%d] requires string 'role' and 'content'", i)
		}

		messages = append(messages, map[string]string{"role": role, "content": content})
	}

	return messages, nil
}

// Validate validates the node configuration.
func (n *OllamaNode) Validate(config map[string]any) error {
	_, err := NewOllamaNode("validate", config)

	return err
}
