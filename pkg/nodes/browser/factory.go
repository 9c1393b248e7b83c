// Package browser provides the browser node factory for the registry system.
package browser

import (
	"context"

	"github.com/opsnode/opsnode/pkg/protocol"
)

// BrowserNodeFactory creates BrowserNode instances.
type BrowserNodeFactory struct{}

// NewBrowserNodeFactory creates a new browser node factory.
func NewBrowserNodeFactory() protocol.NodeFactory {
	return &BrowserNodeFactory{}
}

// Create creates a new BrowserNode instance.
func (f *BrowserNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewBrowserNode(id, config)
}

// ID returns the factory ID.
func (f *BrowserNodeFactory) ID() string {
	return "browser"
}

// Name returns the factory name.
func (f *BrowserNodeFactory) Name() string {
	return "Browser"
}

// Description returns the factory description.
func (f *BrowserNodeFactory) Description() string {
	return "Automates a headless browser page: navigate, screenshot, read text, click, fill, wait and run scripts"
}

// Schema returns the JSON schema for browser node configuration.
func (f *BrowserNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Page operation to perform",
				"default":     "navigate",
				"enum":        []string{"navigate", "screenshot", "getText", "click", "fill", "wait", "evaluate"},
			},
			"url": map[string]any{
				"type":        "string",
				"description": "Page URL for navigate/screenshot. Supports templating with {{.item.field}}",
				"examples":    []string{"https://example.com", "{{.item.url}}"},
			},
			"selector": map[string]any{
				"type":        "string",
				"description": "CSS selector for getText/click/fill/wait",
				"default":     "body",
			},
			"value": map[string]any{
				"type":        "string",
				"description": "Value for the fill operation. Supports templating",
			},
			"script": map[string]any{
				"type":        "string",
				"description": "JavaScript expression for the evaluate operation",
				"examples":    []string{"document.title", "document.querySelectorAll('a').length"},
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Per-operation timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     300,
			},
			"headless": map[string]any{
				"type":        "boolean",
				"description": "Run the browser headless",
				"default":     true,
			},
			"fullPage": map[string]any{
				"type":        "boolean",
				"description": "Capture the full page instead of the viewport (screenshot)",
				"default":     false,
			},
		},
		"examples": []map[string]any{
			{"operation": "navigate", "url": "https://example.com"},
			{"operation": "fill", "selector": "#search", "value": "{{.item.query}}"},
			{"operation": "evaluate", "script": "document.title"},
		},
	}
}
