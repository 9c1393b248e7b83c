// Package mcp provides the MCP connector node factory for the registry system.
package mcp

import (
	"context"

	"github.com/opsnode/opsnode/pkg/protocol"
)

// MCPNodeFactory creates MCPNode instances.
type MCPNodeFactory struct{}

// NewMCPNodeFactory creates a new MCP connector node factory.
func NewMCPNodeFactory() protocol.NodeFactory {
	return &MCPNodeFactory{}
}

// Create creates a new MCPNode instance.
func (f *MCPNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewMCPNode(id, config)
}

// ID returns the factory ID.
func (f *MCPNodeFactory) ID() string {
	return "mcp"
}

// Name returns the factory name.
func (f *MCPNodeFactory) Name() string {
	return "MCP Connector"
}

// Description returns the factory description.
func (f *MCPNodeFactory) Description() string {
	return "Sends one JSON-RPC message to an MCP server over WebSocket or HTTP and returns the first reply"
}

// Schema returns the JSON schema for MCP connector node configuration.
func (f *MCPNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"endpoint": map[string]any{
				"type":        "string",
				"description": "Server endpoint; ws(s):// for WebSocket transport, http(s):// for HTTP",
				"examples": []string{
					"ws://localhost:3001",
					"https://mcp.internal/rpc",
				},
			},
			"operation": map[string]any{
				"type":        "string",
				"description": "Connector operation",
				"default":     "listTools",
				"enum":        []string{"listTools", "callTool", "ping", "raw"},
			},
			"tool": map[string]any{
				"type":        "string",
				"description": "Tool name for callTool",
			},
			"arguments": map[string]any{
				"type":        "object",
				"description": "Tool arguments for callTool",
			},
			"method": map[string]any{
				"type":        "string",
				"description": "JSON-RPC method for the raw operation",
			},
			"params": map[string]any{
				"description": "JSON-RPC params for the raw operation",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Response timeout in seconds",
				"default":     30,
				"minimum":     1,
				"maximum":     300,
			},
		},
		"required": []string{"endpoint"},
		"examples": []map[string]any{
			{"endpoint": "ws://localhost:3001", "operation": "listTools"},
			{
				"endpoint":  "ws://localhost:3001",
				"operation": "callTool",
				"tool":      "search",
				"arguments": map[string]any{"query": "status"},
			},
		},
	}
}
