// Package registry provides node factory registration for the built-in nodes.
package registry

import (
	"github.com/opsnode/opsnode/pkg/nodes/browser"
	"github.com/opsnode/opsnode/pkg/nodes/mcp"
	"github.com/opsnode/opsnode/pkg/nodes/monitor"
	"github.com/opsnode/opsnode/pkg/nodes/ollama"
	"github.com/opsnode/opsnode/pkg/nodes/terminal"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	// Register Terminal node (local shell + SSH)
	r.RegisterNode(terminal.NewTerminalNodeFactory())

	// Register Ollama node
	r.RegisterNode(ollama.NewOllamaNodeFactory())

	// Register MCP connector node
	r.RegisterNode(mcp.NewMCPNodeFactory())

	// Register Browser node
	r.RegisterNode(browser.NewBrowserNodeFactory())

	// Register Monitor node
	r.RegisterNode(monitor.NewMonitorNodeFactory())
}
