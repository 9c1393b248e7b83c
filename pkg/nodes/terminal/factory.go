// Package terminal provides the terminal node factory for the registry system.
package terminal

import (
	"context"

	"github.com/opsnode/opsnode/pkg/protocol"
)

// TerminalNodeFactory creates TerminalNode instances.
type TerminalNodeFactory struct{}

// NewTerminalNodeFactory creates a new terminal node factory.
func NewTerminalNodeFactory() protocol.NodeFactory {
	return &TerminalNodeFactory{}
}

// Create creates a new TerminalNode instance.
func (f *TerminalNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewTerminalNode(id, config)
}

// ID returns the factory ID.
func (f *TerminalNodeFactory) ID() string {
	return "terminal"
}

// Name returns the factory name.
func (f *TerminalNodeFactory) Name() string {
	return "Terminal"
}

// Description returns the factory description.
func (f *TerminalNodeFactory) Description() string {
	return "Runs a shell command locally or over SSH and captures exit code, stdout and stderr"
}

// Schema returns the JSON schema for terminal node configuration.
func (f *TerminalNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"mode": map[string]any{
				"type":        "string",
				"description": "Where to run the command",
				"default":     "local",
				"enum":        []string{"local", "ssh"},
			},
			"command": map[string]any{
				"type":        "string",
				"description": "Shell command to run. Supports templating with {{.item.field}}",
				"examples": []string{
					"uptime",
					"df -h {{.item.mount}}",
					"systemctl status {{.variables.service}}",
				},
			},
			"cwd": map[string]any{
				"type":        "string",
				"description": "Working directory for local commands",
			},
			"shell": map[string]any{
				"type":        "string",
				"description": "Shell used to interpret the command",
				"default":     "/bin/sh",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Command timeout in seconds",
				"default":     60,
				"minimum":     1,
				"maximum":     3600,
			},
			"host": map[string]any{
				"type":        "string",
				"description": "SSH host (ssh mode)",
			},
			"port": map[string]any{
				"type":        "number",
				"description": "SSH port (ssh mode)",
				"default":     22,
			},
			"username": map[string]any{
				"type":        "string",
				"description": "SSH username (ssh mode)",
			},
			"password": map[string]any{
				"type":        "string",
				"description": "SSH password (ssh mode); alternative to privateKey",
			},
			"privateKey": map[string]any{
				"type":        "string",
				"description": "PEM-encoded SSH private key (ssh mode)",
			},
			"passphrase": map[string]any{
				"type":        "string",
				"description": "Passphrase for an encrypted private key",
			},
		},
		"required": []string{"command"},
		"examples": []map[string]any{
			{"command": "uptime"},
			{
				"mode":     "ssh",
				"command":  "journalctl -u nginx --since today | tail -n 50",
				"host":     "web-1.internal",
				"username": "deploy",
				"password": "{{.variables.ssh_password}}",
				"timeout":  30,
			},
		},
	}
}
