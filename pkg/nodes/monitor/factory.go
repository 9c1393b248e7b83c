// Package monitor provides the monitor node factory for the registry system.
package monitor

import (
	"context"

	"github.com/opsnode/opsnode/pkg/protocol"
)

// MonitorNodeFactory creates MonitorNode instances.
type MonitorNodeFactory struct{}

// NewMonitorNodeFactory creates a new monitor node factory.
func NewMonitorNodeFactory() protocol.NodeFactory {
	return &MonitorNodeFactory{}
}

// Create creates a new MonitorNode instance.
func (f *MonitorNodeFactory) Create(ctx context.Context, id string, config map[string]any) (protocol.Node, error) {
	return NewMonitorNode(id, config)
}

// ID returns the factory ID.
func (f *MonitorNodeFactory) ID() string {
	return "monitor"
}

// Name returns the factory name.
func (f *MonitorNodeFactory) Name() string {
	return "Monitor"
}

// Description returns the factory description.
func (f *MonitorNodeFactory) Description() string {
	return "Samples CPU/memory/disk usage, probes service URLs, scans local ports and lists processes"
}

// Schema returns the JSON schema for monitor node configuration.
func (f *MonitorNodeFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"description": "Health check to perform",
				"default":     "resources",
				"enum":        []string{"resources", "probe", "ports", "processes"},
			},
			"url": map[string]any{
				"type":        "string",
				"description": "Service URL to probe; http(s) or ws(s). Supports templating",
				"examples":    []string{"http://localhost:8080/health", "ws://localhost:3001"},
			},
			"host": map[string]any{
				"type":        "string",
				"description": "Host for the port scan",
				"default":     "127.0.0.1",
			},
			"ports": map[string]any{
				"type":        "array",
				"description": "TCP ports to scan; defaults to a well-known set",
				"items":       map[string]any{"type": "number"},
			},
			"pattern": map[string]any{
				"type":        "string",
				"description": "Case-insensitive filter on the process command column",
				"examples":    []string{"nginx", "postgres"},
			},
			"path": map[string]any{
				"type":        "string",
				"description": "Mount point for the disk usage sample",
				"default":     "/",
			},
			"timeout": map[string]any{
				"type":        "number",
				"description": "Probe/listing timeout in seconds",
				"default":     10,
				"minimum":     1,
				"maximum":     300,
			},
		},
		"examples": []map[string]any{
			{"operation": "resources"},
			{"operation": "probe", "url": "http://localhost:8080/health"},
			{"operation": "processes", "pattern": "nginx"},
		},
	}
}
