// Package protocol defines the interfaces and contracts for pluggable nodes.
package protocol

import (
	"context"
	"log/slog"

	"github.com/opsnode/opsnode/pkg/models"
)

// Node is a single adapter unit: it wraps one external capability and maps
// parameters to one external operation per item.
type Node interface {
	// ID returns the node instance ID
	ID() string

	// Type returns the node type identifier
	Type() string

	// Execute runs the node against one item and returns its result record
	Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error)

	// Validate validates a raw configuration for this node type
	Validate(config map[string]any) error
}

// NodeFactory creates node instances and provides metadata about the node type.
type NodeFactory interface {
	// Create creates a new node instance with the given configuration
	Create(ctx context.Context, id string, config map[string]any) (Node, error)

	// ID returns the unique identifier for this node type
	ID() string

	// Name returns the human-readable name for this node type
	Name() string

	// Description returns a description of what this node does
	Description() string

	// Schema returns the JSON schema for configuring this node
	Schema() map[string]any
}

// BatchResource is implemented by nodes that hold an external resource across
// all items of one invocation (a browser process, for example). The runner
// closes it when the batch ends, on success or failure.
type BatchResource interface {
	Close(ctx context.Context) error
}

// Dependencies contains the common dependencies handed to nodes at creation.
type Dependencies struct {
	Logger *slog.Logger
}
