// Package registry provides node factory registration and creation.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

type Registry struct {
	logger        *slog.Logger
	nodeFactories map[string]protocol.NodeFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:        logger,
		nodeFactories: make(map[string]protocol.NodeFactory),
	}
}

func (r *Registry) RegisterNode(factory protocol.NodeFactory) {
	r.nodeFactories[factory.ID()] = factory
}

// CreateNode validates the configuration against the factory schema and
// builds a node instance.
func (r *Registry) CreateNode(ctx context.Context, nodeType, id string, config map[string]any) (protocol.Node, error) {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return nil, fmt.Errorf("node type '%s' not registered", nodeType)
	}

	if err := r.ValidateConfig(nodeType, config); err != nil {
		return nil, err
	}

	return factory.Create(ctx, id, config)
}

// ValidateConfig checks a raw configuration against the node type's JSON schema.
func (r *Registry) ValidateConfig(nodeType string, config map[string]any) error {
	factory, ok := r.nodeFactories[nodeType]
	if !ok {
		return fmt.Errorf("node type '%s' not registered", nodeType)
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(factory.Schema()),
		gojsonschema.NewGoLoader(config),
	)
	if err != nil {
		return fmt.Errorf("failed to validate config for '%s': %w", nodeType, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			details = append(details, resultErr.String())
		}

		return fmt.Errorf("invalid config for '%s': %s", nodeType, strings.Join(details, "; "))
	}

	return nil
}

// GetNodeFactory retrieves a registered factory by node type.
func (r *Registry) GetNodeFactory(nodeType string) (protocol.NodeFactory, bool) {
	factory, ok := r.nodeFactories[nodeType]

	return factory, ok
}

// AvailableNodes returns catalog entries for every registered node type,
// sorted by type for stable output.
func (r *Registry) AvailableNodes() []models.RegisteredNode {
	nodes := make([]models.RegisteredNode, 0, len(r.nodeFactories))
	for _, factory := range r.nodeFactories {
		nodes = append(nodes, models.RegisteredNode{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Type < nodes[j].Type })

	return nodes
}
