// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/google/uuid"
	"github.com/opsnode/opsnode/pkg/models"
)

// CreateTestDefinition creates a test NodeDefinition with default values that
// can be overridden.
func CreateTestDefinition(overrides ...func(*models.NodeDefinition)) *models.NodeDefinition {
	definition := &models.NodeDefinition{
		ID:     uuid.New().String(),
		Type:   "terminal",
		Name:   "Test Node",
		Config: map[string]any{"command": "echo test"},
	}

	for _, override := range overrides {
		override(definition)
	}

	return definition
}

// WithID sets the definition ID.
func WithID(id string) func(*models.NodeDefinition) {
	return func(d *models.NodeDefinition) {
		d.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType string) func(*models.NodeDefinition) {
	return func(d *models.NodeDefinition) {
		d.Type = nodeType
	}
}

// WithName sets the definition name.
func WithName(name string) func(*models.NodeDefinition) {
	return func(d *models.NodeDefinition) {
		d.Name = name
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.NodeDefinition) {
	return func(d *models.NodeDefinition) {
		d.Config = config
	}
}

// CreateTestExecutionContext creates an execution context with generated IDs.
func CreateTestExecutionContext(overrides ...func(*models.ExecutionContext)) models.ExecutionContext {
	ectx := models.ExecutionContext{
		ID:        uuid.New().String(),
		NodeID:    uuid.New().String(),
		Variables: map[string]any{"env": "test"},
	}

	for _, override := range overrides {
		override(&ectx)
	}

	return ectx
}

// WithContinueOnFail enables continue-on-failure for the execution.
func WithContinueOnFail() func(*models.ExecutionContext) {
	return func(e *models.ExecutionContext) {
		e.ContinueOnFail = true
	}
}

// WithVariables sets the invocation variables.
func WithVariables(variables map[string]any) func(*models.ExecutionContext) {
	return func(e *models.ExecutionContext) {
		e.Variables = variables
	}
}

// CreateTestItems builds n items of the shape {"index": i}.
func CreateTestItems(n int) []models.Item {
	items := make([]models.Item, 0, n)
	for i := range n {
		items = append(items, models.Item{"index": i})
	}

	return items
}
