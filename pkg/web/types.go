// Package web provides HTTP request and response types for the node API.
package web

import "github.com/opsnode/opsnode/pkg/models"

// ExecuteNodeRequest represents the request body for executing a node over a
// batch of items.
type ExecuteNodeRequest struct {
	ID             string         `json:"id"                  validate:"omitempty,max=128"`
	Config         map[string]any `json:"config"              validate:"required"`
	Items          []models.Item  `json:"items"               validate:"max=1000"`
	Variables      map[string]any `json:"variables,omitempty"`
	ContinueOnFail bool           `json:"continue_on_fail"`
}

// ExecuteNodeResponse represents the outcome of a batch execution: exactly
// one result per input item.
type ExecuteNodeResponse struct {
	ExecutionID string              `json:"execution_id"`
	NodeID      string              `json:"node_id"`
	NodeType    string              `json:"node_type"`
	Results     []models.NodeResult `json:"results"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
	Nodes  int    `json:"nodes"`
}
