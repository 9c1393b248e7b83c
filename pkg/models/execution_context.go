package models

// ExecutionContext carries the host-provided state for one node invocation
// over a batch of items.
type ExecutionContext struct {
	ID             string         `json:"id"`
	NodeID         string         `json:"node_id"`
	Variables      map[string]any `json:"variables,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ContinueOnFail bool           `json:"continue_on_fail"`
}
