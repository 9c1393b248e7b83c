package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Execution paths need a Chrome binary, so these tests cover configuration
// parsing and the operation contract.

func TestNewBrowserNode_Defaults(t *testing.T) {
	node, err := NewBrowserNode("test-browser", map[string]any{
		"operation": "getText",
	})
	require.NoError(t, err)

	assert.Equal(t, "getText", node.config.Operation)
	assert.Equal(t, "body", node.config.Selector)
	assert.Equal(t, 30, node.config.Timeout)
	assert.True(t, node.config.Headless)
}

func TestNewBrowserNode_OperationRequirements(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		wantErr bool
	}{
		{
			name:    "navigate requires url",
			config:  map[string]any{"operation": "navigate"},
			wantErr: true,
		},
		{
			name:   "navigate with url",
			config: map[string]any{"operation": "navigate", "url": "https://example.com"},
		},
		{
			name:    "click requires explicit selector",
			config:  map[string]any{"operation": "click"},
			wantErr: true,
		},
		{
			name:   "click with selector",
			config: map[string]any{"operation": "click", "selector": "#submit"},
		},
		{
			name:    "fill requires explicit selector",
			config:  map[string]any{"operation": "fill", "value": "x"},
			wantErr: true,
		},
		{
			name:    "evaluate requires script",
			config:  map[string]any{"operation": "evaluate"},
			wantErr: true,
		},
		{
			name:   "evaluate with script",
			config: map[string]any{"operation": "evaluate", "script": "document.title"},
		},
		{
			name:    "unknown operation",
			config:  map[string]any{"operation": "hover"},
			wantErr: true,
		},
		{
			name:   "screenshot without url reuses current page",
			config: map[string]any{"operation": "screenshot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBrowserNode("test-browser", tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBrowserNode_CloseWithoutSession(t *testing.T) {
	node, err := NewBrowserNode("test-browser", map[string]any{
		"operation": "getText",
	})
	require.NoError(t, err)

	// Close before any Execute must be a no-op.
	require.NoError(t, node.Close(context.Background()))
}

func TestBrowserNode_Validate(t *testing.T) {
	node := &BrowserNode{}

	require.NoError(t, node.Validate(map[string]any{"operation": "navigate", "url": "https://example.com"}))
	require.Error(t, node.Validate(map[string]any{"operation": "navigate"}))
}
