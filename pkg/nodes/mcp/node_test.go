package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{}

// newWSServer upgrades each connection and hands it to the given handler.
func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		handler(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestMCPNode_Execute_ListToolsOverWebSocket(t *testing.T) {
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		_ = conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]any{
				"tools": []map[string]any{{"name": "search"}, {"name": "fetch"}},
			},
		})
	})

	node, err := NewMCPNode("test-mcp", map[string]any{"endpoint": endpoint})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	result, err := node.Execute(context.Background(), ectx, models.Item{})
	require.NoError(t, err)

	assert.Equal(t, string(models.NodeStatusSuccess), result.Status)
	assert.Equal(t, "tools/list", result.Data["method"])

	payload, ok := result.Data["result"].(map[string]any)
	require.True(t, ok, "expected decoded result object")
	assert.Len(t, payload["tools"], 2)
}

func TestMCPNode_Execute_CallToolEnvelope(t *testing.T) {
	var received rpcRequest

	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		if err := conn.ReadJSON(&received); err != nil {
			return
		}

		_ = conn.WriteJSON(map[string]any{"jsonrpc": "2.0", "id": received.ID, "result": "ok"})
	})

	node, err := NewMCPNode("test-mcp", map[string]any{
		"endpoint":  endpoint,
		"operation": "callTool",
		"tool":      "search",
		"arguments": map[string]any{"query": "status"},
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	_, err = node.Execute(context.Background(), ectx, models.Item{})
	require.NoError(t, err)

	assert.Equal(t, "2.0", received.Jsonrpc)
	assert.Equal(t, "tools/call", received.Method)

	params, ok := received.Params.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "search", params["name"])
}

func TestMCPNode_Execute_CloseWithoutReply(t *testing.T) {
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		// Close without answering.
	})

	node, err := NewMCPNode("test-mcp", map[string]any{"endpoint": endpoint})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	_, err = node.Execute(context.Background(), ectx, models.Item{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed unexpectedly")
}

func TestMCPNode_Execute_Timeout(t *testing.T) {
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		time.Sleep(5 * time.Second)
	})

	node, err := NewMCPNode("test-mcp", map[string]any{
		"endpoint": endpoint,
		"timeout":  float64(1),
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	start := time.Now()

	_, err = node.Execute(context.Background(), ectx, models.Item{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second, "timeout must not hang")
}

func TestMCPNode_Execute_ServerErrorObject(t *testing.T) {
	endpoint := newWSServer(t, func(conn *websocket.Conn) {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		_ = conn.WriteJSON(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32601, "message": "method not found"},
		})
	})

	node, err := NewMCPNode("test-mcp", map[string]any{"endpoint": endpoint})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	_, err = node.Execute(context.Background(), ectx, models.Item{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
}

func TestMCPNode_Execute_HTTPTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ping", req.Method)

		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": "pong"})
	}))
	t.Cleanup(server.Close)

	node, err := NewMCPNode("test-mcp", map[string]any{
		"endpoint":  server.URL,
		"operation": "ping",
	})
	require.NoError(t, err)

	ectx := models.ExecutionContext{ID: "test-exec", NodeID: "test-mcp"}

	result, err := node.Execute(context.Background(), ectx, models.Item{})
	require.NoError(t, err)
	assert.Equal(t, "pong", result.Data["result"])
}

func TestNewMCPNode_Validation(t *testing.T) {
	_, err := NewMCPNode("test-mcp", map[string]any{})
	require.Error(t, err, "endpoint is required")

	_, err = NewMCPNode("test-mcp", map[string]any{"endpoint": "ftp://host"})
	require.Error(t, err, "only ws/http schemes are accepted")

	_, err = NewMCPNode("test-mcp", map[string]any{"endpoint": "ws://host", "operation": "callTool"})
	require.Error(t, err, "callTool requires a tool name")

	_, err = NewMCPNode("test-mcp", map[string]any{"endpoint": "ws://host", "operation": "raw"})
	require.Error(t, err, "raw requires a method")
}
