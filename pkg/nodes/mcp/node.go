// Package mcp provides a connector node speaking a JSON-RPC 2.0 shaped
// envelope to an MCP server over WebSocket or HTTP. One message out, first
// reply back, connection closed.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opsnode/opsnode/pkg/await"
	"github.com/opsnode/opsnode/pkg/models"
)

const (
	OperationListTools = "listTools"
	OperationCallTool  = "callTool"
	OperationPing      = "ping"
	OperationRaw       = "raw"

	defaultTimeout = 30
)

// rpcRequest is the JSON-RPC 2.0 shaped envelope sent to the server.
type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// MCPNode implements the Node interface for the MCP connector.
type MCPNode struct {
	id     string
	config MCPConfig
}

// MCPConfig defines the configuration for MCP connector nodes.
type MCPConfig struct {
	Endpoint  string         `json:"endpoint"`
	Operation string         `json:"operation"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Method    string         `json:"method,omitempty"`
	Params    any            `json:"params,omitempty"`
	Timeout   int            `json:"timeout"`
}

// NewMCPNode creates a new MCP connector node.
func NewMCPNode(id string, config map[string]any) (*MCPNode, error) {
	mcpConfig := MCPConfig{
		Operation: OperationListTools,
		Timeout:   defaultTimeout,
	}

	endpoint, ok := config["endpoint"].(string)
	if !ok || endpoint == "" {
		return nil, errors.New("missing required field 'endpoint'")
	}

	if !isWebSocketEndpoint(endpoint) && !isHTTPEndpoint(endpoint) {
		return nil, fmt.Errorf("endpoint must use ws, wss, http or https scheme: %s", endpoint)
	}

	mcpConfig.Endpoint = endpoint

	if operation, ok := config["operation"].(string); ok {
		mcpConfig.Operation = operation
	}

	if tool, ok := config["tool"].(string); ok {
		mcpConfig.Tool = tool
	}

	if arguments, ok := config["arguments"].(map[string]any); ok {
		mcpConfig.Arguments = arguments
	}

	if method, ok := config["method"].(string); ok {
		mcpConfig.Method = method
	}

	if params, ok := config["params"]; ok {
		mcpConfig.Params = params
	}

	if timeout, ok := config["timeout"].(float64); ok {
		mcpConfig.Timeout = int(timeout)
	}

	switch mcpConfig.Operation {
	case OperationListTools, OperationPing:
	case OperationCallTool:
		if mcpConfig.Tool == "" {
			return nil, errors.New("callTool operation requires field 'tool'")
		}
	case OperationRaw:
		if mcpConfig.Method == "" {
			return nil, errors.New("raw operation requires field 'method'")
		}
	default:
		return nil, fmt.Errorf("invalid operation: %s", mcpConfig.Operation)
	}

	return &MCPNode{id: id, config: mcpConfig}, nil
}

// ID returns the node ID.
func (n *MCPNode) ID() string {
	return n.id
}

// Type returns the node type.
func (n *MCPNode) Type() string {
	return "mcp"
}

// Execute sends one envelope and returns the first reply.
func (n *MCPNode) Execute(ctx context.Context, ectx models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	request := n.buildRequest()

	var (
		response rpcResponse
		err      error
	)

	if isWebSocketEndpoint(n.config.Endpoint) {
		response, err = n.callWebSocket(ctx, request)
	} else {
		response, err = n.callHTTP(ctx, request)
	}

	if err != nil {
		return models.NodeResult{}, err
	}

	if response.Error != nil {
		return models.NodeResult{}, fmt.Errorf("mcp server returned error %d: %s", response.Error.Code, response.Error.Message)
	}

	var result any
	if len(response.Result) > 0 {
		if err := json.Unmarshal(response.Result, &result); err != nil {
			result = string(response.Result)
		}
	}

	return models.NodeResult{
		NodeID: n.id,
		Data: map[string]any{
			"method": request.Method,
			"id":     request.ID,
			"result": result,
		},
		Status:    string(models.NodeStatusSuccess),
		Timestamp: time.Now().UTC(),
	}, nil
}

func (n *MCPNode) buildRequest() rpcRequest {
	request := rpcRequest{
		Jsonrpc: "2.0",
		ID:      uint64(time.Now().UnixNano()),
	}

	switch n.config.Operation {
	case OperationCallTool:
		request.Method = "tools/call"
		request.Params = map[string]any{
			"name":      n.config.Tool,
			"arguments": n.config.Arguments,
		}
	case OperationPing:
		request.Method = "ping"
	case OperationRaw:
		request.Method = n.config.Method
		request.Params = n.config.Params
	default:
		request.Method = "tools/list"
	}

	return request
}

// callWebSocket dials the endpoint, writes the envelope and waits for exactly
// one reply under the timeout race. A close before any reply is an error.
func (n *MCPNode) callWebSocket(ctx context.Context, request rpcRequest) (rpcResponse, error) {
	timeout := time.Duration(n.config.Timeout) * time.Second

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, n.config.Endpoint, nil)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("websocket connection to %s failed: %w", n.config.Endpoint, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.WriteJSON(request); err != nil {
		return rpcResponse{}, fmt.Errorf("failed to send message: %w", err)
	}

	response, err := await.Do(ctx, timeout, func(ctx context.Context) (rpcResponse, error) {
		// Losing the race closes the connection, which unblocks ReadMessage.
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) ||
				websocket.IsUnexpectedCloseError(err) || errors.Is(err, io.ErrUnexpectedEOF) {
				return rpcResponse{}, errors.New("connection closed unexpectedly before a response was received")
			}

			return rpcResponse{}, fmt.Errorf("failed to read response: %w", err)
		}

		var response rpcResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			return rpcResponse{}, fmt.Errorf("failed to decode response: %w", err)
		}

		return response, nil
	})
	if err != nil {
		if errors.Is(err, await.ErrTimeout) {
			return rpcResponse{}, fmt.Errorf("no response from %s within %ds", n.config.Endpoint, n.config.Timeout)
		}

		return rpcResponse{}, err
	}

	return response, nil
}

// callHTTP posts the envelope and decodes the response body as the reply.
func (n *MCPNode) callHTTP(ctx context.Context, request rpcRequest) (rpcResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(n.config.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, n.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return rpcResponse{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("http request to %s failed: %w", n.config.Endpoint, err)
	}

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return rpcResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return rpcResponse{}, fmt.Errorf("mcp endpoint returned status %d", resp.StatusCode)
	}

	var response rpcResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return rpcResponse{}, fmt.Errorf("failed to decode response: %w", err)
	}

	return response, nil
}

// Validate validates the node configuration.
func (n *MCPNode) Validate(config map[string]any) error {
	endpoint, ok := config["endpoint"].(string)
	if !ok || endpoint == "" {
		return errors.New("missing required field 'endpoint'")
	}

	if !isWebSocketEndpoint(endpoint) && !isHTTPEndpoint(endpoint) {
		return fmt.Errorf("endpoint must use ws, wss, http or https scheme: %s", endpoint)
	}

	if operation, ok := config["operation"].(string); ok {
		switch operation {
		case OperationListTools, OperationCallTool, OperationPing, OperationRaw:
		default:
			return fmt.Errorf("invalid operation: %s", operation)
		}
	}

	return nil
}

func isWebSocketEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "ws://") || strings.HasPrefix(endpoint, "wss://")
}

func isHTTPEndpoint(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}
