package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/opsnode/opsnode/pkg/runner"
	"github.com/opsnode/opsnode/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterDefaultNodes()

	handlers := web.NewAPIHandlers(
		slog.Default(),
		reg,
		runner.NewRunner(slog.Default()),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	nodes := app.Group("/nodes")
	nodes.Get("/", handlers.GetNodes)
	nodes.Get("/:type/schema", handlers.GetNodeSchema)
	nodes.Post("/:type/execute", handlers.ExecuteNode)

	app.Get("/health", handlers.HealthCheck)

	return app
}

func TestAPIHandlers_GetNodes(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nodes/", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var nodes []map[string]any
	require.NoError(t, json.Unmarshal(body, &nodes))
	require.Len(t, nodes, 5)

	types := make([]string, 0, len(nodes))
	for _, node := range nodes {
		types = append(types, node["type"].(string))
	}

	assert.Equal(t, []string{"browser", "mcp", "monitor", "ollama", "terminal"}, types)
}

func TestAPIHandlers_GetNodeSchema(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nodes/terminal/schema", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(body, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Contains(t, schema["properties"], "command")
}

func TestAPIHandlers_GetNodeSchema_Unknown(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/nodes/telegraph/schema", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ExecuteNode(t *testing.T) {
	app := setupTestApp(t)

	payload, err := json.Marshal(web.ExecuteNodeRequest{
		Config: map[string]any{"command": "echo {{.item.name}}"},
		Items:  []models.Item{{"name": "first"}, {"name": "second"}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/nodes/terminal/execute", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result web.ExecuteNodeResponse
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, "terminal", result.NodeType)
	require.Len(t, result.Results, 2, "one result per input item")
	assert.Equal(t, "first", result.Results[0].Data["stdout"])
	assert.Equal(t, "second", result.Results[1].Data["stdout"])
}

func TestAPIHandlers_ExecuteNode_MissingConfig(t *testing.T) {
	app := setupTestApp(t)

	// A body without a config object must be rejected before any node is built.
	req := httptest.NewRequest(http.MethodPost, "/nodes/terminal/execute", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ExecuteNode_TooManyItems(t *testing.T) {
	app := setupTestApp(t)

	payload, err := json.Marshal(web.ExecuteNodeRequest{
		Config: map[string]any{"command": "echo hi"},
		Items:  make([]models.Item, 1001),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/nodes/terminal/execute", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ExecuteNode_InvalidConfig(t *testing.T) {
	app := setupTestApp(t)

	payload := []byte(`{"config": {}}`)

	req := httptest.NewRequest(http.MethodPost, "/nodes/terminal/execute", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ExecuteNode_UnknownType(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/nodes/telegraph/execute", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var health web.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 5, health.Nodes)
}
