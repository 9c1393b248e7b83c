package template_test

import (
	"testing"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/template"
	"github.com/opsnode/opsnode/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderWithItem_ItemFields(t *testing.T) {
	ectx := &models.ExecutionContext{ID: "exec-1", NodeID: "node-1"}
	item := models.Item{"name": "web-01", "port": 443}

	result, err := template.RenderWithItem("{{.item.name}}:{{.item.port}}", ectx, item)
	require.NoError(t, err)
	assert.Equal(t, "web-01:443", result)
}

func TestRenderWithItem_Variables(t *testing.T) {
	ectx := testutil.CreateTestExecutionContext(
		testutil.WithVariables(map[string]any{"region": "eu-west-1"}),
	)

	result, err := template.RenderWithItem("{{.variables.region}}", &ectx, models.Item{})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", result)

	// .vars is an alias for .variables
	result, err = template.RenderWithItem("{{.vars.region}}", &ectx, models.Item{})
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", result)
}

func TestRenderWithItem_ExecutionMetadata(t *testing.T) {
	ectx := &models.ExecutionContext{ID: "exec-1", NodeID: "node-1"}

	result, err := template.RenderWithItem("{{.execution.id}}/{{.execution.node_id}}", ectx, models.Item{})
	require.NoError(t, err)
	assert.Equal(t, "exec-1/node-1", result)
}

func TestRender_FastPathWithoutDelimiters(t *testing.T) {
	result, err := template.Render("plain string, no templating", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain string, no templating", result)
}

func TestRender_CoercesNumbers(t *testing.T) {
	result, err := template.Render("{{.count}}", map[string]any{"count": 42})
	require.NoError(t, err)
	assert.Equal(t, float64(42), result)
}

func TestRender_CoercesBooleans(t *testing.T) {
	result, err := template.Render("{{.enabled}}", map[string]any{"enabled": true})
	require.NoError(t, err)
	assert.Equal(t, true, result)
}

func TestRender_CoercesJSON(t *testing.T) {
	result, err := template.Render(`{"a": {{.n}}}`, map[string]any{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, result)
}

func TestRender_ParseError(t *testing.T) {
	_, err := template.Render("{{.unclosed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}

func TestRenderString_CoercesBackToString(t *testing.T) {
	ectx := &models.ExecutionContext{}

	result, err := template.RenderString("{{.item.port}}", ectx, models.Item{"port": 8080})
	require.NoError(t, err)
	assert.Equal(t, "8080", result)
}
