package runner_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/runner"
	"github.com/opsnode/opsnode/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubNode fails on the item indexes listed in failOn and records every item
// it was handed. When mutate is set it writes into each item it receives.
type stubNode struct {
	id     string
	failOn map[int]error
	mutate bool
	seen   []models.Item
	closed int
}

func (n *stubNode) ID() string   { return n.id }
func (n *stubNode) Type() string { return "stub" }

func (n *stubNode) Execute(_ context.Context, _ models.ExecutionContext, item models.Item) (models.NodeResult, error) {
	index := len(n.seen)
	n.seen = append(n.seen, item)

	if n.mutate {
		item["tainted"] = true
	}

	if err, ok := n.failOn[index]; ok {
		return models.NodeResult{}, err
	}

	return models.NodeResult{
		Data:   map[string]any{"index": index, "success": true},
		Status: string(models.NodeStatusSuccess),
	}, nil
}

func (n *stubNode) Validate(map[string]any) error { return nil }

func (n *stubNode) Close(context.Context) error {
	n.closed++

	return nil
}

func TestRunner_Execute_OneResultPerItem(t *testing.T) {
	node := &stubNode{id: "stub-1"}
	items := testutil.CreateTestItems(3)

	results, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, items)
	require.NoError(t, err)

	require.Len(t, results, 3)

	for i, result := range results {
		assert.Equal(t, "stub-1", result.NodeID)
		assert.Equal(t, i, result.Data["index"])
		assert.False(t, result.Timestamp.IsZero())
	}
}

func TestRunner_Execute_FailureAbortsBatch(t *testing.T) {
	node := &stubNode{
		id:     "stub-1",
		failOn: map[int]error{1: errors.New("boom")},
	}
	items := []models.Item{{}, {}, {}}

	results, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")
	assert.Contains(t, err.Error(), "boom")

	// Only the item before the failure produced a result, and the third item
	// was never attempted.
	assert.Len(t, results, 1)
	assert.Len(t, node.seen, 2)
}

func TestRunner_Execute_ContinueOnFail(t *testing.T) {
	node := &stubNode{
		id:     "stub-1",
		failOn: map[int]error{1: errors.New("boom")},
	}
	items := testutil.CreateTestItems(3)
	ectx := testutil.CreateTestExecutionContext(testutil.WithContinueOnFail())

	results, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, ectx, items)
	require.NoError(t, err)

	require.Len(t, results, 3, "every item yields a result, failed or not")
	assert.Len(t, node.seen, 3)

	failed := results[1]
	assert.Equal(t, string(models.NodeStatusError), failed.Status)
	assert.Equal(t, "boom", failed.Error)
	assert.Equal(t, "boom", failed.Data["error"])
	assert.Equal(t, false, failed.Data["success"])

	assert.Equal(t, string(models.NodeStatusSuccess), results[0].Status)
	assert.Equal(t, string(models.NodeStatusSuccess), results[2].Status)
}

func TestRunner_Execute_ClosesBatchResource(t *testing.T) {
	node := &stubNode{id: "stub-1"}

	_, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, []models.Item{{}})
	require.NoError(t, err)
	assert.Equal(t, 1, node.closed)
}

func TestRunner_Execute_ClosesBatchResourceOnFailure(t *testing.T) {
	node := &stubNode{
		id:     "stub-1",
		failOn: map[int]error{0: errors.New("boom")},
	}

	_, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, []models.Item{{}})
	require.Error(t, err)
	assert.Equal(t, 1, node.closed, "resources are released even when the batch aborts")
}

func TestRunner_Execute_ItemsNotMutatedByNode(t *testing.T) {
	node := &stubNode{id: "stub-1", mutate: true}
	items := []models.Item{{"name": "original"}}

	_, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, items)
	require.NoError(t, err)

	require.Len(t, node.seen, 1)
	assert.Contains(t, node.seen[0], "tainted", "the node saw and mutated its copy")
	assert.NotContains(t, items[0], "tainted", "the caller's item is untouched")
}

func TestRunner_Execute_FillsExecutionContext(t *testing.T) {
	node := &stubNode{id: "stub-1"}

	results, err := runner.NewRunner(slog.Default()).Execute(context.Background(), node, models.ExecutionContext{}, []models.Item{{}})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "stub-1", results[0].NodeID, "node ID defaults from the node instance")
}
