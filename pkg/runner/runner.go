// Package runner executes a node over a batch of items with per-item
// continue-on-failure semantics.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/otelhelper"
	"github.com/opsnode/opsnode/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Runner struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger: logger,
		tracer: noop.NewTracerProvider().Tracer("runner"),
	}
}

// WithTracer replaces the no-op tracer, enabling one span per item.
func (r *Runner) WithTracer(tracer trace.Tracer) *Runner {
	r.tracer = tracer

	return r
}

// Execute runs the node once per input item and returns exactly one result
// per item. When ectx.ContinueOnFail is set, a failing item is converted
// into an error-shaped result and processing moves to the next item;
// otherwise the first failure aborts the batch.
//
// Nodes holding a batch-scoped resource (protocol.BatchResource) are closed
// when the batch ends, on success or failure.
func (r *Runner) Execute(ctx context.Context, node protocol.Node, ectx models.ExecutionContext, items []models.Item) ([]models.NodeResult, error) {
	if ectx.ID == "" {
		ectx.ID = uuid.New().String()
	}

	if ectx.NodeID == "" {
		ectx.NodeID = node.ID()
	}

	logger := r.logger.With(
		"execution_id", ectx.ID,
		"node_id", ectx.NodeID,
		"node_type", node.Type(),
	)

	if resource, ok := node.(protocol.BatchResource); ok {
		defer func() {
			if err := resource.Close(context.WithoutCancel(ctx)); err != nil {
				logger.Error("Failed to release node resources", "error", err)
			}
		}()
	}

	logger.Info("Starting node execution", "items", len(items))

	results := make([]models.NodeResult, 0, len(items))

	for index, item := range items {
		result, err := r.executeItem(ctx, node, ectx, item, index)
		if err != nil {
			if !ectx.ContinueOnFail {
				logger.Error("Item failed, aborting batch", "item_index", index, "error", err)

				return results, fmt.Errorf("item %d: %w", index, err)
			}

			logger.Warn("Item failed, continuing", "item_index", index, "error", err)

			result = errorResult(ectx.NodeID, err)
		}

		results = append(results, result)
	}

	logger.Info("Completed node execution", "results", len(results))

	return results, nil
}

func (r *Runner) executeItem(ctx context.Context, node protocol.Node, ectx models.ExecutionContext, item models.Item, index int) (models.NodeResult, error) {
	spanCtx, span := otelhelper.StartSpan(ctx, r.tracer, "node.execute",
		attribute.String(otelhelper.NodeIDKey, ectx.NodeID),
		attribute.String(otelhelper.NodeTypeKey, node.Type()),
		attribute.String(otelhelper.ExecutionIDKey, ectx.ID),
		attribute.Int(otelhelper.ItemIndexKey, index),
	)
	defer span.End()

	// The node gets its own copy; the caller's items are never mutated.
	result, err := node.Execute(spanCtx, ectx, item.Clone())
	if err != nil {
		otelhelper.SetError(span, err)

		return models.NodeResult{}, err
	}

	if result.NodeID == "" {
		result.NodeID = ectx.NodeID
	}

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now().UTC()
	}

	return result, nil
}

// errorResult converts an item failure into the error-shaped output record
// appended when continue-on-failure is enabled.
func errorResult(nodeID string, err error) models.NodeResult {
	return models.NodeResult{
		NodeID: nodeID,
		Data: map[string]any{
			"error":   err.Error(),
			"success": false,
		},
		Status:    string(models.NodeStatusError),
		Timestamp: time.Now().UTC(),
		Error:     err.Error(),
	}
}
