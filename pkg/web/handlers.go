package web

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/opsnode/opsnode/pkg/models"
	"github.com/opsnode/opsnode/pkg/registry"
	"github.com/opsnode/opsnode/pkg/runner"
)

// APIHandlers bundles the node catalog and execution endpoints.
type APIHandlers struct {
	logger   *slog.Logger
	registry *registry.Registry
	runner   *runner.Runner
	validate *validator.Validate
}

func NewAPIHandlers(logger *slog.Logger, reg *registry.Registry, run *runner.Runner, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		registry: reg,
		runner:   run,
		validate: validate,
	}
}

// GetNodes returns the catalog of registered node types.
func (h *APIHandlers) GetNodes(c fiber.Ctx) error {
	return c.JSON(h.registry.AvailableNodes())
}

// GetNodeSchema returns the JSON schema of one node type.
func (h *APIHandlers) GetNodeSchema(c fiber.Ctx) error {
	nodeType := c.Params("type")

	factory, ok := h.registry.GetNodeFactory(nodeType)
	if !ok {
		return notFound(c, "node type '"+nodeType+"' not registered")
	}

	return c.JSON(factory.Schema())
}

// ExecuteNode runs one node type over a batch of items.
func (h *APIHandlers) ExecuteNode(c fiber.Ctx) error {
	nodeType := c.Params("type")

	if _, ok := h.registry.GetNodeFactory(nodeType); !ok {
		return notFound(c, "node type '"+nodeType+"' not registered")
	}

	var req ExecuteNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.ID == "" {
		req.ID = nodeType + "-" + uuid.New().String()
	}

	if len(req.Items) == 0 {
		req.Items = []models.Item{{}}
	}

	node, err := h.registry.CreateNode(c.Context(), nodeType, req.ID, req.Config)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ectx := models.ExecutionContext{
		ID:             uuid.New().String(),
		NodeID:         req.ID,
		Variables:      req.Variables,
		ContinueOnFail: req.ContinueOnFail,
	}

	results, err := h.runner.Execute(c.Context(), node, ectx, req.Items)
	if err != nil {
		return unprocessable(c, err)
	}

	return c.JSON(ExecuteNodeResponse{
		ExecutionID: ectx.ID,
		NodeID:      req.ID,
		NodeType:    nodeType,
		Results:     results,
	})
}

// HealthCheck reports service liveness.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "ok",
		Nodes:  len(h.registry.AvailableNodes()),
	})
}
