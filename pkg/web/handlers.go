// Package web provides HTTP handlers and REST API endpoints for workflow
// management and execution.
package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/vireohq/flowd/pkg/execution"
	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
	"github.com/vireohq/flowd/pkg/registry"
	"github.com/vireohq/flowd/pkg/validation"
)

type APIHandlers struct {
	persistence persistence.Persistence
	registry    *registry.Registry
	manager     *execution.Manager
	validator   *validator.Validate
}

func NewAPIHandlers(
	p persistence.Persistence,
	reg *registry.Registry,
	manager *execution.Manager,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		registry:    reg,
		manager:     manager,
		validator:   validate,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.persistence.WorkflowRepository().All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow := &models.WorkflowDefinition{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Variables:   req.Variables,
		Metadata:    req.Metadata,
	}
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	if err := h.persistence.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowRepository().ByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.persistence.WorkflowRepository().Delete(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ValidateWorkflow runs the full validation pass over a stored workflow and
// returns every diagnostic, never a bare first error.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")

	workflow, err := h.persistence.WorkflowRepository().ByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	result := validation.ValidateDefinition(workflow, h.registry.Known)

	return c.JSON(result)
}

// ValidateDefinition validates a definition supplied in the request body
// without persisting it, for authoring-time feedback.
func (h *APIHandlers) ValidateDefinition(c fiber.Ctx) error {
	var def models.WorkflowDefinition
	if err := c.Bind().JSON(&def); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	result := validation.ValidateDefinition(&def, h.registry.Known)

	return c.JSON(result)
}

// StartExecution accepts an execution request, starts the run in the
// background and returns 202 with the execution ID.
func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	id := c.Params("id")

	workflow, err := h.persistence.WorkflowRepository().ByID(c.Context(), id)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return notFound(c, "Workflow not found")
		}

		return internalError(c, err)
	}

	var req StartExecutionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid request body: "+err.Error())
		}
	}

	record := h.manager.StartExecution(workflow, req.InputData)

	return c.Status(fiber.StatusAccepted).JSON(StartExecutionResponse{
		ExecutionID: record.ID,
		WorkflowID:  record.WorkflowID,
		Status:      record.Status,
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")

	record, err := h.manager.Execution(c.Context(), id)
	if err != nil {
		if errors.Is(err, execution.ErrExecutionNotFound) {
			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")

	records, err := h.persistence.ExecutionRepository().ExecutionsByWorkflow(c.Context(), id)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(records)
}

// CancelExecution requests cooperative cancellation of a running execution.
func (h *APIHandlers) CancelExecution(c fiber.Ctx) error {
	id := c.Params("id")

	err := h.manager.Cancel(id)
	if err != nil {
		if errors.Is(err, execution.ErrExecutionNotFound) {
			// Distinguish a finished execution from an unknown one.
			if record, lookupErr := h.manager.Execution(c.Context(), id); lookupErr == nil {
				return conflict(c, "Execution already "+string(record.Status))
			}

			return notFound(c, "Execution not found")
		}

		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// GetHandlers lists the registered node types with their config schemas.
func (h *APIHandlers) GetHandlers(c fiber.Ctx) error {
	return c.JSON(h.registry.Components())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	registryMessage, registryOK := h.registry.HealthCheck()
	checks["registry"] = fiber.Map{"healthy": registryOK, "message": registryMessage}

	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		healthy = false
		checks["persistence"] = fiber.Map{"healthy": false, "message": err.Error()}
	} else {
		checks["persistence"] = fiber.Map{"healthy": true}
	}

	if !registryOK {
		healthy = false
	}

	status := fiber.StatusOK
	if !healthy {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{"healthy": healthy, "checks": checks})
}
