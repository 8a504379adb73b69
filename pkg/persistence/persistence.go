// Package persistence provides data storage abstraction for workflow
// definitions and execution records.
package persistence

import (
	"context"

	"github.com/vireohq/flowd/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions keyed by ID.
type WorkflowRepository interface {
	Save(ctx context.Context, workflow *models.WorkflowDefinition) error
	ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error)
	All(ctx context.Context) ([]*models.WorkflowDefinition, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository stores execution records. Records are saved on every
// status transition, so Save must handle both insert and update.
type ExecutionRepository interface {
	SaveExecution(ctx context.Context, record *models.ExecutionRecord) error
	ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error)
	ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionRecord, error)
}
