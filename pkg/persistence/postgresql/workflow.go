package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
)

// WorkflowRepository stores workflow definitions in the workflows table. Node
// and edge lists are kept as jsonb documents since the engine always loads a
// definition whole.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{
		db:     db,
		logger: logger.With("module", "persistence:postgresql"),
	}
}

func (wr *WorkflowRepository) Save(ctx context.Context, workflow *models.WorkflowDefinition) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("Save", "", errors.New("workflow id is required"))
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	nodes, edges, variables, metadata, err := marshalWorkflowColumns(workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	query := `
		INSERT INTO workflows (id, name, description, nodes, edges, variables, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			variables = EXCLUDED.variables,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at
	`

	_, err = wr.db.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.Description,
		nodes, edges, variables, metadata,
		workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) ByID(ctx context.Context, id string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, nodes, edges, variables, metadata, created_at, updated_at
		FROM workflows
		WHERE id = $1
	`

	workflow, err := scanWorkflow(wr.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("ByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("ByID", id, err)
	}

	return workflow, nil
}

func (wr *WorkflowRepository) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	query := `
		SELECT id, name, description, nodes, edges, variables, metadata, created_at, updated_at
		FROM workflows
		ORDER BY id
	`

	rows, err := wr.db.QueryContext(ctx, query)
	if err != nil {
		return nil, persistence.NewWorkflowError("All", "", err)
	}
	defer func() { _ = rows.Close() }()

	workflows := make([]*models.WorkflowDefinition, 0)

	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, persistence.NewWorkflowError("All", "", err)
		}

		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewWorkflowError("All", "", err)
	}

	return workflows, nil
}

func (wr *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := wr.db.ExecContext(ctx, "DELETE FROM workflows WHERE id = $1", id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*models.WorkflowDefinition, error) {
	var (
		workflow  models.WorkflowDefinition
		nodes     []byte
		edges     []byte
		variables []byte
		metadata  []byte
	)

	err := row.Scan(&workflow.ID, &workflow.Name, &workflow.Description,
		&nodes, &edges, &variables, &metadata,
		&workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodes, &workflow.Nodes); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(edges, &workflow.Edges); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(variables, &workflow.Variables); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metadata, &workflow.Metadata); err != nil {
		return nil, err
	}

	return &workflow, nil
}

func marshalWorkflowColumns(workflow *models.WorkflowDefinition) (nodes, edges, variables, metadata []byte, err error) {
	nodes, err = json.Marshal(workflow.Nodes)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	edges, err = json.Marshal(workflow.Edges)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if workflow.Variables == nil {
		workflow.Variables = map[string]any{}
	}

	variables, err = json.Marshal(workflow.Variables)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	if workflow.Metadata == nil {
		workflow.Metadata = map[string]any{}
	}

	metadata, err = json.Marshal(workflow.Metadata)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return nodes, edges, variables, metadata, nil
}
