package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
)

// ExecutionRepository stores execution records in the executions table.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger.With("module", "persistence:postgresql"),
	}
}

func (er *ExecutionRepository) SaveExecution(ctx context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		return persistence.NewExecutionError("SaveExecution", "", errors.New("execution id is required"))
	}

	inputData, err := json.Marshal(orEmptyMap(record.InputData))
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	outputData, err := json.Marshal(orEmptyMap(record.OutputData))
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	nodeResults, err := json.Marshal(record.NodeResults)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	diagnostics, err := json.Marshal(record.Diagnostics)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	query := `
		INSERT INTO executions (id, workflow_id, status, started_at, completed_at, input_data, output_data, node_results, error, diagnostics)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			output_data = EXCLUDED.output_data,
			node_results = EXCLUDED.node_results,
			error = EXCLUDED.error,
			diagnostics = EXCLUDED.diagnostics
	`

	_, err = er.db.ExecContext(ctx, query,
		record.ID, record.WorkflowID, record.Status,
		record.StartedAt, record.CompletedAt,
		inputData, outputData, nodeResults, record.Error, diagnostics)
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	return nil
}

func (er *ExecutionRepository) ExecutionByID(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	query := `
		SELECT id, workflow_id, status, started_at, completed_at, input_data, output_data, node_results, error, diagnostics
		FROM executions
		WHERE id = $1
	`

	record, err := scanExecution(er.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	return record, nil
}

func (er *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionRecord, error) {
	query := `
		SELECT id, workflow_id, status, started_at, completed_at, input_data, output_data, node_results, error, diagnostics
		FROM executions
		WHERE workflow_id = $1
		ORDER BY started_at
	`

	rows, err := er.db.QueryContext(ctx, query, workflowID)
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionsByWorkflow", "", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]*models.ExecutionRecord, 0)

	for rows.Next() {
		record, err := scanExecution(rows)
		if err != nil {
			return nil, persistence.NewExecutionError("ExecutionsByWorkflow", "", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewExecutionError("ExecutionsByWorkflow", "", err)
	}

	return records, nil
}

func scanExecution(row rowScanner) (*models.ExecutionRecord, error) {
	var (
		record      models.ExecutionRecord
		inputData   []byte
		outputData  []byte
		nodeResults []byte
		diagnostics []byte
	)

	err := row.Scan(&record.ID, &record.WorkflowID, &record.Status,
		&record.StartedAt, &record.CompletedAt,
		&inputData, &outputData, &nodeResults, &record.Error, &diagnostics)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(inputData, &record.InputData); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(outputData, &record.OutputData); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(nodeResults, &record.NodeResults); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(diagnostics, &record.Diagnostics); err != nil {
		return nil, err
	}

	return &record, nil
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}

	return m
}
