package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
)

// ExecutionRepository stores execution records as JSON files under
// <root>/executions/<id>.json.
type ExecutionRepository struct {
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) SaveExecution(_ context.Context, record *models.ExecutionRecord) error {
	if record.ID == "" {
		return persistence.NewExecutionError("SaveExecution", "", errors.New("execution id is required"))
	}

	dir := path.Join(er.root, "executions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	if err := os.WriteFile(er.executionPath(record.ID), data, 0o644); err != nil {
		return persistence.NewExecutionError("SaveExecution", record.ID, err)
	}

	return nil
}

func (er *ExecutionRepository) ExecutionByID(_ context.Context, id string) (*models.ExecutionRecord, error) {
	data, err := os.ReadFile(er.executionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("ExecutionByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, persistence.NewExecutionError("ExecutionByID", id, err)
	}

	var record models.ExecutionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, persistence.NewExecutionError("ExecutionByID", id, fmt.Errorf("corrupt execution file: %w", err))
	}

	return &record, nil
}

func (er *ExecutionRepository) ExecutionsByWorkflow(ctx context.Context, workflowID string) ([]*models.ExecutionRecord, error) {
	root := os.DirFS(path.Join(er.root, "executions"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewExecutionError("ExecutionsByWorkflow", "", err)
	}

	records := make([]*models.ExecutionRecord, 0)

	for _, file := range jsonFiles {
		id := file[:len(file)-len(".json")]

		record, err := er.ExecutionByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if record.WorkflowID == workflowID {
			records = append(records, record)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.Before(records[j].StartedAt)
	})

	return records, nil
}

func (er *ExecutionRepository) executionPath(id string) string {
	return path.Join(er.root, "executions", id+".json")
}
