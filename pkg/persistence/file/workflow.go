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
	"time"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
)

// WorkflowRepository stores workflow definitions as JSON files under
// <root>/workflows/<id>.json.
type WorkflowRepository struct {
	root string
}

func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.WorkflowDefinition) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("Save", "", errors.New("workflow id is required"))
	}

	dir := path.Join(wr.root, "workflows")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	if err := os.WriteFile(wr.workflowPath(workflow.ID), data, 0o644); err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

func (wr *WorkflowRepository) ByID(_ context.Context, id string) (*models.WorkflowDefinition, error) {
	data, err := os.ReadFile(wr.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("ByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("ByID", id, err)
	}

	var workflow models.WorkflowDefinition
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, persistence.NewWorkflowError("ByID", id, fmt.Errorf("corrupt workflow file: %w", err))
	}

	return &workflow, nil
}

func (wr *WorkflowRepository) All(ctx context.Context) ([]*models.WorkflowDefinition, error) {
	root := os.DirFS(path.Join(wr.root, "workflows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, persistence.NewWorkflowError("All", "", err)
	}

	workflows := make([]*models.WorkflowDefinition, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := file[:len(file)-len(".json")]

		workflow, err := wr.ByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	sort.Slice(workflows, func(i, j int) bool {
		return workflows[i].ID < workflows[j].ID
	})

	return workflows, nil
}

func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(wr.workflowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
		}

		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}

func (wr *WorkflowRepository) workflowPath(id string) string {
	return path.Join(wr.root, "workflows", id+".json")
}
