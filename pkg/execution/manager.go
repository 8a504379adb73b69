package execution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
)

// Manager runs executions in the background and tracks them so callers can
// observe and cancel in-flight runs.
type Manager struct {
	executor *Executor
	repo     persistence.ExecutionRepository
	logger   *slog.Logger
	timeout  time.Duration

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewManager creates a manager. A non-zero timeout bounds every run; a run
// exceeding it ends with status cancelled.
func NewManager(executor *Executor, repo persistence.ExecutionRepository, logger *slog.Logger, timeout time.Duration) *Manager {
	return &Manager{
		executor: executor,
		repo:     repo,
		logger:   logger.With("module", "execution_manager"),
		timeout:  timeout,
		running:  make(map[string]context.CancelFunc),
	}
}

// StartExecution begins a run in the background and returns a snapshot of
// its record immediately, in pending state. The scheduler goroutine keeps
// mutating its own instance; follow the run through Execution, which reads
// the persisted state.
func (m *Manager) StartExecution(def *models.WorkflowDefinition, inputData map[string]any) *models.ExecutionRecord {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)

	if m.timeout > 0 {
		runCtx, cancel = context.WithTimeout(context.Background(), m.timeout)
	} else {
		runCtx, cancel = context.WithCancel(context.Background())
	}

	started := make(chan *models.ExecutionRecord, 1)

	m.wg.Add(1)

	go func() {
		defer m.wg.Done()
		defer cancel()

		record, err := m.executor.run(runCtx, def, inputData, started)
		if err != nil {
			m.logger.Error("Execution ended with error",
				"execution_id", record.ID, "workflow_id", def.ID, "error", err)
		}

		m.mu.Lock()
		delete(m.running, record.ID)
		m.mu.Unlock()
	}()

	record := <-started

	m.mu.Lock()
	m.running[record.ID] = cancel
	m.mu.Unlock()

	return record
}

// Cancel requests cooperative cancellation of a running execution.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cancel, ok := m.running[id]
	if !ok {
		return ErrExecutionNotFound
	}

	m.logger.Info("Cancelling execution", "execution_id", id)
	cancel()

	return nil
}

// Execution returns the persisted record for an execution. The scheduler
// saves every state transition, so the repository view is current for running
// executions and never shares memory with the scheduler goroutine.
func (m *Manager) Execution(ctx context.Context, id string) (*models.ExecutionRecord, error) {
	record, err := m.repo.ExecutionByID(ctx, id)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return nil, ErrExecutionNotFound
		}

		return nil, err
	}

	return record, nil
}

// Shutdown cancels all running executions and waits for them to drain.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for id, cancel := range m.running {
		m.logger.Info("Cancelling execution for shutdown", "execution_id", id)
		cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})

	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
