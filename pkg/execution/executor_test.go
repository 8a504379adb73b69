package execution

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/registry"
	"github.com/vireohq/flowd/pkg/validation"
)

type handlerFunc func(ctx context.Context, info protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error)

func (h handlerFunc) Execute(ctx context.Context, info protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
	return h(ctx, info, inputs)
}

type fnFactory struct {
	id string
	fn handlerFunc
}

func (f *fnFactory) Create(_ context.Context, _ string, _ map[string]any) (protocol.Handler, error) {
	return f.fn, nil
}

func (f *fnFactory) ID() string             { return f.id }
func (f *fnFactory) Name() string           { return f.id }
func (f *fnFactory) Description() string    { return "test handler " + f.id }
func (f *fnFactory) Schema() map[string]any { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRegistry(extra ...protocol.HandlerFactory) *registry.Registry {
	reg := registry.NewRegistry(testLogger())
	reg.RegisterDefaultHandlers()

	for _, factory := range extra {
		reg.Register(factory)
	}

	return reg
}

func emits(id string, outputs map[string]any) *fnFactory {
	return &fnFactory{id: id, fn: func(_ context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
		return &protocol.HandlerResult{Outputs: outputs}, nil
	}}
}

func TestRun_LinearVariablePropagation(t *testing.T) {
	reg := testRegistry(
		emits("write_x", map[string]any{"x": 2}),
		&fnFactory{id: "double_x", fn: func(_ context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
			x, _ := inputs["x"].(int)

			return &protocol.HandlerResult{Outputs: map[string]any{"y": x * 2}}, nil
		}},
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-linear",
		Name: "linear",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "write_x"},
			{ID: "b", Type: "double_x", Inputs: []string{"x"}},
			{ID: "end", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
			{From: "a", To: "b"},
			{From: "b", To: "end"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, map[string]any{"seed": 1})
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	require.NotNil(t, record.CompletedAt)

	for _, nodeID := range []string{"start", "a", "b", "end"} {
		result := record.Result(nodeID)
		require.NotNil(t, result, nodeID)
		assert.Equal(t, models.NodeStatusCompleted, result.Status, nodeID)
	}

	assert.Equal(t, 2, record.OutputData["x"])
	assert.Equal(t, 4, record.OutputData["y"])
	assert.Equal(t, 1, record.OutputData["seed"])
	assert.Equal(t, 4, record.NodesExecuted())
}

func TestRun_NodeResultsInDefinitionOrder(t *testing.T) {
	reg := testRegistry(emits("noop", nil))

	def := &models.WorkflowDefinition{
		ID:   "wf-order",
		Name: "order",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "z_last", Type: "noop"},
			{ID: "a_first", Type: "noop"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "z_last"},
			{From: "start", To: "a_first"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	require.Len(t, record.NodeResults, 3)
	assert.Equal(t, "start", record.NodeResults[0].NodeID)
	assert.Equal(t, "z_last", record.NodeResults[1].NodeID)
	assert.Equal(t, "a_first", record.NodeResults[2].NodeID)
}

func TestRun_ConditionalSkipsUntakenBranch(t *testing.T) {
	reg := testRegistry(
		emits("on_true", map[string]any{"took": "true"}),
		emits("on_false", map[string]any{"took": "false"}),
		emits("after_false", nil),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-cond",
		Name: "conditional",
		Variables: map[string]any{
			"x": 5,
		},
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "check", Type: "conditional", Config: map[string]any{"condition": "x > 1"}},
			{ID: "yes", Type: "on_true"},
			{ID: "no", Type: "on_false"},
			{ID: "downstream", Type: "after_false"},
			{ID: "join", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "check"},
			{From: "check", To: "yes", Condition: "true"},
			{From: "check", To: "no", Condition: "false"},
			{From: "no", To: "downstream"},
			{From: "yes", To: "join"},
			{From: "downstream", To: "join"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	assert.Equal(t, models.NodeStatusCompleted, record.Result("yes").Status)
	assert.Equal(t, models.NodeStatusSkipped, record.Result("no").Status)
	// Skip cascades through the untaken branch.
	assert.Equal(t, models.NodeStatusSkipped, record.Result("downstream").Status)
	// The join runs because at least one selected predecessor completed.
	assert.Equal(t, models.NodeStatusCompleted, record.Result("join").Status)

	assert.Equal(t, "true", record.OutputData["took"])
}

func TestRun_FailFast(t *testing.T) {
	slowDone := make(chan struct{})

	reg := testRegistry(
		&fnFactory{id: "boom", fn: func(_ context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			return nil, errors.New("handler exploded")
		}},
		&fnFactory{id: "slow", fn: func(_ context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			<-slowDone

			return &protocol.HandlerResult{Outputs: map[string]any{"slow": true}}, nil
		}},
		emits("never", nil),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-fail",
		Name: "fail fast",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "bad", Type: "boom"},
			{ID: "parallel", Type: "slow"},
			{ID: "after_bad", Type: "never"},
			{ID: "after_parallel", Type: "never"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "bad"},
			{From: "start", To: "parallel"},
			{From: "bad", To: "after_bad"},
			{From: "parallel", To: "after_parallel"},
		},
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(slowDone)
	}()

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.Error(t, err)
	assert.True(t, IsNodeFailure(err))

	assert.Equal(t, models.ExecutionStatusFailed, record.Status)
	assert.Contains(t, record.Error, "handler exploded")
	assert.Equal(t, models.NodeStatusFailed, record.Result("bad").Status)

	// The in-flight node drained and kept its result.
	assert.Equal(t, models.NodeStatusCompleted, record.Result("parallel").Status)

	// No new dispatch after the failure.
	assert.Equal(t, models.NodeStatusSkipped, record.Result("after_bad").Status)
	assert.Equal(t, models.NodeStatusSkipped, record.Result("after_parallel").Status)

	// Output snapshot is only taken on success.
	assert.Nil(t, record.OutputData)
}

func TestRun_Cancellation(t *testing.T) {
	running := make(chan struct{})

	reg := testRegistry(
		&fnFactory{id: "block", fn: func(ctx context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			close(running)
			<-ctx.Done()

			return nil, ctx.Err()
		}},
		emits("never", nil),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-cancel",
		Name: "cancel",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "waiting", Type: "block"},
			{ID: "after", Type: "never"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "waiting"},
			{From: "waiting", To: "after"},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-running
		cancel()
	}()

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(ctx, def, nil)
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, models.ExecutionStatusCancelled, record.Status)
	require.NotNil(t, record.CompletedAt)
	assert.Equal(t, models.NodeStatusSkipped, record.Result("after").Status)
	assert.Nil(t, record.OutputData)
}

func TestRun_CancellationDrainsAllInFlight(t *testing.T) {
	var running sync.WaitGroup

	running.Add(2)

	reg := testRegistry(
		&fnFactory{id: "block", fn: func(ctx context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			running.Done()
			<-ctx.Done()

			return nil, ctx.Err()
		}},
		emits("never", nil),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-cancel-pair",
		Name: "cancel pair",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "left", Type: "block"},
			{ID: "right", Type: "block"},
			{ID: "join", Type: "never"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "left"},
			{From: "start", To: "right"},
			{From: "left", To: "join"},
			{From: "right", To: "join"},
		},
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		running.Wait()
		cancel()
	}()

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(ctx, def, nil)
	require.ErrorIs(t, err, context.Canceled)

	// Both in-flight nodes drained before the run settled.
	assert.Equal(t, models.ExecutionStatusCancelled, record.Status)
	assert.Equal(t, models.NodeStatusFailed, record.Result("left").Status)
	assert.Equal(t, models.NodeStatusFailed, record.Result("right").Status)
	assert.Equal(t, models.NodeStatusSkipped, record.Result("join").Status)
	require.NotNil(t, record.CompletedAt)
	assert.Nil(t, record.OutputData)
}

func TestRun_Timeout(t *testing.T) {
	reg := testRegistry(
		&fnFactory{id: "block", fn: func(ctx context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			<-ctx.Done()

			return nil, ctx.Err()
		}},
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-timeout",
		Name: "timeout",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "waiting", Type: "block"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "waiting"},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(ctx, def, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	assert.Equal(t, models.ExecutionStatusCancelled, record.Status)
	assert.Equal(t, "execution timed out", record.Error)
}

func TestRun_ValidationFailure(t *testing.T) {
	reg := testRegistry()

	def := &models.WorkflowDefinition{
		ID:   "wf-invalid",
		Name: "invalid",
		Nodes: []*models.Node{
			{ID: "alone", Type: "transform"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.Error(t, err)

	var validationErr *validation.Error
	require.ErrorAs(t, err, &validationErr)
	assert.NotEmpty(t, validationErr.Result.Errors)

	assert.Equal(t, models.ExecutionStatusFailed, record.Status)
	assert.NotEmpty(t, record.Diagnostics)
	assert.Empty(t, record.NodeResults, "no node may run on validation failure")
}

func TestRun_OutputFiltering(t *testing.T) {
	reg := testRegistry(
		emits("chatty", map[string]any{"kept": 1, "dropped": 2}),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-filter",
		Name: "filter",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "chatty", Outputs: []string{"kept"}},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, record.OutputData["kept"])
	assert.NotContains(t, record.OutputData, "dropped")
	assert.Equal(t, map[string]any{"kept": 1}, record.Result("a").Output)
}

func TestRun_InputFiltering(t *testing.T) {
	var seen map[string]any

	reg := testRegistry(
		&fnFactory{id: "observe", fn: func(_ context.Context, _ protocol.ExecutionInfo, inputs map[string]any) (*protocol.HandlerResult, error) {
			seen = inputs

			return &protocol.HandlerResult{}, nil
		}},
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-inputs",
		Name: "inputs",
		Variables: map[string]any{
			"wanted":   "yes",
			"unwanted": "no",
		},
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "observe", Inputs: []string{"wanted"}},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	_, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"wanted": "yes"}, seen)
}

func TestRun_InputDataOverridesInitialVariables(t *testing.T) {
	reg := testRegistry()

	def := &models.WorkflowDefinition{
		ID:   "wf-override",
		Name: "override",
		Variables: map[string]any{
			"mode": "default",
		},
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "done", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "done"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, map[string]any{"mode": "caller"})
	require.NoError(t, err)

	assert.Equal(t, "caller", record.OutputData["mode"])
}

func TestRun_ParallelWritersLastWriterWins(t *testing.T) {
	reg := testRegistry(
		emits("write_one", map[string]any{"winner": "one"}),
		emits("write_two", map[string]any{"winner": "two"}),
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-race",
		Name: "race",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "a", Type: "write_one"},
			{ID: "b", Type: "write_two"},
			{ID: "join", Type: "end"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "a"},
			{From: "start", To: "b"},
			{From: "a", To: "join"},
			{From: "b", To: "join"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	// The merge order between parallel writers is completion order; the value
	// must be exactly one of the two writes, never a third state.
	assert.Contains(t, []any{"one", "two"}, record.OutputData["winner"])
}

func TestRun_AtMostOnceDispatchWithDiamond(t *testing.T) {
	calls := 0

	reg := testRegistry(
		emits("noop", nil),
		&fnFactory{id: "count", fn: func(_ context.Context, _ protocol.ExecutionInfo, _ map[string]any) (*protocol.HandlerResult, error) {
			calls++

			return &protocol.HandlerResult{}, nil
		}},
	)

	def := &models.WorkflowDefinition{
		ID:   "wf-diamond",
		Name: "diamond",
		Nodes: []*models.Node{
			{ID: "start", Type: "start"},
			{ID: "left", Type: "noop"},
			{ID: "right", Type: "noop"},
			{ID: "merge", Type: "count"},
		},
		Edges: []*models.Edge{
			{From: "start", To: "left"},
			{From: "start", To: "right"},
			{From: "left", To: "merge"},
			{From: "right", To: "merge"},
		},
	}

	executor := NewExecutor(reg, nil, nil, testLogger())

	record, err := executor.Run(context.Background(), def, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusCompleted, record.Status)
	assert.Equal(t, 1, calls, "merge node must be dispatched exactly once")
}
