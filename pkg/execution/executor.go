// Package execution implements data-driven workflow execution: nodes dispatch
// when their dependency edges resolve, branches gate which successors run, and
// every run produces a persisted execution record.
package execution

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vireohq/flowd/pkg/eventbus"
	"github.com/vireohq/flowd/pkg/events"
	"github.com/vireohq/flowd/pkg/graph"
	"github.com/vireohq/flowd/pkg/models"
	"github.com/vireohq/flowd/pkg/persistence"
	"github.com/vireohq/flowd/pkg/protocol"
	"github.com/vireohq/flowd/pkg/registry"
	"github.com/vireohq/flowd/pkg/validation"
	"github.com/vireohq/flowd/pkg/variables"
)

// Executor runs one workflow definition to completion. It is stateless across
// runs and safe to share.
type Executor struct {
	registry  *registry.Registry
	repo      persistence.ExecutionRepository
	publisher eventbus.EventPublisher
	logger    *slog.Logger
}

func NewExecutor(reg *registry.Registry, repo persistence.ExecutionRepository, publisher eventbus.EventPublisher, logger *slog.Logger) *Executor {
	return &Executor{
		registry:  reg,
		repo:      repo,
		publisher: publisher,
		logger:    logger.With("module", "executor"),
	}
}

// nodeState tracks one node's scheduling bookkeeping. All fields are owned by
// the scheduler goroutine; handlers never touch them.
type nodeState struct {
	node       *models.Node
	deps       []*models.Edge
	resolved   map[string]bool
	satisfied  int
	dispatched bool
	result     *models.NodeResult
}

func (s *nodeState) allResolved() bool {
	return len(s.resolved) == len(s.deps)
}

type completion struct {
	nodeID string
	result *protocol.HandlerResult
	err    error
}

// run holds the mutable state of a single execution.
type run struct {
	executor *Executor
	graph    *graph.Graph
	record   *models.ExecutionRecord
	vars     *variables.Context
	states   map[string]*nodeState

	completions chan completion
	inFlight    int
	failed      bool
	cancelled   bool
	failedNode  string
}

// Run validates the definition, then executes it. Validation failure returns
// the failed record together with a *validation.Error carrying every
// diagnostic. Context cancellation or deadline expiry ends the run with
// status cancelled once in-flight nodes have drained.
func (e *Executor) Run(ctx context.Context, def *models.WorkflowDefinition, inputData map[string]any) (*models.ExecutionRecord, error) {
	return e.run(ctx, def, inputData, nil)
}

// run is the shared entry point. When started is non-nil the pending record
// is persisted and a detached snapshot of it is sent before any validation or
// scheduling happens, so the manager can hand the caller an execution ID
// without waiting. The live record stays owned by this goroutine; everyone
// else reads through the repository.
func (e *Executor) run(ctx context.Context, def *models.WorkflowDefinition, inputData map[string]any, started chan<- *models.ExecutionRecord) (*models.ExecutionRecord, error) {
	record := &models.ExecutionRecord{
		ID:         uuid.New().String(),
		WorkflowID: def.ID,
		Status:     models.ExecutionStatusPending,
		StartedAt:  time.Now().UTC(),
		InputData:  inputData,
	}

	if started != nil {
		e.persist(ctx, record)
		started <- record.Clone()
	}

	result := validation.ValidateDefinition(def, e.registry.Known)
	record.Diagnostics = result.Diagnostics()

	if !result.Valid {
		record.Status = models.ExecutionStatusFailed
		record.Error = (&validation.Error{Result: result}).Error()
		now := time.Now().UTC()
		record.CompletedAt = &now

		e.persist(ctx, record)

		return record, &validation.Error{Result: result}
	}

	g, err := graph.New(def, e.registry.Known)
	if err != nil {
		record.Status = models.ExecutionStatusFailed
		record.Error = err.Error()
		now := time.Now().UTC()
		record.CompletedAt = &now

		e.persist(ctx, record)

		return record, err
	}

	vars := variables.NewContext(g.Variables())
	vars.Merge(inputData)

	r := &run{
		executor:    e,
		graph:       g,
		record:      record,
		vars:        vars,
		states:      make(map[string]*nodeState, g.Len()),
		completions: make(chan completion),
	}

	for _, node := range g.Nodes() {
		result := &models.NodeResult{NodeID: node.ID, Status: models.NodeStatusPending}
		record.NodeResults = append(record.NodeResults, result)

		r.states[node.ID] = &nodeState{
			node:     node,
			deps:     dedupeByKey(g.DependencyEdges(node.ID)),
			resolved: make(map[string]bool),
			result:   result,
		}
	}

	record.Status = models.ExecutionStatusRunning
	e.persist(ctx, record)
	e.publish(ctx, record.WorkflowID, events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, record.WorkflowID, record.ID),
		InputData: inputData,
	})

	e.logger.InfoContext(ctx, "Execution started",
		"execution_id", record.ID, "workflow_id", record.WorkflowID, "nodes", g.Len())

	r.schedule(ctx)

	return record, r.finish(ctx)
}

// schedule is the scheduler loop. It owns all run state; handler goroutines
// communicate back only through the completions channel.
func (r *run) schedule(ctx context.Context) {
	for _, state := range r.states {
		if len(state.deps) == 0 && state.node.IsStartNode() {
			r.dispatch(ctx, state)
		}
	}

	for r.inFlight > 0 {
		select {
		case <-ctx.Done():
			if !r.cancelled {
				r.cancelled = true
				r.executor.logger.InfoContext(context.WithoutCancel(ctx), "Execution cancelled, draining in-flight nodes",
					"execution_id", r.record.ID, "in_flight", r.inFlight)
			}

			// Handlers receive the same context and are expected to
			// return promptly; keep draining their completions.
			c := <-r.completions
			r.inFlight--
			r.handleCompletion(ctx, c)
		case c := <-r.completions:
			r.inFlight--
			r.handleCompletion(ctx, c)
		}
	}
}

func (r *run) dispatch(ctx context.Context, state *nodeState) {
	state.dispatched = true
	r.inFlight++

	now := time.Now().UTC()
	state.result.Status = models.NodeStatusRunning
	state.result.StartedAt = &now

	inputs := r.vars.FilterTo(state.node.Inputs)
	info := protocol.ExecutionInfo{
		ExecutionID: r.record.ID,
		WorkflowID:  r.record.WorkflowID,
		NodeID:      state.node.ID,
	}

	r.executor.publish(ctx, r.record.WorkflowID, events.NodeStarted{
		BaseEvent: events.NewBaseEvent(events.NodeStartedEvent, r.record.WorkflowID, r.record.ID),
		NodeID:    state.node.ID,
		NodeType:  state.node.Type,
	})

	node := state.node

	go func() {
		handler, err := r.executor.registry.CreateHandler(ctx, node)
		if err != nil {
			r.completions <- completion{nodeID: node.ID, err: err}

			return
		}

		result, err := handler.Execute(ctx, info, inputs)
		r.completions <- completion{nodeID: node.ID, result: result, err: err}
	}()
}

func (r *run) handleCompletion(ctx context.Context, c completion) {
	state := r.states[c.nodeID]
	now := time.Now().UTC()
	state.result.CompletedAt = &now

	logCtx := context.WithoutCancel(ctx)

	if c.err != nil {
		state.result.Status = models.NodeStatusFailed
		state.result.Error = c.err.Error()

		if !r.failed && !r.cancelled {
			r.failed = true
			r.failedNode = c.nodeID
			r.record.Error = c.err.Error()
		}

		r.executor.logger.ErrorContext(logCtx, "Node failed",
			"execution_id", r.record.ID, "node_id", c.nodeID, "error", c.err)
		r.executor.publish(logCtx, r.record.WorkflowID, events.NodeFailed{
			BaseEvent:  events.NewBaseEvent(events.NodeFailedEvent, r.record.WorkflowID, r.record.ID),
			NodeID:     c.nodeID,
			DurationMs: durationMs(state.result),
			Error:      c.err.Error(),
		})
		r.executor.persist(logCtx, r.record)

		return
	}

	outputs := map[string]any{}
	branch := ""

	if c.result != nil {
		outputs = c.result.Outputs
		branch = c.result.Branch
	}

	if len(state.node.Outputs) > 0 {
		filtered := make(map[string]any, len(state.node.Outputs))
		for _, name := range state.node.Outputs {
			if v, ok := outputs[name]; ok {
				filtered[name] = v
			}
		}

		outputs = filtered
	}

	r.vars.Merge(outputs)

	state.result.Status = models.NodeStatusCompleted
	state.result.Output = outputs

	r.executor.logger.InfoContext(logCtx, "Node completed",
		"execution_id", r.record.ID, "node_id", c.nodeID, "branch", branch)
	r.executor.publish(logCtx, r.record.WorkflowID, events.NodeFinished{
		BaseEvent:  events.NewBaseEvent(events.NodeFinishedEvent, r.record.WorkflowID, r.record.ID),
		NodeID:     c.nodeID,
		Status:     models.NodeStatusCompleted,
		DurationMs: durationMs(state.result),
		Output:     outputs,
	})
	r.executor.persist(logCtx, r.record)

	if r.failed || r.cancelled {
		return
	}

	for _, edge := range r.graph.OutgoingEdges(c.nodeID) {
		if r.graph.IsBackEdge(edge) {
			continue
		}

		satisfied := branch == "" || edge.Condition == "" || edge.Condition == branch
		r.resolveEdge(ctx, edge, satisfied)
	}
}

// resolveEdge marks one dependency edge of the target node as satisfied or
// skipped and dispatches or skips the target once all its edges are resolved.
func (r *run) resolveEdge(ctx context.Context, edge *models.Edge, satisfied bool) {
	state, ok := r.states[edge.To]
	if !ok || state.dispatched || state.result.Terminal() {
		return
	}

	if state.resolved[edge.Key()] {
		return
	}

	state.resolved[edge.Key()] = true
	if satisfied {
		state.satisfied++
	}

	if !state.allResolved() {
		return
	}

	if state.satisfied > 0 {
		r.dispatch(ctx, state)

		return
	}

	r.skip(ctx, state, "all incoming branches skipped")
}

// skip marks a node skipped and cascades the skip through its outgoing edges.
func (r *run) skip(ctx context.Context, state *nodeState, reason string) {
	state.result.Status = models.NodeStatusSkipped

	r.executor.publish(ctx, r.record.WorkflowID, events.NodeSkipped{
		BaseEvent: events.NewBaseEvent(events.NodeSkippedEvent, r.record.WorkflowID, r.record.ID),
		NodeID:    state.node.ID,
		Reason:    reason,
	})

	for _, edge := range r.graph.OutgoingEdges(state.node.ID) {
		if r.graph.IsBackEdge(edge) {
			continue
		}

		r.resolveEdge(ctx, edge, false)
	}
}

// finish settles the terminal status, snapshots outputs and persists the record.
func (r *run) finish(ctx context.Context) error {
	logCtx := context.WithoutCancel(ctx)
	record := r.record

	for _, state := range r.states {
		if !state.result.Terminal() {
			state.result.Status = models.NodeStatusSkipped
		}
	}

	now := time.Now().UTC()
	record.CompletedAt = &now
	elapsed := now.Sub(record.StartedAt).Milliseconds()

	var err error

	switch {
	case r.cancelled:
		record.Status = models.ExecutionStatusCancelled
		if record.Error == "" {
			record.Error = "execution cancelled"
		}

		err = context.Canceled
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = context.DeadlineExceeded
			record.Error = "execution timed out"
		}

		r.executor.publish(logCtx, record.WorkflowID, events.ExecutionCancelled{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCancelledEvent, record.WorkflowID, record.ID),
			DurationMs:    elapsed,
			NodesExecuted: record.NodesExecuted(),
			Reason:        record.Error,
		})
	case r.failed:
		record.Status = models.ExecutionStatusFailed

		err = &NodeFailureError{NodeID: r.failedNode, Message: record.Error}

		r.executor.publish(logCtx, record.WorkflowID, events.ExecutionFailed{
			BaseEvent:     events.NewBaseEvent(events.ExecutionFailedEvent, record.WorkflowID, record.ID),
			DurationMs:    elapsed,
			NodesExecuted: record.NodesExecuted(),
			FailedNodeID:  r.failedNode,
			Error:         record.Error,
		})
	default:
		record.Status = models.ExecutionStatusCompleted
		record.OutputData = r.vars.Snapshot()

		r.executor.publish(logCtx, record.WorkflowID, events.ExecutionCompleted{
			BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, record.WorkflowID, record.ID),
			DurationMs:    elapsed,
			NodesExecuted: record.NodesExecuted(),
			OutputData:    record.OutputData,
		})
	}

	r.executor.persist(logCtx, record)
	r.executor.logger.InfoContext(logCtx, "Execution finished",
		"execution_id", record.ID, "workflow_id", record.WorkflowID,
		"status", record.Status, "duration_ms", elapsed, "nodes_executed", record.NodesExecuted())

	return err
}

func (e *Executor) persist(ctx context.Context, record *models.ExecutionRecord) {
	if e.repo == nil {
		return
	}

	if err := e.repo.SaveExecution(ctx, record); err != nil {
		e.logger.ErrorContext(ctx, "Failed to persist execution record",
			"execution_id", record.ID, "error", err)
	}
}

func (e *Executor) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, workflowID, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "workflow_id", workflowID, "error", err)
	}
}

// dedupeByKey drops redundant copies of an edge so resolution accounting
// matches the resolved set, which is keyed by edge key.
func dedupeByKey(edges []*models.Edge) []*models.Edge {
	seen := make(map[string]bool, len(edges))
	out := make([]*models.Edge, 0, len(edges))

	for _, edge := range edges {
		if seen[edge.Key()] {
			continue
		}

		seen[edge.Key()] = true
		out = append(out, edge)
	}

	return out
}

func durationMs(result *models.NodeResult) int64 {
	if result.StartedAt == nil || result.CompletedAt == nil {
		return 0
	}

	return result.CompletedAt.Sub(*result.StartedAt).Milliseconds()
}
