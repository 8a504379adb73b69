// Package validation provides structural and semantic checks over frozen
// workflow graphs. Structural errors (missing start node, orphan or unreachable
// nodes, dangling edges) short-circuit validation; semantic checks (cycle
// detection, variable availability) run only on structurally sound graphs.
//
// Validation is pure and is re-run immediately before every execution;
// results are never cached across definition edits.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vireohq/flowd/pkg/graph"
	"github.com/vireohq/flowd/pkg/models"
)

// Diagnostic codes.
const (
	CodeMissingStartNode    = "missing_start_node"
	CodeOrphanNode          = "orphan_node"
	CodeUnreachableNode     = "unreachable_node"
	CodeDanglingEdge        = "dangling_edge"
	CodeDuplicateNodeID     = "duplicate_node_id"
	CodeUnknownNodeType     = "unknown_node_type"
	CodeIllegalCycle        = "illegal_cycle"
	CodeVariableUnavailable = "variable_unavailable"
)

// Result is the outcome of validating one graph.
type Result struct {
	Valid    bool                `json:"valid"`
	Errors   []models.Diagnostic `json:"errors"`
	Warnings []models.Diagnostic `json:"warnings"`
}

func (r *Result) addError(code, message, nodeID, edgeID string) {
	r.Errors = append(r.Errors, models.Diagnostic{
		Severity: models.SeverityError,
		Code:     code,
		Message:  message,
		NodeID:   nodeID,
		EdgeID:   edgeID,
	})
}

func (r *Result) addWarning(code, message, nodeID string) {
	r.Warnings = append(r.Warnings, models.Diagnostic{
		Severity: models.SeverityWarning,
		Code:     code,
		Message:  message,
		NodeID:   nodeID,
	})
}

// Diagnostics returns errors and warnings as one list, errors first.
func (r *Result) Diagnostics() []models.Diagnostic {
	out := make([]models.Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)

	return out
}

// Error is returned when a graph fails validation; it carries the full result
// so callers can surface every diagnostic, not just the first.
type Error struct {
	Result *Result
}

func (e *Error) Error() string {
	if len(e.Result.Errors) == 0 {
		return "workflow validation failed"
	}

	messages := make([]string, 0, len(e.Result.Errors))
	for _, d := range e.Result.Errors {
		messages = append(messages, d.Message)
	}

	return "workflow validation failed: " + strings.Join(messages, "; ")
}

// Validate runs all checks over a frozen graph.
func Validate(g *graph.Graph) *Result {
	result := &Result{}

	validateStructure(g, result)

	if len(result.Errors) > 0 {
		result.Valid = false

		return result
	}

	validateCycles(g, result)
	validateVariableAvailability(g, result)

	result.Valid = len(result.Errors) == 0

	return result
}

// ValidateDefinition checks a raw definition without requiring it to freeze
// first, so an authoring UI can validate drafts that would fail graph
// construction. Definition-level problems (duplicate IDs, unknown types)
// short-circuit exactly like structural errors.
func ValidateDefinition(def *models.WorkflowDefinition, known graph.KnownTypeFunc) *Result {
	result := &Result{}

	seen := make(map[string]bool, len(def.Nodes))

	for _, node := range def.Nodes {
		if seen[node.ID] {
			result.addError(CodeDuplicateNodeID, fmt.Sprintf("duplicate node id %q", node.ID), node.ID, "")
		}

		seen[node.ID] = true

		if known != nil && !known(node.Type) {
			result.addError(CodeUnknownNodeType,
				fmt.Sprintf("node %q has unknown type %q", node.ID, node.Type), node.ID, "")
		}
	}

	if len(result.Errors) > 0 {
		result.Valid = false

		return result
	}

	g, err := graph.New(def, known)
	if err != nil {
		// Construction failures beyond the pre-checks above should not
		// happen, but report them as diagnostics rather than panicking.
		result.addError(CodeDuplicateNodeID, err.Error(), "", "")
		result.Valid = false

		return result
	}

	return Validate(g)
}

func validateStructure(g *graph.Graph, result *Result) {
	if len(g.StartNodes()) == 0 {
		result.addError(CodeMissingStartNode, "workflow has no start node", "", "")
	}

	for _, edge := range g.DanglingEdges() {
		result.addError(CodeDanglingEdge,
			fmt.Sprintf("edge %q references a non-existent node (%s -> %s)", edge.Key(), edge.From, edge.To),
			"", edge.Key())
	}

	orphaned := make(map[string]bool)

	for _, node := range g.Nodes() {
		if node.IsStartNode() {
			continue
		}

		if len(g.IncomingEdges(node.ID)) == 0 {
			orphaned[node.ID] = true

			result.addError(CodeOrphanNode,
				fmt.Sprintf("node %q has no incoming edges", node.ID), node.ID, "")
		}
	}

	// Reachability from the start nodes; orphans are already reported.
	visited := make(map[string]bool)

	queue := make([]string, 0, len(g.StartNodes()))
	for _, start := range g.StartNodes() {
		visited[start.ID] = true
		queue = append(queue, start.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range g.OutgoingEdges(id) {
			if !visited[edge.To] {
				visited[edge.To] = true
				queue = append(queue, edge.To)
			}
		}
	}

	for _, node := range g.Nodes() {
		if !visited[node.ID] && !orphaned[node.ID] {
			result.addError(CodeUnreachableNode,
				fmt.Sprintf("node %q is unreachable from any start node", node.ID), node.ID, "")
		}
	}
}

// validateCycles runs a depth-first traversal tracking the recursion stack.
// A cycle is legal only when every node on it is a loop-control node; loops
// are bounded-iteration nodes, so the check stays a sound structural rule.
func validateCycles(g *graph.Graph, result *Result) {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, g.Len())
	reported := make(map[string]bool)

	var stack []string

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		stack = append(stack, id)

		for _, edge := range g.OutgoingEdges(id) {
			switch color[edge.To] {
			case white:
				visit(edge.To)
			case gray:
				reportCycle(g, stack, edge.To, reported, result)
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, node := range g.Nodes() {
		if color[node.ID] == white {
			visit(node.ID)
		}
	}
}

func reportCycle(g *graph.Graph, stack []string, entry string, reported map[string]bool, result *Result) {
	start := 0
	for i, id := range stack {
		if id == entry {
			start = i

			break
		}
	}

	cycle := stack[start:]

	key := cycleKey(cycle)
	if reported[key] {
		return
	}

	reported[key] = true

	for _, id := range cycle {
		node, ok := g.NodeByID(id)
		if !ok || !node.IsLoopNode() {
			result.addError(CodeIllegalCycle,
				fmt.Sprintf("cycle detected through non-loop node %q: %s", id, strings.Join(cycle, " -> ")),
				id, "")

			return
		}
	}
}

func cycleKey(cycle []string) string {
	ids := make([]string, len(cycle))
	copy(ids, cycle)
	sort.Strings(ids)

	return strings.Join(ids, ",")
}

// validateVariableAvailability simulates a topological walk, tracking which
// variable names can be written by some preceding node. Reads with no possible
// writer are warnings, not errors: a conditional branch may legitimately skip
// a writer, and the engine fails at runtime only if the read is truly missing.
func validateVariableAvailability(g *graph.Graph, result *Result) {
	initial := make(map[string]bool, len(g.Variables()))
	for name := range g.Variables() {
		initial[name] = true
	}

	avail := make(map[string]map[string]bool, g.Len())

	indegree := make(map[string]int, g.Len())
	for _, node := range g.Nodes() {
		indegree[node.ID] = len(g.DependencyEdges(node.ID))
	}

	var queue []*models.Node

	for _, node := range g.Nodes() {
		if indegree[node.ID] == 0 {
			queue = append(queue, node)
		}
	}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		names := make(map[string]bool, len(initial))
		for name := range initial {
			names[name] = true
		}

		for _, edge := range g.DependencyEdges(node.ID) {
			for name := range avail[edge.From] {
				names[name] = true
			}

			if pred, ok := g.NodeByID(edge.From); ok {
				for _, out := range pred.Outputs {
					names[out] = true
				}
			}
		}

		avail[node.ID] = names

		for _, input := range node.Inputs {
			if !names[input] {
				result.addWarning(CodeVariableUnavailable,
					fmt.Sprintf("node %q reads variable %q which no preceding node is guaranteed to write", node.ID, input),
					node.ID)
			}
		}

		for _, edge := range g.OutgoingEdges(node.ID) {
			if g.IsBackEdge(edge) {
				continue
			}

			indegree[edge.To]--
			if indegree[edge.To] == 0 {
				if next, ok := g.NodeByID(edge.To); ok {
					queue = append(queue, next)
				}
			}
		}
	}
}
