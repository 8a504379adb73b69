// Package graph provides the frozen, read-only workflow graph consumed by the
// validator and the executor. A graph is constructed once from a serialized
// definition; a new run always gets a fresh graph and there is no mutation API.
package graph

import (
	"github.com/vireohq/flowd/pkg/models"
)

// KnownTypeFunc reports whether a handler is registered for a node type.
// Passing nil skips the node type check.
type KnownTypeFunc func(nodeType string) bool

// Graph is the immutable in-memory representation of a workflow.
type Graph struct {
	workflowID string
	variables  map[string]any
	nodes      map[string]*models.Node
	order      []*models.Node
	starts     []*models.Node
	byType     map[string][]*models.Node
	outgoing   map[string][]*models.Edge
	incoming   map[string][]*models.Edge
	dangling   []*models.Edge
	backEdges  map[string]bool
}

// New freezes a workflow definition into a graph. Duplicate node IDs and
// unknown node types fail construction with a *MalformedError naming the
// offending node. Dangling edges do not fail construction; they are retained
// for the validator, which reports them as structural errors.
func New(def *models.WorkflowDefinition, known KnownTypeFunc) (*Graph, error) {
	g := &Graph{
		workflowID: def.ID,
		variables:  def.Variables,
		nodes:      make(map[string]*models.Node, len(def.Nodes)),
		byType:     make(map[string][]*models.Node),
		outgoing:   make(map[string][]*models.Edge),
		incoming:   make(map[string][]*models.Edge),
		backEdges:  make(map[string]bool),
	}

	for _, node := range def.Nodes {
		if _, exists := g.nodes[node.ID]; exists {
			return nil, &MalformedError{NodeID: node.ID, Reason: "duplicate node id"}
		}

		if known != nil && !known(node.Type) {
			return nil, &MalformedError{NodeID: node.ID, Reason: "unknown node type '" + node.Type + "'"}
		}

		g.nodes[node.ID] = node
		g.order = append(g.order, node)
		g.byType[node.Type] = append(g.byType[node.Type], node)

		if node.IsStartNode() {
			g.starts = append(g.starts, node)
		}
	}

	for _, edge := range def.Edges {
		_, fromOk := g.nodes[edge.From]
		_, toOk := g.nodes[edge.To]

		if !fromOk || !toOk {
			g.dangling = append(g.dangling, edge)

			continue
		}

		g.outgoing[edge.From] = append(g.outgoing[edge.From], edge)
		g.incoming[edge.To] = append(g.incoming[edge.To], edge)
	}

	g.markBackEdges()

	return g, nil
}

// markBackEdges runs a DFS from the start nodes and flags edges that close a
// cycle. Back edges are excluded from dependency accounting during execution
// (loop handlers iterate internally; a node is never dispatched twice) but the
// validator still checks that only loop-control nodes sit on them.
func (g *Graph) markBackEdges() {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int, len(g.nodes))

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray

		for _, edge := range g.outgoing[id] {
			switch color[edge.To] {
			case gray:
				g.backEdges[edge.Key()] = true
			case white:
				visit(edge.To)
			}
		}

		color[id] = black
	}

	for _, start := range g.starts {
		if color[start.ID] == white {
			visit(start.ID)
		}
	}

	// Nodes unreachable from any start still get deterministic back-edge
	// marking so the validator sees a consistent picture.
	for _, node := range g.order {
		if color[node.ID] == white {
			visit(node.ID)
		}
	}
}

// WorkflowID returns the ID of the definition this graph was frozen from.
func (g *Graph) WorkflowID() string {
	return g.workflowID
}

// Variables returns the definition-level initial variables.
func (g *Graph) Variables() map[string]any {
	return g.variables
}

// Nodes returns all nodes in definition order.
func (g *Graph) Nodes() []*models.Node {
	return g.order
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// NodeByID looks a node up by its ID.
func (g *Graph) NodeByID(id string) (*models.Node, bool) {
	node, ok := g.nodes[id]

	return node, ok
}

// NodesByType returns all nodes of the given type.
func (g *Graph) NodesByType(nodeType string) []*models.Node {
	return g.byType[nodeType]
}

// StartNodes returns the entry nodes of the graph.
func (g *Graph) StartNodes() []*models.Node {
	return g.starts
}

// OutgoingEdges returns the edges leaving a node.
func (g *Graph) OutgoingEdges(nodeID string) []*models.Edge {
	return g.outgoing[nodeID]
}

// IncomingEdges returns the edges entering a node.
func (g *Graph) IncomingEdges(nodeID string) []*models.Edge {
	return g.incoming[nodeID]
}

// DependencyEdges returns the incoming edges that participate in readiness
// accounting: every incoming edge that is not a loop back edge.
func (g *Graph) DependencyEdges(nodeID string) []*models.Edge {
	incoming := g.incoming[nodeID]

	deps := make([]*models.Edge, 0, len(incoming))
	for _, edge := range incoming {
		if !g.backEdges[edge.Key()] {
			deps = append(deps, edge)
		}
	}

	return deps
}

// IsBackEdge reports whether the edge closes a cycle.
func (g *Graph) IsBackEdge(edge *models.Edge) bool {
	return g.backEdges[edge.Key()]
}

// DanglingEdges returns edges whose endpoints do not resolve to declared nodes.
func (g *Graph) DanglingEdges() []*models.Edge {
	return g.dangling
}
