// Package graph implements the directed-graph primitives spec.md §3/§4.3
// needs for C10 (the submodel dependency resolver): adjacency storage,
// depth-first search, cycle detection and topological ordering.
//
// Adapted from pkg/core/math/graph/{graph.go,dfs.go,cycles.go} in the
// teacher repository: the Node/Graph interfaces and GenericGraph
// adjacency-list implementation are kept nearly verbatim (a directed
// graph over comparable node values, independent of what those values
// mean), but the teacher used this package for spatial pathfinding
// (A*/Dijkstra/DFS path search between two nodes) — pkg/model instead
// needs a topological visitation order over an entire graph, so
// TopologicalOrder (Kahn's algorithm) is new, replacing the unused
// A*/Dijkstra/tree machinery the teacher built this package around.
package graph

// Node is any comparable value used as a graph vertex. Equal exists
// alongside Go's built-in == so callers can compare nodes without a type
// assertion, matching the teacher's Node interface.
type Node interface {
	Equal(other Node) bool
}

// Graph provides a node's outgoing neighbors.
type Graph interface {
	Neighbors(n Node) []Node
}

// GenericGraph is an adjacency-list directed graph.
type GenericGraph struct {
	nodes     []Node
	seen      map[Node]bool
	neighbors map[Node][]Node
}

// NewGenericGraph creates an empty directed graph.
func NewGenericGraph() *GenericGraph {
	return &GenericGraph{
		seen:      make(map[Node]bool),
		neighbors: make(map[Node][]Node),
	}
}

func (g *GenericGraph) addNode(n Node) {
	if g.seen[n] {
		return
	}
	g.seen[n] = true
	g.nodes = append(g.nodes, n)
}

// AddEdge adds a directed edge from -> to, registering both endpoints as
// nodes even if one has no further edges.
func (g *GenericGraph) AddEdge(from, to Node) {
	g.addNode(from)
	g.addNode(to)
	g.neighbors[from] = append(g.neighbors[from], to)
}

// AddNode registers n with no outgoing edges if it isn't already present.
func (g *GenericGraph) AddNode(n Node) { g.addNode(n) }

// Nodes returns every registered node, in the order first added.
func (g *GenericGraph) Nodes() []Node { return append([]Node(nil), g.nodes...) }

func (g *GenericGraph) Neighbors(n Node) []Node {
	return g.neighbors[n]
}
