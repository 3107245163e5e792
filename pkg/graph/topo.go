package graph

import "fmt"

// NodeLister is a Graph that can also enumerate every node it knows
// about, in a stable insertion order. GenericGraph implements it.
type NodeLister interface {
	Graph
	Nodes() []Node
}

// TopologicalOrder computes a Kahn's-algorithm topological ordering of
// g: every node appears after all of its predecessors. New relative to
// the teacher (pkg/core/math/graph only ever walked a graph between two
// points); needed by pkg/model's C10 dependency resolver to order
// submodel evaluation by consumed/provided variable names.
func TopologicalOrder(g NodeLister) ([]Node, error) {
	nodes := g.Nodes()
	indegree := make(map[Node]int, len(nodes))
	for _, n := range nodes {
		indegree[n] = 0
	}
	for _, n := range nodes {
		for _, m := range g.Neighbors(n) {
			indegree[m]++
		}
	}

	queue := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if indegree[n] == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]Node, 0, len(nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, m := range g.Neighbors(n) {
			indegree[m]--
			if indegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, fmt.Errorf("%w: %d of %d nodes ordered", ErrCycle, len(order), len(nodes))
	}
	return order, nil
}
