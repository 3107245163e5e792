package graph

// DetectCycle reports whether the subgraph reachable from start contains
// a cycle, via the teacher's recursion-stack DFS (pkg/core/math/graph's
// LoopDetection, kept verbatim).
func DetectCycle(g Graph, start Node) bool {
	if start == nil {
		return false
	}
	visited := make(map[Node]bool)
	recStack := make(map[Node]bool)
	return cycleDFS(g, start, visited, recStack)
}

func cycleDFS(g Graph, node Node, visited, recStack map[Node]bool) bool {
	visited[node] = true
	recStack[node] = true

	for _, neighbor := range g.Neighbors(node) {
		if !visited[neighbor] {
			if cycleDFS(g, neighbor, visited, recStack) {
				return true
			}
		} else if recStack[neighbor] {
			return true
		}
	}

	recStack[node] = false
	return false
}
