package graph

import "errors"

// ErrCycle is returned by TopologicalOrder when the graph is not a DAG.
var ErrCycle = errors.New("graph: cycle detected")
