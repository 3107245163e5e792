package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type strNode string

func (s strNode) Equal(other Node) bool {
	o, ok := other.(strNode)
	return ok && o == s
}

func TestGenericGraphNeighbors(t *testing.T) {
	g := NewGenericGraph()
	g.AddEdge(strNode("a"), strNode("b"))
	g.AddEdge(strNode("a"), strNode("c"))
	g.AddEdge(strNode("b"), strNode("c"))

	assert.ElementsMatch(t, []Node{strNode("b"), strNode("c")}, g.Neighbors(strNode("a")))
	assert.Equal(t, []Node{strNode("a"), strNode("b"), strNode("c")}, g.Nodes())
}

func TestDetectCycleFindsBackEdge(t *testing.T) {
	g := NewGenericGraph()
	g.AddEdge(strNode("a"), strNode("b"))
	g.AddEdge(strNode("b"), strNode("c"))
	g.AddEdge(strNode("c"), strNode("a"))

	assert.True(t, DetectCycle(g, strNode("a")))
}

func TestDetectCycleFalseOnDAG(t *testing.T) {
	g := NewGenericGraph()
	g.AddEdge(strNode("a"), strNode("b"))
	g.AddEdge(strNode("b"), strNode("c"))

	assert.False(t, DetectCycle(g, strNode("a")))
}

func TestTopologicalOrderRespectsEdges(t *testing.T) {
	g := NewGenericGraph()
	g.AddEdge(strNode("a"), strNode("b"))
	g.AddEdge(strNode("a"), strNode("c"))
	g.AddEdge(strNode("b"), strNode("d"))
	g.AddEdge(strNode("c"), strNode("d"))

	order, err := TopologicalOrder(g)
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := map[Node]int{}
	for i, n := range order {
		pos[n] = i
	}
	assert.Less(t, pos[strNode("a")], pos[strNode("b")])
	assert.Less(t, pos[strNode("a")], pos[strNode("c")])
	assert.Less(t, pos[strNode("b")], pos[strNode("d")])
	assert.Less(t, pos[strNode("c")], pos[strNode("d")])
}

func TestTopologicalOrderErrorsOnCycle(t *testing.T) {
	g := NewGenericGraph()
	g.AddEdge(strNode("a"), strNode("b"))
	g.AddEdge(strNode("b"), strNode("a"))

	_, err := TopologicalOrder(g)
	require.ErrorIs(t, err, ErrCycle)
}
