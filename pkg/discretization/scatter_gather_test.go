package discretization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

// Two 1D linear bar elements sharing node 1: [0,1], [1,2], 1 DOF/node.
func barConnectivity() Connectivity {
	return Connectivity{{0, 1}, {1, 2}}
}

func TestScatterDistributesNodalValuesToElements(t *testing.T) {
	conn := barConnectivity()
	global := tensor.New(tensor.Float64, 0, 1, 1, []int{3, 1})
	for i, v := range []float64{10, 20, 30} {
		global.SetAt(v, i, 0)
	}

	locals, err := Scatter(global, conn, 1)
	require.NoError(t, err)
	require.Len(t, locals, 2)
	assert.Equal(t, []float64{10, 20}, locals[0].Data())
	assert.Equal(t, []float64{20, 30}, locals[1].Data())
}

func TestGatherAccumulatesAtSharedNode(t *testing.T) {
	conn := barConnectivity()
	e0 := tensor.New(tensor.Float64, 0, 1, 1, []int{2, 1})
	e0.SetAt(1, 0, 0)
	e0.SetAt(2, 1, 0)
	e1 := tensor.New(tensor.Float64, 0, 1, 1, []int{2, 1})
	e1.SetAt(3, 0, 0)
	e1.SetAt(4, 1, 0)

	global, err := Gather([]tensor.Tensor{e0, e1}, conn, 1, conn.NodeCount())
	require.NoError(t, err)
	// node 0: 1, node 1: 2+3=5 (shared), node 2: 4
	assert.Equal(t, []float64{1, 5, 4}, global.Data())
}

func TestAssembleGlobalMatchesGather(t *testing.T) {
	conn := barConnectivity()
	e0 := tensor.New(tensor.Float64, 0, 1, 1, []int{2, 1})
	e0.SetAt(1, 0, 0)
	e0.SetAt(1, 1, 0)
	e1 := tensor.New(tensor.Float64, 0, 1, 1, []int{2, 1})
	e1.SetAt(1, 0, 0)
	e1.SetAt(1, 1, 0)

	gathered, err := Gather([]tensor.Tensor{e0, e1}, conn, 1, conn.NodeCount())
	require.NoError(t, err)
	assembled, err := AssembleGlobal([]tensor.Tensor{e0, e1}, conn, 1, conn.NodeCount())
	require.NoError(t, err)
	assert.Equal(t, gathered.Data(), assembled.Data())
}

func TestConnectivityNodeCount(t *testing.T) {
	assert.Equal(t, 3, barConnectivity().NodeCount())
}

func TestScatterRejectsShapeMismatch(t *testing.T) {
	conn := barConnectivity()
	global := tensor.New(tensor.Float64, 0, 1, 1, []int{2, 1}) // too few nodes
	_, err := Scatter(global, conn, 1)
	require.ErrorIs(t, err, ErrShape)
}
