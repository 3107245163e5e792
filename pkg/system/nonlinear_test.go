package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

func TestNonlinearSystemAAndDrDgAndRhs(t *testing.T) {
	m := newCoupledModel(t)
	sys := NewNonlinearSystem(m,
		[]string{"state.u1", "state.u2"},
		[]string{"residual.r1", "residual.r2"},
		[]string{"forces.g1", "forces.g2"},
	)

	require.NoError(t, sys.SetU(tensor.FromSlice(tensor.Float64, 0, 0, 1, []int{2}, []float64{1, 2})))
	require.NoError(t, sys.SetG(tensor.FromSlice(tensor.Float64, 0, 0, 1, []int{2}, []float64{3, 4})))

	A, B, b, err := sys.AAndDrDgAndRhs()
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0.5, 0, 1}, A.Data())
	assert.Equal(t, []float64{-1, 0, 0, -1}, B.Data())

	// r1 = 1 + 1 - 3 = -1, r2 = 2 - 4 = -2, b = -r = [1, 2]
	assert.Equal(t, []float64{1, 2}, b.Data())
}

func TestNonlinearSystemGRoundTrip(t *testing.T) {
	m := newCoupledModel(t)
	sys := NewNonlinearSystem(m,
		[]string{"state.u1", "state.u2"},
		[]string{"residual.r1", "residual.r2"},
		[]string{"forces.g1", "forces.g2"},
	)
	require.NoError(t, sys.SetG(tensor.FromSlice(tensor.Float64, 0, 0, 1, []int{2}, []float64{7, 8})))
	g, err := sys.G()
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, g.Data())
}
