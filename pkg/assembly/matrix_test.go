package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

func block2x1(a, b float64) tensor.Tensor {
	return tensor.FromSlice(tensor.Float64, 0, 0, 2, []int{2, 1}, []float64{a, b})
}

func TestAssembleDisassembleMatrixRoundTrip(t *testing.T) {
	rows := []Layout{{BaseShape: []int{2}}, {BaseShape: []int{2}}}
	cols := []Layout{{BaseShape: []int{1}}}

	blocks := [][]tensor.Tensor{
		{block2x1(1, 2)},
		{block2x1(3, 4)},
	}

	out, err := AssembleMatrix(nil, rows, cols, blocks)
	require.NoError(t, err)
	require.Equal(t, []int{4, 1}, out.Dims())
	assert.Equal(t, []float64{1, 2, 3, 4}, out.Data())

	back, err := DisassembleMatrix(nil, rows, cols, out)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, blocks[0][0].Data(), back[0][0].Data())
	assert.Equal(t, blocks[1][0].Data(), back[1][0].Data())
}

func TestAssembleMatrixZeroFillsMissingBlock(t *testing.T) {
	rows := []Layout{{BaseShape: []int{2}}}
	cols := []Layout{{BaseShape: []int{1}}, {BaseShape: []int{1}}}

	blocks := [][]tensor.Tensor{
		{block2x1(1, 2), {}},
	}

	out, err := AssembleMatrix(nil, rows, cols, blocks)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 2, 0}, out.Data())
}

func TestAssembleMatrixRejectsBadBlockShape(t *testing.T) {
	rows := []Layout{{BaseShape: []int{2}}}
	cols := []Layout{{BaseShape: []int{1}}}

	wrong := tensor.FromSlice(tensor.Float64, 0, 0, 2, []int{1, 1}, []float64{1})
	_, err := AssembleMatrix(nil, rows, cols, [][]tensor.Tensor{{wrong}})
	require.ErrorIs(t, err, tensor.ErrShape)
}
