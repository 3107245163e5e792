package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

func vec3(x, y, z float64) tensor.Tensor {
	return tensor.FromSlice(tensor.Float64, 0, 0, 1, []int{3}, []float64{x, y, z})
}

func TestAssembleDisassembleRoundTrip(t *testing.T) {
	layouts := []Layout{
		{BaseShape: []int{3}},
		{BaseShape: []int{3}},
	}
	values := []tensor.Tensor{vec3(1, 2, 3), vec3(4, 5, 6)}

	out, err := Assemble(nil, layouts, values)
	require.NoError(t, err)
	require.Equal(t, []int{6}, out.Dims())
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, out.Data())

	back, err := Disassemble(nil, layouts, out)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, values[0].Data(), back[0].Data())
	assert.Equal(t, values[1].Data(), back[1].Data())
}

func TestAssembleZeroFillsMissingEntry(t *testing.T) {
	layouts := []Layout{
		{BaseShape: []int{3}},
		{BaseShape: []int{2}},
	}
	values := []tensor.Tensor{vec3(1, 2, 3), {}}

	out, err := Assemble(nil, layouts, values)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 0, 0}, out.Data())
}

func TestAssembleRejectsLayoutValueMismatch(t *testing.T) {
	layouts := []Layout{{BaseShape: []int{3}}}
	values := []tensor.Tensor{{}, {}}
	_, err := Assemble(nil, layouts, values)
	require.Error(t, err)
	require.ErrorIs(t, err, tensor.ErrShape)
}

func TestAssembleRejectsShapeMismatch(t *testing.T) {
	layouts := []Layout{{BaseShape: []int{4}}}
	values := []tensor.Tensor{vec3(1, 2, 3)}
	_, err := Assemble(nil, layouts, values)
	require.ErrorIs(t, err, tensor.ErrShape)
}

func TestAssembleWithDynamicDim(t *testing.T) {
	layouts := []Layout{{BaseShape: []int{2}}}
	batched := tensor.FromSlice(tensor.Float64, 1, 0, 1, []int{2, 2}, []float64{1, 2, 3, 4})
	out, err := Assemble([]int{2}, layouts, []tensor.Tensor{batched})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, out.Dims())
	assert.Equal(t, 1.0, out.At(0, 0))
	assert.Equal(t, 4.0, out.At(1, 1))
}
