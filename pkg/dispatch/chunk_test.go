package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

func batch(vals ...float64) tensor.Tensor {
	return tensor.FromSlice(tensor.Float64, 1, 0, 0, []int{len(vals)}, vals)
}

func TestChunkRanges(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 5}}, chunkRanges(5, 0))
	assert.Equal(t, [][2]int{{0, 2}, {2, 4}, {4, 5}}, chunkRanges(5, 2))
	assert.Equal(t, [][2]int{{0, 5}}, chunkRanges(5, 10))
}

func TestSliceDynamicAndConcatRoundTrip(t *testing.T) {
	full := batch(1, 2, 3, 4, 5)
	chunks := []tensor.Tensor{
		sliceDynamic(full, 0, 2),
		sliceDynamic(full, 2, 4),
		sliceDynamic(full, 4, 5),
	}
	assert.Equal(t, []float64{1, 2}, chunks[0].Data())
	assert.Equal(t, []float64{3, 4}, chunks[1].Data())
	assert.Equal(t, []float64{5}, chunks[2].Data())

	merged, err := concatDynamic(chunks)
	require.NoError(t, err)
	assert.Equal(t, full.Data(), merged.Data())
}

func TestSliceDynamicPassesThroughBroadcastValue(t *testing.T) {
	param := tensor.Scalar(9)
	assert.Equal(t, param.Data(), sliceDynamic(param, 0, 3).Data())
}

func TestDynamicSizeRejectsMismatch(t *testing.T) {
	_, _, err := dynamicSize(map[string]tensor.Tensor{
		"a": batch(1, 2, 3),
		"b": batch(1, 2),
	})
	require.ErrorIs(t, err, ErrShape)
}

func TestDynamicSizeIgnoresBroadcastEntries(t *testing.T) {
	n, found, err := dynamicSize(map[string]tensor.Tensor{
		"a": batch(1, 2, 3),
		"p": tensor.Scalar(9),
	})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, n)
}
