package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/factory"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
)

func TestComposedSumsSubmodelOutputsSlotBySlot(t *testing.T) {
	host := model.NewHost("host")
	m, err := NewComposed(host, "composed", 0.1, 2.0)
	require.NoError(t, err)
	require.NoError(t, m.Setup())

	const n = 10 // dynamic-batch shape {2,5}
	dims := []int{2, 5}
	temp := make([]float64, n)
	bar := make([]float64, n)
	for i := range temp {
		temp[i] = float64(i) + 1
		bar[i] = float64(i) * 0.5
	}
	temperature := tensor.FromSlice(tensor.Float64, 2, 0, 0, dims, temp)
	barT := tensor.FromSlice(tensor.Float64, 2, 0, 0, dims, bar)

	vals, err := m.Value(map[string]tensor.Tensor{
		"forces.temperature": temperature,
		"state.bar":          barT,
	})
	require.NoError(t, err)

	sum := vals["state.sum"]
	require.Len(t, sum.Data(), n)
	for i := 0; i < n; i++ {
		expected := temp[i]*0.1 + bar[i]*2.0
		assert.InDelta(t, expected, sum.Data()[i], 1e-9)
	}
}

func TestComposedDerivatives(t *testing.T) {
	host := model.NewHost("host")
	m, err := NewComposed(host, "composed", 0.1, 2.0)
	require.NoError(t, err)
	require.NoError(t, m.Setup())

	derivs, err := m.DValue(map[string]tensor.Tensor{
		"forces.temperature": tensor.Scalar(3),
		"state.bar":          tensor.Scalar(4),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.1, derivs["state.sum"]["forces.temperature"].At(0, 0))
	assert.Equal(t, 2.0, derivs["state.sum"]["state.bar"].At(0, 0))
}

func TestComposedRegisteredWithFactory(t *testing.T) {
	assert.Contains(t, factory.RegisteredTypes(), "composed")
}
