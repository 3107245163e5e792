package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAt(t *testing.T) {
	x := New(Float64, 1, 1, 1, []int{2, 3, 4})
	assert.Equal(t, 3, x.Dim())
	assert.Equal(t, 24, x.Size())
	x.SetAt(5, 1, 2, 3)
	assert.Equal(t, 5.0, x.At(1, 2, 3))
}

func TestGroupDims(t *testing.T) {
	x := New(Float64, 2, 1, 3, []int{5, 6, 7, 3, 3, 3})
	assert.Equal(t, []int{5, 6}, x.GroupDims(GroupDynamic))
	assert.Equal(t, []int{7}, x.GroupDims(GroupIntmd))
	assert.Equal(t, []int{3, 3, 3}, x.GroupDims(GroupBase))
	assert.Equal(t, []int{5, 6, 7}, x.GroupDims(GroupBatch))
	assert.Equal(t, []int{7, 3, 3, 3}, x.GroupDims(GroupStatic))
}

func TestElementwiseAddBroadcast(t *testing.T) {
	a := New(Float64, 1, 0, 1, []int{2, 3}).Fill(1)
	b := New(Float64, 1, 0, 1, []int{1, 3}).Fill(2)
	c, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, c.Dims())
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, 3.0, c.At(i, j))
		}
	}
}

func TestAlignIntmdDim(t *testing.T) {
	a := New(Float64, 1, 1, 1, []int{2, 4, 3})
	aligned := a.AlignIntmdDim(2)
	assert.Equal(t, 2, aligned.IntmdDim())
	assert.Equal(t, []int{4, 1}, aligned.GroupDims(GroupIntmd))
}

func TestSumToSize(t *testing.T) {
	a := New(Float64, 1, 0, 1, []int{3, 4}).Fill(1)
	summed := a.SumToSize(0, 0, 1, []int{1, 4})
	assert.Equal(t, []int{1, 4}, summed.Dims())
	for j := 0; j < 4; j++ {
		assert.Equal(t, 3.0, summed.At(0, j))
	}
}

func TestAssemblyRoundTrip(t *testing.T) {
	a := New(Float64, 1, 2, 1, []int{2, 3, 4, 5}).Fill(0)
	for i := range a.Data() {
		a.Data()[i] = float64(i)
	}
	asm := a.ToAssembly()
	assert.Equal(t, 0, asm.IntmdDim())
	assert.Equal(t, []int{2, 60}, asm.Dims())
	back := asm.FromAssembly([]int{3, 4}, []int{5})
	assert.Equal(t, a.Dims(), back.Dims())
	for i := range a.Data() {
		assert.Equal(t, a.Data()[i], back.Data()[i])
	}
}

func TestDiagEmbed(t *testing.T) {
	v := New(Float64, 0, 0, 1, []int{3})
	v.SetAt(1, 0)
	v.SetAt(2, 1)
	v.SetAt(3, 2)
	d := v.DiagEmbed()
	assert.Equal(t, []int{3, 3}, d.Dims())
	assert.Equal(t, 1.0, d.At(0, 0))
	assert.Equal(t, 0.0, d.At(0, 1))
	assert.Equal(t, 2.0, d.At(1, 1))
	assert.Equal(t, 3.0, d.At(2, 2))
}

func TestBroadcastBaseMismatchErrors(t *testing.T) {
	a := New(Float64, 0, 0, 1, []int{3})
	b := New(Float64, 0, 0, 1, []int{4})
	_, err := a.Add(b)
	require.Error(t, err)
}
