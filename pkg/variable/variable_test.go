package variable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
)

func TestReferenceForwardsValue(t *testing.T) {
	owner := New("state.x", nil, nil)
	ref := New("forces.x", nil, nil)
	require.NoError(t, ref.SetReference(owner))

	owner.Set(tensor.Scalar(5))
	assert.Equal(t, 5.0, ref.Get().At())

	ref.Set(tensor.Scalar(7))
	assert.Equal(t, 7.0, owner.Get().At())
}

func TestSetReferenceTwiceFails(t *testing.T) {
	owner := New("state.x", nil, nil)
	ref := New("forces.x", nil, nil)
	require.NoError(t, ref.SetReference(owner))
	other := New("residual.y", nil, nil)
	require.Error(t, ref.SetReference(other))
}

func TestIsDependent(t *testing.T) {
	s := New("state.x", nil, nil)
	f := New("forces.x", nil, nil)
	ctx := EvalContext{InNonlinearAssembly: true}
	assert.True(t, s.IsDependent(ctx))
	assert.False(t, f.IsDependent(ctx))
	assert.True(t, f.IsDependent(EvalContext{InNonlinearAssembly: false}))
}

func TestDerivativeDirectAssign(t *testing.T) {
	y := New("state.y", nil, nil)
	x := New("forces.x", nil, nil)
	d := y.Derivative(x)
	require.NoError(t, d.Assign(tensor.Scalar(3)))
	require.NoError(t, d.Assign(tensor.Scalar(2)))
	assert.Equal(t, []int{1, 1}, d.Get().Dims())
	assert.Equal(t, 5.0, d.Get().At(0, 0))
}

func TestDerivativeDiagonalization(t *testing.T) {
	y := New("state.y", []int{3}, nil)
	x := New("forces.x", []int{3}, nil)
	d := y.Derivative(x)
	d.SetDependentX(0, true)

	v := tensor.New(tensor.Float64, 0, 1, 0, []int{3})
	v.SetAt(10, 0)
	v.SetAt(20, 1)
	v.SetAt(30, 2)
	require.NoError(t, d.Assign(v))

	asm := d.Get()
	require.Equal(t, []int{3, 3}, asm.Dims())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = v.At(i)
			}
			assert.Equal(t, want, asm.At(i, j))
		}
	}
}

func TestStoreDeclareAndSetup(t *testing.T) {
	s := NewStore()
	_, err := s.Declare("state.x", nil, nil)
	require.NoError(t, err)
	_, err = s.Declare("forces.y", nil, []int{3})
	require.NoError(t, err)
	require.NoError(t, s.Setup())

	v, ok := s.Get("state/x")
	require.True(t, ok)
	assert.Equal(t, "state.x", v.Name)
	assert.Equal(t, []string{"state.x", "forces.y"}, s.Names())
}
