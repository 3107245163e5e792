package primitive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindBaseSizes(t *testing.T) {
	assert.Equal(t, []int{3}, KindVec.BaseSizes())
	assert.Equal(t, []int{3, 3}, KindR2.BaseSizes())
	assert.Equal(t, []int{6}, KindSR2.BaseSizes())
	assert.Equal(t, []int{6, 6}, KindSSR4.BaseSizes())
	assert.Equal(t, []int{4}, KindQuaternion.BaseSizes())
	assert.Equal(t, "SR2", KindSR2.String())
}

func TestVecAddMismatchKind(t *testing.T) {
	v := VecOf(1, 2, 3)
	s := ScalarOf(1)
	_, err := v.Add(s)
	require.Error(t, err)
}

func TestSR2RoundTrip(t *testing.T) {
	e := SR2Of(0.1, 0.05, -0.03, 0.02, 0.06, 0.03)
	r2, err := e.ToR2()
	require.NoError(t, err)
	back, err := FromR2(r2)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, e.At(i), back.At(i), 1e-12)
	}
	// symmetric off-diagonal entries match.
	assert.InDelta(t, r2.At(1, 2), r2.At(2, 1), 1e-12)
}

func TestSSR4ContractIdentity(t *testing.T) {
	var id [6][6]float64
	for i := 0; i < 6; i++ {
		id[i][i] = 1
	}
	c := SSR4Of(id)
	e := SR2Of(0.1, 0.05, -0.03, 0.02, 0.06, 0.03)
	out, err := c.Contract(e)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, e.At(i), out.At(i), 1e-12)
	}
}

func TestQuaternionIdentityRotation(t *testing.T) {
	q := IdentityRot()
	r2, err := q.RotationMatrix()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			assert.InDelta(t, want, r2.At(i, j), 1e-12)
		}
	}
}

func TestQuaternionNormalize(t *testing.T) {
	q := QuaternionOf(2, 0, 0, 0)
	n, err := q.Normalize()
	require.NoError(t, err)
	norm, err := n.Norm()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm.At(), 1e-12)
}

func TestHamiltonProductWithIdentity(t *testing.T) {
	q := QuaternionOf(0, 1, 0, 0)
	id := IdentityRot()
	out, err := q.HamiltonProduct(Value{Tensor: id.Tensor, kind: KindQuaternion})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out.At(0), 1e-12)
	assert.InDelta(t, 1.0, out.At(1), 1e-12)
}

func TestR2Trace(t *testing.T) {
	r := R2Of([3][3]float64{{1, 0, 0}, {0, 2, 0}, {0, 0, 3}})
	tr, err := r.Trace()
	require.NoError(t, err)
	assert.Equal(t, 6.0, tr.At())
}

func TestR2Transpose(t *testing.T) {
	r := R2Of([3][3]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	rt, err := r.Transpose()
	require.NoError(t, err)
	assert.Equal(t, 2.0, rt.At(1, 0))
	assert.Equal(t, 4.0, rt.At(0, 1))
}

func TestScaleBatched(t *testing.T) {
	v := New(KindVec, 1, 0, []int{2})
	v.SetAt(1, 0, 0)
	v.SetAt(2, 1, 2)
	scaled := v.Scale(2)
	assert.Equal(t, 2.0, scaled.At(0, 0))
	assert.Equal(t, 4.0, scaled.At(1, 2))
}

func TestNegative(t *testing.T) {
	s := ScalarOf(3)
	neg := s.Negative()
	assert.Equal(t, -3.0, neg.At())
}
