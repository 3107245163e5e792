package primitive

import "github.com/itohio/cmat/pkg/tensor"

// R2Of builds a 3x3 R2 from its nine components, row-major.
func R2Of(m [3][3]float64) Value {
	out := New(KindR2, 0, 0, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.SetAt(m[i][j], i, j)
		}
	}
	return out
}

// Transpose swaps the last two base dims of an R2.
func (v Value) Transpose() (Value, error) {
	if err := checkKind("Transpose", v, KindR2); err != nil {
		return Value{}, err
	}
	base := v.DynamicDim() + v.IntmdDim()
	return wrapT(KindR2, v.MoveDim(base, base+1)), nil
}

// Trace returns the sum of an R2's diagonal, per batch element, as a
// Scalar.
func (v Value) Trace() (Value, error) {
	if err := checkKind("Trace", v, KindR2); err != nil {
		return Value{}, err
	}
	batch := v.GroupDims(tensor.GroupBatch)
	out := New(KindScalar, v.DynamicDim(), v.IntmdDim(), batch)
	n := v.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		sum := 0.0
		for i := 0; i < 3; i++ {
			sum += v.At(append(append([]int(nil), idx...), i, i)...)
		}
		out.SetAt(sum, idx...)
	}
	return out, nil
}
