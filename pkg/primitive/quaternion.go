package primitive

import (
	"math"

	"github.com/itohio/cmat/pkg/tensor"
)

// QuaternionOf builds a Quaternion from its (w, x, y, z) components.
func QuaternionOf(w, x, y, z float64) Value {
	out := New(KindQuaternion, 0, 0, nil)
	out.SetAt(w, 0)
	out.SetAt(x, 1)
	out.SetAt(y, 2)
	out.SetAt(z, 3)
	return out
}

// IdentityRot returns the identity rotation quaternion, tagged KindRot.
func IdentityRot() Value {
	out := New(KindRot, 0, 0, nil)
	out.SetAt(1, 0)
	out.SetAt(0, 1)
	out.SetAt(0, 2)
	out.SetAt(0, 3)
	return out
}

// Conjugate negates the vector part, per batch element.
func (v Value) Conjugate() (Value, error) {
	if v.kind != KindQuaternion && v.kind != KindRot {
		return Value{}, checkKind("Conjugate", v, KindQuaternion)
	}
	out := v.Clone()
	for i := range out.Data() {
		if i%4 != 0 {
			out.Data()[i] = -out.Data()[i]
		}
	}
	return wrapT(v.kind, out), nil
}

// Norm returns the Euclidean norm of each quaternion as a Scalar.
func (v Value) Norm() (Value, error) {
	if v.kind != KindQuaternion && v.kind != KindRot {
		return Value{}, checkKind("Norm", v, KindQuaternion)
	}
	batch := v.GroupDims(tensor.GroupBatch)
	out := New(KindScalar, v.DynamicDim(), v.IntmdDim(), batch)
	n := v.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		sum := 0.0
		for c := 0; c < 4; c++ {
			x := v.At(append(append([]int(nil), idx...), c)...)
			sum += x * x
		}
		out.SetAt(math.Sqrt(sum), idx...)
	}
	return out, nil
}

// Normalize divides each quaternion by its norm.
func (v Value) Normalize() (Value, error) {
	n, err := v.Norm()
	if err != nil {
		return Value{}, err
	}
	batch := v.GroupDims(tensor.GroupBatch)
	out := v.Clone()
	count := v.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < count; lin++ {
		batchUnravel(lin, batch, idx)
		norm := n.At(idx...)
		for c := 0; c < 4; c++ {
			full := append(append([]int(nil), idx...), c)
			out.SetAt(out.At(full...)/norm, full...)
		}
	}
	return wrapT(v.kind, out), nil
}

// HamiltonProduct composes two rotations/quaternions (q = v ⊗ o), the
// Hamilton product — distinct from the elementwise Mul other primitive
// kinds use, since composing rotations is not pointwise.
func (v Value) HamiltonProduct(o Value) (Value, error) {
	if err := mustSameKind("HamiltonProduct", v, o); err != nil {
		return Value{}, err
	}
	if v.kind != KindQuaternion && v.kind != KindRot {
		return Value{}, checkKind("HamiltonProduct", v, KindQuaternion)
	}
	batch, err := broadcastBatch(v, o)
	if err != nil {
		return Value{}, err
	}
	dynamicDim := v.DynamicDim()
	if o.DynamicDim() > dynamicDim {
		dynamicDim = o.DynamicDim()
	}
	intmdDim := v.IntmdDim()
	if o.IntmdDim() > intmdDim {
		intmdDim = o.IntmdDim()
	}
	out := New(v.kind, dynamicDim, intmdDim, batch)
	n := out.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		a := quatAt(v, idx)
		b := quatAt(o, idx)
		w := a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3]
		x := a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2]
		y := a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1]
		z := a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0]
		res := [4]float64{w, x, y, z}
		for c := 0; c < 4; c++ {
			out.SetAt(res[c], append(append([]int(nil), idx...), c)...)
		}
	}
	return out, nil
}

func quatAt(v Value, idx []int) [4]float64 {
	var out [4]float64
	for c := 0; c < 4; c++ {
		out[c] = v.At(append(append([]int(nil), idx...), c)...)
	}
	return out
}

// RotationMatrix converts a unit rotation quaternion to its 3x3 rotation
// matrix (an R2).
func (v Value) RotationMatrix() (Value, error) {
	if v.kind != KindQuaternion && v.kind != KindRot {
		return Value{}, checkKind("RotationMatrix", v, KindRot)
	}
	batch := v.GroupDims(tensor.GroupBatch)
	out := New(KindR2, v.DynamicDim(), v.IntmdDim(), batch)
	n := v.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		q := quatAt(v, idx)
		w, x, y, z := q[0], q[1], q[2], q[3]
		m := [3][3]float64{
			{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
			{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
			{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				out.SetAt(m[i][j], append(append([]int(nil), idx...), i, j)...)
			}
		}
	}
	return out, nil
}
