package primitive

import (
	"fmt"
	"math"

	"github.com/itohio/cmat/pkg/tensor"
)

// sr2Pairs fixes the SR2 Mandel-basis component order: normal components
// first (xx, yy, zz), then shear (yz, xz, xy), matching the ordering used
// by models.LinearIsotropic's stiffness assembly.
var sr2Pairs = [6][2]int{{0, 0}, {1, 1}, {2, 2}, {1, 2}, {0, 2}, {0, 1}}

func checkKind(op string, v Value, want Kind) error {
	if v.kind != want {
		return fmt.Errorf("primitive: %s: expected kind %s, got %s", op, want, v.kind)
	}
	return nil
}

// SR2Of builds a symmetric rank-2 tensor from its six Mandel components
// (xx, yy, zz, yz, xz, xy).
func SR2Of(xx, yy, zz, yz, xz, xy float64) Value {
	out := New(KindSR2, 0, 0, nil)
	out.SetAt(xx, 0)
	out.SetAt(yy, 1)
	out.SetAt(zz, 2)
	out.SetAt(yz, 3)
	out.SetAt(xz, 4)
	out.SetAt(xy, 5)
	return out
}

// ToR2 expands an SR2 into its full symmetric 3x3 R2 representation.
// Off-diagonal Mandel components carry a sqrt(2) weight (spec.md's "(6,)
// for symmetric rank-2 in Mandel notation"); ToR2/FromR2 undo it so
// double-dot products taken in Mandel form equal the full-tensor
// double-dot product.
func (v Value) ToR2() (Value, error) {
	if err := checkKind("ToR2", v, KindSR2); err != nil {
		return Value{}, err
	}
	batch := v.GroupDims(tensor.GroupBatch)
	out := New(KindR2, v.DynamicDim(), v.IntmdDim(), batch)
	n := v.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		for c, pair := range sr2Pairs {
			val := v.At(append(append([]int(nil), idx...), c)...)
			i, j := pair[0], pair[1]
			if i != j {
				val /= math.Sqrt2
			}
			out.SetAt(val, append(append([]int(nil), idx...), i, j)...)
			if i != j {
				out.SetAt(val, append(append([]int(nil), idx...), j, i)...)
			}
		}
	}
	return out, nil
}

// FromR2 contracts a symmetric R2 into SR2 Mandel form, the inverse of
// ToR2. Only the (i,j) entries named by sr2Pairs are read, so asymmetry
// in r is ignored rather than checked.
func FromR2(r Value) (Value, error) {
	if err := checkKind("FromR2", r, KindR2); err != nil {
		return Value{}, err
	}
	batch := r.GroupDims(tensor.GroupBatch)
	out := New(KindSR2, r.DynamicDim(), r.IntmdDim(), batch)
	n := r.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		for c, pair := range sr2Pairs {
			i, j := pair[0], pair[1]
			val := r.At(append(append([]int(nil), idx...), i, j)...)
			if i != j {
				val *= math.Sqrt2
			}
			out.SetAt(val, append(append([]int(nil), idx...), c)...)
		}
	}
	return out, nil
}

// Contract applies a fourth-order SSR4 stiffness/compliance tensor to an
// SR2 strain/stress (batched 6x6 * 6 matrix-vector product in Mandel
// basis), returning an SR2. Used by models.LinearIsotropic to evaluate
// Hooke's law.
func (c Value) Contract(e Value) (Value, error) {
	if err := checkKind("Contract", c, KindSSR4); err != nil {
		return Value{}, err
	}
	if err := checkKind("Contract", e, KindSR2); err != nil {
		return Value{}, err
	}
	batch, err := broadcastBatch(c, e)
	if err != nil {
		return Value{}, err
	}
	dynamicDim := c.DynamicDim()
	if e.DynamicDim() > dynamicDim {
		dynamicDim = e.DynamicDim()
	}
	intmdDim := c.IntmdDim()
	if e.IntmdDim() > intmdDim {
		intmdDim = e.IntmdDim()
	}
	out := New(KindSR2, dynamicDim, intmdDim, batch)
	n := out.GroupSize(tensor.GroupBatch)
	idx := make([]int, len(batch))
	for lin := 0; lin < n; lin++ {
		batchUnravel(lin, batch, idx)
		for i := 0; i < 6; i++ {
			sum := 0.0
			for k := 0; k < 6; k++ {
				sum += c.At(append(append([]int(nil), idx...), i, k)...) * e.At(append(append([]int(nil), idx...), k)...)
			}
			out.SetAt(sum, append(append([]int(nil), idx...), i)...)
		}
	}
	return out, nil
}

// broadcastBatch returns the common batch (dynamic+intmd) shape of a and
// b, trailing-aligned, or an error if not broadcastable. Unlike
// pkg/tensor's elementwise path this only needs the shape, not an
// expanded view, since Contract indexes both operands independently.
func broadcastBatch(a, b Value) ([]int, error) {
	da := a.GroupDims(tensor.GroupBatch)
	db := b.GroupDims(tensor.GroupBatch)
	n := len(da)
	if len(db) > n {
		n = len(db)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		va, vb := 1, 1
		if i < len(da) {
			va = da[len(da)-1-i]
		}
		if i < len(db) {
			vb = db[len(db)-1-i]
		}
		switch {
		case va == vb:
			out[n-1-i] = va
		case va == 1:
			out[n-1-i] = vb
		case vb == 1:
			out[n-1-i] = va
		default:
			return nil, fmt.Errorf("%w: batch dims not broadcastable: %v vs %v", tensor.ErrShape, da, db)
		}
	}
	return out, nil
}
