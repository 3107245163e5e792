// Package primitive implements the fixed-base-shape tensor families of
// spec.md §3 (C3): Scalar, Vec, R2, SR2, SSR4, Rot/Quaternion. Each is a
// Value carrying a Kind tag plus a pkg/tensor.Tensor whose base dims are
// fixed by that Kind, generalizing the teacher's per-type vector/matrix
// families (pkg/core/math/vec, pkg/core/math/mat) into a single delegating
// wrapper (spec §9's CRTP mapping note): rather than one Go type per
// primitive class, Value carries its class as a runtime tag and shares one
// implementation over the underlying untyped Tensor.
package primitive

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// Kind identifies a primitive tensor class by its fixed base shape. The
// String() form is the stable name spec.md §6 requires for introspection.
type Kind uint8

const (
	KindScalar Kind = iota
	KindVec
	KindR2
	KindSR2
	KindSSR4
	KindRot
	KindQuaternion
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindVec:
		return "Vec"
	case KindR2:
		return "R2"
	case KindSR2:
		return "SR2"
	case KindSSR4:
		return "SSR4"
	case KindRot:
		return "Rot"
	case KindQuaternion:
		return "Quaternion"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// BaseSizes returns the fixed trailing (base) dims of k. Rot is an alias
// for Quaternion's base shape; the two kinds differ only in which
// operations (Hamilton product vs. plain arithmetic) are meaningful.
func (k Kind) BaseSizes() []int {
	switch k {
	case KindScalar:
		return nil
	case KindVec:
		return []int{3}
	case KindR2:
		return []int{3, 3}
	case KindSR2:
		return []int{6}
	case KindSSR4:
		return []int{6, 6}
	case KindRot, KindQuaternion:
		return []int{4}
	default:
		panic(fmt.Sprintf("primitive: unknown kind %d", uint8(k)))
	}
}

// Value is a tensor.Tensor tagged with its primitive Kind. The embedded
// Tensor gives every Value the untyped Dims/At/SetAt/Reshape/Expand
// surface for free, per spec §9's "preserve both typed and untyped paths".
type Value struct {
	tensor.Tensor
	kind Kind
}

// Kind returns the value's primitive tensor class.
func (v Value) Kind() Kind { return v.kind }

// New creates a zero-valued Value of kind k with the given dynamic and
// intermediate batch dims; the base dims are appended automatically from
// k.BaseSizes().
func New(k Kind, dynamicDim, intmdDim int, batchDims []int) Value {
	base := k.BaseSizes()
	dims := append(append([]int(nil), batchDims...), base...)
	t := tensor.New(tensor.Float64, dynamicDim, intmdDim, len(base), dims)
	return Value{Tensor: t, kind: k}
}

func wrapT(k Kind, t tensor.Tensor) Value { return Value{Tensor: t, kind: k} }

// Wrap tags an already-shaped tensor.Tensor as a Value of kind k, for
// code on the untyped side of spec §9's typed/untyped split — a model's
// ForwardFunc reads and writes plain tensor.Tensor through its
// variable.Store, and must wrap the base-shape-matching result as a
// primitive Value before calling a typed operation like Contract.
// Callers are responsible for t's base dims actually matching
// k.BaseSizes(); this is a labeled reinterpretation, not a reshape.
func Wrap(k Kind, t tensor.Tensor) Value { return wrapT(k, t) }

// mustSameKind reports whether a and b are the same primitive Kind;
// binary ops across mismatched kinds are a shape error, not a runtime
// broadcasting concern.
func mustSameKind(op string, a, b Value) error {
	if a.kind != b.kind {
		return fmt.Errorf("%w: primitive: %s: kind mismatch %s vs %s", tensor.ErrShape, op, a.kind, b.kind)
	}
	return nil
}

// ScalarOf returns a rank-0-base Scalar holding v.
func ScalarOf(v float64) Value {
	out := New(KindScalar, 0, 0, nil)
	out.SetAt(v)
	return out
}

// VecOf returns a Vec with the given three components.
func VecOf(x, y, z float64) Value {
	out := New(KindVec, 0, 0, nil)
	out.SetAt(x, 0)
	out.SetAt(y, 1)
	out.SetAt(z, 2)
	return out
}

// SSR4Of builds a fourth-order 6x6 stiffness/compliance tensor in Mandel
// basis from a row-major 6x6 matrix.
func SSR4Of(m [6][6]float64) Value {
	out := New(KindSSR4, 0, 0, nil)
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			out.SetAt(m[i][j], i, j)
		}
	}
	return out
}

// Add returns a+b. Both operands must share Kind; shapes broadcast per
// pkg/tensor's elementwise rules.
func (v Value) Add(o Value) (Value, error) {
	if err := mustSameKind("Add", v, o); err != nil {
		return Value{}, err
	}
	t, err := v.Tensor.Add(o.Tensor)
	if err != nil {
		return Value{}, err
	}
	return wrapT(v.kind, t), nil
}

// Sub returns v-o.
func (v Value) Sub(o Value) (Value, error) {
	if err := mustSameKind("Sub", v, o); err != nil {
		return Value{}, err
	}
	t, err := v.Tensor.Sub(o.Tensor)
	if err != nil {
		return Value{}, err
	}
	return wrapT(v.kind, t), nil
}

// Scale returns v scaled by s.
func (v Value) Scale(s float64) Value {
	return wrapT(v.kind, v.Tensor.Scale(s))
}

// Negative returns -v.
func (v Value) Negative() Value {
	return wrapT(v.kind, v.Tensor.Negative())
}

// batchUnravel decomposes a linear index over dims into a multi-index,
// duplicating pkg/tensor's private unravel for the small batch loops used
// by SR2/Quaternion conversions below (those operate on fixed, tiny base
// shapes and don't warrant exporting the general routine).
func batchUnravel(lin int, dims []int, out []int) {
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = lin % dims[i]
		lin /= dims[i]
	}
}
