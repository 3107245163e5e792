// Package tensor implements the batched tensor abstraction described in
// spec.md §3 (C1): a dense buffer whose logical shape is partitioned,
// leading to trailing, into three contiguous groups —
//
//	[ dynamic dims | intermediate dims | base dims ]
//
// Dynamic dims are the batch axes; like every dim here they are plain
// ints (pkg/tensor/shape's opaque Dim is not used by Tensor or by
// pkg/model's JIT cache); intermediate dims are statically
// sized axes still iterated pointwise by most operations (e.g. per
// quadrature point); base dims are fixed by a primitive tensor type's
// semantics (pkg/primitive).
//
// Grounded on pkg/core/math/tensor/{types,eager_tensor} in the teacher
// repository: a flat-buffer-backed value type with row-major strides,
// generalized with the dynamic/intermediate/base split spec.md requires.
package tensor

import "fmt"

// Group selects which dimension group an operation acts on (spec §3: every
// operation has dynamic_/intmd_/base_/batch_/static_ variants).
type Group int

const (
	GroupDynamic Group = iota
	GroupIntmd
	GroupBase
	GroupBatch  // dynamic + intermediate
	GroupStatic // intermediate + base
	GroupAll    // dynamic + intermediate + base
)

// Tensor is a dense, row-major, batched tensor. Zero value is an empty
// tensor (Dim() == 0). Tensor is a value type whose copies share one
// buffer; arithmetic operations return a new Tensor, matching the
// teacher's "operations return Tensor, callers chain or discard"
// convention, while SetAt, Fill and writes through Data modify the shared
// buffer in place.
type Tensor struct {
	dtype      DataType
	dynamicDim int // number of leading dynamic dims
	intmdDim   int // number of middle intermediate dims
	baseDim    int // number of trailing base dims
	dims       []int
	strides    []int
	offset     int
	data       []float64
}

// New creates a zero-filled tensor with the given dynamic/intermediate/base
// dim counts and concrete sizes. len(dims) must equal dynamicDim+intmdDim+baseDim.
func New(dtype DataType, dynamicDim, intmdDim, baseDim int, dims []int) Tensor {
	if len(dims) != dynamicDim+intmdDim+baseDim {
		panic(fmt.Sprintf("tensor.New: dim=%d but dynamic(%d)+intmd(%d)+base(%d)=%d",
			len(dims), dynamicDim, intmdDim, baseDim, dynamicDim+intmdDim+baseDim))
	}
	size := product(dims)
	return Tensor{
		dtype:      dtype,
		dynamicDim: dynamicDim,
		intmdDim:   intmdDim,
		baseDim:    baseDim,
		dims:       append([]int(nil), dims...),
		strides:    rowMajorStrides(dims),
		data:       make([]float64, size),
	}
}

// FromSlice wraps an existing buffer directly (no copy). len(data) must
// equal the product of dims.
func FromSlice(dtype DataType, dynamicDim, intmdDim, baseDim int, dims []int, data []float64) Tensor {
	if len(data) != product(dims) {
		panic(fmt.Sprintf("tensor.FromSlice: data length %d does not match shape size %d", len(data), product(dims)))
	}
	return Tensor{
		dtype:      dtype,
		dynamicDim: dynamicDim,
		intmdDim:   intmdDim,
		baseDim:    baseDim,
		dims:       append([]int(nil), dims...),
		strides:    rowMajorStrides(dims),
		data:       data,
	}
}

// Scalar returns a rank-0 tensor holding a single value.
func Scalar(v float64) Tensor {
	return FromSlice(Float64, 0, 0, 0, nil, []float64{v})
}

// DataType returns the tensor's storage precision.
func (t Tensor) DataType() DataType { return t.dtype }

// Dim returns the total rank (dynamicDim + intmdDim + baseDim).
func (t Tensor) Dim() int { return t.dynamicDim + t.intmdDim + t.baseDim }

// DynamicDim, IntmdDim, BaseDim return the size of each dimension group.
func (t Tensor) DynamicDim() int { return t.dynamicDim }
func (t Tensor) IntmdDim() int   { return t.intmdDim }
func (t Tensor) BaseDim() int    { return t.baseDim }

// Dims returns the full logical shape as plain ints (a copy).
func (t Tensor) Dims() []int { return append([]int(nil), t.dims...) }

// GroupDims returns the dims belonging to the given Group.
func (t Tensor) GroupDims(g Group) []int {
	lo, hi := t.groupRange(g)
	return append([]int(nil), t.dims[lo:hi]...)
}

// groupRange returns the half-open [lo,hi) slice of t.dims covered by g.
func (t Tensor) groupRange(g Group) (int, int) {
	switch g {
	case GroupDynamic:
		return 0, t.dynamicDim
	case GroupIntmd:
		return t.dynamicDim, t.dynamicDim + t.intmdDim
	case GroupBase:
		return t.dynamicDim + t.intmdDim, t.Dim()
	case GroupBatch:
		return 0, t.dynamicDim + t.intmdDim
	case GroupStatic:
		return t.dynamicDim, t.Dim()
	case GroupAll:
		return 0, t.Dim()
	default:
		panic(fmt.Sprintf("tensor: unknown group %d", g))
	}
}

// Size returns the total element count.
func (t Tensor) Size() int { return product(t.dims) }

// GroupSize returns the product of dims in the given group.
func (t Tensor) GroupSize(g Group) int {
	lo, hi := t.groupRange(g)
	return product(t.dims[lo:hi])
}

// Empty reports whether the tensor has no data.
func (t Tensor) Empty() bool { return len(t.data) == 0 }

// Data returns the underlying buffer (no copy). Mutating it mutates t.
func (t Tensor) Data() []float64 { return t.data }

// Strides returns the tensor's row-major strides (a copy).
func (t Tensor) Strides() []int { return append([]int(nil), t.strides...) }

// At returns the element at the given multi-index (one index per dim).
func (t Tensor) At(indices ...int) float64 {
	return t.data[t.offset+t.linearIndex(indices)]
}

// SetAt sets the element at the given multi-index.
func (t Tensor) SetAt(value float64, indices ...int) {
	t.data[t.offset+t.linearIndex(indices)] = value
}

func (t Tensor) linearIndex(indices []int) int {
	if len(indices) != len(t.dims) {
		panic(fmt.Sprintf("tensor: expected %d indices, got %d", len(t.dims), len(indices)))
	}
	idx := 0
	for i, v := range indices {
		if v < 0 || v >= t.dims[i] {
			panic(fmt.Sprintf("tensor: index %d out of range [0,%d) at axis %d", v, t.dims[i], i))
		}
		idx += v * t.strides[i]
	}
	return idx
}

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	out := t
	out.data = data
	out.offset = 0
	out.dims = append([]int(nil), t.dims...)
	out.strides = append([]int(nil), t.strides...)
	return out
}

// Fill sets every element to v and returns t for chaining.
func (t Tensor) Fill(v float64) Tensor {
	for i := range t.data {
		t.data[i] = v
	}
	return t
}

func (t Tensor) String() string {
	return fmt.Sprintf("Tensor(dtype=%s, dynamic=%v, intmd=%v, base=%v)",
		t.dtype, t.GroupDims(GroupDynamic), t.GroupDims(GroupIntmd), t.GroupDims(GroupBase))
}
