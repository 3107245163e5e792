package tensor

import "fmt"

// Reshape returns a tensor with the given dynamic/intermediate/base dim
// counts and concrete sizes, sharing storage with t when t is contiguous
// (cloning first otherwise). The total element count must be unchanged.
func (t Tensor) Reshape(dynamicDim, intmdDim, baseDim int, dims []int) Tensor {
	if product(dims) != t.Size() {
		panic(fmt.Sprintf("tensor.Reshape: size mismatch %d -> %d", t.Size(), product(dims)))
	}
	src := t
	if !t.IsContiguous() {
		src = t.Clone()
	}
	return Tensor{
		dtype:      src.dtype,
		dynamicDim: dynamicDim,
		intmdDim:   intmdDim,
		baseDim:    baseDim,
		dims:       append([]int(nil), dims...),
		strides:    rowMajorStrides(dims),
		offset:     src.offset,
		data:       src.data,
	}
}

// IsContiguous reports whether t's strides describe a dense row-major
// layout for its shape.
func (t Tensor) IsContiguous() bool {
	return intsEqual(t.strides, rowMajorStrides(t.dims))
}

// Unsqueeze inserts a size-1 dim at local position pos within group g,
// growing g by one. Which group an inserted dim belongs to is never
// inferred from an absolute axis (the boundary between two groups is
// ambiguous for an insertion, unlike for Squeeze); callers say which
// group they mean.
func (t Tensor) Unsqueeze(g Group, pos int) Tensor {
	lo, hi := t.groupRange(g)
	groupLen := hi - lo
	if pos < 0 || pos > groupLen {
		panic(fmt.Sprintf("tensor.Unsqueeze: pos %d out of range for group of length %d", pos, groupLen))
	}
	axis := lo + pos
	dims := insertAt(t.dims, axis, 1)
	strides := insertAt(t.strides, axis, 0)
	out := t
	out.dims = dims
	out.strides = strides
	switch g {
	case GroupDynamic:
		out.dynamicDim++
	case GroupIntmd:
		out.intmdDim++
	case GroupBase:
		out.baseDim++
	default:
		panic("tensor.Unsqueeze: group must be GroupDynamic, GroupIntmd or GroupBase")
	}
	return out
}

// Squeeze removes a size-1 dim at axis.
func (t Tensor) Squeeze(axis int) Tensor {
	if axis < 0 || axis >= t.Dim() {
		panic(fmt.Sprintf("tensor.Squeeze: axis %d out of range", axis))
	}
	if t.dims[axis] != 1 {
		panic(fmt.Sprintf("tensor.Squeeze: axis %d has size %d, not 1", axis, t.dims[axis]))
	}
	out := t
	out.dims = removeAt(t.dims, axis)
	out.strides = removeAt(t.strides, axis)
	switch {
	case axis < t.dynamicDim:
		out.dynamicDim--
	case axis < t.dynamicDim+t.intmdDim:
		out.intmdDim--
	default:
		out.baseDim--
	}
	return out
}

func insertAt(s []int, i, v int) []int {
	out := make([]int, len(s)+1)
	copy(out, s[:i])
	out[i] = v
	copy(out[i+1:], s[i:])
	return out
}

func removeAt(s []int, i int) []int {
	out := make([]int, len(s)-1)
	copy(out, s[:i])
	copy(out[i:], s[i+1:])
	return out
}

// Expand broadcasts size-1 dims of t out to targetDims (same rank),
// returning a non-contiguous view (stride 0 on expanded axes) that shares
// storage with t.
func (t Tensor) Expand(targetDims []int) Tensor {
	if len(targetDims) != len(t.dims) {
		panic(fmt.Sprintf("tensor.Expand: rank mismatch %d -> %d", len(t.dims), len(targetDims)))
	}
	strides := make([]int, len(t.dims))
	for i, d := range t.dims {
		switch {
		case d == targetDims[i]:
			strides[i] = t.strides[i]
		case d == 1:
			strides[i] = 0
		default:
			panic(fmt.Sprintf("tensor.Expand: axis %d size %d cannot expand to %d", i, d, targetDims[i]))
		}
	}
	out := t
	out.dims = append([]int(nil), targetDims...)
	out.strides = strides
	return out
}

// AlignIntmdDim right-pads t's intermediate dims with size-1 axes
// (inserted just before the base dims) until it has targetIntmdDim
// intermediate dims, per spec §3's elementwise-op preprocessing step.
func (t Tensor) AlignIntmdDim(targetIntmdDim int) Tensor {
	if t.intmdDim > targetIntmdDim {
		panic(fmt.Sprintf("tensor.AlignIntmdDim: already has %d intmd dims > target %d", t.intmdDim, targetIntmdDim))
	}
	out := t
	for out.intmdDim < targetIntmdDim {
		out = out.Unsqueeze(GroupIntmd, out.intmdDim)
	}
	return out
}

// broadcastDynamic computes the broadcast dynamic-dim sizes of a and b,
// per the ordinary trailing-alignment rule (applied within the dynamic
// group only; intermediate/base dims must already match exactly).
func broadcastDynamic(a, b []int) ([]int, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		da, db := 1, 1
		if i < len(a) {
			da = a[len(a)-1-i]
		}
		if i < len(b) {
			db = b[len(b)-1-i]
		}
		switch {
		case da == db:
			out[n-1-i] = da
		case da == 1:
			out[n-1-i] = db
		case db == 1:
			out[n-1-i] = da
		default:
			return nil, errWrap(ErrShape, "dynamic dims not broadcastable: %v vs %v", a, b)
		}
	}
	return out, nil
}

// SumToSize reduces t by summing over axes where targetDims names a size
// of 1 (or omits a leading axis entirely), the inverse of Expand — used by
// the derivative assignment algorithm's final step (spec §4.2.f).
func (t Tensor) SumToSize(dynamicDim, intmdDim, baseDim int, targetDims []int) Tensor {
	drop := len(t.dims) - len(targetDims)
	if drop < 0 {
		panic("tensor.SumToSize: target has more dims than source")
	}
	cur := t
	for i := 0; i < drop; i++ {
		cur = cur.sumAxis(0)
		cur = cur.Squeeze(0)
	}
	for i, d := range targetDims {
		if cur.dims[i] != d && d == 1 {
			cur = cur.sumAxis(i)
		}
	}
	return cur.Reshape(dynamicDim, intmdDim, baseDim, targetDims)
}

// sumAxis sums over axis, keeping it (size becomes 1).
func (t Tensor) sumAxis(axis int) Tensor {
	dims := append([]int(nil), t.dims...)
	dims[axis] = 1
	out := New(t.dtype, t.dynamicDim, t.intmdDim, t.baseDim, dims)
	size := t.Size()
	srcDims := t.dims
	idx := make([]int, len(srcDims))
	for lin := 0; lin < size; lin++ {
		unravel(lin, srcDims, idx)
		dstIdx := append([]int(nil), idx...)
		dstIdx[axis] = 0
		out.SetAt(out.At(dstIdx...)+t.At(idx...), dstIdx...)
	}
	return out
}

func unravel(lin int, dims []int, out []int) {
	for i := len(dims) - 1; i >= 0; i-- {
		if dims[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = lin % dims[i]
		lin /= dims[i]
	}
}

// DiagEmbed embeds t's trailing axis as the diagonal of a new trailing
// (n,n) pair of axes, zero elsewhere. Used by the derivative assignment
// algorithm to diagonalize across independent intermediate axes (spec
// §4.2.c): different values of an independent axis correspond to
// different, unrelated scalar outputs, so the cross terms are exactly
// zero and this is the exact embedding, not an approximation.
func (t Tensor) DiagEmbed() Tensor {
	n := t.dims[len(t.dims)-1]
	dims := append(append([]int(nil), t.dims...), n)
	out := New(t.dtype, t.dynamicDim, t.intmdDim, t.baseDim+1, dims)
	size := t.Size()
	idx := make([]int, len(t.dims))
	for lin := 0; lin < size; lin++ {
		unravel(lin, t.dims, idx)
		k := idx[len(idx)-1]
		full := append(append([]int(nil), idx...), k)
		out.SetAt(t.At(idx...), full...)
	}
	return out
}

// MoveDim moves the dim at src to position dst, shifting the dims between
// them, without changing group membership accounting (callers move dims
// only within a single group).
func (t Tensor) MoveDim(src, dst int) Tensor {
	if src == dst {
		return t
	}
	dims := append([]int(nil), t.dims...)
	strides := append([]int(nil), t.strides...)
	moveInt(dims, src, dst)
	moveInt(strides, src, dst)
	out := t
	out.dims = dims
	out.strides = strides
	return out
}

func moveInt(s []int, src, dst int) {
	v := s[src]
	if src < dst {
		copy(s[src:dst], s[src+1:dst+1])
	} else {
		copy(s[dst+1:src+1], s[dst:src])
	}
	s[dst] = v
}
