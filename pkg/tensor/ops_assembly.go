package tensor

// Assembly format (spec §3/§4.7): a representation where intmd_dim==0 and
// the (intermediate ⊕ base) dims are flattened into one trailing dim
// (vector assembly) or two trailing dims (matrix assembly, used by
// pkg/variable's Derivative type for the y/x split). Conversions here are
// exact and round-trip: FromAssembly(ToAssembly(t)) == t elementwise
// (spec §8's quantified property).

// ToAssembly flattens the intermediate and base dims into a single
// trailing base dim, leaving dynamic dims untouched.
func (t Tensor) ToAssembly() Tensor {
	src := t
	if !src.IsContiguous() {
		src = src.Clone()
	}
	flat := product(src.GroupDims(GroupStatic))
	dims := append(append([]int(nil), src.GroupDims(GroupDynamic)...), flat)
	return Tensor{
		dtype:      src.dtype,
		dynamicDim: src.dynamicDim,
		intmdDim:   0,
		baseDim:    1,
		dims:       dims,
		strides:    rowMajorStrides(dims),
		offset:     src.offset,
		data:       src.data,
	}
}

// FromAssembly is the inverse of ToAssembly: it restores intmdDims and
// baseDims given a tensor whose trailing dim equals their flattened
// product.
func (t Tensor) FromAssembly(intmdDims, baseDims []int) Tensor {
	want := product(intmdDims) * product(baseDims)
	trailing := t.dims[len(t.dims)-1]
	if trailing != want {
		panic(errWrap(ErrShape, "FromAssembly: trailing dim %d does not match intmd*base=%d", trailing, want))
	}
	dims := append(append([]int(nil), t.GroupDims(GroupDynamic)...), intmdDims...)
	dims = append(dims, baseDims...)
	return t.Reshape(t.dynamicDim, len(intmdDims), len(baseDims), dims)
}

// ToAssemblyMatrix flattens a derivative-shaped tensor (y-intmd ⊕ y-base ⊕
// x-intmd ⊕ x-base, split at yRank) into a rank-2 (plus leading dynamic)
// matrix, rows = flattened y part, cols = flattened x part. ySplit counts
// how many of the trailing (intmd+base) dims belong to y.
func (t Tensor) ToAssemblyMatrix(ySplit int) Tensor {
	src := t
	if !src.IsContiguous() {
		src = src.Clone()
	}
	static := src.GroupDims(GroupStatic)
	rows := product(static[:ySplit])
	cols := product(static[ySplit:])
	dims := append(append([]int(nil), src.GroupDims(GroupDynamic)...), rows, cols)
	return Tensor{
		dtype:      src.dtype,
		dynamicDim: src.dynamicDim,
		intmdDim:   0,
		baseDim:    2,
		dims:       dims,
		strides:    rowMajorStrides(dims),
		offset:     src.offset,
		data:       src.data,
	}
}

// FromAssemblyMatrix is the inverse of ToAssemblyMatrix given the original
// (yDims, xDims) static shapes.
func (t Tensor) FromAssemblyMatrix(yDims, xDims []int) Tensor {
	dims := append(append([]int(nil), t.GroupDims(GroupDynamic)...), yDims...)
	dims = append(dims, xDims...)
	return t.Reshape(t.dynamicDim, 0, len(yDims)+len(xDims), dims)
}
