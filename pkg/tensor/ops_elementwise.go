package tensor

// broadcastPair prepares a,b for an elementwise binary op per spec §3:
// intermediate dims are first aligned by right-padding size-1 axes
// (AlignIntmdDim), base dims must already match exactly, and dynamic dims
// must be broadcastable. Returns both operands expanded to the common
// shape plus the dynamic/intmd/base dim counts of the result.
func broadcastPair(a, b Tensor) (Tensor, Tensor, int, int, int, error) {
	if a.baseDim != b.baseDim || !intsEqual(a.GroupDims(GroupBase), b.GroupDims(GroupBase)) {
		return Tensor{}, Tensor{}, 0, 0, 0, errWrap(ErrShape, "base shape mismatch %v vs %v", a.GroupDims(GroupBase), b.GroupDims(GroupBase))
	}

	targetIntmd := a.intmdDim
	if b.intmdDim > targetIntmd {
		targetIntmd = b.intmdDim
	}
	a = a.AlignIntmdDim(targetIntmd)
	b = b.AlignIntmdDim(targetIntmd)
	if !intsEqual(a.GroupDims(GroupIntmd), b.GroupDims(GroupIntmd)) {
		return Tensor{}, Tensor{}, 0, 0, 0, errWrap(ErrShape, "intermediate shape mismatch %v vs %v", a.GroupDims(GroupIntmd), b.GroupDims(GroupIntmd))
	}

	dynShape, err := broadcastDynamic(a.GroupDims(GroupDynamic), b.GroupDims(GroupDynamic))
	if err != nil {
		return Tensor{}, Tensor{}, 0, 0, 0, err
	}

	targetDynamicDim := len(dynShape)
	aFull := padLeadingOnes(a, targetDynamicDim)
	bFull := padLeadingOnes(b, targetDynamicDim)

	fullDims := append(append([]int(nil), dynShape...), a.GroupDims(GroupStatic)...)
	aFull = aFull.Expand(fullDims)
	bFull = bFull.Expand(fullDims)

	return aFull, bFull, targetDynamicDim, targetIntmd, a.baseDim, nil
}

// padLeadingOnes inserts leading size-1 dynamic dims until t.dynamicDim
// equals n (standard trailing-alignment broadcasting, applied only to the
// dynamic group).
func padLeadingOnes(t Tensor, n int) Tensor {
	for t.dynamicDim < n {
		t = t.Unsqueeze(GroupDynamic, 0)
	}
	return t
}

func elementwiseBinary(a, b Tensor, op func(x, y float64) float64) (Tensor, error) {
	aFull, bFull, dynamicDim, intmdDim, baseDim, err := broadcastPair(a, b)
	if err != nil {
		return Tensor{}, err
	}
	dims := aFull.dims
	out := New(a.dtype, dynamicDim, intmdDim, baseDim, dims)
	size := out.Size()
	idx := make([]int, len(dims))
	for lin := 0; lin < size; lin++ {
		unravel(lin, dims, idx)
		out.SetAt(op(aFull.At(idx...), bFull.At(idx...)), idx...)
	}
	return out, nil
}

func elementwiseUnary(a Tensor, op func(x float64) float64) Tensor {
	out := a.Clone()
	for i, v := range out.data {
		out.data[i] = op(v)
	}
	return out
}

// Add returns a+b with spec §3 broadcasting.
func (t Tensor) Add(o Tensor) (Tensor, error) {
	return elementwiseBinary(t, o, func(x, y float64) float64 { return x + y })
}

// Sub returns t-o with spec §3 broadcasting.
func (t Tensor) Sub(o Tensor) (Tensor, error) {
	return elementwiseBinary(t, o, func(x, y float64) float64 { return x - y })
}

// Mul returns the elementwise (Hadamard) product with spec §3 broadcasting.
func (t Tensor) Mul(o Tensor) (Tensor, error) {
	return elementwiseBinary(t, o, func(x, y float64) float64 { return x * y })
}

// Div returns the elementwise quotient with spec §3 broadcasting.
func (t Tensor) Div(o Tensor) (Tensor, error) {
	return elementwiseBinary(t, o, func(x, y float64) float64 { return x / y })
}

// Scale multiplies every element by a scalar.
func (t Tensor) Scale(s float64) Tensor {
	return elementwiseUnary(t, func(x float64) float64 { return x * s })
}

// AddScalar adds a scalar to every element.
func (t Tensor) AddScalar(s float64) Tensor {
	return elementwiseUnary(t, func(x float64) float64 { return x + s })
}

// Negative returns -t.
func (t Tensor) Negative() Tensor { return t.Scale(-1) }

// Sum reduces over the given axes (within GroupAll indexing), keeping
// reduced axes at size 1. With no axes, sums to a scalar.
func (t Tensor) Sum(axes ...int) Tensor {
	if len(axes) == 0 {
		cur := t
		for i := 0; i < t.Dim(); i++ {
			cur = cur.sumAxis(i)
		}
		return cur.Reshape(0, 0, 0, nil)
	}
	cur := t
	for _, ax := range axes {
		cur = cur.sumAxis(ax)
	}
	return cur
}
