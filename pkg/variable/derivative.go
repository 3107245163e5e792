package variable

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// Derivative pairs a variable y with an argument x and stores a tensor
// whose base shape is y.BaseShape ⊕ x.BaseShape and whose logical
// intermediate shape is y.IntmdShape ⊕ x.IntmdShape (spec §4.2/C7).
//
// DependentX records, per intermediate axis of x, whether that axis is
// "dependent": different index values there correspond to different,
// physically unrelated scalar outputs of y, so the cross terms between
// distinct indices are exactly zero and needn't be stored densely. Every
// axis of y is treated as dependent (the common case: y is evaluated
// pointwise); DependentX defaults to all-independent (plain broadcast,
// no diagonal structure) until the declaring model calls SetDependentX —
// pairing a dependent x axis with the corresponding y axis only makes
// sense when the model knows they walk the same pointwise index, which
// only the model can assert.
//
// Simplification relative to the general algorithm: dependent axes are
// paired positionally — the k-th dependent x axis is diagonalized
// against the k-th dependent y axis, and the two must have equal size.
// This covers the common case (a pointwise relation sharing one
// quadrature-point index between y and x) but not every conceivable
// reindexing; see DESIGN.md.
type Derivative struct {
	Y, X         *Variable
	DependentX   []bool
	logical      tensor.Tensor
	assembly     *tensor.Tensor
	assemblyOnce bool
}

// NewDerivative creates an empty (all-zero, lazily materialized)
// derivative of y with respect to x.
func NewDerivative(y, x *Variable) *Derivative {
	return &Derivative{
		Y:          y,
		X:          x,
		DependentX: make([]bool, len(x.IntmdShape)),
	}
}

// SetDependentX marks x's axis as dependent (paired against the
// correspondingly-ordered dependent axis of y) or independent (plain
// broadcast).
func (d *Derivative) SetDependentX(axis int, dependent bool) {
	d.DependentX[axis] = dependent
}

func product(dims []int) int {
	n := 1
	for _, v := range dims {
		n *= v
	}
	return n
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

func targetIntmd(d *Derivative) []int {
	return append(append([]int(nil), d.Y.IntmdShape...), d.X.IntmdShape...)
}

func targetBase(d *Derivative) []int {
	return append(append([]int(nil), d.Y.BaseShape...), d.X.BaseShape...)
}

// Assign implements spec §4.2's assignment algorithm: if v's
// intermediate shape already equals y.IntmdShape⊕x.IntmdShape it is
// additively combined directly; otherwise v must be broadcastable to
// y.IntmdShape and is diagonalized across x's dependent axes (step c),
// broadcast across its independent axes, and finally summed to the full
// target shape.
func (d *Derivative) Assign(v tensor.Tensor) error {
	d.assembly = nil
	want := targetIntmd(d)
	if intsEqual(v.GroupDims(tensor.GroupIntmd), want) {
		return d.combine(v)
	}
	diagonalized, err := d.diagonalize(v)
	if err != nil {
		return err
	}
	return d.combine(diagonalized)
}

func (d *Derivative) combine(v tensor.Tensor) error {
	if d.logical.Empty() {
		d.logical = v
		return nil
	}
	sum, err := d.logical.Add(v)
	if err != nil {
		return err
	}
	d.logical = sum
	return nil
}

// diagonalize expands v (intmd broadcastable to y.IntmdShape, base
// By⊕Bx) to the full y.IntmdShape⊕x.IntmdShape intermediate shape: each
// dependent x axis gets an identity (Kronecker-delta) relationship with
// its paired y axis, each independent x axis is a plain broadcast.
func (d *Derivative) diagonalize(v tensor.Tensor) (tensor.Tensor, error) {
	expanded, err := expandIntmdTo(v, d.Y.IntmdShape)
	if err != nil {
		return tensor.Tensor{}, err
	}

	dyn := expanded.GroupDims(tensor.GroupDynamic)
	base := expanded.GroupDims(tensor.GroupBase)
	Iy := d.Y.IntmdShape
	Ix := d.X.IntmdShape

	dependentYAxes := dependentYAxesFor(d)

	outIntmd := append(append([]int(nil), Iy...), Ix...)
	outDims := append(append(append([]int(nil), dyn...), outIntmd...), base...)
	out := tensor.New(tensor.Float64, len(dyn), len(outIntmd), len(base), outDims)

	dynSize := product(dyn)
	ySize := product(Iy)
	xSize := product(Ix)
	baseSize := product(base)

	dynIdx := make([]int, len(dyn))
	yIdx := make([]int, len(Iy))
	xIdx := make([]int, len(Ix))
	baseIdx := make([]int, len(base))

	pairedY := -1
	for dl := 0; dl < dynSize; dl++ {
		unravel(dl, dyn, dynIdx)
		for yl := 0; yl < ySize; yl++ {
			unravel(yl, Iy, yIdx)
			for xl := 0; xl < xSize; xl++ {
				unravel(xl, Ix, xIdx)
				ok := true
				pairIdx := 0
				for xi := range Ix {
					if !d.DependentX[xi] {
						continue
					}
					if pairIdx >= len(dependentYAxes) {
						ok = false
						break
					}
					pairedY = dependentYAxes[pairIdx]
					if yIdx[pairedY] != xIdx[xi] {
						ok = false
						break
					}
					pairIdx++
				}
				if !ok {
					continue
				}
				for bl := 0; bl < baseSize; bl++ {
					unravel(bl, base, baseIdx)
					full := make([]int, 0, len(dynIdx)+len(yIdx)+len(base))
					full = append(full, dynIdx...)
					full = append(full, yIdx...)
					full = append(full, baseIdx...)
					val := expanded.At(full...)
					outIdx := make([]int, 0, len(dynIdx)+len(yIdx)+len(xIdx)+len(base))
					outIdx = append(outIdx, dynIdx...)
					outIdx = append(outIdx, yIdx...)
					outIdx = append(outIdx, xIdx...)
					outIdx = append(outIdx, baseIdx...)
					out.SetAt(val, outIdx...)
				}
			}
		}
	}
	return out, nil
}

func dependentYAxesFor(d *Derivative) []int {
	var axes []int
	for i := range d.Y.IntmdShape {
		axes = append(axes, i)
	}
	return axes
}

// expandIntmdTo broadcasts t's intermediate dims to target (right-padding
// with align, then expanding size-1 axes), leaving dynamic and base dims
// untouched.
func expandIntmdTo(t tensor.Tensor, target []int) (tensor.Tensor, error) {
	aligned := t.AlignIntmdDim(len(target))
	cur := aligned.GroupDims(tensor.GroupIntmd)
	for i, c := range cur {
		if c != 1 && c != target[i] {
			return tensor.Tensor{}, fmt.Errorf("%w: intmd dim %d size %d not broadcastable to %d", tensor.ErrShape, i, c, target[i])
		}
	}
	dyn := aligned.GroupDims(tensor.GroupDynamic)
	base := aligned.GroupDims(tensor.GroupBase)
	full := append(append(append([]int(nil), dyn...), target...), base...)
	return aligned.Expand(full), nil
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Get lazily materializes and returns the assembly-format derivative: a
// rank-2 base tensor (dynamic dims preserved) with y's intermediate+base
// dims flattened to rows and x's to columns (spec §4.2's closing
// paragraph). The logical form, if never assigned, is an all-zero tensor
// of the full target shape with no dynamic dims.
func (d *Derivative) Get() tensor.Tensor {
	if d.assembly != nil {
		return *d.assembly
	}
	full := d.logical
	if full.Empty() {
		dims := append(append([]int(nil), targetIntmd(d)...), targetBase(d)...)
		full = tensor.New(tensor.Float64, 0, len(targetIntmd(d)), len(targetBase(d)), dims)
	}
	nIy, nIx := len(d.Y.IntmdShape), len(d.X.IntmdShape)
	nByAxes := len(d.Y.BaseShape)
	reordered := reorderYXAssembly(full, nIy, nIx, nByAxes)
	dyn := reordered.GroupDims(tensor.GroupDynamic)
	rows := product(d.Y.IntmdShape) * product(d.Y.BaseShape)
	cols := product(d.X.IntmdShape) * product(d.X.BaseShape)
	dims := append(append([]int(nil), dyn...), rows, cols)
	flat := reordered.Reshape(len(dyn), 0, 2, dims)
	d.assembly = &flat
	return flat
}

// reorderYXAssembly permutes a tensor laid out as
// [dyn..., Iy..., Ix..., By..., Bx...] (pkg/tensor's mandatory
// intmd-before-base ordering) into [dyn..., Iy..., By..., Ix..., Bx...],
// grouping y's dims together and x's dims together ahead of flattening.
func reorderYXAssembly(t tensor.Tensor, nIy, nIx, nBy int) tensor.Tensor {
	if nIx == 0 || nBy == 0 {
		return t
	}
	dynN := t.DynamicDim()
	byStart := dynN + nIy + nIx
	cur := t
	for i := 0; i < nIx; i++ {
		src := byStart - 1
		dst := byStart + nBy - 1
		cur = cur.MoveDim(src, dst)
		byStart--
	}
	return cur
}
