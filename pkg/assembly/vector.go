package assembly

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// Assemble implements spec §4.7's vector form: it concatenates values,
// each of logical shape (dyn ; Iᵢ ; Bᵢ), along a new trailing base
// dimension sized Σᵢ numel(Iᵢ)·numel(Bᵢ). dynDims is the shared leading
// dynamic shape every entry (present or zero-filled) must agree with.
//
// A values[i] that is the zero Tensor (tensor.Tensor{}, Empty()) is
// zero-filled using layouts[i] and dynDims, per spec §4.7's "missing
// entries ... zero-filled when shapes are recoverable from the
// layouts".
func Assemble(dynDims []int, layouts []Layout, values []tensor.Tensor) (tensor.Tensor, error) {
	if len(layouts) != len(values) {
		return tensor.Tensor{}, fmt.Errorf("%w: assemble: %d layouts but %d values", tensor.ErrShape, len(layouts), len(values))
	}

	total := 0
	for _, l := range layouts {
		total += l.Flat()
	}

	outDims := append(append([]int(nil), dynDims...), total)
	out := tensor.New(tensor.Float64, len(dynDims), 0, 1, outDims)

	offset := 0
	for i, l := range layouts {
		flat := l.Flat()
		v := values[i]
		if v.Empty() {
			offset += flat
			continue
		}

		flatValue := v.ToAssembly()
		if !dimsEqual(flatValue.GroupDims(tensor.GroupDynamic), dynDims) {
			return tensor.Tensor{}, fmt.Errorf("%w: assemble: entry %d dynamic dims %v do not match %v", tensor.ErrShape, i, flatValue.GroupDims(tensor.GroupDynamic), dynDims)
		}
		if got := flatValue.Dims()[flatValue.Dim()-1]; got != flat {
			return tensor.Tensor{}, fmt.Errorf("%w: assemble: entry %d flattens to %d, layout wants %d", tensor.ErrShape, i, got, flat)
		}

		base := offset
		iterateDynamic(dynDims, func(idx []int) {
			for k := 0; k < flat; k++ {
				full := append(append([]int(nil), idx...), k)
				out.SetAt(flatValue.At(full...), append(append([]int(nil), idx...), base+k)...)
			}
		})
		offset += flat
	}

	return out, nil
}

// Disassemble is Assemble's inverse: given the concatenated tensor and
// the same layouts used to build it, it recovers each entry's logical
// (Iᵢ ; Bᵢ) shape.
func Disassemble(dynDims []int, layouts []Layout, assembled tensor.Tensor) ([]tensor.Tensor, error) {
	want := 0
	for _, l := range layouts {
		want += l.Flat()
	}
	got := assembled.Dims()[assembled.Dim()-1]
	if got != want {
		return nil, fmt.Errorf("%w: disassemble: assembled trailing dim %d does not match Σ layouts %d", tensor.ErrShape, got, want)
	}

	out := make([]tensor.Tensor, len(layouts))
	offset := 0
	for i, l := range layouts {
		flat := l.Flat()
		chunkDims := append(append([]int(nil), dynDims...), flat)
		chunk := tensor.New(tensor.Float64, len(dynDims), 0, 1, chunkDims)

		base := offset
		iterateDynamic(dynDims, func(idx []int) {
			for k := 0; k < flat; k++ {
				src := append(append([]int(nil), idx...), base+k)
				dst := append(append([]int(nil), idx...), k)
				chunk.SetAt(assembled.At(src...), dst...)
			}
		})

		out[i] = chunk.FromAssembly(l.IntmdShape, l.BaseShape)
		offset += flat
	}
	return out, nil
}

func dimsEqual(a, b []int) bool {
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
