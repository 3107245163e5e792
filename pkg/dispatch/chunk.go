package dispatch

import (
	"errors"
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// ErrShape is returned when a value map's dynamic-dim sizes disagree.
var ErrShape = errors.New("dispatch: shape error")

// dynamicSize returns the common leading dynamic-axis size across every
// entry that has one (DynamicDim() >= 1); entries with no dynamic dim
// are treated as broadcast (e.g. parameters) and passed through
// unchanged to every chunk.
func dynamicSize(values map[string]tensor.Tensor) (int, bool, error) {
	size := -1
	found := false
	for name, t := range values {
		if t.DynamicDim() == 0 {
			continue
		}
		n := t.Dims()[0]
		if !found {
			size, found = n, true
			continue
		}
		if n != size {
			return 0, false, fmt.Errorf("%w: %q has dynamic size %d, expected %d", ErrShape, name, n, size)
		}
	}
	return size, found, nil
}

// chunkRanges splits [0,n) into contiguous ranges no larger than size.
func chunkRanges(n, size int) [][2]int {
	if size <= 0 || size >= n {
		return [][2]int{{0, n}}
	}
	var ranges [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

// sliceDynamic returns the [start,end) range of t's leading dynamic
// axis; t with no dynamic dim is returned unchanged (broadcast).
func sliceDynamic(t tensor.Tensor, start, end int) tensor.Tensor {
	if t.Empty() || t.DynamicDim() == 0 {
		return t
	}
	dims := t.Dims()
	outDims := append([]int(nil), dims...)
	outDims[0] = end - start
	out := tensor.New(t.DataType(), t.DynamicDim(), t.IntmdDim(), t.BaseDim(), outDims)
	forEachIndex(outDims, func(idx []int) {
		src := append([]int(nil), idx...)
		src[0] += start
		out.SetAt(t.At(src...), idx...)
	})
	return out
}

// concatDynamic concatenates chunks along their leading dynamic axis,
// in order. Every chunk must share the same non-dynamic shape and
// dynamic-dim count; chunks with no dynamic dim (a broadcast value
// dispatch never actually split) are returned as-is.
func concatDynamic(chunks []tensor.Tensor) (tensor.Tensor, error) {
	if len(chunks) == 0 {
		return tensor.Tensor{}, fmt.Errorf("%w: concat: no chunks", ErrShape)
	}
	first := chunks[0]
	if first.DynamicDim() == 0 {
		return first, nil
	}
	total := 0
	rest := first.Dims()[1:]
	for i, c := range chunks {
		if c.DynamicDim() != first.DynamicDim() {
			return tensor.Tensor{}, fmt.Errorf("%w: concat: chunk %d dynamic dim count %d, expected %d", ErrShape, i, c.DynamicDim(), first.DynamicDim())
		}
		d := c.Dims()
		if !intsEqual(d[1:], rest) {
			return tensor.Tensor{}, fmt.Errorf("%w: concat: chunk %d shape %v does not match %v", ErrShape, i, d, first.Dims())
		}
		total += d[0]
	}
	outDims := append([]int{total}, rest...)
	out := tensor.New(first.DataType(), first.DynamicDim(), first.IntmdDim(), first.BaseDim(), outDims)

	offset := 0
	for _, c := range chunks {
		n := c.Dims()[0]
		forEachIndex(c.Dims(), func(idx []int) {
			dst := append([]int(nil), idx...)
			dst[0] += offset
			out.SetAt(c.At(idx...), dst...)
		})
		offset += n
	}
	return out, nil
}

// forEachIndex walks every multi-index over dims in row-major order.
func forEachIndex(dims []int, fn func(idx []int)) {
	idx := make([]int, len(dims))
	if len(dims) == 0 {
		fn(idx)
		return
	}
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(dims) {
			fn(idx)
			return
		}
		for i := 0; i < dims[pos]; i++ {
			idx[pos] = i
			walk(pos + 1)
		}
	}
	walk(0)
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
