package assembly

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
)

// AssembleMatrix implements spec §4.7's matrix form: it places a
// row-major grid of blocks into one dense (dyn ; rows ; cols) tensor,
// rows = Σᵢ rowLayouts[i].Flat(), cols = Σⱼ colLayouts[j].Flat(). Each
// block must already be in assembly-matrix format (rank 2, trailing
// dims rowLayouts[i].Flat() x colLayouts[j].Flat()) — the format
// pkg/variable's Derivative.Get() produces directly, per C7's
// logical/assembly dual storage. A missing block (tensor.Tensor{}) is
// zero-filled, per §4.7.
//
// blocks is indexed blocks[i][j]; every row i must supply
// len(colLayouts) entries.
func AssembleMatrix(dynDims []int, rowLayouts, colLayouts []Layout, blocks [][]tensor.Tensor) (tensor.Tensor, error) {
	if len(blocks) != len(rowLayouts) {
		return tensor.Tensor{}, fmt.Errorf("%w: assemble matrix: %d row layouts but %d block rows", tensor.ErrShape, len(rowLayouts), len(blocks))
	}

	totalRows, rowOffsets := offsets(rowLayouts)
	totalCols, colOffsets := offsets(colLayouts)

	outDims := append(append([]int(nil), dynDims...), totalRows, totalCols)
	out := tensor.New(tensor.Float64, len(dynDims), 0, 2, outDims)

	for i, row := range blocks {
		if len(row) != len(colLayouts) {
			return tensor.Tensor{}, fmt.Errorf("%w: assemble matrix: row %d has %d blocks, want %d", tensor.ErrShape, i, len(row), len(colLayouts))
		}
		rFlat := rowLayouts[i].Flat()
		rBase := rowOffsets[i]

		for j, block := range row {
			if block.Empty() {
				continue
			}
			cFlat := colLayouts[j].Flat()
			if !isAssemblyMatrixShaped(block, dynDims, rFlat, cFlat) {
				return tensor.Tensor{}, fmt.Errorf("%w: assemble matrix: block (%d,%d) is not a %dx%d assembly-matrix tensor", tensor.ErrShape, i, j, rFlat, cFlat)
			}

			cBase := colOffsets[j]
			iterateDynamic(dynDims, func(idx []int) {
				for r := 0; r < rFlat; r++ {
					for c := 0; c < cFlat; c++ {
						src := append(append([]int(nil), idx...), r, c)
						dst := append(append([]int(nil), idx...), rBase+r, cBase+c)
						out.SetAt(block.At(src...), dst...)
					}
				}
			})
		}
	}

	return out, nil
}

// DisassembleMatrix is AssembleMatrix's inverse: it slices the global
// (dyn ; rows ; cols) tensor back into its row/col block grid, each
// block in assembly-matrix format.
func DisassembleMatrix(dynDims []int, rowLayouts, colLayouts []Layout, assembled tensor.Tensor) ([][]tensor.Tensor, error) {
	totalRows, rowOffsets := offsets(rowLayouts)
	totalCols, colOffsets := offsets(colLayouts)

	dims := assembled.Dims()
	if dims[len(dims)-2] != totalRows || dims[len(dims)-1] != totalCols {
		return nil, fmt.Errorf("%w: disassemble matrix: assembled shape %v does not match (%d,%d)", tensor.ErrShape, dims, totalRows, totalCols)
	}

	out := make([][]tensor.Tensor, len(rowLayouts))
	for i, rl := range rowLayouts {
		rFlat := rl.Flat()
		rBase := rowOffsets[i]
		out[i] = make([]tensor.Tensor, len(colLayouts))

		for j, cl := range colLayouts {
			cFlat := cl.Flat()
			cBase := colOffsets[j]

			chunkDims := append(append([]int(nil), dynDims...), rFlat, cFlat)
			chunk := tensor.New(tensor.Float64, len(dynDims), 0, 2, chunkDims)

			iterateDynamic(dynDims, func(idx []int) {
				for r := 0; r < rFlat; r++ {
					for c := 0; c < cFlat; c++ {
						src := append(append([]int(nil), idx...), rBase+r, cBase+c)
						dst := append(append([]int(nil), idx...), r, c)
						chunk.SetAt(assembled.At(src...), dst...)
					}
				}
			})

			out[i][j] = chunk
		}
	}
	return out, nil
}

func offsets(layouts []Layout) (total int, starts []int) {
	starts = make([]int, len(layouts))
	for i, l := range layouts {
		starts[i] = total
		total += l.Flat()
	}
	return total, starts
}

func isAssemblyMatrixShaped(block tensor.Tensor, dynDims []int, rFlat, cFlat int) bool {
	if block.IntmdDim() != 0 || block.BaseDim() != 2 {
		return false
	}
	if !dimsEqual(block.GroupDims(tensor.GroupDynamic), dynDims) {
		return false
	}
	dims := block.Dims()
	return dims[len(dims)-2] == rFlat && dims[len(dims)-1] == cFlat
}
