package system

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/itohio/cmat/internal/logger"
	"github.com/itohio/cmat/pkg/assembly"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
)

// SchurSolver implements spec §4.6's two-group Schur-complement solve:
// partition u (and, correspondingly, b/the residual) into a primary
// group and a Schur group, form S = A22 - A21*A11^-1*A12, solve the
// Schur group first, then back-solve the primary group.
//
// Grounded on original_source/src/neml2/solvers/SchurComplement.cxx's
// solve() (Au=b) and ift() (the B-derivative variant); PrimaryGroup and
// SchurGroup mirror its primary_group/schur_group options.
type SchurSolver struct {
	PrimaryGroup int // 0 or 1: index into the 2-entry UGroups/BGroups slices
	SchurGroup   int
}

// Solve implements spec §4.6's Au=b path: assembles A and b from sys,
// partitions by uGroups/bGroups (each must have exactly 2 entries, one
// per unknown/residual group, in the same order as sys.UNames/BNames),
// and returns the solved u disassembled back into per-variable tensors.
func (s *SchurSolver) Solve(sys *LinearSystem, uGroups, bGroups []Group) (map[string]tensor.Tensor, error) {
	if err := s.validateGroups(uGroups, bGroups); err != nil {
		return nil, err
	}
	A, b, err := sys.AAndRhs()
	if err != nil {
		return nil, err
	}
	uSizes, uStarts, err := s.sizesAndStarts(uGroups, sys.layoutFor)
	if err != nil {
		return nil, err
	}
	primary, schur := s.PrimaryGroup, s.SchurGroup

	Af := denseFromAssembly(A)
	bf := denseFromAssembly(b)

	A11 := extractBlock(Af, uStarts[primary], uSizes[primary], uStarts[primary], uSizes[primary])
	A12 := extractBlock(Af, uStarts[primary], uSizes[primary], uStarts[schur], uSizes[schur])
	A21 := extractBlock(Af, uStarts[schur], uSizes[schur], uStarts[primary], uSizes[primary])
	A22 := extractBlock(Af, uStarts[schur], uSizes[schur], uStarts[schur], uSizes[schur])
	b1 := extractBlock(bf, uStarts[primary], uSizes[primary], 0, 1)
	b2 := extractBlock(bf, uStarts[schur], uSizes[schur], 0, 1)

	var A11invA12, A11invB1 mat.Dense
	if err := A11invA12.Solve(A11, A12); err != nil {
		return nil, fmt.Errorf("%w: schur solve A11*X=A12: %v", model.ErrNumerical, err)
	}
	if err := A11invB1.Solve(A11, b1); err != nil {
		return nil, fmt.Errorf("%w: schur solve A11*y=b1: %v", model.ErrNumerical, err)
	}

	var mm mat.Dense
	mm.Mul(A21, &A11invA12)
	var S mat.Dense
	S.Sub(A22, &mm)

	var mv mat.Dense
	mv.Mul(A21, &A11invB1)
	var rhsSchur mat.Dense
	rhsSchur.Sub(b2, &mv)

	var uSchur mat.Dense
	if err := uSchur.Solve(&S, &rhsSchur); err != nil {
		logger.Log.Warn().Err(err).Msg("schur complement factorization failed")
		return nil, fmt.Errorf("%w: schur solve S*u2=rhs: %v", model.ErrNumerical, err)
	}

	var mv2 mat.Dense
	mv2.Mul(A12, &uSchur)
	var rhsPrimary mat.Dense
	rhsPrimary.Sub(b1, &mv2)

	var uPrimary mat.Dense
	if err := uPrimary.Solve(A11, &rhsPrimary); err != nil {
		return nil, fmt.Errorf("%w: schur solve A11*u1=rhs: %v", model.ErrNumerical, err)
	}

	total := uSizes[primary] + uSizes[schur]
	xf := make([]float64, total)
	copyInto := func(dst []float64, start int, m *mat.Dense, n int) {
		for i := 0; i < n; i++ {
			dst[start+i] = m.At(i, 0)
		}
	}
	copyInto(xf, uStarts[primary], &uPrimary, uSizes[primary])
	copyInto(xf, uStarts[schur], &uSchur, uSizes[schur])

	solved := tensor.FromSlice(tensor.Float64, 0, 0, 1, []int{total}, xf)
	if err := sys.SetU(solved); err != nil {
		return nil, err
	}
	out := map[string]tensor.Tensor{}
	for _, name := range sys.UNames {
		out[name] = sys.u[name]
	}
	return out, nil
}

// IFT implements spec §4.6's implicit-function-theorem path: holds A
// fixed, forms du/dg = -A^-1*B via the same Schur elimination applied
// to B's columns instead of a single b column, and returns it
// disassembled back into per-(u,g) variable blocks.
func (s *SchurSolver) IFT(sys *NonlinearSystem, uGroups, bGroups []Group) (map[string]map[string]tensor.Tensor, error) {
	if err := s.validateGroups(uGroups, bGroups); err != nil {
		return nil, err
	}
	A, B, err := sys.AAndDrDg()
	if err != nil {
		return nil, err
	}
	uSizes, uStarts, err := s.sizesAndStarts(uGroups, sys.layoutFor)
	if err != nil {
		return nil, err
	}
	primary, schur := s.PrimaryGroup, s.SchurGroup

	Af := denseFromAssembly(A)
	Bf := denseFromAssembly(B)
	p := Bf.RawMatrix().Cols

	A11 := extractBlock(Af, uStarts[primary], uSizes[primary], uStarts[primary], uSizes[primary])
	A12 := extractBlock(Af, uStarts[primary], uSizes[primary], uStarts[schur], uSizes[schur])
	A21 := extractBlock(Af, uStarts[schur], uSizes[schur], uStarts[primary], uSizes[primary])
	A22 := extractBlock(Af, uStarts[schur], uSizes[schur], uStarts[schur], uSizes[schur])
	B1 := extractBlock(Bf, uStarts[primary], uSizes[primary], 0, p)
	B2 := extractBlock(Bf, uStarts[schur], uSizes[schur], 0, p)

	var A11invA12, A11invB1 mat.Dense
	if err := A11invA12.Solve(A11, A12); err != nil {
		return nil, fmt.Errorf("%w: schur ift A11*X=A12: %v", model.ErrNumerical, err)
	}
	if err := A11invB1.Solve(A11, B1); err != nil {
		return nil, fmt.Errorf("%w: schur ift A11*Y=B1: %v", model.ErrNumerical, err)
	}

	var mm mat.Dense
	mm.Mul(A21, &A11invA12)
	var S mat.Dense
	S.Sub(A22, &mm)

	var mm2 mat.Dense
	mm2.Mul(A21, &A11invB1)
	var rhsSchur mat.Dense
	rhsSchur.Sub(B2, &mm2)

	var xSchur mat.Dense
	if err := xSchur.Solve(&S, &rhsSchur); err != nil {
		return nil, fmt.Errorf("%w: schur ift S*X2=rhs: %v", model.ErrNumerical, err)
	}

	var mm3 mat.Dense
	mm3.Mul(A12, &xSchur)
	var rhsPrimary mat.Dense
	rhsPrimary.Sub(B1, &mm3)

	var xPrimary mat.Dense
	if err := xPrimary.Solve(A11, &rhsPrimary); err != nil {
		return nil, fmt.Errorf("%w: schur ift A11*X1=rhs: %v", model.ErrNumerical, err)
	}

	total := uSizes[primary] + uSizes[schur]
	xf := tensor.New(tensor.Float64, 0, 0, 2, []int{total, p})
	place := func(m *mat.Dense, rowStart, rows int) {
		for i := 0; i < rows; i++ {
			for j := 0; j < p; j++ {
				xf.SetAt(m.At(i, j), rowStart+i, j)
			}
		}
	}
	place(&xPrimary, uStarts[primary], uSizes[primary])
	place(&xSchur, uStarts[schur], uSizes[schur])

	// The elimination above yields A^-1*B; the implicit function theorem gives
	// dr/dg + (dr/du)(du/dg) = 0, so du/dg = -A^-1*B and the sign must
	// flip here before disassembly.
	xf = xf.Negative()

	// Disassemble rows by u group membership and columns by sys.GNames.
	uLayouts, err := sys.uLayout()
	if err != nil {
		return nil, err
	}
	gLayouts, err := sys.gLayout()
	if err != nil {
		return nil, err
	}
	blocks, err := assembly.DisassembleMatrix(nil, uLayouts, gLayouts, xf)
	if err != nil {
		return nil, err
	}
	out := map[string]map[string]tensor.Tensor{}
	for i, u := range sys.UNames {
		row := map[string]tensor.Tensor{}
		for j, g := range sys.GNames {
			row[g] = blocks[i][j]
		}
		out[u] = row
	}
	return out, nil
}

func (s *SchurSolver) validateGroups(uGroups, bGroups []Group) error {
	if len(uGroups) != 2 || len(bGroups) != 2 {
		return fmt.Errorf("%w: schur solver requires exactly 2 variable groups, found %d unknown and %d residual groups",
			model.ErrUnsupportedConfiguration, len(uGroups), len(bGroups))
	}
	if s.PrimaryGroup == s.SchurGroup || s.PrimaryGroup < 0 || s.PrimaryGroup > 1 || s.SchurGroup < 0 || s.SchurGroup > 1 {
		return fmt.Errorf("%w: primary_group and schur_group must be distinct indices in [0,1]", model.ErrUnsupportedConfiguration)
	}
	return nil
}

// denseFromAssembly views a rank-1 or rank-2 unbatched assembly tensor
// as a gonum dense matrix; a rank-1 vector becomes a column matrix.
func denseFromAssembly(t tensor.Tensor) *mat.Dense {
	dims := t.Dims()
	data := append([]float64(nil), t.Data()...)
	if len(dims) == 1 {
		return mat.NewDense(dims[0], 1, data)
	}
	return mat.NewDense(dims[0], dims[1], data)
}

// extractBlock returns a gonum view of A[rowStart:rowStart+rows,
// colStart:colStart+cols], mirroring SchurComplement.cxx's
// extract_block/extract_subvector.
func extractBlock(A *mat.Dense, rowStart, rows, colStart, cols int) *mat.Dense {
	return A.Slice(rowStart, rowStart+rows, colStart, colStart+cols).(*mat.Dense)
}

func (s *SchurSolver) sizesAndStarts(groups []Group, layoutFor func([]string) ([]assembly.Layout, error)) (sizes []int, starts []int, err error) {
	sizes = make([]int, len(groups))
	starts = make([]int, len(groups))
	offset := 0
	for i, g := range groups {
		n, gerr := groupSize(g, layoutFor)
		if gerr != nil {
			return nil, nil, gerr
		}
		sizes[i] = n
		starts[i] = offset
		offset += n
	}
	return sizes, starts, nil
}
