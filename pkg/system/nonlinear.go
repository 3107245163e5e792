package system

import (
	"fmt"

	"github.com/itohio/cmat/pkg/assembly"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
)

// NonlinearSystem implements spec §4.6's r(u;g)=0 contract: it adds a
// "given" vector g (the gmap, forces held fixed during a solve) on top
// of LinearSystem's u/A/b, plus B=∂r/∂g.
//
// Go naming note: the original accessors are single-letter (u, A, b,
// g, B). Go's embedding promotes LinearSystem's methods onto
// NonlinearSystem, so a same-named B() here would shadow rather than
// extend LinearSystem's b-flavored accessor and read as "the RHS" to a
// caller who only sees the embedded type. Renamed to DrDg()/AAndDrDg()/
// AAndDrDgAndRhs(), and Rhs() is kept as the one LinearSystem already
// defines for b.
type NonlinearSystem struct {
	*LinearSystem
	GNames []string // gmap: forces variable names, in declared order

	g map[string]tensor.Tensor
}

// NewNonlinearSystem builds a system over state (u), RHS (b), and given
// (g) variable names, all already declared on model's Store.
func NewNonlinearSystem(m *model.Model, uNames, bNames, gNames []string) *NonlinearSystem {
	return &NonlinearSystem{
		LinearSystem: NewLinearSystem(m, uNames, bNames),
		GNames:       gNames,
		g:            map[string]tensor.Tensor{},
	}
}

func (s *NonlinearSystem) gLayout() ([]assembly.Layout, error) { return s.layoutFor(s.GNames) }

// SetG assigns the concatenated given vector, disassembling it into
// per-variable tensors held until the next DrDg/AAndDrDg(AndRhs) call.
func (s *NonlinearSystem) SetG(g tensor.Tensor) error {
	layouts, err := s.gLayout()
	if err != nil {
		return err
	}
	values, err := assembly.Disassemble(nil, layouts, g)
	if err != nil {
		return fmt.Errorf("%w: set_g: %v", model.ErrShape, err)
	}
	for i, name := range s.GNames {
		s.g[name] = values[i]
	}
	return nil
}

// G returns the concatenated given vector.
func (s *NonlinearSystem) G() (tensor.Tensor, error) {
	layouts, err := s.gLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	values := make([]tensor.Tensor, len(s.GNames))
	for i, name := range s.GNames {
		values[i] = s.g[name]
	}
	return assembly.Assemble(nil, layouts, values)
}

func (s *NonlinearSystem) inputs() map[string]tensor.Tensor {
	in := s.LinearSystem.inputs()
	for k, v := range s.g {
		in[k] = v
	}
	return in
}

// DrDg assembles ∂r/∂g (spec's B) into one dense matrix.
//
// Unlike the base LinearSystem.A, which the original leaves to a
// concrete Model-bound subclass, this one is that concrete subclass:
// it is always backed by a *model.Model and always has real B. The
// base original_source type's A_and_B unconditionally throws even in
// its own concrete ModelNonlinearSystem subclass (see DESIGN.md); this
// port does not reproduce that limitation since there is exactly one
// concrete system type here, not a base/subclass split.
func (s *NonlinearSystem) DrDg() (tensor.Tensor, error) {
	_, derivs, err := s.Model.ValueAndDValue(s.inputs())
	if err != nil {
		return tensor.Tensor{}, err
	}
	return s.assembleDrDg(derivs)
}

// AAndDrDg assembles A and B from a single evaluation.
func (s *NonlinearSystem) AAndDrDg() (tensor.Tensor, tensor.Tensor, error) {
	_, derivs, err := s.Model.ValueAndDValue(s.inputs())
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	A, err := s.assembleA(derivs)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	B, err := s.assembleDrDg(derivs)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	return A, B, nil
}

// AAndDrDgAndRhs assembles A, B, and b from a single evaluation.
func (s *NonlinearSystem) AAndDrDgAndRhs() (tensor.Tensor, tensor.Tensor, tensor.Tensor, error) {
	vals, derivs, err := s.Model.ValueAndDValue(s.inputs())
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, tensor.Tensor{}, err
	}
	A, err := s.assembleA(derivs)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, tensor.Tensor{}, err
	}
	B, err := s.assembleDrDg(derivs)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, tensor.Tensor{}, err
	}
	b, err := s.assembleRhs(vals)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, tensor.Tensor{}, err
	}
	return A, B, b, nil
}

func (s *NonlinearSystem) assembleDrDg(derivs map[string]map[string]tensor.Tensor) (tensor.Tensor, error) {
	rowLayouts, err := s.bLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	colLayouts, err := s.gLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	blocks := make([][]tensor.Tensor, len(s.BNames))
	for i, y := range s.BNames {
		blocks[i] = make([]tensor.Tensor, len(s.GNames))
		for j, x := range s.GNames {
			if row, ok := derivs[y]; ok {
				blocks[i][j] = row[x]
			}
		}
	}
	return assembly.AssembleMatrix(nil, rowLayouts, colLayouts, blocks)
}
