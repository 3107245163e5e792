package system

import (
	"fmt"

	"github.com/itohio/cmat/pkg/assembly"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
)

// LinearSystem implements spec §4.6's Au=b contract over a model.Model's
// state variables (u, the umap) and a set of output variables treated as
// the right-hand side (b, the bmap), both read/written through the
// model's *variable.Store. It carries no notion of a "given" variable g;
// NonlinearSystem adds that.
//
// Scope decision: like pkg/model's DependencyResolver.TotalDerivatives,
// assembly here assumes no dynamic (batch) dimension — u/A/b are always
// unbatched dense, matching spec §8's worked examples.
type LinearSystem struct {
	Model  *model.Model
	UNames []string // umap: state variable names, in declared order
	BNames []string // bmap: RHS (residual) variable names, in declared order

	u map[string]tensor.Tensor
}

// NewLinearSystem builds a system over the given state/RHS variable
// names. Both must already be declared on model's Store.
func NewLinearSystem(m *model.Model, uNames, bNames []string) *LinearSystem {
	return &LinearSystem{Model: m, UNames: uNames, BNames: bNames, u: map[string]tensor.Tensor{}}
}

func (s *LinearSystem) uLayout() ([]assembly.Layout, error) { return s.layoutFor(s.UNames) }
func (s *LinearSystem) bLayout() ([]assembly.Layout, error) { return s.layoutFor(s.BNames) }

func (s *LinearSystem) layoutFor(names []string) ([]assembly.Layout, error) {
	layouts := make([]assembly.Layout, len(names))
	for i, name := range names {
		v, ok := s.Model.Vars.Get(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q: variable %q not declared", model.ErrSetup, s.Model.Name, name)
		}
		layouts[i] = assembly.Layout{IntmdShape: v.IntmdShape, BaseShape: v.BaseShape}
	}
	return layouts, nil
}

// SetU assigns the concatenated state vector, disassembling it back into
// per-variable tensors held until the next A/Rhs/AAndRhs call.
func (s *LinearSystem) SetU(u tensor.Tensor) error {
	layouts, err := s.uLayout()
	if err != nil {
		return err
	}
	values, err := assembly.Disassemble(nil, layouts, u)
	if err != nil {
		return fmt.Errorf("%w: set_u: %v", model.ErrShape, err)
	}
	for i, name := range s.UNames {
		s.u[name] = values[i]
	}
	return nil
}

// U returns the concatenated state vector.
func (s *LinearSystem) U() (tensor.Tensor, error) {
	layouts, err := s.uLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	values := make([]tensor.Tensor, len(s.UNames))
	for i, name := range s.UNames {
		values[i] = s.u[name]
	}
	return assembly.Assemble(nil, layouts, values)
}

// inputs returns the current forward-call input map; NonlinearSystem
// overlays g on top of this.
func (s *LinearSystem) inputs() map[string]tensor.Tensor {
	in := make(map[string]tensor.Tensor, len(s.u))
	for k, v := range s.u {
		in[k] = v
	}
	return in
}

// A assembles ∂r/∂u (the derivative of the BNames outputs, not of their
// negation b) into one dense (Σb-flat x Σu-flat) matrix.
func (s *LinearSystem) A() (tensor.Tensor, error) {
	_, derivs, err := s.Model.ValueAndDValue(s.inputs())
	if err != nil {
		return tensor.Tensor{}, err
	}
	return s.assembleA(derivs)
}

// Rhs assembles b = −r, the negated output values for BNames.
func (s *LinearSystem) Rhs() (tensor.Tensor, error) {
	vals, err := s.Model.Value(s.inputs())
	if err != nil {
		return tensor.Tensor{}, err
	}
	return s.assembleRhs(vals)
}

// AAndRhs assembles A and b from a single evaluation.
func (s *LinearSystem) AAndRhs() (tensor.Tensor, tensor.Tensor, error) {
	vals, derivs, err := s.Model.ValueAndDValue(s.inputs())
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	A, err := s.assembleA(derivs)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	b, err := s.assembleRhs(vals)
	if err != nil {
		return tensor.Tensor{}, tensor.Tensor{}, err
	}
	return A, b, nil
}

func (s *LinearSystem) assembleA(derivs map[string]map[string]tensor.Tensor) (tensor.Tensor, error) {
	rowLayouts, err := s.bLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	colLayouts, err := s.uLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	blocks := make([][]tensor.Tensor, len(s.BNames))
	for i, y := range s.BNames {
		blocks[i] = make([]tensor.Tensor, len(s.UNames))
		for j, x := range s.UNames {
			if row, ok := derivs[y]; ok {
				blocks[i][j] = row[x]
			}
		}
	}
	return assembly.AssembleMatrix(nil, rowLayouts, colLayouts, blocks)
}

// AAndDrDg always fails with ErrUnsupportedConfiguration on a linear-only
// system, which has no given vector g; NonlinearSystem overrides it.
func (s *LinearSystem) AAndDrDg() (tensor.Tensor, tensor.Tensor, error) {
	return tensor.Tensor{}, tensor.Tensor{}, fmt.Errorf("%w: %q: A and B requested from a linear-only system",
		model.ErrUnsupportedConfiguration, s.Model.Name)
}

// assembleRhs assembles spec §4.6's b = −r from the model's raw output
// values (callers needing the residual itself, not its negation, use
// Model.Value directly).
func (s *LinearSystem) assembleRhs(vals map[string]tensor.Tensor) (tensor.Tensor, error) {
	layouts, err := s.bLayout()
	if err != nil {
		return tensor.Tensor{}, err
	}
	values := make([]tensor.Tensor, len(s.BNames))
	for i, name := range s.BNames {
		values[i] = vals[name]
	}
	r, err := assembly.Assemble(nil, layouts, values)
	if err != nil {
		return tensor.Tensor{}, err
	}
	return r.Negative(), nil
}
