// Package variable implements the Variable/VariableStore and Derivative
// types of spec.md §3 (C5/C7): named tensor-valued slots on a labeled
// axis tree, with non-owning reference/alias chains and per-(y,x)
// derivative objects implementing the diagonalization/broadcast/
// sum-to-size assignment algorithm (spec §4.2).
//
// New relative to the teacher, but the owning-Model/non-owning-handle
// split mirrors pkg/core/math/nn's Parameter{Data,Grad} vs. a plain
// tensor view, and the explicit EvalContext threaded through
// IsDependent follows spec §9's guidance to avoid a hidden thread-local.
package variable

import (
	"fmt"

	"github.com/itohio/cmat/pkg/axis"
	"github.com/itohio/cmat/pkg/tensor"
)

// Variable is a named tensor-valued slot. A referencing variable (one
// with a non-nil referent) owns no storage of its own: all value and
// derivative reads/writes forward to Ultimate().
type Variable struct {
	Name         string
	IntmdShape   []int
	BaseShape    []int
	Value        tensor.Tensor
	FirstDerivs  map[string]*Derivative
	SecondDerivs map[string]map[string]*Derivative
	reference    *Variable
}

// New declares a non-aliasing Variable with the given fixed intermediate
// and base shape.
func New(name string, intmdShape, baseShape []int) *Variable {
	return &Variable{
		Name:         name,
		IntmdShape:   append([]int(nil), intmdShape...),
		BaseShape:    append([]int(nil), baseShape...),
		FirstDerivs:  map[string]*Derivative{},
		SecondDerivs: map[string]map[string]*Derivative{},
	}
}

// SetReference establishes v as a non-owning alias of referent. Exactly
// one referent may ever be set (spec §3); v is pointed directly at
// referent's ultimate owner as of this call, so a chain forms only if that
// owner is itself aliased later, and Ultimate() follows such a chain.
func (v *Variable) SetReference(referent *Variable) error {
	if v.reference != nil {
		return fmt.Errorf("%w: %q already has a referent", ErrSetup, v.Name)
	}
	if referent.Ultimate() == v {
		return fmt.Errorf("%w: %q cannot reference itself", ErrSetup, v.Name)
	}
	v.reference = referent.Ultimate()
	return nil
}

// Ultimate walks the alias chain to the variable that actually owns
// storage.
func (v *Variable) Ultimate() *Variable {
	cur := v
	for cur.reference != nil {
		cur = cur.reference
	}
	return cur
}

// IsReference reports whether v is a non-owning alias.
func (v *Variable) IsReference() bool { return v.reference != nil }

// Get returns the current value, following the alias chain.
func (v *Variable) Get() tensor.Tensor { return v.Ultimate().Value }

// Set assigns the current value, following the alias chain.
func (v *Variable) Set(t tensor.Tensor) { v.Ultimate().Value = t }

// Derivative returns (creating if absent) the first-derivative object of
// Ultimate() with respect to x, keyed by x's name.
func (v *Variable) Derivative(x *Variable) *Derivative {
	owner := v.Ultimate()
	if d, ok := owner.FirstDerivs[x.Name]; ok {
		return d
	}
	d := NewDerivative(owner, x)
	owner.FirstDerivs[x.Name] = d
	return d
}

// SecondDerivative returns (creating if absent) the second-derivative
// object of Ultimate() with respect to (x1, x2).
func (v *Variable) SecondDerivative(x1, x2 *Variable) *Derivative {
	owner := v.Ultimate()
	row, ok := owner.SecondDerivs[x1.Name]
	if !ok {
		row = map[string]*Derivative{}
		owner.SecondDerivs[x1.Name] = row
	}
	if d, ok := row[x2.Name]; ok {
		return d
	}
	d := NewDerivative(owner, x2)
	row[x2.Name] = d
	return d
}

// Sub-axis membership predicates (spec §3), derived from the first path
// segment of the variable's (ultimate) name.
func (v *Variable) IsState() bool     { return axis.IsState(v.Ultimate().Name) }
func (v *Variable) IsOldState() bool  { return axis.IsOldState(v.Ultimate().Name) }
func (v *Variable) IsForce() bool     { return axis.IsForce(v.Ultimate().Name) }
func (v *Variable) IsOldForce() bool  { return axis.IsOldForce(v.Ultimate().Name) }
func (v *Variable) IsResidual() bool  { return axis.IsResidual(v.Ultimate().Name) }
func (v *Variable) IsParameter() bool { return axis.IsParameter(v.Ultimate().Name) }

// EvalContext is the explicit evaluation-context value threaded through
// call sites in place of the teacher-language's thread-local
// "currently_assembling_nonlinear_system" boolean (spec §5/§9): pass it
// down instead of reading a hidden global.
type EvalContext struct {
	InNonlinearAssembly bool
}

// IsDependent reports whether v's derivatives are meaningful in ctx: a
// variable is dependent if it's on state/residual/parameters, or if the
// computation is not currently inside nonlinear-system assembly at all
// (spec §3).
func (v *Variable) IsDependent(ctx EvalContext) bool {
	if !ctx.InNonlinearAssembly {
		return true
	}
	return v.IsState() || v.IsResidual() || v.IsParameter()
}
