package model

import (
	"errors"
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// Value implements spec §4.1's value(in) contract: computes only
// output values.
func (m *Model) Value(in map[string]tensor.Tensor) (map[string]tensor.Tensor, error) {
	vals, _, _, err := m.evaluate(in, variable.EvalContext{}, true, false, false)
	return vals, err
}

// DValue implements dvalue(in): computes only first derivatives.
func (m *Model) DValue(in map[string]tensor.Tensor) (map[string]map[string]tensor.Tensor, error) {
	_, derivs, _, err := m.evaluate(in, variable.EvalContext{}, false, true, false)
	return derivs, err
}

// ValueAndDValue implements value_and_dvalue(in).
func (m *Model) ValueAndDValue(in map[string]tensor.Tensor) (map[string]tensor.Tensor, map[string]map[string]tensor.Tensor, error) {
	vals, derivs, _, err := m.evaluate(in, variable.EvalContext{}, true, true, false)
	return vals, derivs, err
}

// ValueAndDValueAndD2Value implements value_and_dvalue_and_d2value(in).
func (m *Model) ValueAndDValueAndD2Value(in map[string]tensor.Tensor) (
	map[string]tensor.Tensor,
	map[string]map[string]tensor.Tensor,
	map[string]map[string]map[string]tensor.Tensor,
	error,
) {
	return m.evaluate(in, variable.EvalContext{}, true, true, true)
}

// evaluate is the Model.value family's shared implementation (spec
// §4.1): reject non-double inputs, assign inputs, zero undefined ones,
// run forward_maybe_jit, collect outputs/derivatives, then release storage.
func (m *Model) evaluate(in map[string]tensor.Tensor, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) (
	map[string]tensor.Tensor,
	map[string]map[string]tensor.Tensor,
	map[string]map[string]map[string]tensor.Tensor,
	error,
) {
	if !m.setupDone {
		return nil, nil, nil, fmt.Errorf("%w: %q: Setup was never called", ErrSetup, m.Name)
	}

	for name, t := range in {
		if err := tensor.RequireDouble(t.DataType()); err != nil {
			return nil, nil, nil, fmt.Errorf("%w: %q: input %q: %v", ErrPrecision, m.Name, name, err)
		}
	}

	if err := m.assignInputs(in); err != nil {
		return nil, nil, nil, err
	}

	if err := m.forwardMaybeJIT(ctx, wantValue, wantDeriv, wantSecond); err != nil {
		return nil, nil, nil, err
	}

	vals := m.collectOutputs()
	derivs := m.collectFirstDerivatives()
	secderivs := m.collectSecondDerivatives()

	m.clearInputsAndOutputs()

	return vals, derivs, secderivs, nil
}

// assignInputs pushes in into the VariableStore in declared input order
// (spec §4.5's documented stack order), zeroing any input variable
// omitted from in.
func (m *Model) assignInputs(in map[string]tensor.Tensor) error {
	for _, name := range m.inputs {
		v, ok := m.Vars.Get(name)
		if !ok {
			return fmt.Errorf("%w: %q: input %q not declared", ErrSetup, m.Name, name)
		}
		if t, ok := in[name]; ok {
			v.Set(t)
			continue
		}
		dims := append(append([]int(nil), v.IntmdShape...), v.BaseShape...)
		v.Set(tensor.New(tensor.Float64, 0, len(v.IntmdShape), len(v.BaseShape), dims))
	}
	return nil
}

func (m *Model) clearInputsAndOutputs() {
	for _, name := range append(append([]string(nil), m.inputs...), m.outputs...) {
		if v, ok := m.Vars.Get(name); ok {
			v.Value = tensor.Tensor{}
		}
	}
}

func (m *Model) collectOutputs() map[string]tensor.Tensor {
	out := make(map[string]tensor.Tensor, len(m.outputs))
	for _, name := range m.outputs {
		if v, ok := m.Vars.Get(name); ok {
			out[name] = v.Get()
		}
	}
	return out
}

func (m *Model) collectFirstDerivatives() map[string]map[string]tensor.Tensor {
	out := make(map[string]map[string]tensor.Tensor, len(m.outputs))
	for _, name := range m.outputs {
		v, ok := m.Vars.Get(name)
		if !ok || len(v.FirstDerivs) == 0 {
			continue
		}
		row := make(map[string]tensor.Tensor, len(v.FirstDerivs))
		for x, d := range v.FirstDerivs {
			row[x] = d.Get()
		}
		out[name] = row
	}
	return out
}

func (m *Model) collectSecondDerivatives() map[string]map[string]map[string]tensor.Tensor {
	out := make(map[string]map[string]map[string]tensor.Tensor, len(m.outputs))
	for _, name := range m.outputs {
		v, ok := m.Vars.Get(name)
		if !ok || len(v.SecondDerivs) == 0 {
			continue
		}
		row := make(map[string]map[string]tensor.Tensor, len(v.SecondDerivs))
		for x1, inner := range v.SecondDerivs {
			col := make(map[string]tensor.Tensor, len(inner))
			for x2, d := range inner {
				col[x2] = d.Get()
			}
			row[x1] = col
		}
		out[name] = row
	}
	return out
}

// forwardMaybeJIT implements spec §4.1's forward_maybe_jit: build the
// evaluation schema from the current inputs, look it up in the JIT
// cache, and either replay or trace-and-cache on a miss. A trace failure
// falls through to a direct (non-JIT) call, per spec §7's TraceError
// recovery policy.
//
// pkg/tensor's operations are plain Go method calls with no symbolic
// graph, so the numeric forward pass itself can never be skipped — the
// real, observable difference a cache hit buys is in AD bookkeeping: a
// miss must discover, from scratch, which RequestDerivative/
// RequestSecondDerivative pairs this schema actually produces a
// non-null derivative for (recordSparsity, after forward runs); a hit
// already knows that sparsity and skips numerical-AD sampling for every
// pair known to be structurally dead for this schema, and replays the
// cached gorgonia bookkeeping graph (spec §4.5's "replay the stored
// graph") instead of re-validating shapes via a fresh trace.
func (m *Model) forwardMaybeJIT(ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
	schema := m.currentSchema(ctx, wantValue, wantDeriv, wantSecond)

	entry, hit, err := m.jit.Lookup(schema, func() ([]adPair, error) {
		if err := m.forward(ctx, wantValue, wantDeriv, wantSecond, nil); err != nil {
			return nil, err
		}
		return m.recordSparsity(), nil
	})
	if err != nil {
		if errors.Is(err, ErrTrace) {
			return m.forward(ctx, wantValue, wantDeriv, wantSecond, nil)
		}
		return err
	}
	if !hit {
		return nil // trace() above already ran forward with full AD discovery
	}

	if err := entry.replay(); err != nil {
		return fmt.Errorf("%w: replaying schema %s: %v", ErrTrace, schema.Key(), err)
	}
	return m.forward(ctx, wantValue, wantDeriv, wantSecond, entry.sparsity)
}

func (m *Model) currentSchema(ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) Schema {
	s := Schema{
		DynamicDims: make([]int, len(m.inputs)),
		IntmdShapes: make([][]int, len(m.inputs)),
		DispatchKey: "float64",
		InSolve:     ctx.InNonlinearAssembly,
		WantValue:   wantValue,
		WantDeriv:   wantDeriv,
		WantSecond:  wantSecond,
	}
	for i, name := range m.inputs {
		v, ok := m.Vars.Get(name)
		if !ok {
			continue
		}
		s.DynamicDims[i] = v.Get().DynamicDim()
		s.IntmdShapes[i] = append([]int(nil), v.IntmdShape...)
	}
	return s
}

func (m *Model) recordSparsity() []adPair {
	var pairs []adPair
	for _, name := range m.outputs {
		v, ok := m.Vars.Get(name)
		if !ok {
			continue
		}
		for x := range v.FirstDerivs {
			pairs = append(pairs, adPair{Y: name, X: x})
		}
	}
	return pairs
}

// forward implements spec §4.1's forward(): clear outputs/derivative
// tables, invoke the model-specific set_value, then (step 4) run spec
// §4.4's AD hook for any RequestDerivative/RequestSecondDerivative pair
// ForwardFunc left unwritten. sparsity, when non-nil, restricts the AD
// hook to a previously-discovered (y,x) set (a JIT cache replay, see
// forwardMaybeJIT); nil means discover it from scratch.
func (m *Model) forward(ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool, sparsity []adPair) error {
	if m.forwardFn == nil {
		return fmt.Errorf("%w: %q has no forward implementation", ErrSetup, m.Name)
	}
	for _, name := range m.outputs {
		v, ok := m.Vars.Get(name)
		if !ok {
			continue
		}
		v.Value = tensor.Tensor{}
		v.FirstDerivs = map[string]*variable.Derivative{}
		v.SecondDerivs = map[string]map[string]*variable.Derivative{}
	}
	if err := m.forwardFn(m, ctx, wantValue, wantDeriv, wantSecond); err != nil {
		return err
	}
	if wantDeriv && len(m.adRequests) > 0 {
		if err := m.autodiffFirstDerivatives(ctx, sparsity); err != nil {
			return err
		}
	}
	if wantSecond && len(m.ad2) > 0 {
		if err := m.autodiffSecondDerivatives(ctx, sparsity); err != nil {
			return err
		}
	}
	return nil
}
