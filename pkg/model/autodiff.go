package model

import (
	"fmt"

	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// finiteDifferenceStep is the central-difference step spec §4.4's
// automatic-differentiation hook uses when ForwardFunc leaves a
// RequestDerivative/RequestSecondDerivative pair unwritten.
const finiteDifferenceStep = 1e-6

// autodiffFirstDerivatives implements spec §4.4's AD hook for every
// RequestDerivative pair ForwardFunc did not itself populate: central-
// difference sampling of y against perturbations of x, reusing the real
// forward pass as the sampling function. pkg/tensor's operations are
// plain Go method calls with no symbolic graph to reverse-differentiate,
// so true reverse-mode VJP extraction is not buildable here without
// reimplementing every C1 operation atop a graph library — see
// DESIGN.md. allowed, when non-nil, restricts autodiff to the cached
// sparsity a prior trace of this schema already discovered (spec §4.5's
// replay path); nil means discover from scratch.
func (m *Model) autodiffFirstDerivatives(ctx variable.EvalContext, allowed []adPair) error {
	allowSet := sparsitySet(allowed)
	for pair := range m.adRequests {
		if allowSet != nil && !allowSet[pair] {
			continue
		}
		y, ok := m.Vars.Get(pair.Y)
		if !ok {
			continue
		}
		if _, ok := y.FirstDerivs[pair.X]; ok {
			continue // ForwardFunc already wrote this one analytically
		}
		x, ok := m.Vars.Get(pair.X)
		if !ok {
			continue
		}
		if !canFiniteDifference(y, x) {
			continue
		}
		jac, err := m.numericalJacobian(ctx, y, x)
		if err != nil {
			return fmt.Errorf("%w: %q: autodiff d(%s)/d(%s): %v", ErrNumerical, m.Name, pair.Y, pair.X, err)
		}
		if err := y.Derivative(x).Assign(jac); err != nil {
			return fmt.Errorf("%w: %q: autodiff d(%s)/d(%s): %v", ErrNumerical, m.Name, pair.Y, pair.X, err)
		}
	}
	return nil
}

// autodiffSecondDerivatives implements spec §4.1 step 4's second-
// derivative extraction for RequestSecondDerivative pairs left unwritten
// by ForwardFunc, only for (y,x1,x2) whose (y,x1) first derivative is
// itself AD-requested, per spec.
//
// Scope decision: the stored second-derivative Derivative object is
// keyed (y,x1,x2) but itself only carries y.BaseShape⊕x2.BaseShape
// (variable.Variable.SecondDerivative builds it via NewDerivative(y,
// x2), with no x1 axis in its target shape at all) — there is nowhere
// to place x1's own axes in that container when x1 is non-scalar. This
// hook therefore only auto-differentiates when x1 is scalar (base size
// 1, no intermediate shape), where d²y/dx1dx2 legitimately has shape
// y⊕x2 with no contribution from x1's own axis; a vector-valued x1 is
// left to ForwardFunc, matching this codebase's existing pattern of
// narrowing AD to the shapes its bookkeeping containers can represent
// (see DESIGN.md).
func (m *Model) autodiffSecondDerivatives(ctx variable.EvalContext, allowed []adPair) error {
	allowSet := sparsitySet(allowed)
	for key, requestedX2 := range m.ad2 {
		first := adPair{Y: key[0], X: key[1]}
		if !m.adRequests[first] {
			continue // spec §4.1 step 4: only honored alongside the matching first derivative
		}
		if allowSet != nil && !allowSet[first] {
			continue
		}
		y, ok := m.Vars.Get(key[0])
		if !ok {
			continue
		}
		x1, ok := m.Vars.Get(key[1])
		if !ok {
			continue
		}
		if product(x1.BaseShape) != 1 || len(x1.IntmdShape) != 0 {
			continue
		}
		for x2Name := range requestedX2 {
			if row, ok := y.SecondDerivs[key[1]]; ok {
				if _, ok := row[x2Name]; ok {
					continue // ForwardFunc already wrote this one analytically
				}
			}
			x2, ok := m.Vars.Get(x2Name)
			if !ok {
				continue
			}
			if !canFiniteDifference(y, x2) {
				continue
			}
			jac, err := m.numericalSecondJacobian(ctx, y, x1, x2)
			if err != nil {
				return fmt.Errorf("%w: %q: autodiff d2(%s)/d(%s)d(%s): %v", ErrNumerical, m.Name, key[0], key[1], x2Name, err)
			}
			if err := y.SecondDerivative(x1, x2).Assign(jac); err != nil {
				return fmt.Errorf("%w: %q: autodiff d2(%s)/d(%s)d(%s): %v", ErrNumerical, m.Name, key[0], key[1], x2Name, err)
			}
		}
	}
	return nil
}

// canFiniteDifference restricts numerical AD to unbatched, non-
// intermediate variables — the same scope pkg/system and
// DependencyResolver.TotalDerivatives already carry (see DESIGN.md): a
// rank-2 assembly contraction with no dynamic axis.
func canFiniteDifference(y, x *variable.Variable) bool {
	if len(y.IntmdShape) != 0 || len(x.IntmdShape) != 0 {
		return false
	}
	if y.Get().DynamicDim() != 0 || x.Get().DynamicDim() != 0 {
		return false
	}
	return true
}

// numericalJacobian central-differences y with respect to x's flattened
// base components, holding every other variable fixed at its currently
// assigned value, and restores x and y to their original values before
// returning.
func (m *Model) numericalJacobian(ctx variable.EvalContext, y, x *variable.Variable) (tensor.Tensor, error) {
	x0, y0 := x.Get(), y.Get()
	nX, nY := product(x.BaseShape), product(y.BaseShape)
	if nX == 0 || nY == 0 {
		return tensor.Tensor{}, fmt.Errorf("%w: empty base shape for d(%s)/d(%s)", ErrUnsupportedConfiguration, y.Name, x.Name)
	}

	sample := func() ([]float64, error) {
		if err := m.forwardFn(m, ctx, true, false, false); err != nil {
			return nil, err
		}
		return y.Get().Data(), nil
	}

	xData := append([]float64(nil), x0.Data()...)
	jac := make([]float64, nY*nX)
	restore := func() {
		x.Set(x0)
		y.Set(y0)
	}

	for i := 0; i < nX; i++ {
		orig := xData[i]

		xData[i] = orig + finiteDifferenceStep
		x.Set(tensor.FromSlice(tensor.Float64, 0, 0, len(x.BaseShape), x.BaseShape, append([]float64(nil), xData...)))
		plus, err := sample()
		if err != nil {
			xData[i] = orig
			restore()
			return tensor.Tensor{}, err
		}

		xData[i] = orig - finiteDifferenceStep
		x.Set(tensor.FromSlice(tensor.Float64, 0, 0, len(x.BaseShape), x.BaseShape, append([]float64(nil), xData...)))
		minus, err := sample()
		if err != nil {
			xData[i] = orig
			restore()
			return tensor.Tensor{}, err
		}

		xData[i] = orig
		for k := 0; k < nY; k++ {
			jac[k*nX+i] = (plus[k] - minus[k]) / (2 * finiteDifferenceStep)
		}
	}
	restore()

	dims := append(append([]int(nil), y.BaseShape...), x.BaseShape...)
	return tensor.FromSlice(tensor.Float64, 0, 0, len(dims), dims, jac), nil
}

// numericalSecondJacobian central-differences numericalJacobian(y,x2)
// itself — with scalar x1 held fixed at each sample point, perturbing
// x1 around its current value — to approximate d(dy/dx2)/dx1. Since x1
// is scalar (canFiniteDifference/the scope check in
// autodiffSecondDerivatives guarantees this), the result carries the
// same y⊕x2 shape as a first derivative of y w.r.t. x2.
func (m *Model) numericalSecondJacobian(ctx variable.EvalContext, y, x1, x2 *variable.Variable) (tensor.Tensor, error) {
	x1v0 := x1.Get()
	orig := x1v0.Data()[0]

	sampleDyDx2 := func(x1Value float64) ([]float64, error) {
		x1.Set(tensor.FromSlice(tensor.Float64, 0, 0, len(x1.BaseShape), x1.BaseShape, []float64{x1Value}))
		jac, err := m.numericalJacobian(ctx, y, x2)
		if err != nil {
			return nil, err
		}
		return jac.Data(), nil
	}

	plus, err := sampleDyDx2(orig + finiteDifferenceStep)
	if err != nil {
		x1.Set(x1v0)
		return tensor.Tensor{}, err
	}
	minus, err := sampleDyDx2(orig - finiteDifferenceStep)
	if err != nil {
		x1.Set(x1v0)
		return tensor.Tensor{}, err
	}
	x1.Set(x1v0)

	out := make([]float64, len(plus))
	for i := range out {
		out[i] = (plus[i] - minus[i]) / (2 * finiteDifferenceStep)
	}

	dims := append(append([]int(nil), y.BaseShape...), x2.BaseShape...)
	return tensor.FromSlice(tensor.Float64, 0, 0, len(dims), dims, out), nil
}

func sparsitySet(pairs []adPair) map[adPair]bool {
	if pairs == nil {
		return nil
	}
	set := make(map[adPair]bool, len(pairs))
	for _, p := range pairs {
		set[p] = true
	}
	return set
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
