package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// scalarForward implements spec §8 example 1: y = x + 0.6, dy/dx = 1.
func scalarForward(m *Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
	x, _ := m.Vars.Get("forces.x")
	y, _ := m.Vars.Get("state.y")

	if wantValue {
		sum, err := x.Get().Add(tensor.Scalar(0.6))
		if err != nil {
			return err
		}
		y.Set(sum)
	}
	if wantDeriv {
		if err := y.Derivative(x).Assign(tensor.Scalar(1)); err != nil {
			return err
		}
	}
	return nil
}

func newScalarModel(t *testing.T) *Model {
	t.Helper()
	m := NewHost("scalar")
	_, err := m.DeclareInput("forces.x", nil, nil)
	require.NoError(t, err)
	_, err = m.DeclareOutput("state.y", nil, nil)
	require.NoError(t, err)
	m.SetForward(scalarForward)
	require.NoError(t, m.Setup())
	return m
}

func TestValue(t *testing.T) {
	m := newScalarModel(t)
	vals, err := m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(5)})
	require.NoError(t, err)
	assert.Equal(t, 5.6, vals["state.y"].At())
}

func TestDValue(t *testing.T) {
	m := newScalarModel(t)
	derivs, err := m.DValue(map[string]tensor.Tensor{"forces.x": tensor.Scalar(5)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, derivs["state.y"]["forces.x"].At(0, 0))
}

func TestValueAndDValue(t *testing.T) {
	m := newScalarModel(t)
	vals, derivs, err := m.ValueAndDValue(map[string]tensor.Tensor{"forces.x": tensor.Scalar(2)})
	require.NoError(t, err)
	assert.Equal(t, 2.6, vals["state.y"].At())
	assert.Equal(t, 1.0, derivs["state.y"]["forces.x"].At(0, 0))
}

func TestMissingInputDefaultsToZero(t *testing.T) {
	m := newScalarModel(t)
	vals, err := m.Value(nil)
	require.NoError(t, err)
	assert.Equal(t, 0.6, vals["state.y"].At())
}

// quadraticForward implements y = x^2 and deliberately never writes an
// analytic derivative, leaving RequestDerivative("state.y","forces.x")
// to be filled in by the numerical AD hook (spec §4.4).
func quadraticForward(m *Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
	x, _ := m.Vars.Get("forces.x")
	y, _ := m.Vars.Get("state.y")
	if wantValue {
		v := x.Get().At()
		y.Set(tensor.Scalar(v * v))
	}
	return nil
}

func newQuadraticModel(t *testing.T) *Model {
	t.Helper()
	m := NewHost("quadratic")
	_, err := m.DeclareInput("forces.x", nil, nil)
	require.NoError(t, err)
	_, err = m.DeclareOutput("state.y", nil, nil)
	require.NoError(t, err)
	m.SetForward(quadraticForward)
	m.RequestDerivative("state.y", "forces.x")
	require.NoError(t, m.Setup())
	return m
}

func TestAutodiffFirstDerivativeFillsUnwrittenPair(t *testing.T) {
	m := newQuadraticModel(t)
	_, derivs, err := m.evaluate(map[string]tensor.Tensor{"forces.x": tensor.Scalar(3)}, variable.EvalContext{}, true, true, false)
	require.NoError(t, err)
	assert.InDelta(t, 6.0, derivs["state.y"]["forces.x"].At(0, 0), 1e-4)
}

func TestAutodiffFirstDerivativeReplaysOnCacheHit(t *testing.T) {
	m := newQuadraticModel(t)
	for _, x := range []float64{3, -2, 5} {
		_, derivs, err := m.evaluate(map[string]tensor.Tensor{"forces.x": tensor.Scalar(x)}, variable.EvalContext{}, true, true, false)
		require.NoError(t, err)
		assert.InDelta(t, 2*x, derivs["state.y"]["forces.x"].At(0, 0), 1e-4)
	}
	assert.Len(t, m.jit.entries, 1, "same schema every call should hit one cache entry")
}

// bilinearForward implements y = x1*x2 and writes neither derivative
// analytically, leaving both the first (d y/d x1) and, transitively,
// the second (d2 y/d x1 d x2) derivative to the AD hook.
func bilinearForward(m *Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
	x1, _ := m.Vars.Get("forces.x1")
	x2, _ := m.Vars.Get("forces.x2")
	y, _ := m.Vars.Get("state.y")
	if wantValue {
		prod, err := x1.Get().Mul(x2.Get())
		if err != nil {
			return err
		}
		y.Set(prod)
	}
	return nil
}

func newBilinearModel(t *testing.T) *Model {
	t.Helper()
	m := NewHost("bilinear")
	_, err := m.DeclareInput("forces.x1", nil, nil)
	require.NoError(t, err)
	_, err = m.DeclareInput("forces.x2", nil, nil)
	require.NoError(t, err)
	_, err = m.DeclareOutput("state.y", nil, nil)
	require.NoError(t, err)
	m.SetForward(bilinearForward)
	m.RequestDerivative("state.y", "forces.x1")
	m.RequestSecondDerivative("state.y", "forces.x1", "forces.x2")
	require.NoError(t, m.Setup())
	return m
}

func TestAutodiffSecondDerivativeRequiresMatchingFirstRequest(t *testing.T) {
	m := newBilinearModel(t)
	_, _, secderivs, err := m.evaluate(map[string]tensor.Tensor{
		"forces.x1": tensor.Scalar(2),
		"forces.x2": tensor.Scalar(3),
	}, variable.EvalContext{}, true, true, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, secderivs["state.y"]["forces.x1"]["forces.x2"].At(0, 0), 1e-3)
}

func TestJITCacheReusesSchemaAcrossCalls(t *testing.T) {
	m := newScalarModel(t)
	for i, x := range []float64{1, 2, 3} {
		vals, err := m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(x)})
		require.NoError(t, err, "call %d", i)
		assert.Equal(t, x+0.6, vals["state.y"].At())
	}
	assert.Len(t, m.jit.entries, 1, "same schema every call should hit one cache entry")
}

func TestEvaluateBeforeSetupFails(t *testing.T) {
	m := NewHost("scalar")
	_, err := m.DeclareInput("forces.x", nil, nil)
	require.NoError(t, err)
	_, err = m.DeclareOutput("state.y", nil, nil)
	require.NoError(t, err)
	m.SetForward(scalarForward)

	_, err = m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(1)})
	require.ErrorIs(t, err, ErrSetup)
}

func TestRegisterSubmodelRejectsSelf(t *testing.T) {
	m := NewHost("scalar")
	require.ErrorIs(t, m.RegisterSubmodel("self", m, false), ErrSetup)
}

func TestRegisterSubmodelRejectsDuplicateName(t *testing.T) {
	m := NewHost("scalar")
	child := NewSubmodel("child", m)
	require.NoError(t, m.RegisterSubmodel("child", child, false))
	require.ErrorIs(t, m.RegisterSubmodel("child", child, false), ErrSetup)
}

func TestMergeInputClonesAndAliases(t *testing.T) {
	host := NewHost("composed")
	child := NewSubmodel("child", host)
	_, err := child.DeclareInput("forces.x", nil, nil)
	require.NoError(t, err)
	_, err = child.DeclareOutput("state.y", nil, nil)
	require.NoError(t, err)
	child.SetForward(scalarForward)

	require.NoError(t, host.RegisterSubmodel("child", child, true))
	require.NoError(t, host.Setup())

	hostX, ok := host.Vars.Get("forces.x")
	require.True(t, ok)
	childX, _ := child.Vars.Get("forces.x")
	assert.True(t, childX.IsReference())

	hostX.Set(tensor.Scalar(9))
	assert.Equal(t, 9.0, childX.Get().At())
}

func TestDependencyResolverOrdersProducerBeforeConsumer(t *testing.T) {
	host := NewHost("composed")
	a := NewSubmodel("a", host)
	_, err := a.DeclareInput("forces.x", nil, nil)
	require.NoError(t, err)
	_, err = a.DeclareOutput("state.a", nil, nil)
	require.NoError(t, err)

	b := NewSubmodel("b", host)
	_, err = b.DeclareInput("state.a", nil, nil)
	require.NoError(t, err)
	_, err = b.DeclareOutput("state.b", nil, nil)
	require.NoError(t, err)

	require.NoError(t, host.RegisterSubmodel("a", a, false))
	require.NoError(t, host.RegisterSubmodel("b", b, false))

	aOut, _ := a.Vars.Get("state.a")
	bIn, _ := b.Vars.Get("state.a")
	require.NoError(t, bIn.SetReference(aOut))

	r := NewDependencyResolver(host)
	order, err := r.Order()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "a", order[0].Name)
	assert.Equal(t, "b", order[1].Name)
}

func TestTotalDerivativesChainRule(t *testing.T) {
	host := NewHost("composed")
	a := NewSubmodel("a", host)
	b := NewSubmodel("b", host)
	r := NewDependencyResolver(host)

	// a: state.a = 2*x, da/dx = 2. b: state.b = 3*a, db/da = 3.
	partials := map[string]map[string]map[string]tensor.Tensor{
		"a": {"state.a": {"forces.x": assembly(2)}},
		"b": {"state.b": {"state.a": assembly(3)}},
	}

	total, err := r.TotalDerivatives([]*Model{a, b}, partials, []string{"forces.x"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, total["state.a"]["forces.x"].At(0, 0))
	assert.Equal(t, 6.0, total["state.b"]["forces.x"].At(0, 0))
}

func assembly(v float64) tensor.Tensor {
	t := tensor.New(tensor.Float64, 0, 0, 2, []int{1, 1})
	t.SetAt(v, 0, 0)
	return t
}
