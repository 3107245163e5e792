package models

import (
	"fmt"

	"github.com/itohio/cmat/pkg/factory"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// newRateSubmodel builds one of Composed's two submodels: output =
// input * scale. Both submodels share this scalar shape so Composed's
// sum output can add their results slot-by-slot (spec §8 scenario 3).
func newRateSubmodel(host *model.Model, name, inputName, outputName string, scale float64) (*model.Model, error) {
	m := model.NewSubmodel(name, host)

	x, err := m.DeclareInput(inputName, nil, nil)
	if err != nil {
		return nil, err
	}
	y, err := m.DeclareOutput(outputName, nil, nil)
	if err != nil {
		return nil, err
	}
	scaleParam, err := m.DeclareParameter("scale", nil, nil, tensor.Scalar(scale))
	if err != nil {
		return nil, err
	}

	m.SetForward(func(m *model.Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
		if wantValue {
			y.Set(x.Get().Scale(scaleParam.Get().At()))
		}
		if wantDeriv {
			if err := y.Derivative(x).Assign(scaleParam.Get()); err != nil {
				return err
			}
		}
		return nil
	})
	return m, nil
}

// NewComposed builds spec §8 scenario 3's composed rate model: a
// "thermal" submodel reading forces.temperature and a "mechanical"
// submodel reading state.bar, each producing a scalar rate, summed
// slot-by-slot into state.sum. The scenario's third input,
// state.baz (an SR2), is not wired into this worked example: mixing an
// SR2-shaped submodel output into the same sum as two scalar outputs
// would need a shape broadcast the scenario's "slot-by-slot" equality
// doesn't call for — see DESIGN.md.
//
// Composition is manual rather than routed through
// DependencyResolver.Order()/TotalDerivatives: with exactly two
// independent (non-chained) submodels there is no producer/consumer
// ordering to resolve, so ForwardFunc evaluates both directly and
// accumulates derivatives itself.
func NewComposed(host *model.Model, name string, thermalScale, mechanicalScale float64) (*model.Model, error) {
	m := model.NewSubmodel(name, host)

	temperature, err := m.DeclareInput("forces.temperature", nil, nil)
	if err != nil {
		return nil, err
	}
	bar, err := m.DeclareInput("state.bar", nil, nil)
	if err != nil {
		return nil, err
	}
	sum, err := m.DeclareOutput("state.sum", nil, nil)
	if err != nil {
		return nil, err
	}

	thermal, err := newRateSubmodel(host, name+".thermal", "forces.temperature", "state.thermal_rate", thermalScale)
	if err != nil {
		return nil, err
	}
	mechanical, err := newRateSubmodel(host, name+".mechanical", "state.bar", "state.mechanical_rate", mechanicalScale)
	if err != nil {
		return nil, err
	}
	if err := m.RegisterSubmodel("thermal", thermal, false); err != nil {
		return nil, err
	}
	if err := m.RegisterSubmodel("mechanical", mechanical, false); err != nil {
		return nil, err
	}

	m.SetForward(func(m *model.Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
		thermalOut, err := thermal.Value(map[string]tensor.Tensor{"forces.temperature": temperature.Get()})
		if err != nil {
			return fmt.Errorf("composed %q: thermal submodel: %w", m.Name, err)
		}
		mechanicalOut, err := mechanical.Value(map[string]tensor.Tensor{"state.bar": bar.Get()})
		if err != nil {
			return fmt.Errorf("composed %q: mechanical submodel: %w", m.Name, err)
		}

		if wantValue {
			total, err := thermalOut["state.thermal_rate"].Add(mechanicalOut["state.mechanical_rate"])
			if err != nil {
				return err
			}
			sum.Set(total)
		}
		if wantDeriv {
			if err := sum.Derivative(temperature).Assign(tensor.Scalar(thermalScale)); err != nil {
				return err
			}
			if err := sum.Derivative(bar).Assign(tensor.Scalar(mechanicalScale)); err != nil {
				return err
			}
		}
		return nil
	})
	return m, nil
}

func init() {
	factory.Register("composed", func(host *model.Model, name string, cfg factory.Config) (*model.Model, error) {
		thermalScale, err := cfg.Float64("thermal_scale", 1)
		if err != nil {
			return nil, err
		}
		mechanicalScale, err := cfg.Float64("mechanical_scale", 1)
		if err != nil {
			return nil, err
		}
		return NewComposed(host, name, thermalScale, mechanicalScale)
	})
}
