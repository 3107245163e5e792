package models

import (
	"github.com/itohio/cmat/pkg/factory"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// NewSum builds spec §8 scenario 1's scalar model: state.y = forces.x +
// offset. offset is a literal parameter, not a Go constant ("parameters
// all literal" in the scenario's description), so a later Factory
// caller can override it without recompiling.
func NewSum(host *model.Model, name string, offset float64) (*model.Model, error) {
	m := model.NewSubmodel(name, host)

	x, err := m.DeclareInput("forces.x", nil, nil)
	if err != nil {
		return nil, err
	}
	y, err := m.DeclareOutput("state.y", nil, nil)
	if err != nil {
		return nil, err
	}
	offsetParam, err := m.DeclareParameter("offset", nil, nil, tensor.Scalar(offset))
	if err != nil {
		return nil, err
	}

	m.SetForward(func(m *model.Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
		if wantValue {
			sum, err := x.Get().Add(offsetParam.Get())
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
	})
	return m, nil
}

func init() {
	factory.Register("sum", func(host *model.Model, name string, cfg factory.Config) (*model.Model, error) {
		offset, err := cfg.Float64("offset", 0)
		if err != nil {
			return nil, err
		}
		return NewSum(host, name, offset)
	})
}
