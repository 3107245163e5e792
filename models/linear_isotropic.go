package models

import (
	"github.com/itohio/cmat/pkg/factory"
	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/primitive"
	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// isotropicStiffness builds the isotropic Hooke's-law stiffness tensor
// in SR2's Mandel basis. Because the Mandel shear components already
// carry sqrt(2) (see pkg/primitive's ToR2/FromR2), the normal-shear
// cross terms of the usual Voigt stiffness vanish and the shear-shear
// block is simply diag(2μ, 2μ, 2μ) with no 1/2 or sqrt(2) correction
// needed at this layer.
func isotropicStiffness(E, nu float64) primitive.Value {
	lambda := E * nu / ((1 + nu) * (1 - 2*nu))
	mu := E / (2 * (1 + nu))

	var c [6][6]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c[i][j] = lambda
		}
		c[i][i] += 2 * mu
	}
	for i := 3; i < 6; i++ {
		c[i][i] = 2 * mu
	}
	return primitive.SSR4Of(c)
}

// NewLinearIsotropic builds spec §8 scenario 2's model: stress =
// C(E,ν):Ee, the batched Mandel-basis contraction pkg/primitive's
// SSR4.Contract(SR2) already implements. E and ν are literal
// parameters, re-read every forward call so a later Set on either
// takes effect without rebuilding the model.
func NewLinearIsotropic(host *model.Model, name string, E, nu float64) (*model.Model, error) {
	m := model.NewSubmodel(name, host)

	ee, err := m.DeclareInput("state.internal.Ee", nil, primitive.KindSR2.BaseSizes())
	if err != nil {
		return nil, err
	}
	stress, err := m.DeclareOutput("state.internal.stress", nil, primitive.KindSR2.BaseSizes())
	if err != nil {
		return nil, err
	}
	eParam, err := m.DeclareParameter("E", nil, nil, tensor.Scalar(E))
	if err != nil {
		return nil, err
	}
	nuParam, err := m.DeclareParameter("nu", nil, nil, tensor.Scalar(nu))
	if err != nil {
		return nil, err
	}

	m.SetForward(func(m *model.Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
		if !wantValue && !wantDeriv {
			return nil
		}
		c := isotropicStiffness(eParam.Get().At(), nuParam.Get().At())

		if wantValue {
			strain := primitive.Wrap(primitive.KindSR2, ee.Get())
			sigma, err := c.Contract(strain)
			if err != nil {
				return err
			}
			stress.Set(sigma.Tensor)
		}
		if wantDeriv {
			// dσ/dε = C, a constant 6x6 Jacobian independent of strain.
			if err := stress.Derivative(ee).Assign(c.Tensor); err != nil {
				return err
			}
		}
		return nil
	})
	return m, nil
}

func init() {
	factory.Register("linear_isotropic", func(host *model.Model, name string, cfg factory.Config) (*model.Model, error) {
		E, err := cfg.Float64("E", 0)
		if err != nil {
			return nil, err
		}
		nu, err := cfg.Float64("nu", 0)
		if err != nil {
			return nil, err
		}
		return NewLinearIsotropic(host, name, E, nu)
	})
}
