package discretization

import "fmt"

// Basis evaluates a set of nodal shape functions (and their natural-
// coordinate derivatives) at one quadrature point xi. Values and
// Gradients must each have the same length as the element's local node
// count; Gradients[i] has one entry per natural coordinate.
type Basis struct {
	Values    []float64
	Gradients [][]float64
}

// LinearBasis1D is the two-node basis spec's Lerp/LerpD already compute
// pointwise: N0(xi)=1-xi, N1(xi)=xi for xi in [0,1], generalized here
// from a single scalar lerp into the {values, gradients} shape
// Interpolate/InterpolateGradient expect.
func LinearBasis1D(xi float64) Basis {
	return Basis{
		Values:    []float64{1 - xi, xi},
		Gradients: [][]float64{{-1}, {1}},
	}
}

// BilinearBasis2D is the four-node basis on the reference quad
// [-1,1]x[-1,1], node order (-1,-1),(1,-1),(1,1),(-1,1) — the standard
// isoparametric quad ordering.
func BilinearBasis2D(xi, eta float64) Basis {
	values := []float64{
		0.25 * (1 - xi) * (1 - eta),
		0.25 * (1 + xi) * (1 - eta),
		0.25 * (1 + xi) * (1 + eta),
		0.25 * (1 - xi) * (1 + eta),
	}
	grads := [][]float64{
		{-0.25 * (1 - eta), -0.25 * (1 - xi)},
		{0.25 * (1 - eta), -0.25 * (1 + xi)},
		{0.25 * (1 + eta), 0.25 * (1 + xi)},
		{-0.25 * (1 + eta), 0.25 * (1 - xi)},
	}
	return Basis{Values: values, Gradients: grads}
}

// Interpolate evaluates Σ Nᵢ·nodalValues[i], the weighted-sum-of-nodal-
// values Lerp/LerpD compute for two nodes, generalized to an arbitrary
// basis.
func Interpolate(basis Basis, nodalValues []float64) (float64, error) {
	if len(basis.Values) != len(nodalValues) {
		return 0, fmt.Errorf("%w: interpolate: %d basis values but %d nodal values", ErrShape, len(basis.Values), len(nodalValues))
	}
	var sum float64
	for i, n := range basis.Values {
		sum += n * nodalValues[i]
	}
	return sum, nil
}

// InterpolateGradient evaluates the natural-coordinate gradient of the
// interpolated field, Σ (∂Nᵢ/∂ξⱼ)·nodalValues[i] for each coordinate j.
// Callers needing the physical-coordinate gradient must still multiply
// by the inverse Jacobian of the isoparametric map themselves — mapping
// natural to physical coordinates is mesh geometry, out of this
// package's narrow scope.
func InterpolateGradient(basis Basis, nodalValues []float64) ([]float64, error) {
	if len(basis.Gradients) != len(nodalValues) {
		return nil, fmt.Errorf("%w: interpolate gradient: %d basis entries but %d nodal values", ErrShape, len(basis.Gradients), len(nodalValues))
	}
	if len(basis.Gradients) == 0 {
		return nil, nil
	}
	dims := len(basis.Gradients[0])
	grad := make([]float64, dims)
	for i, dN := range basis.Gradients {
		if len(dN) != dims {
			return nil, fmt.Errorf("%w: interpolate gradient: node %d has %d coordinate derivatives, want %d", ErrShape, i, len(dN), dims)
		}
		for j, d := range dN {
			grad[j] += d * nodalValues[i]
		}
	}
	return grad, nil
}
