// Package discretization implements spec §3/§8's C14: the narrow
// scatter/gather/interpolate/assemble primitives a finite-element-style
// caller needs to drive a model over a mesh, and nothing more (spec's
// Non-goals explicitly exclude a general mesh/assembly framework).
//
// Scatter distributes a global nodal tensor out to each element's local
// degrees of freedom via a Connectivity; Interpolate evaluates a field
// (and, via its gradient basis, a field gradient) at a quadrature point
// from an element's local nodal values and a set of shape functions;
// Gather/AssembleGlobal sum per-element contributions back into a
// global vector by the same Connectivity — the "assemble_" of spec §3's
// component table, named AssembleGlobal here to avoid reading as
// pkg/assembly's unrelated tensor-layout Assemble.
//
// Grounded on pkg/core/math/interpolation/lerp.go's Lerp/LerpD (the
// weighted-sum-of-nodal-values shape this package's Interpolate
// generalizes from two nodes to an arbitrary basis) and on
// pkg/core/math/nn/layers/conv2d.go's receptive-field gather (the same
// "index into a global buffer, copy a window into a local dense one"
// shape this package's Scatter/Gather reuse for node/DOF indices instead
// of pixel windows).
package discretization
