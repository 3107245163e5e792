// Package system implements spec §4.6's C12: a Model's state/forces/
// residual variables viewed as a linear(ized) or nonlinear system of
// equations, Au=b (or r(u;g)=0 linearized to A=∂r/∂u, b=−r, B=∂r/∂g),
// plus a Schur-complement two-group solver over that system.
//
// Grounded on original_source/include/neml2/equation_systems/
// {LinearSystem,NonlinearSystem}.h and
// original_source/src/neml2/solvers/SchurComplement.cxx: LinearSystem
// owns the u/A/b contract, NonlinearSystem adds g/B on top, and a
// concrete Model-bound system (here, a single NonlinearSystem backed by
// a *model.Model, mirroring the teacher's ModelNonlinearSystem) supplies
// real A/b/B by running the model's own Value/DValue evaluation.
package system
