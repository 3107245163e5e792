// Package model implements the Model lifecycle of spec.md §3/§4 (C8-C10):
// variable/parameter declaration, forward evaluation with first/second
// derivatives, automatic differentiation hooks, dependency-graph
// composition and a JIT trace cache.
package model

import "errors"

// The seven error kinds of spec §7. Each is a distinct sentinel so
// callers can errors.Is against a kind without parsing messages; every
// returned error wraps its kind via fmt.Errorf("%w: ...").
var (
	// ErrSetup covers duplicate declaration, missing referent,
	// self-registration as own sub-model, invalid sub-axis placement.
	// Raised during construction/setup; the model must not be used
	// afterward.
	ErrSetup = errors.New("model: setup error")

	// ErrShape covers base-shape mismatch, non-broadcastable dynamic
	// shapes, illegal sum-to-size target, assembly-format shape
	// inconsistency.
	ErrShape = errors.New("model: shape error")

	// ErrPrecision is raised when the default dtype is not double and
	// the settings require it.
	ErrPrecision = errors.New("model: precision error")

	// ErrTrace is raised on tracer failure during JIT capture; callers
	// fall through to non-JIT evaluation after releasing the tracing
	// lock.
	ErrTrace = errors.New("model: trace error")

	// ErrNumerical covers factor/solve failure and non-finite values
	// detected in a variable assignment outside tracing.
	ErrNumerical = errors.New("model: numerical error")

	// ErrUnsupportedConfiguration covers unexpected solver group counts
	// and derivatives not defined for a requested pair.
	ErrUnsupportedConfiguration = errors.New("model: unsupported configuration")

	// ErrIO covers archive read/write failure and missing dynamic
	// library symbols.
	ErrIO = errors.New("model: io error")
)
