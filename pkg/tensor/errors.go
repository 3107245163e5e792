package tensor

import "errors"

// Sentinel errors for the tensor engine. Wrapped with fmt.Errorf("%w: ...")
// at the call site so callers can errors.Is against these.
var (
	// ErrShape reports a base-shape mismatch, a non-broadcastable dynamic
	// shape, an illegal sum-to-size target, or an assembly-format shape
	// inconsistency (spec §7, ShapeError).
	ErrShape = errors.New("tensor: shape error")

	// ErrPrecision reports that a tensor's dtype is not double when double
	// is required (spec §7, PrecisionError).
	ErrPrecision = errors.New("tensor: precision error")
)
