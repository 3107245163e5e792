package discretization

import "errors"

// ErrShape is returned on connectivity/DOF-count/basis-length mismatches.
var ErrShape = errors.New("discretization: shape error")
