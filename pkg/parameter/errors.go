package parameter

import "errors"

// ErrSetup mirrors pkg/variable.ErrSetup and pkg/axis.ErrSetup: a
// structural error raised during declaration or resolution, never during
// evaluation.
var ErrSetup = errors.New("parameter: setup error")
