package variable

import "errors"

// ErrSetup is the SetupError kind of spec.md §7 as it applies to
// variable declaration and referencing: duplicate declarations, a
// variable given more than one referent, or a reference cycle.
var ErrSetup = errors.New("variable: setup error")
