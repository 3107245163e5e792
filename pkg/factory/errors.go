package factory

import "errors"

// ErrType covers an undeclared model name, an unregistered model type,
// or a cyclic submodel reference in an input file — setup-time mistakes
// in the declarations themselves, distinct from model.ErrSetup which
// covers mistakes inside one model's own variable/parameter declarations.
var ErrType = errors.New("factory: type error")
