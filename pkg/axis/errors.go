package axis

import "errors"

// ErrSetup is the SetupError kind of spec.md §7 as it applies to the
// labeled axis tree: duplicate declarations, invalid sub-axis placement,
// or any mutation attempted after Setup.
var ErrSetup = errors.New("axis: setup error")
