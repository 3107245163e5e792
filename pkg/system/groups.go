package system

import "github.com/itohio/cmat/pkg/assembly"

// Group describes a contiguous partition of a LinearSystem's u/b
// variable names, used by the Schur-complement solver (schur.go) to
// split the assembled A/b into primary/Schur blocks.
type Group struct {
	Names []string
}

// groupOffsets returns each group's flattened start offset within the
// concatenation of groups, and the grand total.
func groupOffsets(groups []Group, layoutFor func(names []string) ([]assembly.Layout, error)) (starts []int, total int, err error) {
	starts = make([]int, len(groups))
	offset := 0
	for i, g := range groups {
		starts[i] = offset
		layouts, lerr := layoutFor(g.Names)
		if lerr != nil {
			return nil, 0, lerr
		}
		for _, l := range layouts {
			offset += l.Flat()
		}
	}
	return starts, offset, nil
}

func groupSize(g Group, layoutFor func(names []string) ([]assembly.Layout, error)) (int, error) {
	layouts, err := layoutFor(g.Names)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range layouts {
		n += l.Flat()
	}
	return n, nil
}
