package variable

import "github.com/itohio/cmat/pkg/axis"

// Store is an ordered collection of Variables backed by a labeled axis
// tree: declaration order is preserved, and Setup freezes both the axis
// layout and the store against further declarations.
type Store struct {
	Root  *axis.Axis
	vars  map[string]*Variable
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{Root: axis.NewRoot(), vars: map[string]*Variable{}}
}

// Declare registers a new Variable at name (a dotted/slashed path whose
// first segment must be a recognized sub-axis).
func (s *Store) Declare(name string, intmdShape, baseShape []int) (*Variable, error) {
	entry, err := s.Root.Declare(name, intmdShape, baseShape)
	if err != nil {
		return nil, err
	}
	v := New(entry.Path, intmdShape, baseShape)
	s.vars[entry.Path] = v
	s.order = append(s.order, entry.Path)
	return v, nil
}

// Setup freezes the axis tree; the store's variable set is unaffected
// (new aliases may still be wired by Model.Setup after this call).
func (s *Store) Setup() error {
	_, err := s.Root.Setup()
	return err
}

// Get resolves a variable by its normalized dotted/slashed path.
func (s *Store) Get(name string) (*Variable, bool) {
	v, ok := s.vars[axis.Normalize(name)]
	return v, ok
}

// Names returns every declared variable's path, in declaration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Each calls fn for every declared variable, in declaration order.
func (s *Store) Each(fn func(v *Variable)) {
	for _, name := range s.order {
		fn(s.vars[name])
	}
}
