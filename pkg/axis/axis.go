// Package axis implements the labeled axis tree of spec.md §3/§4 (C4): an
// ordered mapping from dotted variable names to intermediate/base shape
// and a storage-slice offset, computed once when the tree is set up and
// immutable afterward.
//
// New relative to the teacher (no direct analogue in itohio/EasyRobot),
// but written in its declarative-constructor-then-one-shot-validation
// idiom (compare the teacher's nn.ModelBuilder.Build() shape-validation
// pass): declare the tree's shape first, then freeze it.
package axis

import (
	"fmt"
	"strings"
)

// RecognizedSubAxes lists the names a root Axis accepts as direct
// children (spec.md §3's "recognized names"). Any other top-level
// segment is a SetupError.
var RecognizedSubAxes = map[string]bool{
	"state":      true,
	"old_state":  true,
	"forces":     true,
	"old_forces": true,
	"residual":   true,
	"parameters": true,
}

// Entry describes one declared variable: its full dotted path, its
// intermediate/base shape, and (after Setup) its storage slice.
type Entry struct {
	Path       string
	IntmdShape []int
	BaseShape  []int
	Offset     int
	Size       int
}

// Axis is one node of the labeled axis tree: either the root, or a named
// sub-axis grouping further sub-axes and variable leaves.
type Axis struct {
	name       string
	path       string
	isRoot     bool
	children   map[string]*Axis
	leaves     map[string]*Entry
	order      []string // combined creation order of children+leaves at this level
	setupDone  bool
	entries    []*Entry // flattened, in storage order; valid on the root after Setup
	totalSize  int
}

// NewRoot creates an empty root axis.
func NewRoot() *Axis {
	return &Axis{isRoot: true, children: map[string]*Axis{}, leaves: map[string]*Entry{}}
}

// Path returns this axis's full dotted path from the root ("" for root).
func (a *Axis) Path() string { return a.path }

// Normalize converts the external `/`-separated serialization of a
// variable name to the in-memory `.`-separated path form (spec.md §6).
func Normalize(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

func splitPath(name string) []string {
	norm := Normalize(name)
	var segs []string
	for _, s := range strings.Split(norm, ".") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// FirstSegment returns the first path segment of a dotted/slashed
// variable name, the value the `is_state`/`is_force`/... predicates key
// on.
func FirstSegment(name string) string {
	segs := splitPath(name)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}

func IsState(name string) bool     { return FirstSegment(name) == "state" }
func IsOldState(name string) bool  { return FirstSegment(name) == "old_state" }
func IsForce(name string) bool     { return FirstSegment(name) == "forces" }
func IsOldForce(name string) bool  { return FirstSegment(name) == "old_forces" }
func IsResidual(name string) bool  { return FirstSegment(name) == "residual" }
func IsParameter(name string) bool { return FirstSegment(name) == "parameters" }

// SubAxis returns the named direct child of a, creating it if this is
// its first mention. On the root, name must be a RecognizedSubAxes
// entry.
func (a *Axis) SubAxis(name string) (*Axis, error) {
	if a.setupDone {
		return nil, fmt.Errorf("%w: axis %q already set up", ErrSetup, a.path)
	}
	if a.isRoot && !RecognizedSubAxes[name] {
		return nil, fmt.Errorf("%w: %q is not a recognized sub-axis", ErrSetup, name)
	}
	if c, ok := a.children[name]; ok {
		return c, nil
	}
	if _, ok := a.leaves[name]; ok {
		return nil, fmt.Errorf("%w: %q is already declared as a variable", ErrSetup, joinPath(a.path, name))
	}
	child := &Axis{
		name:     name,
		path:     joinPath(a.path, name),
		children: map[string]*Axis{},
		leaves:   map[string]*Entry{},
	}
	a.children[name] = child
	a.order = append(a.order, name)
	return child, nil
}

// Declare registers a variable leaf at name (a path relative to a),
// creating intermediate sub-axes along the way. name's first segment
// must be a recognized sub-axis when a is the root.
func (a *Axis) Declare(name string, intmdShape, baseShape []int) (*Entry, error) {
	segs := splitPath(name)
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: empty variable name", ErrSetup)
	}
	cur := a
	for _, seg := range segs[:len(segs)-1] {
		var err error
		cur, err = cur.SubAxis(seg)
		if err != nil {
			return nil, err
		}
	}
	if cur.setupDone {
		return nil, fmt.Errorf("%w: axis %q already set up", ErrSetup, cur.path)
	}
	leaf := segs[len(segs)-1]
	if _, ok := cur.children[leaf]; ok {
		return nil, fmt.Errorf("%w: %q is already declared as a sub-axis", ErrSetup, joinPath(cur.path, leaf))
	}
	if _, ok := cur.leaves[leaf]; ok {
		return nil, fmt.Errorf("%w: duplicate declaration of %q", ErrSetup, joinPath(cur.path, leaf))
	}
	e := &Entry{
		Path:       joinPath(cur.path, leaf),
		IntmdShape: append([]int(nil), intmdShape...),
		BaseShape:  append([]int(nil), baseShape...),
		Size:       product(intmdShape) * product(baseShape),
	}
	cur.leaves[leaf] = e
	cur.order = append(cur.order, leaf)
	return e, nil
}

// Setup freezes the tree (it must be called on the root) and assigns
// storage offsets to every declared variable, in the order they were
// declared, depth-first. Returns the flattened entry list and is
// idempotent only in the sense that calling it twice is a SetupError —
// the tree becomes immutable after the first call.
func (a *Axis) Setup() ([]*Entry, error) {
	if !a.isRoot {
		return nil, fmt.Errorf("%w: Setup must be called on the root axis", ErrSetup)
	}
	if a.setupDone {
		return nil, fmt.Errorf("%w: axis already set up", ErrSetup)
	}
	var entries []*Entry
	offset := 0
	var walk func(ax *Axis)
	walk = func(ax *Axis) {
		ax.setupDone = true
		for _, name := range ax.order {
			if e, ok := ax.leaves[name]; ok {
				e.Offset = offset
				offset += e.Size
				entries = append(entries, e)
				continue
			}
			walk(ax.children[name])
		}
	}
	walk(a)
	a.entries = entries
	a.totalSize = offset
	return entries, nil
}

// Entries returns the flattened, storage-ordered variable list computed
// by Setup. Panics if called before Setup, since no caller should be
// reading layout from a tree that hasn't been frozen yet.
func (a *Axis) Entries() []*Entry {
	if !a.isRoot {
		panic("axis: Entries must be called on the root axis")
	}
	if !a.setupDone {
		panic("axis: Entries called before Setup")
	}
	return a.entries
}

// TotalSize returns the total flattened storage size of the tree.
func (a *Axis) TotalSize() int {
	if !a.isRoot {
		panic("axis: TotalSize must be called on the root axis")
	}
	return a.totalSize
}

// Lookup resolves a dotted/slashed variable name to its Entry.
func (a *Axis) Lookup(name string) (*Entry, bool) {
	segs := splitPath(name)
	cur := a
	for i, seg := range segs {
		last := i == len(segs)-1
		if last {
			if e, ok := cur.leaves[seg]; ok {
				return e, true
			}
			return nil, false
		}
		child, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = child
	}
	return nil, false
}

func product(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}
