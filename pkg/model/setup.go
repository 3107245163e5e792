package model

import (
	"fmt"

	"github.com/itohio/cmat/pkg/graph"
)

// modelNode adapts *Model to graph.Node for sub-model cycle detection.
type modelNode struct{ m *Model }

func (n modelNode) Equal(other graph.Node) bool {
	o, ok := other.(modelNode)
	return ok && o.m == n.m
}

// Setup implements spec §3's Model lifecycle step 2: recursively sets up
// every sub-model post-order, clones+aliases merge_input variables onto
// the parent (spec §4.3's link_input_variables), freezes the variable
// axis tree, and — on the host only, once every sub-model's outputs
// exist — resolves nonlinear parameters.
func (m *Model) Setup() error {
	if m.setupDone {
		return nil
	}

	if err := m.checkSubmodelCycle(); err != nil {
		return err
	}

	for _, s := range m.submodels {
		if err := s.model.Setup(); err != nil {
			return err
		}
		if s.mergeInput {
			if err := m.mergeSubmodelInputs(s.model); err != nil {
				return err
			}
		}
	}

	if err := m.Vars.Setup(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSetup, m.Name, err)
	}
	m.setupDone = true

	if m.host == nil {
		if err := m.Params.Resolve(m); err != nil {
			return err
		}
	}
	return nil
}

// checkSubmodelCycle builds the registration graph rooted at m and
// rejects a sub-model (transitively) registering one of its own
// ancestors.
func (m *Model) checkSubmodelCycle() error {
	g := graph.NewGenericGraph()
	visited := map[*Model]bool{}
	var walk func(*Model)
	walk = func(cur *Model) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		g.AddNode(modelNode{cur})
		for _, s := range cur.submodels {
			g.AddEdge(modelNode{cur}, modelNode{s.model})
			walk(s.model)
		}
	}
	walk(m)
	if graph.DetectCycle(g, modelNode{m}) {
		return fmt.Errorf("%w: %q has a cyclic sub-model registration", ErrSetup, m.Name)
	}
	return nil
}

// mergeSubmodelInputs clones child's input variables onto m if absent,
// then aliases child's copy to the parent's (spec §4.3).
func (m *Model) mergeSubmodelInputs(child *Model) error {
	for _, name := range child.Inputs() {
		childVar, _ := child.Vars.Get(name)
		parentVar, ok := m.Vars.Get(name)
		if !ok {
			var err error
			parentVar, err = m.DeclareInput(name, childVar.IntmdShape, childVar.BaseShape)
			if err != nil {
				return fmt.Errorf("%w: merging input %q from %q into %q: %v", ErrSetup, name, child.Name, m.Name, err)
			}
		}
		if err := childVar.SetReference(parentVar); err != nil {
			return fmt.Errorf("%w: aliasing %q.%s to %q: %v", ErrSetup, child.Name, name, m.Name, err)
		}
	}
	return nil
}

// Diagnose runs spec §3's optional construction-time checks: every
// declared input/output must resolve to a sub-axis recognized by
// pkg/axis, and every requested AD pair must name declared variables.
func (m *Model) Diagnose() error {
	for _, name := range append(append([]string(nil), m.inputs...), m.outputs...) {
		if _, ok := m.Vars.Get(name); !ok {
			return fmt.Errorf("%w: %q: declared variable %q missing from store", ErrSetup, m.Name, name)
		}
	}
	for pair := range m.adRequests {
		if _, ok := m.Vars.Get(pair.Y); !ok {
			return fmt.Errorf("%w: %q: AD request output %q not declared", ErrSetup, m.Name, pair.Y)
		}
		if _, ok := m.Vars.Get(pair.X); !ok {
			return fmt.Errorf("%w: %q: AD request input %q not declared", ErrSetup, m.Name, pair.X)
		}
	}
	return nil
}
