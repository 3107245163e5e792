package model

import (
	"fmt"

	"github.com/itohio/cmat/pkg/parameter"
	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// ForwardFunc is the model-specific set_value(out, dout, d2out) contract
// of spec §4.1: write output variables (if wantValue), analytically
// computed first derivatives (if wantDeriv) and second derivatives (if
// wantSecondDeriv) into m's VariableStore. Simplification relative to
// the general spec: the three flags gate the whole model rather than a
// per-(y,x) mask — a model that can cheaply produce its value can always
// be asked for derivatives too, so a coarser, model-wide gate covers the
// worked models (spec §8's scalar and linear-isotropic-elasticity
// examples) without the bookkeeping of a per-pair request set on every
// call; see DESIGN.md.
type ForwardFunc func(m *Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecondDeriv bool) error

// Flags records what a model is capable of producing, set at
// construction (spec §3's defines_value/defines_derivatives/
// defines_second_derivatives).
type Flags struct {
	DefinesValue             bool
	DefinesDerivatives       bool
	DefinesSecondDerivatives bool
}

// adPair is an automatic-differentiation request: derivative of Y with
// respect to X (spec §4.4).
type adPair struct{ Y, X string }

// submodelLink is one registered sub-model (spec §4.3).
type submodelLink struct {
	name       string
	model      *Model
	mergeInput bool
}

// Model is one node of the constitutive-model graph: it owns a
// VariableStore, shares a ParameterStore with its host, and may own
// further sub-models.
type Model struct {
	Name  string
	Flags Flags

	Vars   *variable.Store
	Params *parameter.Store

	host       *Model // nil iff this Model is the host
	submodels  []*submodelLink
	inputs     []string
	outputs    []string
	adRequests map[adPair]bool
	ad2        map[[2]string]map[string]bool // {Y,X1} -> set of requested X2

	jit       *TraceCache
	forwardFn ForwardFunc

	setupDone bool
}

// NewHost creates a top-level Model: it owns the ParameterStore every
// sub-model's declarations are delegated into.
func NewHost(name string) *Model {
	return &Model{
		Name:       name,
		Vars:       variable.NewStore(),
		Params:     parameter.NewStore(),
		adRequests: map[adPair]bool{},
		ad2:        map[[2]string]map[string]bool{},
		jit:        NewTraceCache(),
	}
}

// NewSubmodel creates a Model that delegates parameter declarations to
// host's ParameterStore (spec §3: "all sub-models delegate parameter
// declarations upward to the host").
func NewSubmodel(name string, host *Model) *Model {
	return &Model{
		Name:       name,
		Vars:       variable.NewStore(),
		Params:     host.Params,
		host:       host,
		adRequests: map[adPair]bool{},
		ad2:        map[[2]string]map[string]bool{},
		jit:        NewTraceCache(),
	}
}

// SetForward installs the model-specific set_value implementation.
func (m *Model) SetForward(fn ForwardFunc) { m.forwardFn = fn }

// Close releases m's JIT trace cache (the gorgonia.VM each cached schema
// holds for replay). Safe to call once m is done being evaluated; m must
// not be evaluated again afterward.
func (m *Model) Close() {
	if m.jit != nil {
		m.jit.Close()
	}
}

// DeclareVariable declares a variable on m's axis tree without marking
// it as input or output (e.g. an internal working variable).
func (m *Model) DeclareVariable(name string, intmdShape, baseShape []int) (*variable.Variable, error) {
	if m.setupDone {
		return nil, fmt.Errorf("%w: %q: cannot declare variables after Setup", ErrSetup, m.Name)
	}
	return m.Vars.Declare(name, intmdShape, baseShape)
}

// DeclareInput declares an input variable.
func (m *Model) DeclareInput(name string, intmdShape, baseShape []int) (*variable.Variable, error) {
	v, err := m.DeclareVariable(name, intmdShape, baseShape)
	if err != nil {
		return nil, err
	}
	m.inputs = append(m.inputs, v.Name)
	return v, nil
}

// DeclareOutput declares an output variable.
func (m *Model) DeclareOutput(name string, intmdShape, baseShape []int) (*variable.Variable, error) {
	v, err := m.DeclareVariable(name, intmdShape, baseShape)
	if err != nil {
		return nil, err
	}
	m.outputs = append(m.outputs, v.Name)
	return v, nil
}

// Inputs/Outputs return the declared input/output variable names, in
// declaration order.
func (m *Model) Inputs() []string  { return append([]string(nil), m.inputs...) }
func (m *Model) Outputs() []string { return append([]string(nil), m.outputs...) }

// DeclareParameter declares a literal parameter, delegated to the host's
// ParameterStore and keyed by m's path (spec §3: "all sub-models
// delegate parameter declarations upward to the host, keyed by the
// sub-model path").
func (m *Model) DeclareParameter(name string, intmdShape, baseShape []int, value tensor.Tensor) (*parameter.Parameter, error) {
	return m.Params.DeclareLiteral(m.Name, name, intmdShape, baseShape, value)
}

// DeclareBuffer declares a literal, non-differentiable buffer, delegated
// the same way as DeclareParameter.
func (m *Model) DeclareBuffer(name string, intmdShape, baseShape []int, value tensor.Tensor) (*parameter.Parameter, error) {
	return m.Params.DeclareBuffer(m.Name, name, intmdShape, baseShape, value)
}

// DeclareNonlinearParameter declares a parameter bound, once Resolve
// runs, to producerModel's producerOutput output variable, and injects
// the consuming input variable on m's "parameters.<name>" axis.
func (m *Model) DeclareNonlinearParameter(name, producerModel, producerOutput string) (*variable.Variable, error) {
	p, err := m.Params.DeclareNonlinear(m.Name, name, producerModel, producerOutput)
	if err != nil {
		return nil, err
	}
	return p.InjectInputVariable(m.Vars)
}

// RequestDerivative marks (y,x) as AD-computed rather than hand-written
// (spec §4.4); y and x must already be declared output/input variables.
func (m *Model) RequestDerivative(y, x string) {
	m.adRequests[adPair{Y: y, X: x}] = true
}

// RequestSecondDerivative marks (y,x1,x2) as AD-computed; only honored
// if (y,x1) is also a requested first derivative, per spec
// §4.1 step 4.
func (m *Model) RequestSecondDerivative(y, x1, x2 string) {
	row, ok := m.ad2[[2]string{y, x1}]
	if !ok {
		row = map[string]bool{}
		m.ad2[[2]string{y, x1}] = row
	}
	row[x2] = true
}

// RegisterSubmodel adds child as a dependency of m. mergeInput follows
// spec §4.3: every input of child not already on m's axis is cloned
// onto m during Setup.
func (m *Model) RegisterSubmodel(name string, child *Model, mergeInput bool) error {
	if child == m {
		return fmt.Errorf("%w: %q cannot register itself as a sub-model", ErrSetup, m.Name)
	}
	for _, s := range m.submodels {
		if s.name == name {
			return fmt.Errorf("%w: sub-model %q already registered on %q", ErrSetup, name, m.Name)
		}
	}
	m.submodels = append(m.submodels, &submodelLink{name: name, model: child, mergeInput: mergeInput})
	return nil
}

// Submodel returns the registered sub-model by name.
func (m *Model) Submodel(name string) (*Model, bool) {
	for _, s := range m.submodels {
		if s.name == name {
			return s.model, true
		}
	}
	return nil, false
}

// ResolveOutput implements parameter.Resolver: it looks up modelName
// among m's registered sub-models (recursively) and returns its
// outputName output variable, for nonlinear-parameter binding (spec §3
// C6).
func (m *Model) ResolveOutput(modelName, outputName string) (*variable.Variable, error) {
	target := m
	if modelName != "" && modelName != m.Name {
		sub, ok := m.findSubmodel(modelName)
		if !ok {
			return nil, fmt.Errorf("%w: no sub-model named %q visible from %q", ErrSetup, modelName, m.Name)
		}
		target = sub
	}
	v, ok := target.Vars.Get(outputName)
	if !ok {
		return nil, fmt.Errorf("%w: model %q has no output variable %q", ErrSetup, target.Name, outputName)
	}
	return v, nil
}

func (m *Model) findSubmodel(name string) (*Model, bool) {
	for _, s := range m.submodels {
		if s.name == name {
			return s.model, true
		}
		if found, ok := s.model.findSubmodel(name); ok {
			return found, true
		}
	}
	return nil, false
}
