// Package parameter implements the ParameterStore of spec.md §3 (C6):
// named tensor-valued parameters and buffers living on a host Model, with
// cross-reference resolution of nonlinear parameters into the output
// variable of another Model instance.
//
// Grounded on the teacher's pkg/core/math/nn/types.Parameter
// (Data/Grad/RequiresGrad, lazy allocation) generalized from a single
// per-layer weight/bias slot to a path-keyed store shared by every
// sub-model, plus the literal-vs-bound-variable split already used by
// pkg/variable's reference/Ultimate mechanism.
package parameter

import (
	"fmt"
	"strings"

	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// Kind distinguishes the three storage disciplines a named slot on the
// host may have.
type Kind uint8

const (
	// KindParameter is a literal, option-loaded tensor value.
	KindParameter Kind = iota
	// KindBuffer is a literal, non-differentiable auxiliary tensor (e.g.
	// a fixed quadrature weight table) carried alongside parameters but
	// never exposed to AD.
	KindBuffer
	// KindNonlinear is bound to another Model's output variable,
	// resolved by name at Setup (spec §3's "nonlinear parameter").
	KindNonlinear
)

// Parameter is one named slot on the host's ParameterStore.
type Parameter struct {
	Path       string
	Kind       Kind
	IntmdShape []int
	BaseShape  []int

	literal tensor.Tensor

	// Nonlinear binding: declared as (modelName, outputName) and
	// resolved later to the producer's output Variable via Bind.
	modelName  string
	outputName string
	source     *variable.Variable

	// consumer is the input variable injected on the consuming model's
	// "parameters.<path>" axis (spec §3); wired to source once resolved.
	consumer *variable.Variable
}

// IsNonlinear reports whether p is bound to another model's output.
func (p *Parameter) IsNonlinear() bool { return p.Kind == KindNonlinear }

// IsResolved reports whether a nonlinear parameter's binding has been
// completed. Literal parameters and buffers are always resolved.
func (p *Parameter) IsResolved() bool { return p.Kind != KindNonlinear || p.source != nil }

// Get returns the parameter's current value, following a nonlinear
// binding to its producer if one is set.
func (p *Parameter) Get() tensor.Tensor {
	if p.source != nil {
		return p.source.Get()
	}
	return p.literal
}

// Set assigns the parameter's value. Setting a resolved nonlinear
// parameter writes through to its producer, mirroring
// Variable.Set's alias-forwarding behavior.
func (p *Parameter) Set(t tensor.Tensor) {
	if p.source != nil {
		p.source.Set(t)
		return
	}
	p.literal = t
}

// Bind resolves a nonlinear parameter to its producer's output variable.
// If an input variable was already injected via InjectInputVariable, it
// is aliased to v so subsequent reads/writes forward automatically.
func (p *Parameter) Bind(v *variable.Variable) error {
	if p.Kind != KindNonlinear {
		return fmt.Errorf("%w: parameter %q is not nonlinear", ErrSetup, p.Path)
	}
	if p.source != nil {
		return fmt.Errorf("%w: parameter %q already bound", ErrSetup, p.Path)
	}
	p.source = v
	if p.consumer != nil {
		return p.consumer.SetReference(v)
	}
	return nil
}

// InjectInputVariable declares the consuming model's input variable at
// "parameters.<path>" (spec §3: "declaring a nonlinear parameter
// additionally injects an input variable on the consuming model's
// parameters.<name> path"). It must be called before or after Bind; the
// alias is wired as soon as both halves exist.
func (p *Parameter) InjectInputVariable(vs *variable.Store) (*variable.Variable, error) {
	if p.Kind != KindNonlinear {
		return nil, fmt.Errorf("%w: parameter %q is not nonlinear", ErrSetup, p.Path)
	}
	v, err := vs.Declare("parameters."+p.Path, p.IntmdShape, p.BaseShape)
	if err != nil {
		return nil, err
	}
	p.consumer = v
	if p.source != nil {
		if err := v.SetReference(p.source); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func normalize(path string) string { return strings.ReplaceAll(path, "/", ".") }

func joinPath(subModelPath, name string) string {
	if subModelPath == "" {
		return normalize(name)
	}
	return normalize(subModelPath + "." + name)
}

// Store is the host Model's flat, path-keyed table of parameters and
// buffers. Sub-models never own their own Store: declarations are always
// delegated upward, keyed by the declaring sub-model's path (spec §3).
type Store struct {
	params map[string]*Parameter
	order  []string
}

// NewStore creates an empty host parameter store.
func NewStore() *Store {
	return &Store{params: map[string]*Parameter{}}
}

func (s *Store) declare(subModelPath, name string, p *Parameter) (*Parameter, error) {
	path := joinPath(subModelPath, name)
	if _, exists := s.params[path]; exists {
		return nil, fmt.Errorf("%w: parameter %q already declared", ErrSetup, path)
	}
	p.Path = path
	s.params[path] = p
	s.order = append(s.order, path)
	return p, nil
}

// DeclareLiteral registers a literal, option-loaded parameter at
// subModelPath.name with the given value.
func (s *Store) DeclareLiteral(subModelPath, name string, intmdShape, baseShape []int, value tensor.Tensor) (*Parameter, error) {
	return s.declare(subModelPath, name, &Parameter{
		Kind:       KindParameter,
		IntmdShape: append([]int(nil), intmdShape...),
		BaseShape:  append([]int(nil), baseShape...),
		literal:    value,
	})
}

// DeclareBuffer registers a literal, non-differentiable buffer at
// subModelPath.name.
func (s *Store) DeclareBuffer(subModelPath, name string, intmdShape, baseShape []int, value tensor.Tensor) (*Parameter, error) {
	return s.declare(subModelPath, name, &Parameter{
		Kind:       KindBuffer,
		IntmdShape: append([]int(nil), intmdShape...),
		BaseShape:  append([]int(nil), baseShape...),
		literal:    value,
	})
}

// DeclareNonlinear registers a parameter at subModelPath.name bound, once
// Resolve runs, to modelName's outputName output variable.
func (s *Store) DeclareNonlinear(subModelPath, name, modelName, outputName string) (*Parameter, error) {
	if modelName == "" || outputName == "" {
		return nil, fmt.Errorf("%w: nonlinear parameter %q needs both a model and output name", ErrSetup, joinPath(subModelPath, name))
	}
	return s.declare(subModelPath, name, &Parameter{
		Kind:       KindNonlinear,
		modelName:  modelName,
		outputName: outputName,
	})
}

// Get resolves a parameter by its normalized path.
func (s *Store) Get(path string) (*Parameter, bool) {
	p, ok := s.params[normalize(path)]
	return p, ok
}

// Names returns every declared parameter's path, in declaration order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Each calls fn for every declared parameter, in declaration order.
func (s *Store) Each(fn func(p *Parameter)) {
	for _, path := range s.order {
		fn(s.params[path])
	}
}

// Resolver looks up the producer output variable for a nonlinear
// parameter, by the model and output-variable names it was declared
// with. A host Model registry implements this.
type Resolver interface {
	ResolveOutput(modelName, outputName string) (*variable.Variable, error)
}

// Resolve binds every not-yet-resolved nonlinear parameter through r.
// Per spec §5's error-recovery policy, a literal parameter never falls
// back to nonlinear resolution or vice versa — fallback belongs to the
// caller's model-construction options, not to the store; a declared
// nonlinear parameter that fails to resolve here is a hard setup error.
func (s *Store) Resolve(r Resolver) error {
	for _, path := range s.order {
		p := s.params[path]
		if p.Kind != KindNonlinear || p.source != nil {
			continue
		}
		v, err := r.ResolveOutput(p.modelName, p.outputName)
		if err != nil {
			return fmt.Errorf("%w: resolving nonlinear parameter %q: %v", ErrSetup, path, err)
		}
		if err := p.Bind(v); err != nil {
			return err
		}
	}
	return nil
}
