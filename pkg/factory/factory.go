package factory

import (
	"fmt"
	"sync"

	"github.com/itohio/cmat/internal/logger"
	"github.com/itohio/cmat/pkg/model"
)

// Factory implements spec §6's load_input/get_model contract: it holds
// one parsed input file's model declarations and builds each declared
// model.Model lazily, memoized by name so a name requested from two
// different call sites (e.g. two submodel references) still resolves to
// the same *model.Model instance.
type Factory struct {
	host *model.Model

	specs map[string]modelSpec

	mu       sync.Mutex
	built    map[string]*model.Model
	building map[string]bool
}

// LoadInput parses path's hierarchical input file, applies any
// "model.option=value" cliArgs overrides, and returns a Factory ready
// to build the models it declares. No model is constructed yet — each
// is built on first GetModel(name) call.
func LoadInput(path string, cliArgs ...string) (*Factory, error) {
	specs, err := readInputFile(path, cliArgs)
	if err != nil {
		return nil, err
	}
	return newFactory(specs), nil
}

func newFactory(specs map[string]modelSpec) *Factory {
	return &Factory{
		host:     model.NewHost("factory"),
		specs:    specs,
		built:    map[string]*model.Model{},
		building: map[string]bool{},
	}
}

// GetModel returns the named model, constructing it (and, recursively,
// every submodel it references) on first request and returning the same
// instance on every later request for the same name.
func (f *Factory) GetModel(name string) (*model.Model, error) {
	f.mu.Lock()
	if m, ok := f.built[name]; ok {
		f.mu.Unlock()
		return m, nil
	}
	if f.building[name] {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: cyclic model reference involving %q", ErrType, name)
	}
	spec, ok := f.specs[name]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: no model named %q declared", ErrType, name)
	}
	f.building[name] = true
	f.mu.Unlock()

	m, err := f.build(name, spec)

	f.mu.Lock()
	delete(f.building, name)
	if err == nil {
		f.built[name] = m
	}
	f.mu.Unlock()

	return m, err
}

func (f *Factory) build(name string, spec modelSpec) (*model.Model, error) {
	m, err := newModel(spec.Type, f.host, name, Config(spec.Options))
	if err != nil {
		logger.Log.Error().Err(err).Str("model", name).Str("type", spec.Type).Msg("factory build failed")
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	for _, subName := range spec.Submodels {
		sub, err := f.GetModel(subName)
		if err != nil {
			return nil, fmt.Errorf("model %q: submodel %q: %w", name, subName, err)
		}
		if err := m.RegisterSubmodel(subName, sub, spec.MergeInput); err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
	}
	if err := m.Setup(); err != nil {
		logger.Log.Error().Err(err).Str("model", name).Msg("factory setup failed")
		return nil, fmt.Errorf("model %q: %w", name, err)
	}
	logger.Log.Debug().Str("model", name).Str("type", spec.Type).Msg("factory built model")
	return m, nil
}

// Names returns every model name this Factory's input file declared, in
// no particular order.
func (f *Factory) Names() []string {
	names := make([]string, 0, len(f.specs))
	for name := range f.specs {
		names = append(names, name)
	}
	return names
}

// LoadModel is the load_input(path)+get_model(name) convenience spec §6
// names directly.
func LoadModel(path, name string, cliArgs ...string) (*model.Model, error) {
	f, err := LoadInput(path, cliArgs...)
	if err != nil {
		return nil, err
	}
	return f.GetModel(name)
}
