package factory

import (
	"fmt"
	"sync"

	"github.com/itohio/cmat/pkg/model"
)

// Constructor builds one named model.Model under host (for shared
// parameter-store delegation, spec §3/C6), configured from cfg. It must
// declare the returned model's inputs/outputs/parameters and call SetForward, but must
// not call Setup — the Factory does that once every submodel reference
// has been wired on via RegisterSubmodel.
type Constructor func(host *model.Model, name string, cfg Config) (*model.Model, error)

var (
	muConstructors sync.RWMutex
	constructors   = make(map[string]Constructor)
)

// Register adds a named model constructor, called from a model
// package's init() (compare register_json.go's init() calling
// registerMarshaller). Re-registering an existing name replaces it,
// matching the teacher's registry (last init() wins).
func Register(typeName string, ctor Constructor) {
	muConstructors.Lock()
	defer muConstructors.Unlock()
	constructors[typeName] = ctor
}

// newModel constructs a model of typeName, or ErrType if nothing
// registered that name.
func newModel(typeName string, host *model.Model, name string, cfg Config) (*model.Model, error) {
	muConstructors.RLock()
	ctor, ok := constructors[typeName]
	muConstructors.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: model type %q not registered", ErrType, typeName)
	}
	return ctor(host, name, cfg)
}

// RegisteredTypes returns the names of every currently registered model
// type, for diagnostics.
func RegisteredTypes() []string {
	muConstructors.RLock()
	defer muConstructors.RUnlock()
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	return names
}
