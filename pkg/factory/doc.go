// Package factory implements spec.md §6's external model-construction
// interfaces: LoadInput parses a hierarchical YAML input file into a
// set of named model declarations, Factory.GetModel builds (and
// memoizes) the model.Model for one declared name, and LoadModel is the
// load-then-get convenience. bundle.go additionally implements the
// optional archived-model format.
//
// The named-constructor lookup a declared model's "type" field resolves
// through is grounded directly on the teacher's marshaller format
// registry (github.com/itohio/EasyRobot/x/marshaller/serialize.go's
// registerMarshaller/NewMarshaller, called from
// pkg/core/marshaller/register_json.go's init() idiom): a mutex-guarded
// name-to-constructor map, registered by each model package's init(),
// looked up by name at construction time instead of a switch statement
// that would have to know about every model type in advance.
package factory
