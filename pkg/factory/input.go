package factory

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itohio/cmat/pkg/axis"
)

// modelSpec is one declared model's entry in an input file: its
// registered type, the other declared models it wires in as submodels,
// and its free-form options. Minimal per spec's Non-goals ("input-file
// grammar beyond the minimal YAML mapping needed to exercise §6").
type modelSpec struct {
	Type       string                 `yaml:"type"`
	Submodels  []string               `yaml:"submodels"`
	MergeInput bool                   `yaml:"merge_input"`
	Options    map[string]interface{} `yaml:"options"`
}

// inputFile is the top-level hierarchical text format: a named mapping
// of model declarations.
type inputFile struct {
	Models map[string]modelSpec `yaml:"models"`
}

// parseInput decodes raw YAML bytes; cli overrides are applied to the
// decoded specs afterwards, not to these bytes.
func parseInput(data []byte) (map[string]modelSpec, error) {
	var doc inputFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing input: %v", ErrType, err)
	}
	return doc.Models, nil
}

// applyCliArgs overlays "model.option=value" overrides onto an already-
// parsed spec set (spec §6's load_input(path, cli_args?)). Each
// override's path is normalized the same `/` or `.` separated way as a
// variable name (§4/C4), read as <model>.<option>[.<nested>...]=<value>;
// value is parsed as a float when possible, else kept as a string.
func applyCliArgs(specs map[string]modelSpec, cliArgs []string) error {
	for _, arg := range cliArgs {
		path, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return fmt.Errorf("%w: cli override %q: expected <path>=<value>", ErrType, arg)
		}
		segs := strings.Split(axis.Normalize(path), ".")
		if len(segs) < 2 {
			return fmt.Errorf("%w: cli override %q: path must be <model>.<option>", ErrType, arg)
		}
		modelName, optionPath := segs[0], segs[1:]
		spec, ok := specs[modelName]
		if !ok {
			return fmt.Errorf("%w: cli override %q: no model named %q declared", ErrType, arg, modelName)
		}
		if spec.Options == nil {
			spec.Options = map[string]interface{}{}
		}
		setNested(spec.Options, optionPath, parseScalar(raw))
		specs[modelName] = spec
	}
	return nil
}

func setNested(m map[string]interface{}, path []string, value interface{}) {
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}

func parseScalar(raw string) interface{} {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// readInputFile loads and cli-overrides one input file's model
// declarations from disk.
func readInputFile(path string, cliArgs []string) (map[string]modelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", ErrType, path, err)
	}
	specs, err := parseInput(data)
	if err != nil {
		return nil, err
	}
	if err := applyCliArgs(specs, cliArgs); err != nil {
		return nil, err
	}
	return specs, nil
}
