package factory

import "fmt"

// Config is one declared model's "options" mapping, read by its
// Constructor. Kept as a plain map rather than a typed struct per model
// so the registry stays open to model types this package never names
// (spec's Non-goals: input-file grammar is minimal, not a schema per
// model type).
type Config map[string]interface{}

// Float64 returns key's value as a float64, or def if key is absent.
// YAML numeric scalars decode as int or float64 depending on literal
// form, so both are accepted.
func (c Config) Float64(key string, def float64) (float64, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: option %q: expected a number, got %T", ErrType, key, v)
	}
}

// String returns key's value as a string, or def if key is absent.
func (c Config) String(key, def string) (string, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: option %q: expected a string, got %T", ErrType, key, v)
	}
	return s, nil
}

// Floats returns key's value as a []float64, or nil if key is absent.
func (c Config) Floats(key string) ([]float64, error) {
	v, ok := c[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: option %q: expected a list, got %T", ErrType, key, v)
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		switch n := r.(type) {
		case float64:
			out[i] = n
		case int:
			out[i] = float64(n)
		default:
			return nil, fmt.Errorf("%w: option %q[%d]: expected a number, got %T", ErrType, key, i, r)
		}
	}
	return out, nil
}
