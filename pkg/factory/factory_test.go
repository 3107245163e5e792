package factory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/model"
	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

// offsetForward implements y = x + offset, the same scalar shape as
// spec §8 example 1, parameterized by a Config option so LoadInput's
// cli overrides have something observable to change.
func offsetForward(offset float64) model.ForwardFunc {
	return func(m *model.Model, ctx variable.EvalContext, wantValue, wantDeriv, wantSecond bool) error {
		x, _ := m.Vars.Get("forces.x")
		y, _ := m.Vars.Get("state.y")
		if wantValue {
			sum, err := x.Get().Add(tensor.Scalar(offset))
			if err != nil {
				return err
			}
			y.Set(sum)
		}
		if wantDeriv {
			if err := y.Derivative(x).Assign(tensor.Scalar(1)); err != nil {
				return err
			}
		}
		return nil
	}
}

func init() {
	Register("test_offset", func(host *model.Model, name string, cfg Config) (*model.Model, error) {
		offset, err := cfg.Float64("offset", 0)
		if err != nil {
			return nil, err
		}
		m := model.NewSubmodel(name, host)
		if _, err := m.DeclareInput("forces.x", nil, nil); err != nil {
			return nil, err
		}
		if _, err := m.DeclareOutput("state.y", nil, nil); err != nil {
			return nil, err
		}
		m.SetForward(offsetForward(offset))
		return m, nil
	})
}

func writeInput(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadInputBuildsRegisteredModel(t *testing.T) {
	path := writeInput(t, `
models:
  offsetter:
    type: test_offset
    options:
      offset: 0.6
`)
	f, err := LoadInput(path)
	require.NoError(t, err)

	m, err := f.GetModel("offsetter")
	require.NoError(t, err)

	vals, err := m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(5)})
	require.NoError(t, err)
	assert.Equal(t, 5.6, vals["state.y"].At())
}

func TestGetModelMemoizesByName(t *testing.T) {
	path := writeInput(t, `
models:
  offsetter:
    type: test_offset
    options:
      offset: 1
`)
	f, err := LoadInput(path)
	require.NoError(t, err)

	m1, err := f.GetModel("offsetter")
	require.NoError(t, err)
	m2, err := f.GetModel("offsetter")
	require.NoError(t, err)
	assert.Same(t, m1, m2)
}

func TestLoadInputRejectsUnknownType(t *testing.T) {
	path := writeInput(t, `
models:
  mystery:
    type: nope_not_registered
`)
	f, err := LoadInput(path)
	require.NoError(t, err)

	_, err = f.GetModel("mystery")
	require.ErrorIs(t, err, ErrType)
}

func TestLoadInputRejectsUnknownName(t *testing.T) {
	path := writeInput(t, `
models:
  offsetter:
    type: test_offset
`)
	f, err := LoadInput(path)
	require.NoError(t, err)

	_, err = f.GetModel("does_not_exist")
	require.ErrorIs(t, err, ErrType)
}

func TestCliArgsOverrideOption(t *testing.T) {
	path := writeInput(t, `
models:
  offsetter:
    type: test_offset
    options:
      offset: 0.6
`)
	f, err := LoadInput(path, "offsetter.offset=10")
	require.NoError(t, err)

	m, err := f.GetModel("offsetter")
	require.NoError(t, err)
	vals, err := m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(5)})
	require.NoError(t, err)
	assert.Equal(t, 15.0, vals["state.y"].At())
}

func TestLoadModelConvenience(t *testing.T) {
	path := writeInput(t, `
models:
  offsetter:
    type: test_offset
    options:
      offset: 2
`)
	m, err := LoadModel(path, "offsetter")
	require.NoError(t, err)
	vals, err := m.Value(map[string]tensor.Tensor{"forces.x": tensor.Scalar(1)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, vals["state.y"].At())
}

func TestSubmodelWiring(t *testing.T) {
	path := writeInput(t, `
models:
  inner:
    type: test_offset
    options:
      offset: 1
  outer:
    type: test_offset
    submodels: [inner]
    options:
      offset: 2
`)
	f, err := LoadInput(path)
	require.NoError(t, err)

	outer, err := f.GetModel("outer")
	require.NoError(t, err)
	inner, ok := outer.Submodel("inner")
	require.True(t, ok)
	assert.Equal(t, "inner", inner.Name)
}
