package factory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/model"
)

const bundledInput = `
models:
  offsetter:
    type: test_offset
    options:
      offset: 0.6
`

func TestBundleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := BundleHeader{Name: "offsetter-archive", Description: "a bundled offset model"}
	require.NoError(t, Bundle(&buf, header, bundledInput))

	gotHeader, gotText, err := Unbundle(&buf)
	require.NoError(t, err)
	assert.Equal(t, BundleSchema, gotHeader.Schema)
	assert.Equal(t, "offsetter-archive", gotHeader.Name)
	assert.Equal(t, "a bundled offset model", gotHeader.Description)
	assert.Equal(t, bundledInput, gotText)
}

func TestBundleRequiresName(t *testing.T) {
	var buf bytes.Buffer
	err := Bundle(&buf, BundleHeader{}, bundledInput)
	require.ErrorIs(t, err, model.ErrIO)
}

func TestLoadBundleBuildsModelFromArchivedInput(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/model.bundle"
	require.NoError(t, BundleFile(path, BundleHeader{Name: "offsetter-archive"}, bundledInput))

	f, err := LoadBundle(path)
	require.NoError(t, err)
	m, err := f.GetModel("offsetter")
	require.NoError(t, err)
	assert.Equal(t, "offsetter", m.Name)
}
