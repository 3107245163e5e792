package axis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndSetup(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("state.internal.Ee", nil, []int{6})
	require.NoError(t, err)
	_, err = root.Declare("forces.temperature", nil, nil)
	require.NoError(t, err)
	_, err = root.Declare("state.bar", nil, nil)
	require.NoError(t, err)

	entries, err := root.Setup()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "state.internal.Ee", entries[0].Path)
	assert.Equal(t, 0, entries[0].Offset)
	assert.Equal(t, 6, entries[0].Size)
	assert.Equal(t, "state.bar", entries[1].Path)
	assert.Equal(t, 6, entries[1].Offset)
	assert.Equal(t, "forces.temperature", entries[2].Path)
	assert.Equal(t, 7, entries[2].Offset)
	assert.Equal(t, 8, root.TotalSize())
}

func TestDeclareRejectsUnrecognizedRootSegment(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("bogus.x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetup)
}

func TestDeclareAfterSetupFails(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("state.x", nil, nil)
	require.NoError(t, err)
	_, err = root.Setup()
	require.NoError(t, err)
	_, err = root.Declare("state.y", nil, nil)
	require.Error(t, err)
}

func TestDuplicateDeclarationFails(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("state.x", nil, nil)
	require.NoError(t, err)
	_, err = root.Declare("state.x", nil, nil)
	require.Error(t, err)
}

func TestLookupAndNormalize(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("state.internal.Ee", nil, []int{6})
	require.NoError(t, err)
	_, err = root.Setup()
	require.NoError(t, err)

	e, ok := root.Lookup("state/internal/Ee")
	require.True(t, ok)
	assert.Equal(t, "state.internal.Ee", e.Path)

	_, ok = root.Lookup("state.internal.missing")
	assert.False(t, ok)
}

func TestSubAxisPredicates(t *testing.T) {
	assert.True(t, IsState("state.internal.Ee"))
	assert.True(t, IsOldState("old_state.x"))
	assert.True(t, IsForce("forces.temperature"))
	assert.True(t, IsOldForce("old_forces.x"))
	assert.True(t, IsResidual("residual.r"))
	assert.True(t, IsParameter("parameters.E"))
	assert.False(t, IsState("forces.x"))
}

func TestVariableCannotBeBothLeafAndSubAxis(t *testing.T) {
	root := NewRoot()
	_, err := root.Declare("state.x", nil, nil)
	require.NoError(t, err)
	_, err = root.Declare("state.x.y", nil, nil)
	require.Error(t, err)
}
