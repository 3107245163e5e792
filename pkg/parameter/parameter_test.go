package parameter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/cmat/pkg/tensor"
	"github.com/itohio/cmat/pkg/variable"
)

func TestDeclareLiteralAndGet(t *testing.T) {
	s := NewStore()
	p, err := s.DeclareLiteral("", "E", nil, nil, tensor.Scalar(210e9))
	require.NoError(t, err)
	assert.Equal(t, "E", p.Path)
	assert.False(t, p.IsNonlinear())
	assert.True(t, p.IsResolved())
	assert.Equal(t, 210e9, p.Get().At())

	got, ok := s.Get("E")
	require.True(t, ok)
	assert.Same(t, p, got)
	assert.Equal(t, []string{"E"}, s.Names())
}

func TestDeclareLiteralKeyedBySubModelPath(t *testing.T) {
	s := NewStore()
	_, err := s.DeclareLiteral("elastic", "E", nil, nil, tensor.Scalar(1))
	require.NoError(t, err)
	_, ok := s.Get("elastic.E")
	require.True(t, ok)
	_, ok = s.Get("elastic/E")
	require.True(t, ok)
}

func TestDuplicateDeclarationFails(t *testing.T) {
	s := NewStore()
	_, err := s.DeclareLiteral("", "E", nil, nil, tensor.Scalar(1))
	require.NoError(t, err)
	_, err = s.DeclareBuffer("", "E", nil, nil, tensor.Scalar(2))
	require.Error(t, err)
}

func TestDeclareBuffer(t *testing.T) {
	s := NewStore()
	p, err := s.DeclareBuffer("", "weights", []int{4}, nil, tensor.Scalar(1))
	require.NoError(t, err)
	assert.Equal(t, KindBuffer, p.Kind)
	assert.True(t, p.IsResolved())
}

func TestNonlinearRequiresBothNames(t *testing.T) {
	s := NewStore()
	_, err := s.DeclareNonlinear("", "g", "upstream", "")
	require.Error(t, err)
}

type stubResolver struct {
	v   *variable.Variable
	err error
}

func (r stubResolver) ResolveOutput(modelName, outputName string) (*variable.Variable, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.v, nil
}

func TestNonlinearResolveBindsAndForwards(t *testing.T) {
	s := NewStore()
	p, err := s.DeclareNonlinear("", "g", "gravity_model", "state.g")
	require.NoError(t, err)
	assert.True(t, p.IsNonlinear())
	assert.False(t, p.IsResolved())

	vs := variable.NewStore()
	consumer, err := p.InjectInputVariable(vs)
	require.NoError(t, err)

	producer := variable.New("state.g", nil, nil)
	producer.Set(tensor.Scalar(9.81))

	require.NoError(t, s.Resolve(stubResolver{v: producer}))
	assert.True(t, p.IsResolved())
	assert.Equal(t, 9.81, p.Get().At())
	assert.Equal(t, 9.81, consumer.Get().At())

	consumer.Set(tensor.Scalar(1.0))
	assert.Equal(t, 1.0, producer.Get().At())
}

func TestInjectInputVariableAfterBindIsWired(t *testing.T) {
	s := NewStore()
	p, err := s.DeclareNonlinear("", "g", "gravity_model", "state.g")
	require.NoError(t, err)

	producer := variable.New("state.g", nil, nil)
	producer.Set(tensor.Scalar(3))
	require.NoError(t, p.Bind(producer))

	vs := variable.NewStore()
	consumer, err := p.InjectInputVariable(vs)
	require.NoError(t, err)
	assert.Equal(t, 3.0, consumer.Get().At())
}

func TestResolveFailurePropagates(t *testing.T) {
	s := NewStore()
	_, err := s.DeclareNonlinear("", "g", "gravity_model", "state.g")
	require.NoError(t, err)

	err = s.Resolve(stubResolver{err: assert.AnError})
	require.Error(t, err)
}

func TestResolveSkipsLiteralsAndBuffers(t *testing.T) {
	s := NewStore()
	_, err := s.DeclareLiteral("", "E", nil, nil, tensor.Scalar(1))
	require.NoError(t, err)
	_, err = s.DeclareBuffer("", "w", nil, nil, tensor.Scalar(2))
	require.NoError(t, err)
	require.NoError(t, s.Resolve(stubResolver{}))
}
