package builtin

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_UUID(t *testing.T) {
	r := NewRegistry()
	v, err := r.Call("uuid()")
	require.NoError(t, err)

	_, err = uuid.Parse(v.(string))
	assert.NoError(t, err)
}

func TestRegistry_Random(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		v, err := r.Call("random(3, 5)")
		require.NoError(t, err)
		n := v.(int)
		assert.GreaterOrEqual(t, n, 3)
		assert.LessOrEqual(t, n, 5)
	}

	_, err := r.Call("random(5, 3)")
	assert.Error(t, err)

	_, err = r.Call("random(a, 3)")
	assert.Error(t, err)
}

func TestRegistry_Encoding(t *testing.T) {
	r := NewRegistry()

	v, err := r.Call(`base64("John Doe")`)
	require.NoError(t, err)
	assert.Equal(t, "Sm9obiBEb2U=", v)

	v, err = r.Call("base64Decode(Sm9obiBEb2U=)")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", v)

	v, err = r.Call("urlEncode('a b&c')")
	require.NoError(t, err)
	assert.Equal(t, "a+b%26c", v)
}

func TestRegistry_Env(t *testing.T) {
	t.Setenv("HITASSERT_TEST_VAR", "value")
	r := NewRegistry()

	v, err := r.Call("env(HITASSERT_TEST_VAR)")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	v, err = r.Call("env(HITASSERT_TEST_UNSET, fallback)")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestRegistry_Unknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call("nope()")
	assert.True(t, errors.Is(err, ErrUnknownFunction))

	_, err = r.Call("not a call")
	assert.Error(t, err)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("lottoId", func(args []string) (any, error) { return 5, nil })

	v, err := r.Call("lottoId()")
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Contains(t, r.Names(), "lottoId")
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
