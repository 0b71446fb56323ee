package env

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	t.Setenv("HITASSERT_HOST", "localhost:8080")

	r := NewResolver()
	r.SetVariables(map[string]any{"firstName": "John", "lastName": "Doe", "port": 8080})
	r.SetCapture("lotto", "lottoId", 5)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text", "hello", "hello"},
		{"variable", "{{firstName}}", "John"},
		{"spaces inside braces", "{{ firstName }}", "John"},
		{"several", "Greetings {{firstName}} {{lastName}}", "Greetings John Doe"},
		{"number", ":{{port}}", ":8080"},
		{"capture short name", "/lotto/{{lottoId}}", "/lotto/5"},
		{"capture qualified name", "/lotto/{{lotto.lottoId}}", "/lotto/5"},
		{"environment", "http://{{$HITASSERT_HOST}}", "http://localhost:8080"},
		{"function", "{{base64(ab)}}", "YWI="},
		{"unresolved kept", "{{missing}}", "{{missing}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.input))
		})
	}
}

func TestResolverResolveValue(t *testing.T) {
	r := NewResolver()
	r.SetCapture("lotto", "lottoId", float64(5))
	r.SetVariable("name", "John")

	assert.Equal(t, float64(5), r.ResolveValue("{{lottoId}}"), "a whole-template string keeps the value type")
	assert.Equal(t, "id=5", r.ResolveValue("id={{lottoId}}"))
	assert.Equal(t, 7, r.ResolveValue(7))

	got := r.ResolveValue(map[string]any{
		"equals": "{{name}}",
		"anyOf":  []any{"{{lottoId}}", 1},
	})
	assert.Equal(t, map[string]any{
		"equals": "John",
		"anyOf":  []any{float64(5), 1},
	}, got)
}

func TestResolverUnresolved(t *testing.T) {
	r := NewResolver()
	r.SetVariable("foo", "bar")

	assert.Empty(t, r.Unresolved("{{foo}} and {{uuid()}}"))
	assert.Equal(t, []string{"bar", "nope()"}, r.Unresolved("{{foo}} {{bar}} {{nope()}}"))
}

func TestResolverLogsUnresolved(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := NewResolver()
	r.SetLogger(logger)

	r.Resolve("{{missing}}")
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "missing", hook.LastEntry().Data["template"])
}

func TestResolverClone(t *testing.T) {
	r := NewResolver()
	r.SetVariable("a", 1)

	c := r.Clone()
	c.SetVariable("a", 2)
	c.SetCapture("req", "b", 3)

	v, _ := r.GetVariable("a")
	assert.Equal(t, 1, v)
	assert.False(t, r.HasVariable("b"))
	assert.True(t, c.HasVariable("req.b"))
}

func TestResolverConcurrentAccess(t *testing.T) {
	r := NewResolver()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r.SetLogger(logger)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.SetCapture("req", "id", i)
			_ = r.Resolve("{{id}} {{req.id}} {{uuid()}}")
		}(i)
	}
	wg.Wait()
	assert.True(t, r.HasVariable("id"))
}

func TestMergeVariables(t *testing.T) {
	got := MergeVariables(map[string]any{"a": 1, "b": 1}, map[string]any{"b": 2})
	assert.Equal(t, map[string]any{"a": 1, "b": 2}, got)
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("HITASSERT_VAR_BASE", "http://x")
	vars := LoadSystemEnv("HITASSERT_VAR_")
	assert.Equal(t, "http://x", vars["BASE"])
}
