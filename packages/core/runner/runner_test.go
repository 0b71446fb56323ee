package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/parser"
	"github.com/abdul-hamid-achik/hitassert/packages/mock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	routes := append(mock.Fixtures(), &mock.Route{
		Name:   "lotto by id",
		Method: "GET",
		Path:   "/lotto/{id}",
		Status: 200,
		Body:   `{"lottoId":{{path.id}}}`,
	})
	srv := httptest.NewServer(mock.NewServer(routes, mock.WithLogger(logger)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func writeSuite(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestRunner(cfg *Config) *Runner {
	logger, _ := test.NewNullLogger()
	cfg.Logger = logger
	return NewRunner(cfg)
}

func run(t *testing.T, cfg *Config, suite string) *RunResult {
	t.Helper()
	result, err := newTestRunner(cfg).RunFile(context.Background(), writeSuite(t, suite))
	require.NoError(t, err)
	return result
}

func names(results []*RequestResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

const passingSuite = `
requests:
  - name: hello
    path: /hello
    expect:
      status: 200
      body:
        hello: Hello Scalatra
  - name: lotto
    path: /lotto
    tags: [lotto]
    expect:
      statusLine: {contains: 200 OK}
      headers:
        Content-Type: {startsWith: application/json}
        Content-Length: 160
      body:
        lotto.lottoId: 5
        lotto.winners.winnerId: {hasItems: [23, 54]}
  - name: greet
    path: /greet
    tags: [greet]
    params:
      firstName: John
      lastName: Doe
    expect:
      body:
        greeting: Greetings John Doe
`

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r.client)
		assert.NotNil(t, r.Resolver())
		assert.True(t, r.config.FollowRedirect)
	})

	t.Run("with custom config", func(t *testing.T) {
		r := NewRunner(&Config{Environment: "test", Parallel: true, Concurrency: 10, RateLimit: 50})
		assert.Equal(t, "test", r.config.Environment)
		assert.Equal(t, 10, r.config.Concurrency)
	})
}

func TestRunner_RunFile(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, passingSuite)

	assert.True(t, result.Success())
	assert.Equal(t, 3, result.Passed)
	assert.Equal(t, []string{"hello", "lotto", "greet"}, names(result.Results))
	for _, rr := range result.Results {
		assert.NotNil(t, rr.Response)
		for _, a := range rr.Assertions {
			assert.True(t, a.Passed, a.Subject)
		}
	}
	assert.Len(t, result.Results[1].Assertions, 5)
	assert.Equal(t, 3, result.Latency.Count)
	assert.LessOrEqual(t, result.Latency.Min, result.Latency.Max)
}

func TestRunner_BaseURLFromDotEnv(t *testing.T) {
	srv := fixtureServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("baseUrl="+srv.URL+"\n"), 0644))
	path := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
baseUrl: "{{baseUrl}}"
requests:
  - path: /hello
    expect:
      status: 200
`), 0644))

	result, err := newTestRunner(&Config{}).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, "request-1", result.Results[0].Name)
}

const failingSuite = `
requests:
  - name: lotto
    path: /lotto
    expect:
      status: 404
      headers:
        Content-Length: 160
      body:
        lotto.lottoId: 6
`

func TestRunner_FullReport(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, failingSuite)

	assert.False(t, result.Success())
	assert.Equal(t, 1, result.Failed)
	rr := result.Results[0]
	require.Len(t, rr.Assertions, 3)

	assert.False(t, rr.Assertions[0].Passed)
	assert.Equal(t, "Expected status code <404> doesn't match actual status code <200>.", rr.Assertions[0].Message)
	assert.True(t, rr.Assertions[1].Passed)
	assert.False(t, rr.Assertions[2].Passed)
	assert.Equal(t, "body lotto.lottoId", rr.Assertions[2].Subject)
	assert.Equal(t, "6", rr.Assertions[2].Expected)
	assert.Equal(t, "5", rr.Assertions[2].Actual)
}

func TestRunner_FailFast(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL, FailFast: true}, failingSuite)

	assert.Equal(t, 1, result.Failed)
	rr := result.Results[0]
	require.Len(t, rr.Assertions, 1)
	assert.Equal(t, "status", rr.Assertions[0].Subject)
	assert.Equal(t, "Expected status code <404> doesn't match actual status code <200>.", rr.Assertions[0].Message)
}

func TestRunner_UsageErrorIsErrored(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, `
requests:
  - name: hello
    path: /hello
    expect:
      body:
        hello: {gt: 3}
`)

	assert.Equal(t, 1, result.Errored)
	assert.Equal(t, 0, result.Failed)
	rr := result.Results[0]
	require.Error(t, rr.Error)
	assert.False(t, rr.IsTransportError())
}

func TestRunner_TransportError(t *testing.T) {
	result := run(t, &Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, `
requests:
  - path: /hello
    expect:
      status: 200
`)

	assert.Equal(t, 1, result.Errored)
	assert.True(t, result.Results[0].IsTransportError())
	assert.Nil(t, result.Results[0].Response)
	assert.Equal(t, 0, result.Latency.Count)
}

func TestRunner_NoExpectationsUsesSuccessStatus(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, `
requests:
  - name: ok
    path: /hello
  - name: missing
    path: /nope
`)

	assert.True(t, result.Results[0].Passed)
	assert.False(t, result.Results[1].Passed)
	assert.Equal(t, 1, result.Failed)
}

func TestRunner_Filters(t *testing.T) {
	srv := fixtureServer(t)

	t.Run("name", func(t *testing.T) {
		result := run(t, &Config{BaseURL: srv.URL, NameFilter: "hel*"}, passingSuite)
		assert.Equal(t, 1, result.Passed)
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("tags", func(t *testing.T) {
		result := run(t, &Config{BaseURL: srv.URL, TagsFilter: []string{"greet", "lotto"}}, passingSuite)
		assert.Equal(t, 2, result.Passed)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, "filtered out", result.Results[0].SkipReason)
	})

	t.Run("only and skip", func(t *testing.T) {
		result := run(t, &Config{BaseURL: srv.URL}, `
requests:
  - name: a
    path: /hello
    only: true
  - name: b
    path: /hello
    only: true
    skip: flaky
  - name: c
    path: /hello
`)
		assert.Equal(t, 1, result.Passed)
		assert.Equal(t, 2, result.Skipped)
		assert.Equal(t, []string{"a", "b", "c"}, names(result.Results), "results follow file order")
		assert.Equal(t, "flaky", result.Results[1].SkipReason)
		assert.Equal(t, "filtered out", result.Results[2].SkipReason)
	})
}

func TestRunner_DependenciesAndCaptures(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, `
requests:
  - name: byId
    path: /lotto/{{lottoId}}
    depends: lotto
    expect:
      body:
        lottoId: "{{lotto.lottoId}}"
  - name: lotto
    path: /lotto
    capture:
      lottoId: body lotto.lottoId
      winners: body lotto.winners.winnerId
      code: status
`)

	require.True(t, result.Success(), "%+v", result.Results)
	assert.Equal(t, []string{"lotto", "byId"}, names(result.Results))
	assert.Equal(t, map[string]any{
		"lottoId": float64(5),
		"winners": []any{float64(23), float64(54)},
		"code":    200,
	}, result.Results[0].Captures)
	assert.Contains(t, result.Results[1].Request.URL, "/lotto/5")
}

func TestRunner_FailedDependencySkips(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL}, `
requests:
  - name: lotto
    path: /lotto
    expect:
      status: 500
  - name: greet
    path: /greet
    depends: lotto
  - name: hello
    path: /hello
    depends: greet
`)

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, `dependency "lotto" failed`, result.Results[1].SkipReason)
	assert.Equal(t, `dependency "greet" failed`, result.Results[2].SkipReason)
}

func TestRunner_CircularDependency(t *testing.T) {
	_, err := newTestRunner(&Config{}).RunFile(context.Background(), writeSuite(t, `
requests:
  - name: a
    path: /a
    depends: b
  - name: b
    path: /b
    depends: a
`))
	assert.ErrorContains(t, err, "circular dependency")
}

func TestRunner_InvalidSuite(t *testing.T) {
	_, err := newTestRunner(&Config{}).RunFile(context.Background(), writeSuite(t, `
requests:
  - name: a
    path: /a
    depends: nowhere
`))
	assert.ErrorContains(t, err, "invalid suite")

	_, err = newTestRunner(&Config{}).RunFile(context.Background(), writeSuite(t, "requests: [{path: /a, bogus: 1}]"))
	assert.ErrorContains(t, err, "parsing file")
}

func TestRunner_Bail(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL, Bail: true}, `
requests:
  - name: first
    path: /hello
    expect:
      status: 201
  - name: second
    path: /hello
`)

	assert.Equal(t, []string{"first"}, names(result.Results))
	assert.Equal(t, 1, result.Failed)
}

func TestRunner_Parallel(t *testing.T) {
	srv := fixtureServer(t)

	result := run(t, &Config{BaseURL: srv.URL, Parallel: true, Concurrency: 2}, passingSuite)

	assert.Equal(t, 3, result.Passed)
	assert.Equal(t, []string{"hello", "lotto", "greet"}, names(result.Results))
	assert.Equal(t, 3, result.Latency.Count)
}

func TestRunner_CancelledContext(t *testing.T) {
	srv := fixtureServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestRunner(&Config{BaseURL: srv.URL}).RunFile(ctx, writeSuite(t, passingSuite))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, "cancelled", result.Results[0].SkipReason)
}

func TestRunner_VariablesOverrideSuite(t *testing.T) {
	srv := fixtureServer(t)
	file, err := parser.Parse(`
variables:
  first: Jane
requests:
  - path: /greet
    params:
      firstName: "{{first}}"
      lastName: Doe
    expect:
      body:
        greeting: Greetings John Doe
`, "inline.yaml")
	require.NoError(t, err)

	r := newTestRunner(&Config{BaseURL: srv.URL, Variables: map[string]any{"first": "John"}})
	result, err := r.RunSuite(context.Background(), file)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Passed)
}

func TestTopologicalSort_KeepsFileOrder(t *testing.T) {
	requests := []*parser.Request{
		{Name: "c", Metadata: &parser.RequestMetadata{Depends: []string{"a"}}},
		{Name: "b", Metadata: &parser.RequestMetadata{}},
		{Name: "a", Metadata: &parser.RequestMetadata{}},
		{Name: "d", Metadata: &parser.RequestMetadata{Depends: []string{"missing"}}},
	}

	sorted, err := newTestRunner(&Config{}).topologicalSort(requests)
	require.NoError(t, err)

	got := make([]string, len(sorted))
	for i, req := range sorted {
		got[i] = req.Name
	}
	assert.Equal(t, []string{"b", "a", "c", "d"}, got)
}

func TestMatchesPattern(t *testing.T) {
	assert.True(t, matchesPattern("get-user", "get-*"))
	assert.True(t, matchesPattern("get-user", "get-user"))
	assert.True(t, matchesPattern("anything", ""))
	assert.False(t, matchesPattern("post-user", "get-*"))
}

func TestLatencyRecorder(t *testing.T) {
	l := newLatencyRecorder()
	assert.Equal(t, LatencySummary{}, l.Summary())

	l.Record(0)
	l.Record(10 * time.Millisecond)
	l.Record(2 * time.Minute)

	s := l.Summary()
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, time.Microsecond, s.Min)
	assert.InDelta(t, float64(60*time.Second), float64(s.Max), float64(100*time.Millisecond))
	assert.InDelta(t, float64(10*time.Millisecond), float64(s.P50), float64(100*time.Microsecond))
}

func TestRunner_WaitFor(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := newTestRunner(&Config{})
	err := r.WaitFor(context.Background(), srv.URL, 200, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))

	err = r.WaitFor(context.Background(), srv.URL, 418, 50*time.Millisecond, 10*time.Millisecond)
	assert.ErrorContains(t, err, "expected 418")

	err = r.WaitFor(context.Background(), "http://127.0.0.1:1", 200, 50*time.Millisecond, 10*time.Millisecond)
	assert.ErrorContains(t, err, "not ready")
}
